package viewer

import (
	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/features/widget"
	"go-dashboards/pkg/layout"
	"go-dashboards/pkg/palette"
)

// Cell is a widget placed in a grid row.
type Cell struct {
	Widget widget.Widget   `json:"widget"`
	Width  int             `json:"width"`
	Scheme *palette.Scheme `json:"scheme,omitempty"`
}

type SectionLayout struct {
	ID    string   `json:"id"`
	Key   string   `json:"key"`
	Title string   `json:"title,omitempty"`
	Depth int      `json:"depth"`
	Rows  [][]Cell `json:"rows"`
}

// BuildLayout packs the active widgets of every section into grid rows and
// assigns chart widgets their color scheme.
func BuildLayout(st *dashboard.Structure) []SectionLayout {
	if st == nil {
		return nil
	}
	out := make([]SectionLayout, 0, len(st.Sections))
	for _, sec := range st.Sections {
		active := make([]widget.Widget, 0, len(sec.Widgets))
		for _, w := range sec.Widgets {
			if w.Active {
				active = append(active, w)
			}
		}

		placed := layout.Pack(active, layout.MaxWidth)
		rows := make([][]Cell, len(placed))
		for i, row := range placed {
			rows[i] = make([]Cell, len(row))
			for j, p := range row {
				cell := Cell{Widget: p.Item, Width: p.CalculatedWidth}
				if p.Item.WidgetType.IsChart() {
					scheme := palette.SelectScheme(p.Item.ID.Hex())
					cell.Scheme = &scheme
				}
				rows[i][j] = cell
			}
		}

		out = append(out, SectionLayout{
			ID:    sec.ID.Hex(),
			Key:   sec.Key,
			Title: sec.Title,
			Depth: sec.Depth,
			Rows:  rows,
		})
	}
	return out
}
