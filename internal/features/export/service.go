package export

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/features/query"
	"go-dashboards/internal/features/widget"
	"go-dashboards/pkg/filters"
	"go-dashboards/pkg/utils"

	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxSheetName = 31

type ExportService interface {
	// ExportDashboard renders the current data of every section as a workbook
	// with one sheet per section.
	ExportDashboard(ctx context.Context, key string, values filters.Values, user *utils.UserClaims, token string) ([]byte, string, error)
}

type ExportServiceImpl struct {
	Dashboards dashboard.DashboardService
	Queries    query.QueryService
}

func NewExportService(dashboards dashboard.DashboardService, queries query.QueryService) ExportService {
	return &ExportServiceImpl{Dashboards: dashboards, Queries: queries}
}

func (s *ExportServiceImpl) ExportDashboard(ctx context.Context, key string, values filters.Values, user *utils.UserClaims, token string) ([]byte, string, error) {
	st, err := s.Dashboards.GetStructure(ctx, key, user, token)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, "", err
	}

	names := map[string]bool{}
	for i, sec := range st.Sections {
		data, err := s.Queries.SectionData(ctx, sec.ID.Hex(), values, user, token)
		if err != nil {
			return nil, "", fmt.Errorf("section %s: %w", sec.Key, err)
		}

		name := sheetName(sec, names)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, "", err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, "", err
		}

		row := 1
		for _, w := range sec.Widgets {
			if !w.Active {
				continue
			}
			row = writeWidget(f, name, row, bold, w, data.Widgets[w.ID.Hex()])
		}
	}
	if len(st.Sections) == 0 {
		f.SetCellValue("Sheet1", "A1", "no sections")
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}
	return buffer.Bytes(), st.Dashboard.Key + ".xlsx", nil
}

// writeWidget writes a titled block for one widget starting at row and
// returns the first row after it.
func writeWidget(f *excelize.File, sheet string, row, bold int, w widget.Widget, result query.WidgetResult) int {
	title := w.Title
	if title == "" {
		title = w.Key
	}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	f.SetCellValue(sheet, cell, title)
	f.SetCellStyle(sheet, cell, cell, bold)
	row++

	if result.Error != "" {
		cell, _ = excelize.CoordinatesToCellName(1, row)
		f.SetCellValue(sheet, cell, "error: "+result.Error)
		return row + 2
	}

	records, ok := tabular(result.Data)
	if !ok {
		cell, _ = excelize.CoordinatesToCellName(1, row)
		f.SetCellValue(sheet, cell, cellValue(result.Data))
		return row + 2
	}

	fields, headers := columns(w, records)
	for i, h := range headers {
		cell, _ = excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, bold)
	}
	row++

	for _, record := range records {
		for i, field := range fields {
			cell, _ = excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(sheet, cell, cellValue(record[field]))
		}
		row++
	}
	for i := range fields {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, 15)
	}
	return row + 1
}

// tabular recognises rows-of-maps payloads.
func tabular(data any) ([]map[string]any, bool) {
	switch v := data.(type) {
	case []map[string]any:
		return v, true
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, false
			}
			out = append(out, m)
		}
		return out, true
	}
	return nil, false
}

// columns uses the table config when there is one, otherwise the sorted keys
// of the first row.
func columns(w widget.Widget, records []map[string]any) ([]string, []string) {
	if tc, ok := w.Config.(*widget.TableConfig); ok && len(tc.Columns) > 0 {
		fields := make([]string, len(tc.Columns))
		headers := make([]string, len(tc.Columns))
		for i, c := range tc.Columns {
			fields[i] = c.Field
			headers[i] = c.Header()
		}
		return fields, headers
	}
	var fields []string
	if len(records) > 0 {
		for k := range records[0] {
			fields = append(fields, k)
		}
		sort.Strings(fields)
	}
	return fields, fields
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	case primitive.ObjectID:
		return t.Hex()
	case string, bool, int, int32, int64, float32, float64:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

var sheetNameReplacer = strings.NewReplacer(":", "-", "\\", "-", "/", "-", "?", "", "*", "", "[", "(", "]", ")")

func sheetName(sec dashboard.SectionView, used map[string]bool) string {
	base := sec.Title
	if base == "" {
		base = sec.Key
	}
	base = strings.TrimSpace(sheetNameReplacer.Replace(base))
	if base == "" {
		base = "Section"
	}
	if len([]rune(base)) > maxSheetName {
		base = string([]rune(base)[:maxSheetName])
	}

	name := base
	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		r := []rune(base)
		if len(r)+len(suffix) > maxSheetName {
			r = r[:maxSheetName-len(suffix)]
		}
		name = string(r) + suffix
	}
	used[strings.ToLower(name)] = true
	return name
}
