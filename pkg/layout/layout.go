// Package layout packs widgets into rows of a 12 column grid.
//
// Packing is greedy and order preserving: a widget that does not fit closes the
// current row, even when a later, narrower widget would have fit.
package layout

import "strings"

const MaxWidth = 12

// Item is anything that can be placed on the grid.
type Item interface {
	// LayoutType is the widget type, e.g. "chart_line" or "table".
	LayoutType() string
	// LayoutWidth is the configured width, 0 when unset.
	LayoutWidth() int
}

// Placed is an item together with the width it was assigned in its row.
type Placed[T Item] struct {
	Item            T   `json:"widget"`
	BaseWidth       int `json:"base_width"`
	CalculatedWidth int `json:"calculated_width"`
}

// DefaultWidth is the width of a widget type with no configured width.
func DefaultWidth(widgetType string) int {
	switch strings.TrimPrefix(widgetType, "chart_") {
	case "table":
		return 12
	case "line", "bar", "area":
		return 6
	case "pie", "scatter":
		return 4
	default:
		return 6
	}
}

// BaseWidth resolves the width an item asks for, clamped to [1, maxWidth].
// Tables always take a full row.
func BaseWidth(item Item, maxWidth int) int {
	if item.LayoutType() == "table" {
		return maxWidth
	}
	w := item.LayoutWidth()
	if w <= 0 {
		w = DefaultWidth(item.LayoutType())
	}
	if w > maxWidth {
		w = maxWidth
	}
	return w
}

// Pack splits items into rows. Every row's calculated widths sum to maxWidth.
// A maxWidth <= 0 means MaxWidth.
func Pack[T Item](items []T, maxWidth int) [][]Placed[T] {
	if maxWidth <= 0 {
		maxWidth = MaxWidth
	}

	var (
		rows     [][]Placed[T]
		current  []Placed[T]
		rowWidth int
	)
	for _, item := range items {
		w := BaseWidth(item, maxWidth)
		if rowWidth+w > maxWidth && len(current) > 0 {
			rows = append(rows, closeRow(current, rowWidth, maxWidth))
			current, rowWidth = nil, 0
		}
		current = append(current, Placed[T]{Item: item, BaseWidth: w, CalculatedWidth: w})
		rowWidth += w
	}
	if len(current) > 0 {
		rows = append(rows, closeRow(current, rowWidth, maxWidth))
	}
	return rows
}

func closeRow[T Item](row []Placed[T], used, maxWidth int) []Placed[T] {
	remaining := maxWidth - used
	if remaining <= 0 {
		return row
	}
	extra := remaining / len(row)
	for i := range row {
		row[i].CalculatedWidth += extra
	}
	row[len(row)-1].CalculatedWidth += remaining % len(row)
	return row
}
