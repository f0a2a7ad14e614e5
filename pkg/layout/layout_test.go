package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type box struct {
	id    string
	kind  string
	width int
}

func (b box) LayoutType() string { return b.kind }
func (b box) LayoutWidth() int   { return b.width }

func w(id string, width int) box { return box{id: id, kind: "chart_bar", width: width} }

func widths[T Item](rows [][]Placed[T]) [][]int {
	out := make([][]int, len(rows))
	for i, row := range rows {
		for _, p := range row {
			out[i] = append(out[i], p.CalculatedWidth)
		}
	}
	return out
}

func TestPack(t *testing.T) {
	tests := []struct {
		name  string
		items []box
		want  [][]int
	}{
		{
			name:  "two tables",
			items: []box{{id: "t1", kind: "table"}, {id: "t2", kind: "table"}},
			want:  [][]int{{12}, {12}},
		},
		{
			name:  "full row then redistributed single",
			items: []box{w("a", 6), w("b", 6), w("c", 4)},
			want:  [][]int{{6, 6}, {12}},
		},
		{
			name:  "three fours then six",
			items: []box{w("a", 4), w("b", 4), w("c", 4), w("d", 6)},
			want:  [][]int{{4, 4, 4}, {12}},
		},
		{
			name:  "remainder goes to the last widget",
			items: []box{w("a", 3), w("b", 2), w("c", 2)},
			want:  [][]int{{4, 3, 5}},
		},
		{
			name:  "type defaults",
			items: []box{{kind: "chart_pie"}, {kind: "chart_scatter"}, {kind: "chart_pie"}, {kind: "chart_line"}},
			want:  [][]int{{4, 4, 4}, {12}},
		},
		{
			name:  "no lookahead",
			items: []box{w("a", 8), w("b", 6), w("c", 4)},
			want:  [][]int{{12}, {7, 5}},
		},
		{
			name:  "oversized width is clamped",
			items: []box{w("a", 20), w("b", 2)},
			want:  [][]int{{12}, {12}},
		},
		{
			name:  "empty",
			items: nil,
			want:  [][]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, widths(Pack(tt.items, MaxWidth)))
		})
	}
}

func TestPack_PreservesOrderAndBaseWidth(t *testing.T) {
	items := []box{w("a", 6), w("b", 6), w("c", 4)}
	rows := Pack(items, 0)

	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0][0].Item.id)
	assert.Equal(t, "b", rows[0][1].Item.id)
	assert.Equal(t, "c", rows[1][0].Item.id)
	assert.Equal(t, 4, rows[1][0].BaseWidth)
	assert.Equal(t, 12, rows[1][0].CalculatedWidth)
}

func TestPack_RowsAlwaysSumToMax(t *testing.T) {
	items := []box{w("a", 5), w("b", 5), w("c", 1), w("d", 7), {kind: "table"}, w("e", 2)}
	for _, row := range Pack(items, MaxWidth) {
		sum := 0
		for _, p := range row {
			sum += p.CalculatedWidth
		}
		assert.Equal(t, MaxWidth, sum)
	}
}

func TestDefaultWidth(t *testing.T) {
	assert.Equal(t, 12, DefaultWidth("table"))
	assert.Equal(t, 6, DefaultWidth("chart_area"))
	assert.Equal(t, 4, DefaultWidth("chart_pie"))
	assert.Equal(t, 6, DefaultWidth("chart_donut"))
	assert.Equal(t, 6, DefaultWidth("unknown"))
}
