package cli

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/features/widget"
	"go-dashboards/internal/viewer"
	"go-dashboards/pkg/layout"
	"go-dashboards/pkg/palette"

	"github.com/charmbracelet/lipgloss"
)

const (
	defaultWidth  = 120
	maxTableRows  = 10
	maxBarWidth   = 24
	borderColumns = 2
)

// RenderDashboard draws the current state of a session as text.
func RenderDashboard(st *dashboard.Structure, snap viewer.Snapshot, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render(st.Dashboard.Name))
	if snap.Refresh != viewer.Disabled {
		b.WriteString(styleDim.Render(fmt.Sprintf("  refresh in %ds", snap.SecondsLeft)))
	}
	b.WriteString("\n")
	if len(snap.Missing) > 0 {
		b.WriteString(styleWarning.Render("Required filters missing: " + strings.Join(snap.Missing, ", ")))
		b.WriteString("\n")
	}

	for _, sec := range viewer.BuildLayout(st) {
		title := sec.Title
		if title == "" {
			title = sec.Key
		}
		indent := strings.Repeat("  ", sec.Depth)
		b.WriteString("\n" + indent + styleSection.Render(title) + "\n")

		for _, row := range sec.Rows {
			boxes := make([]string, 0, len(row))
			for _, cell := range row {
				boxes = append(boxes, renderCell(cell, snap, width*cell.Width/layout.MaxWidth))
			}
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderCell(cell viewer.Cell, snap viewer.Snapshot, width int) string {
	w := cell.Widget
	inner := width - borderColumns
	if inner < 4 {
		inner = 4
	}

	border := colorDim
	if cell.Scheme != nil {
		border = lipgloss.Color(cell.Scheme.Primary)
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(inner)

	title := w.Title
	if title == "" {
		title = w.Key
	}

	id := w.ID.Hex()
	var body string
	switch {
	case snap.Errors[id] != "":
		body = styleError.Render(snap.Errors[id])
	case snap.Data[id] == nil:
		body = styleDim.Render("no data")
	default:
		body = renderData(w, cell.Scheme, snap.Data[id], inner)
	}
	return box.Render(styleBold.Render(title) + "\n" + body)
}

func renderData(w widget.Widget, scheme *palette.Scheme, data any, width int) string {
	switch cfg := w.Config.(type) {
	case *widget.MetricConfig:
		return renderMetric(cfg, data)
	case *widget.ChartConfig:
		if scheme != nil {
			return renderBars(cfg, *scheme, rows(data), width)
		}
	case *widget.TableConfig:
		return renderTable(cfg, rows(data))
	}
	if r := rows(data); r != nil {
		return renderTable(nil, r)
	}
	return formatValue(data)
}

func renderMetric(cfg *widget.MetricConfig, data any) string {
	value, ok := metricValue(cfg, data)
	if !ok {
		return formatValue(data)
	}

	text := cfg.Prefix + formatNumber(value, cfg.Format) + cfg.Suffix
	style := lipgloss.NewStyle().Bold(true)
	if color := cfg.ThresholdColor(value); color != "" {
		style = style.Foreground(lipgloss.Color(color))
	}
	out := style.Render(text)
	if cfg.Label != "" {
		out += "\n" + styleDim.Render(cfg.Label)
	}
	return out
}

// metricValue reads the metric from a single object, a bare number or rows
// aggregated with the configured aggregation.
func metricValue(cfg *widget.MetricConfig, data any) (float64, bool) {
	if v, ok := toFloat(data); ok {
		return v, true
	}
	if m, ok := data.(map[string]any); ok {
		return toFloat(m[cfg.ValueField])
	}

	records := rows(data)
	if records == nil {
		return 0, false
	}
	if cfg.Aggregation == widget.AggregationCount {
		return float64(len(records)), true
	}

	var values []float64
	for _, r := range records {
		if v, ok := toFloat(r[cfg.ValueField]); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0, false
	}
	switch cfg.Aggregation {
	case widget.AggregationSum, widget.AggregationAvg:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		if cfg.Aggregation == widget.AggregationAvg {
			return sum / float64(len(values)), true
		}
		return sum, true
	case widget.AggregationMin:
		m := values[0]
		for _, v := range values[1:] {
			m = math.Min(m, v)
		}
		return m, true
	case widget.AggregationMax:
		m := values[0]
		for _, v := range values[1:] {
			m = math.Max(m, v)
		}
		return m, true
	default:
		return values[0], true
	}
}

// renderBars draws one horizontal bar per row and y field, colored per series.
func renderBars(cfg *widget.ChartConfig, scheme palette.Scheme, records []map[string]any, width int) string {
	if len(records) == 0 {
		return styleDim.Render("no data")
	}
	labelField := cfg.LabelField
	if labelField == "" {
		labelField = cfg.XField
	}

	peak := 0.0
	for _, r := range records {
		for _, f := range cfg.YFields {
			if v, ok := toFloat(r[f]); ok {
				peak = math.Max(peak, math.Abs(v))
			}
		}
	}

	colors := palette.GenerateColors(scheme, len(cfg.YFields))
	barWidth := min(maxBarWidth, max(1, width/2))

	var lines []string
	for _, r := range records {
		label := formatValue(r[labelField])
		for i, f := range cfg.YFields {
			v, _ := toFloat(r[f])
			n := 0
			if peak > 0 {
				n = int(math.Round(math.Abs(v) / peak * float64(barWidth)))
			}
			bar := lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i])).Render(strings.Repeat("█", n))
			lines = append(lines, fmt.Sprintf("%-10s %s %s", truncate(label, 10), bar, formatNumber(v, "")))
			label = ""
		}
	}
	if cfg.ShowLegend && len(cfg.YFields) > 1 {
		var legend []string
		for i, f := range cfg.YFields {
			legend = append(legend, lipgloss.NewStyle().Foreground(lipgloss.Color(colors[i])).Render("■ "+f))
		}
		lines = append(lines, strings.Join(legend, "  "))
	}
	return strings.Join(lines, "\n")
}

func renderTable(cfg *widget.TableConfig, records []map[string]any) string {
	if len(records) == 0 {
		return styleDim.Render("no rows")
	}

	var fields, headers []string
	if cfg != nil && len(cfg.Columns) > 0 {
		for _, c := range cfg.Columns {
			fields = append(fields, c.Field)
			headers = append(headers, c.Header())
		}
	} else {
		for k := range records[0] {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		headers = fields
	}

	limit := maxTableRows
	if cfg != nil && cfg.PageSize > 0 {
		limit = cfg.PageSize
	}

	widths := make([]int, len(fields))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	cells := make([][]string, 0, min(limit, len(records)))
	for _, r := range records[:min(limit, len(records))] {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = formatValue(r[f])
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
		cells = append(cells, row)
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(styleBold.Render(pad(h, widths[i])))
		if i < len(headers)-1 {
			b.WriteString("  ")
		}
	}
	for _, row := range cells {
		b.WriteString("\n")
		for i, c := range row {
			b.WriteString(pad(c, widths[i]))
			if i < len(row)-1 {
				b.WriteString("  ")
			}
		}
	}
	if len(records) > limit {
		b.WriteString("\n" + styleDim.Render(fmt.Sprintf("… %d more rows", len(records)-limit)))
	}
	return b.String()
}

func rows(data any) []map[string]any {
	switch v := data.(type) {
	case []map[string]any:
		return v
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil
			}
			out = append(out, m)
		}
		return out
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

func formatNumber(v float64, format string) string {
	switch format {
	case "percent":
		return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
	case "currency":
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	if f, ok := toFloat(v); ok {
		return formatNumber(f, "")
	}
	return fmt.Sprintf("%v", v)
}

func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
