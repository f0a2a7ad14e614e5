package widget

import (
	"errors"
	"fmt"
)

type ConfigKind string

const (
	KindMetric ConfigKind = "metric"
	KindChart  ConfigKind = "chart"
	KindTable  ConfigKind = "table"
)

// Config is the type specific part of a widget. The concrete type is chosen by
// the widget type: metric cards use *MetricConfig, tables *TableConfig and all
// chart types *ChartConfig.
type Config interface {
	Kind() ConfigKind
	Validate() error
}

type Aggregation string

const (
	AggregationCount Aggregation = "count"
	AggregationSum   Aggregation = "sum"
	AggregationAvg   Aggregation = "avg"
	AggregationMin   Aggregation = "min"
	AggregationMax   Aggregation = "max"
)

func (a Aggregation) Valid() bool {
	switch a {
	case "", AggregationCount, AggregationSum, AggregationAvg, AggregationMin, AggregationMax:
		return true
	}
	return false
}

type Threshold struct {
	Value float64 `json:"value" bson:"value"`
	Color string  `json:"color" bson:"color"`
}

type MetricConfig struct {
	ValueField      string      `json:"value_field" bson:"value_field"`
	Label           string      `json:"label,omitempty" bson:"label,omitempty"`
	Aggregation     Aggregation `json:"aggregation,omitempty" bson:"aggregation,omitempty"`
	Format          string      `json:"format,omitempty" bson:"format,omitempty"` // number, currency, percent
	Prefix          string      `json:"prefix,omitempty" bson:"prefix,omitempty"`
	Suffix          string      `json:"suffix,omitempty" bson:"suffix,omitempty"`
	ComparisonField string      `json:"comparison_field,omitempty" bson:"comparison_field,omitempty"`
	Thresholds      []Threshold `json:"thresholds,omitempty" bson:"thresholds,omitempty"`
}

func (c *MetricConfig) Kind() ConfigKind { return KindMetric }

func (c *MetricConfig) Validate() error {
	if c.ValueField == "" {
		return errors.New("value_field is required")
	}
	if !c.Aggregation.Valid() {
		return fmt.Errorf("unknown aggregation %q", c.Aggregation)
	}
	for i := 1; i < len(c.Thresholds); i++ {
		if c.Thresholds[i].Value < c.Thresholds[i-1].Value {
			return errors.New("thresholds must be ascending")
		}
	}
	return nil
}

// ThresholdColor returns the color of the highest threshold not above v.
func (c *MetricConfig) ThresholdColor(v float64) string {
	color := ""
	for _, t := range c.Thresholds {
		if v >= t.Value {
			color = t.Color
		}
	}
	return color
}

type ChartConfig struct {
	XField      string   `json:"x_field" bson:"x_field"`
	YFields     []string `json:"y_fields" bson:"y_fields"`
	LabelField  string   `json:"label_field,omitempty" bson:"label_field,omitempty"`
	SeriesField string   `json:"series_field,omitempty" bson:"series_field,omitempty"`
	Stacked     bool     `json:"stacked,omitempty" bson:"stacked,omitempty"`
	ShowLegend  bool     `json:"show_legend,omitempty" bson:"show_legend,omitempty"`
}

func (c *ChartConfig) Kind() ConfigKind { return KindChart }

func (c *ChartConfig) Validate() error {
	if c.XField == "" && c.LabelField == "" {
		return errors.New("x_field or label_field is required")
	}
	if len(c.YFields) == 0 {
		return errors.New("at least one y field is required")
	}
	return nil
}

type Column struct {
	Field  string `json:"field" bson:"field"`
	Label  string `json:"label,omitempty" bson:"label,omitempty"`
	Format string `json:"format,omitempty" bson:"format,omitempty"`
}

type TableConfig struct {
	Columns   []Column `json:"columns" bson:"columns"`
	PageSize  int      `json:"page_size,omitempty" bson:"page_size,omitempty"`
	SortField string   `json:"sort_field,omitempty" bson:"sort_field,omitempty"`
	SortDesc  bool     `json:"sort_desc,omitempty" bson:"sort_desc,omitempty"`
}

func (c *TableConfig) Kind() ConfigKind { return KindTable }

func (c *TableConfig) Validate() error {
	for _, col := range c.Columns {
		if col.Field == "" {
			return errors.New("column field is required")
		}
	}
	if c.PageSize < 0 {
		return errors.New("page_size must not be negative")
	}
	return nil
}

// Header is the column label, falling back to the field name.
func (c Column) Header() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Field
}

// KindFor maps a widget type to the config kind it carries.
func KindFor(t WidgetType) ConfigKind {
	switch {
	case t == TypeMetricCard:
		return KindMetric
	case t == TypeTable:
		return KindTable
	default:
		return KindChart
	}
}

// NewConfig returns an empty config of the concrete type for t.
func NewConfig(t WidgetType) (Config, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	switch KindFor(t) {
	case KindMetric:
		return &MetricConfig{}, nil
	case KindTable:
		return &TableConfig{}, nil
	default:
		return &ChartConfig{}, nil
	}
}
