package widget

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound      = errors.New("widget not found")
	ErrInvalidType   = errors.New("invalid widget type")
	ErrInvalidConfig = errors.New("invalid widget config")
	ErrKeyRequired   = errors.New("widget key is required")
)

type WidgetType string

const (
	TypeChartLine    WidgetType = "chart_line"
	TypeChartBar     WidgetType = "chart_bar"
	TypeChartPie     WidgetType = "chart_pie"
	TypeChartArea    WidgetType = "chart_area"
	TypeChartDonut   WidgetType = "chart_donut"
	TypeChartRadar   WidgetType = "chart_radar"
	TypeChartScatter WidgetType = "chart_scatter"
	TypeTable        WidgetType = "table"
	TypeMetricCard   WidgetType = "metric_card"
)

var validTypes = map[WidgetType]bool{
	TypeChartLine:    true,
	TypeChartBar:     true,
	TypeChartPie:     true,
	TypeChartArea:    true,
	TypeChartDonut:   true,
	TypeChartRadar:   true,
	TypeChartScatter: true,
	TypeTable:        true,
	TypeMetricCard:   true,
}

func (t WidgetType) Valid() bool { return validTypes[t] }

func (t WidgetType) IsChart() bool { return strings.HasPrefix(string(t), "chart_") }

type PositionConfig struct {
	Width int `json:"width,omitempty" bson:"width,omitempty"` // grid columns, 0 = type default
}

// Widget is a data bound element of a section. Its data is never stored on
// the record; it is produced by the linked dynamic query.
type Widget struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	SectionID      primitive.ObjectID  `json:"section_id" bson:"section_id"`
	DynamicQueryID *primitive.ObjectID `json:"dynamic_query_id,omitempty" bson:"dynamic_query_id,omitempty"`
	Key            string              `json:"key" bson:"key"`
	Title          string              `json:"title" bson:"title"`
	WidgetType     WidgetType          `json:"widget_type" bson:"widget_type"`
	PositionConfig PositionConfig      `json:"position_config" bson:"position_config"`
	Config         Config              `json:"config,omitempty" bson:"config,omitempty"`
	Order          int                 `json:"order" bson:"order"`
	Active         bool                `json:"active" bson:"active"`
	CreatedAt      time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at" bson:"updated_at"`
}

func (w Widget) LayoutType() string { return string(w.WidgetType) }
func (w Widget) LayoutWidth() int   { return w.PositionConfig.Width }

// UnmarshalJSON decodes Config into the concrete type selected by WidgetType.
func (w *Widget) UnmarshalJSON(data []byte) error {
	type plain Widget
	aux := struct {
		*plain
		Config json.RawMessage `json:"config"`
	}{plain: (*plain)(w)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	w.Config = nil
	if len(aux.Config) == 0 || string(aux.Config) == "null" {
		return nil
	}
	cfg, err := NewConfig(w.WidgetType)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(aux.Config, cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	w.Config = cfg
	return nil
}

// Validate checks the widget type and its typed config.
func (w *Widget) Validate() error {
	if w.Key == "" {
		return ErrKeyRequired
	}
	if !w.WidgetType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, w.WidgetType)
	}
	if w.PositionConfig.Width < 0 || w.PositionConfig.Width > 12 {
		return fmt.Errorf("%w: width must be between 0 and 12", ErrInvalidConfig)
	}
	if w.Config == nil {
		return nil
	}
	if want := KindFor(w.WidgetType); w.Config.Kind() != want {
		return fmt.Errorf("%w: %s config on %s widget", ErrInvalidConfig, w.Config.Kind(), w.WidgetType)
	}
	if err := w.Config.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
