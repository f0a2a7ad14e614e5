package query

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound = errors.New("dynamic query not found")
	// ErrNoQuery is reported for widgets that have no data source attached.
	ErrNoQuery = errors.New("widget has no dynamic query")
	ErrInvalid = errors.New("invalid dynamic query")
)

type EngineType string

const (
	EngineScript EngineType = "script"
	EngineSQL    EngineType = "sql"
)

// DataSource is the connection a sql query runs against.
type DataSource struct {
	Driver string `json:"driver" bson:"driver"` // postgres or sqlite
	DSN    string `json:"dsn" bson:"dsn"`
}

// DynamicQuery produces the data of one or more widgets from the current
// filter values.
type DynamicQuery struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Engine      EngineType         `json:"engine" bson:"engine"`
	Source      string             `json:"source" bson:"source"`
	DataSource  *DataSource        `json:"data_source,omitempty" bson:"data_source,omitempty"`
	// Params lists the filter variables bound, in order, to sql placeholders.
	Params    []string  `json:"params,omitempty" bson:"params,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (q *DynamicQuery) Validate() error {
	if q.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if q.Source == "" {
		return fmt.Errorf("%w: source is required", ErrInvalid)
	}
	switch q.Engine {
	case EngineScript:
	case EngineSQL:
		if q.DataSource == nil || q.DataSource.DSN == "" {
			return fmt.Errorf("%w: sql queries need a data source", ErrInvalid)
		}
		if _, ok := sqlDrivers[q.DataSource.Driver]; !ok {
			return fmt.Errorf("%w: unsupported driver %q", ErrInvalid, q.DataSource.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown engine %q", ErrInvalid, q.Engine)
	}
	return nil
}

// WidgetResult is one widget's entry in a section response: either data or
// a declared error.
type WidgetResult struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// SectionData is the batched response for every active widget of a section,
// keyed by widget id.
type SectionData struct {
	Widgets map[string]WidgetResult `json:"widgets"`
}
