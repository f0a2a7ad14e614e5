package dashboard

import (
	"errors"
	"fmt"
	"time"

	"go-dashboards/internal/features/widget"
	"go-dashboards/pkg/filters"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound        = errors.New("dashboard not found")
	ErrSectionNotFound = errors.New("section not found")
	ErrAccessDenied    = errors.New("access denied")
	ErrDuplicateKey    = errors.New("dashboard key already exists")
	ErrInvalid         = errors.New("invalid dashboard")
)

type Visibility string

const (
	VisibilityPublic        Visibility = "public"
	VisibilityAuthenticated Visibility = "authenticated"
	VisibilityRestricted    Visibility = "restricted"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPublic, VisibilityAuthenticated, VisibilityRestricted:
		return true
	}
	return false
}

type Dashboard struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Key         string             `json:"key" bson:"key"` // unique, immutable
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Visibility  Visibility         `json:"visibility" bson:"visibility"`
	Active      bool               `json:"active" bson:"active"`
	// IsHome is per user and filled in on read.
	IsHome                 bool                 `json:"is_home" bson:"-"`
	IsNavigable            bool                 `json:"is_navigable" bson:"is_navigable"`
	Filters                []filters.Definition `json:"filters" bson:"filters"`
	AutoRefresh            bool                 `json:"auto_refresh" bson:"auto_refresh"`
	RefreshIntervalSeconds int                  `json:"refresh_interval_seconds" bson:"refresh_interval_seconds"`
	OwnerID                string               `json:"owner_id" bson:"owner_id"`
	CreatedAt              time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt              time.Time            `json:"updated_at" bson:"updated_at"`
}

// RefreshSeconds is the auto refresh interval to run the dashboard with;
// 0 means auto refresh is off.
func (d *Dashboard) RefreshSeconds(fallback int) int {
	if !d.AutoRefresh {
		return 0
	}
	if d.RefreshIntervalSeconds > 0 {
		return d.RefreshIntervalSeconds
	}
	if fallback > 0 {
		return fallback
	}
	return 0
}

// Validate normalizes defaults and checks the filter declarations.
func (d *Dashboard) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if d.Visibility == "" {
		d.Visibility = VisibilityAuthenticated
	}
	if !d.Visibility.Valid() {
		return fmt.Errorf("%w: unknown visibility %q", ErrInvalid, d.Visibility)
	}
	if d.RefreshIntervalSeconds < 0 {
		return fmt.Errorf("%w: refresh interval must not be negative", ErrInvalid)
	}

	seen := make(map[string]bool, len(d.Filters))
	for _, f := range d.Filters {
		if f.VarName == "" {
			return fmt.Errorf("%w: filter var_name is required", ErrInvalid)
		}
		if seen[f.VarName] {
			return fmt.Errorf("%w: duplicate filter %q", ErrInvalid, f.VarName)
		}
		seen[f.VarName] = true
		if !f.Type.Valid() {
			return fmt.Errorf("%w: filter %q has unknown type %q", ErrInvalid, f.VarName, f.Type)
		}
	}
	return nil
}

type Section struct {
	ID              primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	DashboardID     primitive.ObjectID  `json:"dashboard_id" bson:"dashboard_id"`
	ParentSectionID *primitive.ObjectID `json:"parent_section_id,omitempty" bson:"parent_section_id,omitempty"`
	Key             string              `json:"key" bson:"key"`
	Title           string              `json:"title,omitempty" bson:"title,omitempty"`
	Order           int                 `json:"order" bson:"order"` // rendering hint, duplicates allowed
	Active          bool                `json:"active" bson:"active"`
	CreatedAt       time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at" bson:"updated_at"`
}

// SectionView is a section with its active widgets, as handed to viewers.
type SectionView struct {
	Section
	Depth   int             `json:"depth"`
	Widgets []widget.Widget `json:"widgets"`
}

// Structure is everything a viewer needs to render a dashboard and fetch its
// data. Sections are flattened depth first.
type Structure struct {
	Dashboard      Dashboard            `json:"dashboard"`
	Sections       []SectionView        `json:"sections"`
	Filters        []filters.Definition `json:"filters"`
	RefreshSeconds int                  `json:"refresh_seconds"`
}

// Widgets returns every widget of the structure in section order.
func (s *Structure) Widgets() []widget.Widget {
	var out []widget.Widget
	for _, sec := range s.Sections {
		out = append(out, sec.Widgets...)
	}
	return out
}
