package live

import (
	"errors"

	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/features/invitation"
	"go-dashboards/internal/viewer"
	"go-dashboards/pkg/filters"
)

const (
	TypeSetFilter = "set_filter"
	TypeApply     = "apply"
	TypeRefresh   = "refresh"
	TypeReset     = "reset_filters"

	// TypeWidgetData asks for one widget by id (Name) and is answered with
	// the same type.
	TypeWidgetData = "widget_data"

	TypeState   = "state"
	TypeWarning = "warning"
	TypeError   = "error"
)

// ClientMessage is sent by the browser.
type ClientMessage struct {
	Type  string `json:"type"`
	Name  string `json:"name,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Message is pushed to the browser.
type Message struct {
	Type        string                 `json:"type"`
	Snapshot    *viewer.Snapshot       `json:"snapshot,omitempty"`
	Rows        []viewer.SectionLayout `json:"rows,omitempty"`
	Missing     []string               `json:"missing,omitempty"`
	SecondsLeft int                    `json:"seconds_left,omitempty"`
	Message     string                 `json:"message,omitempty"`
	WidgetID    string                 `json:"widget_id,omitempty"`
	Data        any                    `json:"data,omitempty"`
	Reason      invitation.Status      `json:"reason,omitempty"` // invitation status that closed the session
}

func stateMessage(st *dashboard.Structure, snap viewer.Snapshot) Message {
	return Message{
		Type:        TypeState,
		Snapshot:    &snap,
		Rows:        viewer.BuildLayout(st),
		Missing:     snap.Missing,
		SecondsLeft: snap.SecondsLeft,
	}
}

// errorMessage turns a session error into a push. Gating problems are
// warnings; everything else is an error.
func errorMessage(err error) Message {
	var gating *viewer.GatingError
	if errors.As(err, &gating) {
		return Message{Type: TypeWarning, Message: err.Error(), Missing: gating.Missing}
	}
	var invalid *invitation.InvalidError
	if errors.As(err, &invalid) {
		return Message{Type: TypeError, Message: err.Error(), Reason: invalid.Status}
	}
	return Message{Type: TypeError, Message: err.Error()}
}

// coerceValue parses string input for non text filters, so browsers can send
// raw form values.
func coerceValue(st *dashboard.Structure, name string, value any) (any, error) {
	raw, ok := value.(string)
	if !ok || st == nil {
		return value, nil
	}
	for _, def := range st.Filters {
		if def.VarName == name {
			return filters.Coerce(def, raw)
		}
	}
	return value, nil
}
