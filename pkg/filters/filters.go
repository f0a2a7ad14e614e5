// Package filters holds the dashboard filter state: declared filter
// variables, the values a viewer has picked for them, and the gating rule that
// decides whether data may be fetched.
package filters

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

type Type string

const (
	TypeText        Type = "text"
	TypeNumber      Type = "number"
	TypeDate        Type = "date"
	TypeBoolean     Type = "boolean"
	TypeSelect      Type = "select"
	TypeMultiSelect Type = "multiselect"
)

func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate, TypeBoolean, TypeSelect, TypeMultiSelect:
		return true
	}
	return false
}

type Option struct {
	Label string `json:"label" bson:"label"`
	Value string `json:"value" bson:"value"`
}

// Definition declares one filter variable of a dashboard.
type Definition struct {
	VarName      string   `json:"var_name" bson:"var_name"` // unique within a dashboard
	Name         string   `json:"name" bson:"name"`         // human label
	Type         Type     `json:"type" bson:"type"`
	Required     bool     `json:"required" bson:"required"`
	DefaultValue any      `json:"default_value,omitempty" bson:"default_value,omitempty"`
	Options      []Option `json:"options,omitempty" bson:"options,omitempty"`
}

// Label is what warnings show for the filter.
func (d Definition) Label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.VarName
}

// Values maps var names to the current value of each filter.
type Values map[string]any

func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Initialize seeds every declared variable missing from existing with its
// type default. Variables already present are kept untouched.
func Initialize(defs []Definition, existing Values) Values {
	values := existing.Clone()
	for _, def := range defs {
		if _, ok := values[def.VarName]; ok {
			continue
		}
		values[def.VarName] = defaultFor(def)
	}
	return values
}

func defaultFor(def Definition) any {
	switch def.Type {
	case TypeText, TypeDate:
		if s, ok := def.DefaultValue.(string); ok {
			return s
		}
		return ""
	case TypeBoolean:
		return truthy(def.DefaultValue)
	default:
		// number, select, multiselect: nil unless a default is configured
		return def.DefaultValue
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "false" && t != "0"
	case float64:
		return t != 0
	case int:
		return t != 0
	case int32:
		return t != 0
	case int64:
		return t != 0
	}
	return true
}

// Satisfied reports whether value counts as filled in for the definition.
// Booleans accept false; arrays need at least one element; everything else
// must be non-nil and not the empty string.
func Satisfied(def Definition, value any) bool {
	if value == nil {
		return false
	}
	if def.Type == TypeBoolean {
		return true
	}
	if n, ok := sliceLen(value); ok {
		return n > 0
	}
	if s, ok := value.(string); ok {
		return s != ""
	}
	return true
}

func sliceLen(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len(), true
	}
	return 0, false
}

// CanLoad is the fetch gate: true when no required filter is unsatisfied.
func CanLoad(defs []Definition, values Values) bool {
	for _, def := range defs {
		if def.Required && !Satisfied(def, values[def.VarName]) {
			return false
		}
	}
	return true
}

// MissingRequired lists the labels of unsatisfied required filters in
// declaration order.
func MissingRequired(defs []Definition, values Values) []string {
	var missing []string
	for _, def := range defs {
		if def.Required && !Satisfied(def, values[def.VarName]) {
			missing = append(missing, def.Label())
		}
	}
	return missing
}

// Payload is the effective filter map sent with data queries: only declared
// variables, with empty strings and empty arrays left out.
func Payload(defs []Definition, values Values) Values {
	out := make(Values, len(defs))
	for _, def := range defs {
		v, ok := values[def.VarName]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		if n, isSlice := sliceLen(v); isSlice && n == 0 {
			continue
		}
		out[def.VarName] = v
	}
	return out
}

// Coerce parses a raw textual value (CLI flag, query string) into the Go type
// the definition expects.
func Coerce(def Definition, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch def.Type {
	case TypeNumber:
		if raw == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %q is not a number", def.VarName, raw)
		}
		return f, nil
	case TypeBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("filter %s: %q is not a boolean", def.VarName, raw)
		}
		return b, nil
	case TypeMultiSelect:
		var out []any
		for _, part := range strings.Split(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	case TypeSelect:
		if raw == "" {
			return nil, nil
		}
		return raw, nil
	default:
		return raw, nil
	}
}
