package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	defs := []Definition{
		{VarName: "q", Type: TypeText},
		{VarName: "day", Type: TypeDate},
		{VarName: "limit", Type: TypeNumber},
		{VarName: "limit_default", Type: TypeNumber, DefaultValue: 10.0},
		{VarName: "flag", Type: TypeBoolean},
		{VarName: "flag_on", Type: TypeBoolean, DefaultValue: "yes"},
		{VarName: "region", Type: TypeSelect},
		{VarName: "tags", Type: TypeMultiSelect},
		{VarName: "kept", Type: TypeText, DefaultValue: "ignored"},
	}

	values := Initialize(defs, Values{"kept": "mine", "extra": 1})

	assert.Equal(t, "", values["q"])
	assert.Equal(t, "", values["day"])
	assert.Nil(t, values["limit"])
	assert.Equal(t, 10.0, values["limit_default"])
	assert.Equal(t, false, values["flag"])
	assert.Equal(t, true, values["flag_on"])
	assert.Nil(t, values["region"])
	assert.Contains(t, values, "region")
	assert.Nil(t, values["tags"])
	assert.Equal(t, "mine", values["kept"], "existing values are preserved")
	assert.Equal(t, 1, values["extra"])
}

func TestInitialize_DoesNotMutateExisting(t *testing.T) {
	existing := Values{"a": "x"}
	_ = Initialize([]Definition{{VarName: "b", Type: TypeText}}, existing)
	assert.Len(t, existing, 1)
}

func TestCanLoad_NoRequiredFilters(t *testing.T) {
	defs := []Definition{
		{VarName: "a", Type: TypeText},
		{VarName: "b", Type: TypeMultiSelect},
	}
	for _, values := range []Values{nil, {}, {"a": ""}, {"b": []any{}}, {"a": nil, "b": nil}} {
		assert.True(t, CanLoad(defs, values))
	}
	assert.True(t, CanLoad(nil, nil))
}

func TestCanLoad_RequiredBooleanAcceptsFalse(t *testing.T) {
	defs := []Definition{{VarName: "active", Name: "Active", Type: TypeBoolean, Required: true}}

	assert.True(t, CanLoad(defs, Values{"active": false}))
	assert.True(t, CanLoad(defs, Initialize(defs, nil)))
	assert.False(t, CanLoad(defs, Values{"active": nil}))
	assert.False(t, CanLoad(defs, Values{}))
}

func TestSatisfied(t *testing.T) {
	tests := []struct {
		name  string
		def   Definition
		value any
		want  bool
	}{
		{"nil text", Definition{Type: TypeText}, nil, false},
		{"empty text", Definition{Type: TypeText}, "", false},
		{"text", Definition{Type: TypeText}, "x", true},
		{"zero number", Definition{Type: TypeNumber}, 0.0, true},
		{"empty multiselect", Definition{Type: TypeMultiSelect}, []any{}, false},
		{"empty string slice", Definition{Type: TypeMultiSelect}, []string{}, false},
		{"multiselect", Definition{Type: TypeMultiSelect}, []string{"a"}, true},
		{"select", Definition{Type: TypeSelect}, "south", true},
		{"false boolean", Definition{Type: TypeBoolean}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Satisfied(tt.def, tt.value))
		})
	}
}

func TestMissingRequired(t *testing.T) {
	defs := []Definition{
		{VarName: "REGION", Name: "Região", Type: TypeSelect, Required: true},
		{VarName: "from", Type: TypeDate, Required: true},
		{VarName: "note", Name: "Note", Type: TypeText},
	}
	values := Initialize(defs, nil)

	assert.Equal(t, []string{"Região", "from"}, MissingRequired(defs, values))

	values["from"] = "2024-01-01"
	assert.Equal(t, []string{"Região"}, MissingRequired(defs, values))

	values["REGION"] = "south"
	assert.Empty(t, MissingRequired(defs, values))
}

func TestPayload(t *testing.T) {
	defs := []Definition{
		{VarName: "q", Type: TypeText},
		{VarName: "tags", Type: TypeMultiSelect},
		{VarName: "flag", Type: TypeBoolean},
		{VarName: "n", Type: TypeNumber},
	}
	values := Values{"q": "", "tags": []any{}, "flag": false, "n": 3.0, "undeclared": "x"}

	assert.Equal(t, Values{"flag": false, "n": 3.0}, Payload(defs, values))
}

func TestCoerce(t *testing.T) {
	v, err := Coerce(Definition{VarName: "n", Type: TypeNumber}, " 42.5 ")
	require.NoError(t, err)
	assert.Equal(t, 42.5, v)

	_, err = Coerce(Definition{VarName: "n", Type: TypeNumber}, "abc")
	assert.Error(t, err)

	v, err = Coerce(Definition{VarName: "b", Type: TypeBoolean}, "false")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = Coerce(Definition{VarName: "m", Type: TypeMultiSelect}, "a, b,,c")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, v)

	v, err = Coerce(Definition{VarName: "s", Type: TypeSelect}, "")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestManager_RegionScenario(t *testing.T) {
	m := NewManager([]Definition{
		{VarName: "REGION", Name: "Região", Type: TypeSelect, Required: true},
	}, nil)

	assert.False(t, m.CanLoad())
	assert.Equal(t, []string{"Região"}, m.MissingRequired())

	m.Set("REGION", "south")
	assert.True(t, m.CanLoad())
	assert.Empty(t, m.MissingRequired())
	assert.Equal(t, Values{"REGION": "south"}, m.Payload())

	m.Reset()
	assert.False(t, m.CanLoad())
}

func TestManager_ValuesIsACopy(t *testing.T) {
	m := NewManager([]Definition{{VarName: "q", Type: TypeText}}, nil)
	values := m.Values()
	values["q"] = "changed"

	assert.Equal(t, "", m.Values()["q"])
}
