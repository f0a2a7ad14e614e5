package query

import (
	"context"
	"testing"
	"time"

	"go-dashboards/pkg/filters"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptEngine_UsesFilters(t *testing.T) {
	engine := &ScriptEngine{MaxAllocs: 10000}
	q := &DynamicQuery{Engine: EngineScript, Source: `result := {total: filters.n * 2, count: len(filters.tags)}`}

	data, err := engine.Run(context.Background(), q, filters.Values{"n": 3.0, "tags": []string{"a", "b"}})
	require.NoError(t, err)

	m, ok := data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 6.0, m["total"])
	assert.Equal(t, int64(2), m["count"])
}

func TestScriptEngine_CompileError(t *testing.T) {
	engine := &ScriptEngine{}
	_, err := engine.Run(context.Background(), &DynamicQuery{Source: `result := (`}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile")
}

func TestSQLEngine_SQLite(t *testing.T) {
	engine := NewSQLEngine()
	defer engine.Close()

	q := &DynamicQuery{
		Engine:     EngineSQL,
		Source:     "SELECT ? AS region, 2 + 3 AS total",
		DataSource: &DataSource{Driver: "sqlite", DSN: ":memory:"},
		Params:     []string{"REGION"},
	}
	data, err := engine.Run(context.Background(), q, filters.Values{"REGION": "south"})
	require.NoError(t, err)

	rows, ok := data.([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "south", rows[0]["region"])
	assert.Equal(t, int64(5), rows[0]["total"])
}

func TestSQLEngine_MultiSelectAsJSON(t *testing.T) {
	engine := NewSQLEngine()
	defer engine.Close()

	q := &DynamicQuery{
		Engine:     EngineSQL,
		Source:     "SELECT COUNT(*) AS n FROM json_each(?)",
		DataSource: &DataSource{Driver: "sqlite", DSN: ":memory:"},
		Params:     []string{"tags"},
	}
	data, err := engine.Run(context.Background(), q, filters.Values{"tags": []interface{}{"a", "b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), data.([]map[string]interface{})[0]["n"])
}

func TestBindArgs(t *testing.T) {
	values := filters.Values{"n": 1.0, "tags": []interface{}{"a", "b"}}

	args := bindArgs("postgres", []string{"n", "tags", "missing"}, values)
	require.Len(t, args, 3)
	assert.Equal(t, 1.0, args[0])
	assert.Equal(t, pq.Array([]string{"a", "b"}), args[1])
	assert.Nil(t, args[2])

	args = bindArgs("sqlite", []string{"tags"}, values)
	assert.Equal(t, `["a","b"]`, args[0])
}

type slowEngine struct{}

func (slowEngine) Run(ctx context.Context, q *DynamicQuery, values filters.Values) (any, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestExecutor_TimeoutAndUnknownEngine(t *testing.T) {
	exec := newExecutor(10*time.Millisecond, map[EngineType]Engine{EngineScript: slowEngine{}})

	_, err := exec.Run(context.Background(), &DynamicQuery{Engine: EngineScript}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = exec.Run(context.Background(), &DynamicQuery{Engine: EngineSQL}, nil)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDynamicQuery_Validate(t *testing.T) {
	ok := &DynamicQuery{Name: "n", Engine: EngineSQL, Source: "SELECT 1", DataSource: &DataSource{Driver: "postgresql", DSN: "x"}}
	assert.NoError(t, ok.Validate())

	bad := &DynamicQuery{Name: "n", Engine: EngineSQL, Source: "SELECT 1", DataSource: &DataSource{Driver: "mysql", DSN: "x"}}
	assert.ErrorIs(t, bad.Validate(), ErrInvalid)

	assert.ErrorIs(t, (&DynamicQuery{Name: "n", Source: "x", Engine: "lua"}).Validate(), ErrInvalid)
}
