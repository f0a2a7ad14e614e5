package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go-dashboards/pkg/filters"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqlDrivers maps accepted data source drivers to database/sql driver names.
var sqlDrivers = map[string]string{
	"postgres":   "postgres",
	"postgresql": "postgres",
	"sqlite":     "sqlite",
}

// Engine runs a dynamic query with the effective filter payload.
type Engine interface {
	Run(ctx context.Context, q *DynamicQuery, values filters.Values) (any, error)
}

// ScriptEngine runs tengo scripts. The filter payload is available as the
// map variable "filters"; whatever the script stores in "result" is the
// widget data.
type ScriptEngine struct {
	MaxAllocs int64
}

func (e *ScriptEngine) Run(ctx context.Context, q *DynamicQuery, values filters.Values) (any, error) {
	script := tengo.NewScript([]byte(q.Source))
	script.SetImports(stdlib.GetModuleMap("math", "text", "times", "json", "fmt"))
	if e.MaxAllocs > 0 {
		script.SetMaxAllocs(e.MaxAllocs)
	}

	if err := script.Add("filters", scriptValues(values)); err != nil {
		return nil, fmt.Errorf("failed to bind filters: %w", err)
	}

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("failed to compile script: %w", err)
	}
	if err := compiled.RunContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to run script: %w", err)
	}

	return compiled.Get("result").Value(), nil
}

// scriptValues converts filter values to the plain types tengo accepts.
func scriptValues(values filters.Values) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		switch t := v.(type) {
		case []string:
			list := make([]interface{}, len(t))
			for i, s := range t {
				list[i] = s
			}
			out[k] = list
		default:
			out[k] = v
		}
	}
	return out
}

// SQLEngine runs sql queries against external databases. Connection pools
// are opened lazily and shared per driver and dsn.
type SQLEngine struct {
	mu    sync.Mutex
	pools map[string]*sql.DB
}

func NewSQLEngine() *SQLEngine {
	return &SQLEngine{pools: map[string]*sql.DB{}}
}

func (e *SQLEngine) pool(ctx context.Context, ds *DataSource) (*sql.DB, error) {
	driver, ok := sqlDrivers[ds.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q", ds.Driver)
	}
	key := driver + "|" + ds.DSN

	e.mu.Lock()
	defer e.mu.Unlock()
	if db, ok := e.pools[key]; ok {
		return db, nil
	}

	db, err := sql.Open(driver, ds.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	e.pools[key] = db
	return db, nil
}

func (e *SQLEngine) Run(ctx context.Context, q *DynamicQuery, values filters.Values) (any, error) {
	if q.DataSource == nil {
		return nil, fmt.Errorf("%w: missing data source", ErrInvalid)
	}
	db, err := e.pool(ctx, q.DataSource)
	if err != nil {
		return nil, err
	}

	args := bindArgs(sqlDrivers[q.DataSource.Driver], q.Params, values)
	rows, err := db.QueryContext(ctx, q.Source, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	return rowsToMaps(rows)
}

// bindArgs resolves positional arguments from filter names. Multi values
// become a postgres array or, for sqlite, a JSON array usable with json_each.
func bindArgs(driver string, params []string, values filters.Values) []interface{} {
	args := make([]interface{}, len(params))
	for i, name := range params {
		v := values[name]
		list, isList := stringList(v)
		switch {
		case !isList:
			args[i] = v
		case driver == "postgres":
			args[i] = pq.Array(list)
		default:
			encoded, _ := json.Marshal(list)
			args[i] = string(encoded)
		}
	}
	return args
}

func stringList(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []interface{}:
		out := make([]string, len(t))
		for i, item := range t {
			out[i] = fmt.Sprint(item)
		}
		return out, true
	}
	return nil, false
}

func rowsToMaps(rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (e *SQLEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	for key, db := range e.pools {
		errs = append(errs, db.Close())
		delete(e.pools, key)
	}
	return errors.Join(errs...)
}
