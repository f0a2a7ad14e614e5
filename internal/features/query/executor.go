package query

import (
	"context"
	"fmt"
	"time"

	"go-dashboards/internal/config"
	"go-dashboards/pkg/filters"

	"go.uber.org/fx"
)

// Executor dispatches dynamic queries to their engine under a timeout.
type Executor struct {
	engines map[EngineType]Engine
	timeout time.Duration
}

func NewExecutor(lc fx.Lifecycle, cfg *config.Config) *Executor {
	sqlEngine := NewSQLEngine()
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return sqlEngine.Close()
		},
	})
	return newExecutor(time.Duration(cfg.QueryTimeoutSeconds)*time.Second, map[EngineType]Engine{
		EngineScript: &ScriptEngine{MaxAllocs: 1_000_000},
		EngineSQL:    sqlEngine,
	})
}

func newExecutor(timeout time.Duration, engines map[EngineType]Engine) *Executor {
	return &Executor{engines: engines, timeout: timeout}
}

func (e *Executor) Run(ctx context.Context, q *DynamicQuery, values filters.Values) (any, error) {
	engine, ok := e.engines[q.Engine]
	if !ok {
		return nil, fmt.Errorf("%w: unknown engine %q", ErrInvalid, q.Engine)
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return engine.Run(ctx, q, values)
}
