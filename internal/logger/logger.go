package logger

import (
	"context"

	"go-dashboards/internal/config"
	"go-dashboards/internal/database"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewLogger builds the application logger. Dashboard warnings and errors are
// also persisted through the event writer.
func NewLogger(lc fx.Lifecycle, cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	writer := NewEventWriter(mongodb)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = baseLogger.Sync()
			writer.Close()
			return nil
		},
	})

	return zap.New(NewEventCore(baseLogger.Core(), writer), zap.AddCaller()), nil
}

// OrNop lets library constructors accept a nil logger.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
