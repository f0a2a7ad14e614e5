package logger

import (
	"go.uber.org/zap/zapcore"
)

// Field keys the orchestration code attaches to log entries.
const (
	FieldDashboardKey = "dashboard_key"
	FieldSectionID    = "section_id"
	FieldWidgetID     = "widget_id"
)

// EventCore tees warn+ entries that carry a dashboard key into the event writer.
type EventCore struct {
	zapcore.Core
	writer *EventWriter
	fields []zapcore.Field
}

func NewEventCore(baseCore zapcore.Core, writer *EventWriter) zapcore.Core {
	return &EventCore{
		Core:   baseCore,
		writer: writer,
	}
}

// With keeps the accumulated fields so child loggers still get forwarded.
func (c *EventCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &EventCore{
		Core:   c.Core.With(fields),
		writer: c.writer,
		fields: merged,
	}
}

func (c *EventCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= zapcore.WarnLevel {
		ev := Event{
			Level:   entry.Level,
			Message: entry.Message,
			Caller:  entry.Caller.Function,
			Time:    entry.Time,
		}
		all := make([]zapcore.Field, 0, len(c.fields)+len(fields))
		all = append(all, c.fields...)
		for _, f := range append(all, fields...) {
			switch f.Key {
			case FieldDashboardKey:
				ev.DashboardKey = f.String
			case FieldSectionID:
				ev.SectionID = f.String
			case FieldWidgetID:
				ev.WidgetID = f.String
			case "error":
				if err, ok := f.Interface.(error); ok {
					ev.Error = err.Error()
				}
			}
		}
		if ev.DashboardKey != "" {
			c.writer.Add(ev)
		}
	}

	return c.Core.Write(entry, fields)
}

func (c *EventCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
