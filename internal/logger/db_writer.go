package logger

import (
	"context"
	"fmt"
	"time"

	"go-dashboards/internal/database"

	"go.uber.org/zap/zapcore"
)

// Event is a warn+ log line tied to a dashboard, kept for operators.
type Event struct {
	Level        zapcore.Level `bson:"-"`
	LevelName    string        `bson:"level"`
	Message      string        `bson:"message"`
	DashboardKey string        `bson:"dashboard_key"`
	SectionID    string        `bson:"section_id,omitempty"`
	WidgetID     string        `bson:"widget_id,omitempty"`
	Error        string        `bson:"error,omitempty"`
	Caller       string        `bson:"caller,omitempty"`
	Time         time.Time     `bson:"created_at"`
}

// EventWriter persists events off the logging hot path.
type EventWriter struct {
	sink   func(ctx context.Context, ev Event) error
	events chan Event
	done   chan struct{}
}

func NewEventWriter(mongodb *database.MongodbDB) *EventWriter {
	collection := mongodb.DB.Collection("dashboard_events")
	return newEventWriter(func(ctx context.Context, ev Event) error {
		_, err := collection.InsertOne(ctx, ev)
		return err
	}, 1000)
}

func newEventWriter(sink func(ctx context.Context, ev Event) error, buffer int) *EventWriter {
	w := &EventWriter{
		sink:   sink,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}

	go w.process()

	return w
}

// Add never blocks; when the buffer is full the event is dropped.
func (w *EventWriter) Add(ev Event) {
	select {
	case w.events <- ev:
	default:
		fmt.Println("Dashboard event buffer full, dropping:", ev.Message)
	}
}

// Close drains pending events and stops the worker.
func (w *EventWriter) Close() {
	close(w.events)
	<-w.done
}

func (w *EventWriter) process() {
	defer close(w.done)
	for ev := range w.events {
		ev.LevelName = ev.Level.String()
		if ev.Time.IsZero() {
			ev.Time = time.Now().UTC()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = w.sink(ctx, ev)
		cancel()
	}
}
