package viewer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/features/query"
	"go-dashboards/internal/logger"
	"go-dashboards/pkg/filters"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const meterName = "go-dashboards/viewer"

// Result is the widget data store produced by one load cycle.
type Result struct {
	Data   map[string]any    `json:"data"`
	Errors map[string]string `json:"errors"`
}

func newResult() *Result {
	return &Result{Data: map[string]any{}, Errors: map[string]string{}}
}

func (r *Result) merge(sd *query.SectionData) {
	for id, entry := range sd.Widgets {
		if entry.Error != "" {
			r.Errors[id] = entry.Error
			delete(r.Data, id)
			continue
		}
		r.Data[id] = entry.Data
		delete(r.Errors, id)
	}
}

// apply overlays the entries of other.
func (r *Result) apply(other *Result) {
	for id, v := range other.Data {
		r.Data[id] = v
		delete(r.Errors, id)
	}
	for id, msg := range other.Errors {
		r.Errors[id] = msg
		delete(r.Data, id)
	}
}

func (r *Result) clone() *Result {
	out := &Result{Data: make(map[string]any, len(r.Data)), Errors: make(map[string]string, len(r.Errors))}
	for k, v := range r.Data {
		out.Data[k] = v
	}
	for k, v := range r.Errors {
		out.Errors[k] = v
	}
	return out
}

// Loader fetches every section of a structure concurrently.
type Loader struct {
	access   DataAccess
	limit    int
	log      *zap.Logger
	fetches  metric.Int64Counter
	duration metric.Float64Histogram
}

// NewLoader builds a loader. limit bounds concurrent section fetches; 0 means
// unbounded.
func NewLoader(access DataAccess, limit int, log *zap.Logger) *Loader {
	meter := otel.Meter(meterName)
	fetches, err := meter.Int64Counter(
		"dashboard_section_fetch_total",
		metric.WithDescription("Section data fetches by outcome"),
	)
	if err != nil {
		otel.Handle(err)
	}
	duration, err := meter.Float64Histogram(
		"dashboard_section_fetch_duration_seconds",
		metric.WithDescription("Section data fetch latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
	}
	return &Loader{
		access:   access,
		limit:    limit,
		log:      logger.OrNop(log),
		fetches:  fetches,
		duration: duration,
	}
}

// LoadAll issues one fetch per section and waits for all of them. Sections
// that fail are returned as joined *SectionError values; the result still
// holds every section that succeeded.
//
// The caller gates on filters.CanLoad before calling.
func (l *Loader) LoadAll(ctx context.Context, st *dashboard.Structure, values filters.Values, token string) (*Result, error) {
	payload := filters.Payload(st.Filters, values)

	responses := make([]*query.SectionData, len(st.Sections))
	var (
		mu   sync.Mutex
		errs []error
	)

	g := new(errgroup.Group)
	if l.limit > 0 {
		g.SetLimit(l.limit)
	}
	for i := range st.Sections {
		i := i
		sec := st.Sections[i]
		g.Go(func() error {
			sd, err := l.fetch(ctx, st.Dashboard.Key, sec.ID.Hex(), payload, token)
			if err != nil {
				mu.Lock()
				errs = append(errs, &SectionError{SectionID: sec.ID.Hex(), SectionKey: sec.Key, Err: err})
				mu.Unlock()
				return nil
			}
			responses[i] = sd
			return nil
		})
	}
	_ = g.Wait()

	result := newResult()
	for _, sd := range responses {
		if sd != nil {
			result.merge(sd)
		}
	}
	return result, errors.Join(errs...)
}

func (l *Loader) fetch(ctx context.Context, key, sectionID string, payload filters.Values, token string) (*query.SectionData, error) {
	start := time.Now()
	sd, err := l.access.GetSectionData(ctx, sectionID, payload, token)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		l.log.Debug("section fetch failed",
			zap.String(logger.FieldDashboardKey, key),
			zap.String(logger.FieldSectionID, sectionID),
			zap.Error(err))
	}
	if l.fetches != nil {
		l.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
	if l.duration != nil {
		l.duration.Record(ctx, time.Since(start).Seconds())
	}
	if err == nil && sd == nil {
		sd = &query.SectionData{}
	}
	return sd, err
}
