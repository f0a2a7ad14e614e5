package viewer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/features/widget"
	"go-dashboards/internal/logger"
	"go-dashboards/pkg/filters"

	"go.uber.org/zap"
)

var ErrNotOpen = errors.New("no dashboard open")

// FilterStore persists the last applied filter values per dashboard key.
type FilterStore interface {
	// Load returns nil when nothing is saved or saving is disabled.
	Load(ctx context.Context, key string) (filters.Values, error)
	Save(ctx context.Context, key string, values filters.Values) error
}

type Options struct {
	// Token opens dashboards through an invitation. Invitation sessions never
	// touch the filter store.
	Token                 string
	MaxConcurrentSections int
	Store                 FilterStore
	Logger                *zap.Logger
	// OnUpdate receives a snapshot after every completed load, foreground or
	// silent. It must not call back into the session's load methods.
	OnUpdate func(Snapshot)
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	DashboardKey string            `json:"dashboard_key"`
	Values       filters.Values    `json:"values"`
	Data         map[string]any    `json:"data"`
	Errors       map[string]string `json:"errors"`
	Missing      []string          `json:"missing"`
	Loading      bool              `json:"loading"`
	Refresh      RefreshState      `json:"refresh"`
	SecondsLeft  int               `json:"seconds_left"`
	LastRefresh  time.Time         `json:"last_refresh"`
}

// Session is one open dashboard view. It is the only writer of its widget
// data store; readers get copies through Snapshot.
type Session struct {
	access    DataAccess
	loader    *Loader
	scheduler *Scheduler
	opts      Options
	log       *zap.Logger

	// loadMu serializes load cycles.
	loadMu  sync.Mutex
	loading atomic.Bool

	mu        sync.RWMutex
	structure *dashboard.Structure
	filters   *filters.Manager
	result    *Result
	gen       uint64
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewSession(access DataAccess, opts Options) *Session {
	log := logger.OrNop(opts.Logger)
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		access: access,
		loader: NewLoader(access, opts.MaxConcurrentSections, log),
		opts:   opts,
		log:    log,
		result: newResult(),
		ctx:    ctx,
		cancel: cancel,
	}
	s.scheduler = NewScheduler(s.silentRefresh, s.Busy, log)
	return s
}

// Open switches the session to a dashboard. In-flight loads of the previous
// dashboard are cancelled and their results discarded. When the filters
// allow it the first load runs before Open returns; its section failures are
// returned but auto refresh still starts. A structure failure starts nothing.
func (s *Session) Open(ctx context.Context, key string) error {
	gen := s.resetView()
	s.scheduler.Stop()

	st, err := s.access.GetDashboard(ctx, key, s.opts.Token)
	if err != nil {
		return fmt.Errorf("load dashboard %q: %w", key, err)
	}

	var saved filters.Values
	if s.opts.Token == "" && s.opts.Store != nil {
		saved, err = s.opts.Store.Load(ctx, key)
		if err != nil {
			s.log.Warn("failed to read saved filters", zap.String(logger.FieldDashboardKey, key), zap.Error(err))
			saved = nil
		}
	}
	mgr := filters.NewManager(st.Filters, saved)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return context.Canceled
	}
	s.structure = st
	s.filters = mgr
	s.mu.Unlock()

	var loadErr error
	if mgr.CanLoad() {
		loadErr = s.load(ctx, false)
	}
	if !s.current(gen) {
		return context.Canceled
	}
	s.scheduler.Start(st.RefreshSeconds)
	return loadErr
}

func (s *Session) current(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gen == s.gen
}

// resetView cancels the current view and starts a new generation.
func (s *Session) resetView() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
	s.gen++
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.structure = nil
	s.filters = nil
	s.result = newResult()
	return s.gen
}

// Close stops auto refresh and discards in-flight loads.
func (s *Session) Close() {
	s.mu.Lock()
	s.cancel()
	s.gen++
	s.mu.Unlock()
	s.scheduler.Stop()
}

// SetFilter changes one filter value. It never loads data.
func (s *Session) SetFilter(name string, value any) error {
	mgr := s.manager()
	if mgr == nil {
		return ErrNotOpen
	}
	if _, ok := mgr.Definition(name); !ok {
		return fmt.Errorf("unknown filter %q", name)
	}
	mgr.Set(name, value)
	return nil
}

// ResetFilters puts every filter back to its declared default. Like
// SetFilter it never loads data.
func (s *Session) ResetFilters() error {
	mgr := s.manager()
	if mgr == nil {
		return ErrNotOpen
	}
	mgr.Reset()
	return nil
}

// Apply persists the current filters (outside invitation sessions) and runs
// a foreground load.
func (s *Session) Apply(ctx context.Context) error {
	if err := s.gate(); err != nil {
		return err
	}
	if s.opts.Token == "" && s.opts.Store != nil {
		s.mu.RLock()
		st, mgr := s.structure, s.filters
		s.mu.RUnlock()
		if st == nil || mgr == nil {
			return ErrNotOpen
		}
		key, values := st.Dashboard.Key, mgr.Values()
		if err := s.opts.Store.Save(ctx, key, values); err != nil {
			s.log.Warn("failed to save filters", zap.String(logger.FieldDashboardKey, key), zap.Error(err))
		}
	}
	return s.load(ctx, false)
}

// Refresh runs a foreground load with the current filters.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.gate(); err != nil {
		return err
	}
	return s.load(ctx, false)
}

func (s *Session) gate() error {
	mgr := s.manager()
	if mgr == nil {
		return ErrNotOpen
	}
	if missing := mgr.MissingRequired(); len(missing) > 0 {
		return &GatingError{Missing: missing}
	}
	return nil
}

func (s *Session) silentRefresh() error {
	mgr := s.manager()
	if mgr == nil || !mgr.CanLoad() {
		return ErrSkipped
	}
	return s.load(context.Background(), true)
}

// load runs one cycle. Foreground cycles clear the store first; silent cycles
// keep what is shown, and on failure only the sections that answered replace
// their entries.
func (s *Session) load(ctx context.Context, silent bool) error {
	if silent {
		if !s.loadMu.TryLock() {
			return ErrSkipped
		}
	} else {
		s.loadMu.Lock()
		s.loading.Store(true)
		defer s.loading.Store(false)
	}
	defer s.loadMu.Unlock()

	s.mu.Lock()
	st, mgr, gen, viewCtx := s.structure, s.filters, s.gen, s.ctx
	if st == nil {
		s.mu.Unlock()
		return ErrNotOpen
	}
	if !silent {
		s.result = newResult()
	}
	values := mgr.Values()
	s.mu.Unlock()

	loadCtx, cancel := context.WithCancel(viewCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	res, err := s.loader.LoadAll(loadCtx, st, values, s.opts.Token)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return context.Canceled
	}
	if silent && err != nil {
		merged := s.result.clone()
		merged.apply(res)
		s.result = merged
	} else {
		s.result = res
	}
	s.mu.Unlock()

	if s.opts.OnUpdate != nil {
		s.opts.OnUpdate(s.Snapshot())
	}
	return err
}

// WidgetData loads a single widget of the open dashboard outside of a
// section batch.
func (s *Session) WidgetData(ctx context.Context, widgetID string) (any, error) {
	s.mu.RLock()
	st, mgr := s.structure, s.filters
	s.mu.RUnlock()
	if st == nil || mgr == nil {
		return nil, ErrNotOpen
	}
	if !slices.ContainsFunc(st.Widgets(), func(w widget.Widget) bool { return w.ID.Hex() == widgetID }) {
		return nil, fmt.Errorf("widget %q is not on dashboard %q", widgetID, st.Dashboard.Key)
	}
	return s.access.GetWidgetData(ctx, widgetID, mgr.Payload())
}

func (s *Session) manager() *filters.Manager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// Busy reports whether a foreground load is running.
func (s *Session) Busy() bool { return s.loading.Load() }

// Structure is the open dashboard, nil before Open succeeds. Callers must not
// modify it.
func (s *Session) Structure() *dashboard.Structure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.structure
}

func (s *Session) Scheduler() *Scheduler { return s.scheduler }

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	res := s.result.clone()
	var (
		key     string
		values  filters.Values
		missing []string
	)
	if s.structure != nil {
		key = s.structure.Dashboard.Key
	}
	if s.filters != nil {
		values = s.filters.Values()
		missing = s.filters.MissingRequired()
	}
	s.mu.RUnlock()

	return Snapshot{
		DashboardKey: key,
		Values:       values,
		Data:         res.Data,
		Errors:       res.Errors,
		Missing:      missing,
		Loading:      s.Busy(),
		Refresh:      s.scheduler.State(),
		SecondsLeft:  s.scheduler.SecondsLeft(time.Now()),
		LastRefresh:  s.scheduler.LastRefresh(),
	}
}
