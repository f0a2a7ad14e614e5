package viewer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-dashboards/internal/features/dashboard"
	"go-dashboards/internal/features/query"
	"go-dashboards/internal/features/widget"
	"go-dashboards/pkg/filters"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sectionFunc func(ctx context.Context, values filters.Values) (*query.SectionData, error)

type fakeAccess struct {
	mu         sync.Mutex
	structures map[string]*dashboard.Structure
	sections   map[string]sectionFunc
	fetches    []string
	payloads   []filters.Values
}

func newFakeAccess() *fakeAccess {
	return &fakeAccess{structures: map[string]*dashboard.Structure{}, sections: map[string]sectionFunc{}}
}

func (f *fakeAccess) GetDashboard(ctx context.Context, key, token string) (*dashboard.Structure, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.structures[key]
	if !ok {
		return nil, dashboard.ErrNotFound
	}
	return st, nil
}

func (f *fakeAccess) GetSectionData(ctx context.Context, sectionID string, values filters.Values, token string) (*query.SectionData, error) {
	f.mu.Lock()
	f.fetches = append(f.fetches, sectionID)
	f.payloads = append(f.payloads, values)
	fn := f.sections[sectionID]
	f.mu.Unlock()
	if fn == nil {
		return &query.SectionData{}, nil
	}
	return fn(ctx, values)
}

func (f *fakeAccess) GetWidgetData(ctx context.Context, widgetID string, values filters.Values) (any, error) {
	return values, nil
}

func (f *fakeAccess) setSection(id string, fn sectionFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sections[id] = fn
}

func (f *fakeAccess) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetches)
}

func section(key string, widgets ...widget.Widget) dashboard.SectionView {
	return dashboard.SectionView{
		Section: dashboard.Section{ID: primitive.NewObjectID(), Key: key, Active: true},
		Widgets: widgets,
	}
}

func respond(entries map[string]query.WidgetResult) sectionFunc {
	return func(ctx context.Context, values filters.Values) (*query.SectionData, error) {
		return &query.SectionData{Widgets: entries}, nil
	}
}

func fail(err error) sectionFunc {
	return func(ctx context.Context, values filters.Values) (*query.SectionData, error) {
		return nil, err
	}
}

type fakeStore struct {
	mu    sync.Mutex
	saved map[string]filters.Values
	loads int
	saves int
}

func (s *fakeStore) Load(ctx context.Context, key string) (filters.Values, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.saved[key], nil
}

func (s *fakeStore) Save(ctx context.Context, key string, values filters.Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.saved[key] = values
	return nil
}

func TestLoadAll_SectionFailureKeepsSiblings(t *testing.T) {
	access := newFakeAccess()
	a, b := section("a"), section("b")
	access.setSection(a.ID.Hex(), fail(errors.New("503")))
	access.setSection(b.ID.Hex(), respond(map[string]query.WidgetResult{
		"w1": {Data: []int{1, 2}},
		"w2": {Error: "division by zero"},
	}))

	st := &dashboard.Structure{Dashboard: dashboard.Dashboard{Key: "sales"}, Sections: []dashboard.SectionView{a, b}}
	res, err := NewLoader(access, 0, nil).LoadAll(context.Background(), st, nil, "")

	require.Error(t, err)
	var sectionErr *SectionError
	require.ErrorAs(t, err, &sectionErr)
	assert.Equal(t, "a", sectionErr.SectionKey)

	assert.Equal(t, []int{1, 2}, res.Data["w1"])
	assert.Equal(t, "division by zero", res.Errors["w2"])
	assert.NotContains(t, res.Data, "w2")
	assert.Equal(t, 2, access.fetchCount())
}

func TestLoadAll_SendsEffectivePayload(t *testing.T) {
	access := newFakeAccess()
	st := &dashboard.Structure{
		Sections: []dashboard.SectionView{section("a")},
		Filters:  []filters.Definition{{VarName: "q", Type: filters.TypeText}, {VarName: "n", Type: filters.TypeNumber}},
	}

	_, err := NewLoader(access, 1, nil).LoadAll(context.Background(), st, filters.Values{"q": "", "n": 2.0, "other": 1}, "")
	require.NoError(t, err)
	assert.Equal(t, []filters.Values{{"n": 2.0}}, access.payloads)
}

func TestScheduler_ZeroIntervalNeverRefreshes(t *testing.T) {
	for _, interval := range []int{0, -5} {
		calls := 0
		s := NewScheduler(func() error { calls++; return nil }, nil, nil)
		s.Start(interval)
		s.Tick()
		s.Tick()

		assert.Equal(t, Disabled, s.State())
		assert.Equal(t, 0, calls)
		assert.Equal(t, 0, s.SecondsLeft(time.Now()))
	}
}

func TestScheduler_TickLifecycle(t *testing.T) {
	calls := 0
	var s *Scheduler
	s = NewScheduler(func() error {
		calls++
		assert.Equal(t, Refreshing, s.State())
		// A tick while refreshing is skipped.
		s.Tick()
		return nil
	}, nil, nil)

	s.Start(3600)
	defer s.Stop()
	require.Equal(t, Idle, s.State())

	s.Tick()
	assert.Equal(t, 1, calls)
	assert.Equal(t, Idle, s.State())
}

func TestScheduler_ErrorsAreSwallowed(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewScheduler(func() error { return errors.New("boom") }, nil, nil)
	s.now = func() time.Time { return base }
	s.Start(3600)
	defer s.Stop()

	s.now = func() time.Time { return base.Add(time.Minute) }
	s.Tick()

	assert.Equal(t, Idle, s.State())
	assert.Equal(t, base, s.LastRefresh(), "failed refreshes do not move the countdown")
}

func TestScheduler_SkippedTickIsNotARefresh(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewScheduler(func() error { return ErrSkipped }, nil, nil)
	s.now = func() time.Time { return base }
	s.Start(3600)
	defer s.Stop()

	s.now = func() time.Time { return base.Add(time.Minute) }
	s.Tick()

	assert.Equal(t, Idle, s.State())
	assert.Equal(t, base, s.LastRefresh())
}

func TestSession_GatedTickKeepsCountdown(t *testing.T) {
	access := newFakeAccess()
	regionDashboard(access)
	access.structures["sales"].RefreshSeconds = 3600

	s := NewSession(access, Options{})
	defer s.Close()
	require.NoError(t, s.Open(context.Background(), "sales"))
	last := s.Scheduler().LastRefresh()

	s.Scheduler().now = func() time.Time { return last.Add(time.Minute) }
	s.Scheduler().Tick()

	assert.Equal(t, 0, access.fetchCount(), "required filter still missing")
	assert.Equal(t, last, s.Scheduler().LastRefresh())
	assert.Equal(t, Idle, s.Scheduler().State())
}

func TestScheduler_SkipsWhileForegroundBusy(t *testing.T) {
	calls := 0
	busy := true
	s := NewScheduler(func() error { calls++; return nil }, func() bool { return busy }, nil)
	s.Start(3600)
	defer s.Stop()

	s.Tick()
	assert.Equal(t, 0, calls)

	busy = false
	s.Tick()
	assert.Equal(t, 1, calls)
}

func TestScheduler_StopDisables(t *testing.T) {
	calls := 0
	s := NewScheduler(func() error { calls++; return nil }, nil, nil)
	s.Start(3600)
	s.Stop()
	s.Tick()

	assert.Equal(t, Disabled, s.State())
	assert.Equal(t, 0, calls)
}

func TestScheduler_SecondsLeft(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewScheduler(func() error { return nil }, nil, nil)
	s.now = func() time.Time { return base }
	s.Start(30)
	defer s.Stop()

	assert.Equal(t, 30, s.SecondsLeft(base))
	assert.Equal(t, 18, s.SecondsLeft(base.Add(12500*time.Millisecond)))
	assert.Equal(t, 0, s.SecondsLeft(base.Add(45*time.Second)))
}

func regionDashboard(access *fakeAccess) (*dashboard.Structure, dashboard.SectionView) {
	main := section("main", widget.Widget{ID: primitive.NewObjectID(), WidgetType: widget.TypeMetricCard, Active: true})
	st := &dashboard.Structure{
		Dashboard: dashboard.Dashboard{Key: "sales"},
		Sections:  []dashboard.SectionView{main},
		Filters:   []filters.Definition{{VarName: "REGION", Name: "Região", Type: filters.TypeSelect, Required: true}},
	}
	access.structures["sales"] = st
	return st, main
}

func TestSession_RegionScenario(t *testing.T) {
	access := newFakeAccess()
	_, main := regionDashboard(access)
	access.setSection(main.ID.Hex(), func(ctx context.Context, values filters.Values) (*query.SectionData, error) {
		return &query.SectionData{Widgets: map[string]query.WidgetResult{"w": {Data: values["REGION"]}}}, nil
	})

	s := NewSession(access, Options{})
	defer s.Close()

	require.NoError(t, s.Open(context.Background(), "sales"))
	assert.Equal(t, 0, access.fetchCount())
	assert.Equal(t, []string{"Região"}, s.Snapshot().Missing)

	err := s.Apply(context.Background())
	var gating *GatingError
	require.ErrorAs(t, err, &gating)
	assert.Equal(t, []string{"Região"}, gating.Missing)
	assert.Equal(t, 0, access.fetchCount())

	require.NoError(t, s.SetFilter("REGION", "south"))
	assert.Equal(t, 0, access.fetchCount(), "setting a filter never fetches")

	require.NoError(t, s.Apply(context.Background()))
	assert.Equal(t, 1, access.fetchCount())

	snap := s.Snapshot()
	assert.Empty(t, snap.Missing)
	assert.Equal(t, "south", snap.Data["w"])
}

func TestSession_StructureFailure(t *testing.T) {
	s := NewSession(newFakeAccess(), Options{})
	defer s.Close()

	err := s.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, dashboard.ErrNotFound)
	assert.Equal(t, Disabled, s.Scheduler().State())
	assert.ErrorIs(t, s.Refresh(context.Background()), ErrNotOpen)
}

func TestSession_FilterStore(t *testing.T) {
	access := newFakeAccess()
	regionDashboard(access)

	store := &fakeStore{saved: map[string]filters.Values{"sales": {"REGION": "north"}}}
	s := NewSession(access, Options{Store: store})
	defer s.Close()

	require.NoError(t, s.Open(context.Background(), "sales"))
	assert.Equal(t, 1, access.fetchCount(), "saved filters satisfy the gate")
	assert.Equal(t, "north", s.Snapshot().Values["REGION"])

	require.NoError(t, s.SetFilter("REGION", "south"))
	require.NoError(t, s.Apply(context.Background()))
	assert.Equal(t, "south", store.saved["sales"]["REGION"])
}

func TestSession_InvitationIgnoresFilterStore(t *testing.T) {
	access := newFakeAccess()
	regionDashboard(access)

	store := &fakeStore{saved: map[string]filters.Values{"sales": {"REGION": "north"}}}
	s := NewSession(access, Options{Token: "tok", Store: store})
	defer s.Close()

	require.NoError(t, s.Open(context.Background(), "sales"))
	require.NoError(t, s.SetFilter("REGION", "south"))
	require.NoError(t, s.Apply(context.Background()))

	assert.Equal(t, 0, store.loads)
	assert.Equal(t, 0, store.saves)
}

func TestSession_ResetFiltersAndWidgetData(t *testing.T) {
	access := newFakeAccess()
	_, main := regionDashboard(access)
	id := main.Widgets[0].ID.Hex()

	s := NewSession(access, Options{})
	defer s.Close()

	_, err := s.WidgetData(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, s.ResetFilters(), ErrNotOpen)

	require.NoError(t, s.Open(context.Background(), "sales"))
	require.NoError(t, s.SetFilter("REGION", "south"))

	data, err := s.WidgetData(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, filters.Values{"REGION": "south"}, data)

	_, err = s.WidgetData(context.Background(), primitive.NewObjectID().Hex())
	assert.Error(t, err)

	require.NoError(t, s.ResetFilters())
	assert.Equal(t, []string{"Região"}, s.Snapshot().Missing)
	var gating *GatingError
	assert.ErrorAs(t, s.Apply(context.Background()), &gating)
	assert.Equal(t, 0, access.fetchCount())
}

func TestSession_ForegroundFailureSurfaces(t *testing.T) {
	access := newFakeAccess()
	a, b := section("a"), section("b")
	access.structures["ops"] = &dashboard.Structure{Dashboard: dashboard.Dashboard{Key: "ops"}, Sections: []dashboard.SectionView{a, b}}
	access.setSection(a.ID.Hex(), fail(errors.New("503")))
	access.setSection(b.ID.Hex(), respond(map[string]query.WidgetResult{"w1": {Data: 1}, "w2": {Error: "bad"}}))

	s := NewSession(access, Options{})
	defer s.Close()

	err := s.Open(context.Background(), "ops")
	var sectionErr *SectionError
	require.ErrorAs(t, err, &sectionErr)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Data["w1"])
	assert.Equal(t, "bad", snap.Errors["w2"])
}

func TestSession_SilentRefreshKeepsDataOnFailure(t *testing.T) {
	access := newFakeAccess()
	a := section("a")
	access.structures["ops"] = &dashboard.Structure{
		Dashboard:      dashboard.Dashboard{Key: "ops"},
		Sections:       []dashboard.SectionView{a},
		RefreshSeconds: 3600,
	}
	access.setSection(a.ID.Hex(), respond(map[string]query.WidgetResult{"w1": {Data: "old"}}))

	var updates int
	var mu sync.Mutex
	s := NewSession(access, Options{OnUpdate: func(Snapshot) { mu.Lock(); updates++; mu.Unlock() }})
	defer s.Close()

	require.NoError(t, s.Open(context.Background(), "ops"))
	require.Equal(t, Idle, s.Scheduler().State())

	access.setSection(a.ID.Hex(), fail(errors.New("timeout")))
	s.Scheduler().Tick()

	assert.Equal(t, 2, access.fetchCount())
	assert.Equal(t, "old", s.Snapshot().Data["w1"])
	assert.Equal(t, Idle, s.Scheduler().State())

	access.setSection(a.ID.Hex(), respond(map[string]query.WidgetResult{"w1": {Data: "new"}}))
	s.Scheduler().Tick()
	assert.Equal(t, "new", s.Snapshot().Data["w1"])

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, updates)
}

func TestSession_SwitchDiscardsStaleResults(t *testing.T) {
	access := newFakeAccess()
	slow, fast := section("slow"), section("fast")
	access.structures["old"] = &dashboard.Structure{Dashboard: dashboard.Dashboard{Key: "old"}, Sections: []dashboard.SectionView{slow}}
	access.structures["new"] = &dashboard.Structure{Dashboard: dashboard.Dashboard{Key: "new"}, Sections: []dashboard.SectionView{fast}}

	started := make(chan struct{})
	access.setSection(slow.ID.Hex(), func(ctx context.Context, values filters.Values) (*query.SectionData, error) {
		close(started)
		<-ctx.Done()
		return &query.SectionData{Widgets: map[string]query.WidgetResult{"stale": {Data: 1}}}, nil
	})
	access.setSection(fast.ID.Hex(), respond(map[string]query.WidgetResult{"fresh": {Data: 2}}))

	s := NewSession(access, Options{})
	defer s.Close()

	oldErr := make(chan error, 1)
	go func() { oldErr <- s.Open(context.Background(), "old") }()
	<-started

	require.NoError(t, s.Open(context.Background(), "new"))
	assert.ErrorIs(t, <-oldErr, context.Canceled)

	snap := s.Snapshot()
	assert.Equal(t, "new", snap.DashboardKey)
	assert.Equal(t, 2, snap.Data["fresh"])
	assert.NotContains(t, snap.Data, "stale")
}

func TestBuildLayout(t *testing.T) {
	chart := widget.Widget{ID: primitive.NewObjectID(), WidgetType: widget.TypeChartLine, Active: true}
	table := widget.Widget{ID: primitive.NewObjectID(), WidgetType: widget.TypeTable, Active: true}
	hidden := widget.Widget{ID: primitive.NewObjectID(), WidgetType: widget.TypeChartPie}

	layouts := BuildLayout(&dashboard.Structure{Sections: []dashboard.SectionView{section("main", chart, hidden, table)}})
	require.Len(t, layouts, 1)

	rows := layouts[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, 12, rows[0][0].Width)
	require.NotNil(t, rows[0][0].Scheme)
	assert.Equal(t, 12, rows[1][0].Width)
	assert.Nil(t, rows[1][0].Scheme)
}
