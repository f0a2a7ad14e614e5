package viewer

import (
	"errors"
	"sync"
	"time"

	"go-dashboards/internal/logger"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrSkipped is returned by a refresh func that had nothing to do. The tick
// neither counts as a refresh nor as a failure.
var ErrSkipped = errors.New("refresh skipped")

type RefreshState int

const (
	Disabled RefreshState = iota
	Idle
	Refreshing
)

func (s RefreshState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Refreshing:
		return "refreshing"
	default:
		return "disabled"
	}
}

func (s RefreshState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Scheduler re-runs a silent refresh on a fixed interval. At most one refresh
// runs at a time; ticks that find one in flight, or a foreground load busy,
// are skipped.
type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	epoch    uint64
	state    RefreshState
	interval time.Duration
	last     time.Time

	refresh func() error
	busy    func() bool
	log     *zap.Logger
	now     func() time.Time
}

// NewScheduler returns a disabled scheduler. busy may be nil.
func NewScheduler(refresh func() error, busy func() bool, log *zap.Logger) *Scheduler {
	return &Scheduler{
		refresh: refresh,
		busy:    busy,
		log:     logger.OrNop(log),
		now:     time.Now,
	}
}

// Start (re)arms the scheduler. Any previous schedule is stopped first, so
// ticks of an earlier schedule never run. intervalSeconds <= 0 leaves the
// scheduler disabled.
func (s *Scheduler) Start(intervalSeconds int) {
	s.Stop()
	if intervalSeconds <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	epoch := s.epoch
	s.interval = time.Duration(intervalSeconds) * time.Second
	s.last = s.now()
	s.state = Idle

	s.cron = cron.New()
	s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(func() { s.tick(epoch) }))
	s.cron.Start()
}

// Stop disables the scheduler and waits for a running refresh to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.epoch++
	s.state = Disabled
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// Tick runs one scheduled refresh cycle immediately.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()
	s.tick(epoch)
}

func (s *Scheduler) tick(epoch uint64) {
	s.mu.Lock()
	if epoch != s.epoch || s.state != Idle || (s.busy != nil && s.busy()) {
		s.mu.Unlock()
		return
	}
	s.state = Refreshing
	s.mu.Unlock()

	err := s.refresh()

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return
	}
	s.state = Idle
	if errors.Is(err, ErrSkipped) {
		return
	}
	if err != nil {
		s.log.Warn("silent refresh failed", zap.Error(err))
		return
	}
	s.last = s.now()
}

func (s *Scheduler) State() RefreshState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastRefresh is the time of the last successful refresh, or of Start.
func (s *Scheduler) LastRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// SecondsLeft is the countdown to the next refresh, never negative.
func (s *Scheduler) SecondsLeft(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Disabled {
		return 0
	}
	elapsed := int(now.Sub(s.last) / time.Second)
	left := int(s.interval/time.Second) - elapsed
	if left < 0 {
		return 0
	}
	return left
}
