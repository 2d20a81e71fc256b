package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/campusdesk/complaint-service/internal/observability"
	"github.com/campusdesk/complaint-service/internal/service"
	apperrors "github.com/campusdesk/complaint-service/pkg/util/errorutil"
)

const (
	MinIntervalMinutes = 5
	MaxIntervalMinutes = 1440

	triggerScheduled = "scheduled"
	triggerManual    = "manual"
	triggerStartup   = "startup"
)

// Sweeper is the escalation work the scheduler drives.
type Sweeper interface {
	SweepOverdue(ctx context.Context) (*service.SweepResult, error)
	EscalateIfOverdue(ctx context.Context, complaintID string) (bool, error)
}

// Status describes the scheduler at a point in time.
type Status struct {
	Active          bool
	Running         bool
	IntervalMinutes int
	NextRunAt       *time.Time
	LastRunAt       *time.Time
	LastTrigger     string
	LastResult      *service.SweepResult
	LastError       string
	PendingChecks   int
}

// Scheduler runs the escalation sweep on a fixed interval and one-off
// deadline checks for single complaints. At most one sweep runs at a time;
// scheduled fires that find a sweep in flight are skipped.
type Scheduler struct {
	sweeper      Sweeper
	cron         *cron.Cron
	logger       *zap.Logger
	metrics      *observability.Metrics
	restartDelay time.Duration
	now          func() time.Time

	running atomic.Bool

	mu            sync.Mutex
	engineStarted bool
	active        bool
	interval      int
	sweepEntry    cron.EntryID
	checks        map[string]cron.EntryID
	lastRunAt     *time.Time
	lastTrigger   string
	lastResult    *service.SweepResult
	lastError     string
}

// New builds a stopped scheduler with the given sweep interval in minutes.
func New(sweeper Sweeper, intervalMinutes int, opts ...Option) (*Scheduler, error) {
	if err := validateInterval(intervalMinutes); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	engine := o.Cron
	if engine == nil {
		cl := newCronLogger(o.Logger)
		engine = cron.New(
			cron.WithLocation(o.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		)
	}
	return &Scheduler{
		sweeper:      sweeper,
		cron:         engine,
		logger:       o.Logger.Named("scheduler"),
		metrics:      o.Metrics,
		restartDelay: o.RestartDelay,
		now:          o.Clock,
		interval:     intervalMinutes,
		checks:       make(map[string]cron.EntryID),
	}, nil
}

// Start schedules the recurring sweep. Starting an active scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked()
}

// Stop cancels future sweeps. A sweep already running is allowed to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Restart stops the sweep, waits the restart delay, then starts it again.
func (s *Scheduler) Restart(ctx context.Context) error {
	s.Stop()
	if s.restartDelay > 0 {
		timer := time.NewTimer(s.restartDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	s.Start()
	return nil
}

// UpdateInterval changes the sweep period. An active scheduler is
// rescheduled immediately; a stopped one keeps the new value for its next
// Start. A sweep in flight under the old period finishes normally.
func (s *Scheduler) UpdateInterval(minutes int) error {
	if err := validateInterval(minutes); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.interval
	s.interval = minutes
	if s.active {
		s.stopLocked()
		s.startLocked()
	}
	s.logger.Info("sweep interval updated", zap.Int("from_minutes", previous), zap.Int("to_minutes", minutes))
	return nil
}

// RunManually runs a sweep now on the caller's goroutine. It fails with
// SweepInProgress instead of waiting when a sweep is already running.
func (s *Scheduler) RunManually(ctx context.Context) (*service.SweepResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, apperrors.NewSweepInProgress()
	}
	defer s.running.Store(false)
	return s.sweep(ctx, triggerManual)
}

// RunOnStart triggers one sweep in the background, subject to the same
// mutual exclusion as scheduled fires.
func (s *Scheduler) RunOnStart() {
	go s.fire(triggerStartup)
}

// Status reports the current scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	status := Status{
		Active:          s.active,
		Running:         s.running.Load(),
		IntervalMinutes: s.interval,
		LastRunAt:       s.lastRunAt,
		LastTrigger:     s.lastTrigger,
		LastResult:      s.lastResult,
		LastError:       s.lastError,
		PendingChecks:   len(s.checks),
	}
	entryID := s.sweepEntry
	s.mu.Unlock()

	if status.Active && entryID != 0 {
		if next := s.cron.Entry(entryID).Next; !next.IsZero() {
			status.NextRunAt = &next
		}
	}
	return status
}

// WatchDeadline schedules a one-off overdue check for complaintID at at. A
// time in the past fires as soon as possible. Watching a complaint again
// replaces its pending check.
func (s *Scheduler) WatchDeadline(complaintID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureEngineLocked()
	if existing, ok := s.checks[complaintID]; ok {
		s.cron.Remove(existing)
	}

	var id cron.EntryID
	id = s.cron.Schedule(&onceSchedule{at: at}, cron.FuncJob(func() {
		s.finishCheck(complaintID, &id)
		s.check(complaintID)
	}))
	s.checks[complaintID] = id
	s.logger.Debug("deadline check scheduled", zap.String("complaint_id", complaintID), zap.Time("at", at))
}

// Close stops the engine and waits for running jobs until ctx is done.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	s.stopLocked()
	started := s.engineStarted
	s.engineStarted = false
	s.mu.Unlock()

	if !started {
		return nil
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) startLocked() {
	if s.active {
		return
	}
	s.ensureEngineLocked()
	every := time.Duration(s.interval) * time.Minute
	s.sweepEntry = s.cron.Schedule(cron.Every(every), cron.FuncJob(func() { s.fire(triggerScheduled) }))
	s.active = true
	s.logger.Info("escalation sweep scheduled", zap.Int("interval_minutes", s.interval))
}

func (s *Scheduler) stopLocked() {
	if !s.active {
		return
	}
	s.cron.Remove(s.sweepEntry)
	s.sweepEntry = 0
	s.active = false
	s.logger.Info("escalation sweep stopped")
}

func (s *Scheduler) ensureEngineLocked() {
	if s.engineStarted {
		return
	}
	s.cron.Start()
	s.engineStarted = true
}

// fire runs a sweep unless one is already running, in which case the fire
// is dropped.
func (s *Scheduler) fire(trigger string) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.RecordSkippedFire()
		s.logger.Warn("sweep skipped: previous sweep still running", zap.String("trigger", trigger))
		return
	}
	defer s.running.Store(false)
	_, _ = s.sweep(context.Background(), trigger)
}

func (s *Scheduler) sweep(ctx context.Context, trigger string) (*service.SweepResult, error) {
	started := time.Now()
	result, err := s.sweeper.SweepOverdue(ctx)
	duration := time.Since(started)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "failed"
	case result != nil && result.ErrorCount > 0:
		outcome = "partial"
	}
	s.metrics.RecordSweep(outcome, duration)

	ranAt := s.now()
	s.mu.Lock()
	s.lastRunAt = &ranAt
	s.lastTrigger = trigger
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
		s.lastResult = result
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("escalation sweep failed", zap.String("trigger", trigger), zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (s *Scheduler) check(complaintID string) {
	escalated, err := s.sweeper.EscalateIfOverdue(context.Background(), complaintID)
	if err != nil {
		s.logger.Warn("deadline check failed", zap.String("complaint_id", complaintID), zap.Error(err))
		return
	}
	s.logger.Debug("deadline check completed", zap.String("complaint_id", complaintID), zap.Bool("escalated", escalated))
}

// finishCheck removes a fired one-off entry unless it was already replaced.
func (s *Scheduler) finishCheck(complaintID string, entry *cron.EntryID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := *entry
	if current, ok := s.checks[complaintID]; ok && current == id {
		delete(s.checks, complaintID)
	}
	s.cron.Remove(id)
}

func validateInterval(minutes int) error {
	if minutes < MinIntervalMinutes || minutes > MaxIntervalMinutes {
		return apperrors.NewInvalidInterval(minutes, MinIntervalMinutes, MaxIntervalMinutes)
	}
	return nil
}

// onceSchedule yields a single activation: at, or the first time it is asked
// if at has already passed. Every later call returns the zero time, which
// cron treats as never.
type onceSchedule struct {
	at   time.Time
	used atomic.Bool
}

func (o *onceSchedule) Next(t time.Time) time.Time {
	if o.used.Swap(true) {
		return time.Time{}
	}
	if o.at.After(t) {
		return o.at
	}
	return t
}
