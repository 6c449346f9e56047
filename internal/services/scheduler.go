package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"opsdash/internal/infrastructure"
)

// Reloader is satisfied by *DataService.
type Reloader interface {
	Reload(ctx context.Context, trigger string) (LoadStatus, error)
}

// RefreshScheduler reloads the datasets on a cron schedule.
type RefreshScheduler struct {
	reloader Reloader
	schedule string
	location *time.Location
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	entryID cron.EntryID
}

// NewRefreshScheduler creates a scheduler. An empty schedule disables it.
func NewRefreshScheduler(reloader Reloader, schedule string, loc *time.Location, logger *slog.Logger) *RefreshScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &RefreshScheduler{
		reloader: reloader,
		schedule: schedule,
		location: loc,
		logger:   infrastructure.WithComponent(logger, "refresh_scheduler"),
	}
}

// Enabled reports whether a schedule is configured.
func (s *RefreshScheduler) Enabled() bool {
	return s.schedule != ""
}

// Start schedules periodic reloads. Jobs run with a context derived from
// ctx that is cancelled by Stop.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	if !s.Enabled() {
		s.logger.InfoContext(ctx, "Scheduled refresh disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return ErrSchedulerRunning
	}

	log := cronLogger{s.logger}
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(log),
		cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
	)

	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	id, err := c.AddFunc(s.schedule, func() { s.run(jobCtx) })
	if err != nil {
		cancel()
		return fmt.Errorf("error scheduling refresh %q: %w", s.schedule, err)
	}

	c.Start()
	s.cron, s.cancel, s.entryID = c, cancel, id

	s.logger.InfoContext(ctx, "Scheduled refresh started",
		slog.String("schedule", s.schedule),
		slog.Time("next_run", c.Entry(id).Next))
	return nil
}

// Stop halts the schedule and waits for a running reload to finish or for
// ctx to end, whichever comes first.
func (s *RefreshScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}

	done := c.Stop()
	cancel()

	select {
	case <-done.Done():
		s.logger.InfoContext(ctx, "Scheduled refresh stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun returns the next scheduled reload, zero when not running.
func (s *RefreshScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

func (s *RefreshScheduler) run(ctx context.Context) {
	// each run gets its own trace id in the logs
	ctx = infrastructure.EnsureTraceID(ctx)
	status, err := s.reloader.Reload(ctx, TriggerScheduled)
	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled refresh failed", slog.String("error", err.Error()))
		return
	}
	s.logger.DebugContext(ctx, "Scheduled refresh completed",
		slog.String("load_id", status.LoadID),
		slog.Int("total_records", status.TotalRecords))
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{slog.String("error", err.Error())}, keysAndValues...)...)
}
