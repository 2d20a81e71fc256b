package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/campusdesk/complaint-service/internal/observability"
)

type options struct {
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Cron         *cron.Cron
	Location     *time.Location
	RestartDelay time.Duration
	Clock        func() time.Time
}

// Option applies configuration to the scheduler.
type Option func(*options)

func defaultOptions() options {
	return options{
		Logger:       zap.NewNop(),
		Location:     time.UTC,
		RestartDelay: 2 * time.Second,
		Clock:        time.Now,
	}
}

// WithLogger injects a logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.Logger = l
	}
}

// WithMetrics records sweep metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.Metrics = m
	}
}

// WithCron supplies a preconfigured cron engine.
func WithCron(c *cron.Cron) Option {
	return func(o *options) {
		o.Cron = c
	}
}

// WithLocation sets the engine timezone.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		o.Location = loc
	}
}

// WithRestartDelay sets the pause between stop and start on Restart.
func WithRestartDelay(d time.Duration) Option {
	return func(o *options) {
		o.RestartDelay = d
	}
}

// WithClock overrides the time source used for status timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.Clock = now
	}
}

// cronLogger adapts zap to the cron.Logger interface.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func newCronLogger(l *zap.Logger) cron.Logger {
	return cronLogger{logger: l.Sugar()}
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
