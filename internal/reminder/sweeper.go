package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"practice-scheduler/internal/logger"
	"practice-scheduler/internal/metrics"
	"practice-scheduler/internal/model"
	"practice-scheduler/internal/notify"
)

const (
	// reminders go out for appointments starting in [now+WindowStart, now+WindowEnd]
	WindowStart = 23 * time.Hour
	WindowEnd   = 24 * time.Hour

	defaultSchedule = "@hourly"
)

type Store interface {
	DueForReminder(ctx context.Context, from, to time.Time) ([]model.Appointment, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
}

type Notifier interface {
	Send(ctx context.Context, n notify.Notification) notify.Result
}

// Report summarises one sweep. MarkErrors collects rows whose mail went out
// but whose reminder_sent_at could not be written.
type Report struct {
	Sent       int
	Failed     int
	MarkErrors error
}

type Sweeper struct {
	store    Store
	sender   Notifier
	baseURL  string
	cron     *cron.Cron
	now      func() time.Time
	schedule string
	log      *zap.Logger
}

type Option func(*Sweeper)

// WithCron injects a preconfigured cron instance.
func WithCron(c *cron.Cron) Option {
	return func(s *Sweeper) {
		if c != nil {
			s.cron = c
		}
	}
}

func WithNow(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

func WithSchedule(expr string) Option {
	return func(s *Sweeper) {
		if expr != "" {
			s.schedule = expr
		}
	}
}

func New(st Store, sender Notifier, baseURL string, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:    st,
		sender:   sender,
		baseURL:  baseURL,
		now:      time.Now,
		schedule: defaultSchedule,
		log:      logger.WithModule("reminder"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return s
}

// Start registers the sweep with the scheduler and launches it.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		rep, err := s.RunOnce(context.Background())
		if err != nil {
			s.log.Error("reminder sweep failed", zap.Error(err))
			return
		}
		if rep.MarkErrors != nil {
			s.log.Warn("reminder sweep could not mark rows", zap.Error(rep.MarkErrors))
		}
	}); err != nil {
		return fmt.Errorf("reminder: schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.log.Info("reminder sweep scheduled", zap.String("schedule", s.schedule))
	return nil
}

// Stop halts the scheduler; the returned context is done once a running sweep finishes.
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce sends one reminder per due appointment, one row at a time, and
// marks a row only after its mail was accepted. Rows whose send failed stay
// unmarked and are picked up again by the next sweep while still in the window.
// A failing query aborts the sweep and is the only error returned.
func (s *Sweeper) RunOnce(ctx context.Context) (Report, error) {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	now := s.now()
	due, err := s.store.DueForReminder(ctx, now.Add(WindowStart), now.Add(WindowEnd))
	if err != nil {
		return Report{}, fmt.Errorf("reminder: query due appointments: %w", err)
	}

	var rep Report
	for i := range due {
		a := &due[i]
		res := s.sender.Send(ctx, notify.ForAppointment(notify.KindReminder, a, s.baseURL))
		if !res.OK {
			rep.Failed++
			metrics.Reminders.WithLabelValues("failed").Inc()
			s.log.Warn("reminder not sent",
				zap.String("appointment_id", a.ID),
				zap.String("error", res.Error))
			continue
		}

		rep.Sent++
		metrics.Reminders.WithLabelValues("sent").Inc()
		if err := s.store.MarkReminderSent(ctx, a.ID, s.now()); err != nil {
			rep.MarkErrors = multierr.Append(rep.MarkErrors, fmt.Errorf("mark %s: %w", a.ID, err))
		}
	}

	s.log.Info("reminder sweep done",
		zap.Int("due", len(due)),
		zap.Int("sent", rep.Sent),
		zap.Int("failed", rep.Failed))
	return rep, nil
}
