// Package worker runs background jobs alongside the HTTP server.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/groompro/backend/internal/domain"
	"github.com/groompro/backend/internal/repo"
)

// ReminderSink receives appointments whose reminder is due.
type ReminderSink interface {
	AppointmentReminder(ctx context.Context, a domain.Appointment)
}

// ReminderScanner periodically finds scheduled appointments starting within
// the reminder window that have not been reminded yet, hands each to the
// sink, and marks it sent. Marking happens after the hand-off, so a crash
// between the two re-delivers rather than drops.
type ReminderScanner struct {
	appts    repo.AppointmentRepo
	sink     ReminderSink
	window   time.Duration
	interval time.Duration
	log      *slog.Logger
	cron     *cron.Cron
	now      func() time.Time
}

type ReminderScannerDeps struct {
	Appointments repo.AppointmentRepo
	Sink         ReminderSink
	Window       time.Duration
	Interval     time.Duration
	Logger       *slog.Logger

	// Now overrides the clock in tests. Defaults to time.Now.
	Now func() time.Time
}

func NewReminderScanner(d ReminderScannerDeps) *ReminderScanner {
	s := &ReminderScanner{
		appts:    d.Appointments,
		sink:     d.Sink,
		window:   d.Window,
		interval: d.Interval,
		log:      d.Logger,
		now:      d.Now,
	}
	if s.window <= 0 {
		s.window = 24 * time.Hour
	}
	if s.interval <= 0 {
		s.interval = 5 * time.Minute
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Start schedules the scan on a cron loop and returns immediately.
func (s *ReminderScanner) Start() error {
	s.cron = cron.New()
	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.interval)
		defer cancel()
		if err := s.Scan(ctx); err != nil {
			s.log.Error("reminder scan failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("worker.ReminderScanner.Start: %w", err)
	}
	s.cron.Start()
	s.log.Info("reminder scanner started", "interval", s.interval.String(), "window", s.window.String())
	return nil
}

// Stop halts the cron loop and waits for a running scan to finish.
func (s *ReminderScanner) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Scan performs one pass. Exported so a deploy hook or test can force a scan
// without waiting for the cron tick.
func (s *ReminderScanner) Scan(ctx context.Context) error {
	now := s.now().UTC()
	due, err := s.appts.ListUpcomingUnreminded(ctx, now, now.Add(s.window))
	if err != nil {
		return fmt.Errorf("worker.ReminderScanner.Scan: %w", err)
	}

	for _, a := range due {
		s.sink.AppointmentReminder(ctx, a)
		if err := s.appts.MarkReminderSent(ctx, a.ID); err != nil {
			s.log.Error("mark reminder sent failed", "appointment_id", a.ID, "error", err)
			continue
		}
	}
	if len(due) > 0 {
		s.log.Info("reminders dispatched", "count", len(due))
	}
	return nil
}
