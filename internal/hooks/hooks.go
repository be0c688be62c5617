// Package hooks fans mutation events out to external systems: a RabbitMQ
// notifier, Google Calendar sync, and S3 audit backups. Every delivery is
// best effort and runs detached from the request that triggered it; failures
// are logged and counted, never surfaced to the caller.
package hooks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/groompro/backend/internal/domain"
	"github.com/groompro/backend/internal/metrics"
	"github.com/groompro/backend/internal/service"
)

const defaultTimeout = 30 * time.Second

var _ service.Hooks = (*Dispatcher)(nil)

// Dispatcher implements the service hook interface over a set of optional
// adapters. A nil adapter is skipped. The zero value dispatches to nothing.
type Dispatcher struct {
	notifier *Notifier
	calendar *CalendarSync
	backup   *Backup
	log      *slog.Logger
	timeout  time.Duration
	wg       sync.WaitGroup
}

// DispatcherDeps lists the adapters a Dispatcher fans out to. Any of them
// may be nil.
type DispatcherDeps struct {
	Notifier *Notifier
	Calendar *CalendarSync
	Backup   *Backup
	Logger   *slog.Logger
}

func NewDispatcher(d DispatcherDeps) *Dispatcher {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		notifier: d.Notifier,
		calendar: d.Calendar,
		backup:   d.Backup,
		log:      log,
		timeout:  defaultTimeout,
	}
}

// Wait blocks until all in-flight deliveries finish. Called during shutdown
// so queued events are not dropped.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// dispatch runs fn on its own goroutine with a fresh context, so a hook
// outlives the HTTP request whose mutation triggered it.
func (d *Dispatcher) dispatch(hook string, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			metrics.HookFailures.WithLabelValues(hook).Inc()
			d.log.Error("hook delivery failed", "hook", hook, "error", err)
		}
	}()
}

func (d *Dispatcher) AppointmentsCreated(_ context.Context, appts []domain.Appointment) {
	if len(appts) == 0 {
		return
	}
	if d.notifier != nil {
		d.dispatch("notify", func(ctx context.Context) error {
			return d.notifier.Publish(ctx, QueueCreated, appts)
		})
	}
	if d.calendar != nil {
		d.dispatch("calendar", func(ctx context.Context) error {
			return d.calendar.UpsertAll(ctx, appts)
		})
	}
	if d.backup != nil {
		d.dispatch("backup", func(ctx context.Context) error {
			return d.backup.Snapshot(ctx, "created", appts)
		})
	}
}

func (d *Dispatcher) AppointmentUpdated(_ context.Context, a domain.Appointment) {
	appts := []domain.Appointment{a}
	if d.notifier != nil {
		d.dispatch("notify", func(ctx context.Context) error {
			return d.notifier.Publish(ctx, QueueUpdated, appts)
		})
	}
	if d.calendar != nil {
		d.dispatch("calendar", func(ctx context.Context) error {
			return d.calendar.Upsert(ctx, a)
		})
	}
	if d.backup != nil {
		d.dispatch("backup", func(ctx context.Context) error {
			return d.backup.Snapshot(ctx, "updated", appts)
		})
	}
}

func (d *Dispatcher) AppointmentsDeleted(_ context.Context, appts []domain.Appointment) {
	if len(appts) == 0 {
		return
	}
	if d.notifier != nil {
		d.dispatch("notify", func(ctx context.Context) error {
			return d.notifier.Publish(ctx, QueueDeleted, appts)
		})
	}
	if d.calendar != nil {
		d.dispatch("calendar", func(ctx context.Context) error {
			return d.calendar.RemoveAll(ctx, appts)
		})
	}
	if d.backup != nil {
		d.dispatch("backup", func(ctx context.Context) error {
			return d.backup.Snapshot(ctx, "deleted", appts)
		})
	}
}

// AppointmentReminder publishes an upcoming-appointment reminder. Used by the
// reminder worker rather than the HTTP layer.
func (d *Dispatcher) AppointmentReminder(_ context.Context, a domain.Appointment) {
	if d.notifier == nil {
		return
	}
	d.dispatch("notify", func(ctx context.Context) error {
		return d.notifier.Publish(ctx, QueueReminder, []domain.Appointment{a})
	})
}
