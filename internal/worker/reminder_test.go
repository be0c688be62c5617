package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groompro/backend/internal/domain"
	"github.com/groompro/backend/internal/repo"
	"github.com/groompro/backend/internal/worker"
)

// mockApptRepo embeds the interface so only the scanner's two methods need
// implementations; calling anything else panics, which is the point.
type mockApptRepo struct {
	repo.AppointmentRepo
	listUpcoming func(ctx context.Context, from, to time.Time) ([]domain.Appointment, error)
	markSent     func(ctx context.Context, id uuid.UUID) error
}

func (m *mockApptRepo) ListUpcomingUnreminded(ctx context.Context, from, to time.Time) ([]domain.Appointment, error) {
	return m.listUpcoming(ctx, from, to)
}

func (m *mockApptRepo) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	return m.markSent(ctx, id)
}

type recordingSink struct {
	got []uuid.UUID
}

func (r *recordingSink) AppointmentReminder(_ context.Context, a domain.Appointment) {
	r.got = append(r.got, a.ID)
}

func TestReminderScanner_Scan(t *testing.T) {
	now := time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)
	due := []domain.Appointment{
		{ID: uuid.New(), StartTime: now.Add(2 * time.Hour)},
		{ID: uuid.New(), StartTime: now.Add(20 * time.Hour)},
	}

	var marked []uuid.UUID
	var gotFrom, gotTo time.Time
	appts := &mockApptRepo{
		listUpcoming: func(_ context.Context, from, to time.Time) ([]domain.Appointment, error) {
			gotFrom, gotTo = from, to
			return due, nil
		},
		markSent: func(_ context.Context, id uuid.UUID) error {
			marked = append(marked, id)
			return nil
		},
	}
	sink := &recordingSink{}

	s := worker.NewReminderScanner(worker.ReminderScannerDeps{
		Appointments: appts,
		Sink:         sink,
		Window:       24 * time.Hour,
		Now:          func() time.Time { return now },
	})

	require.NoError(t, s.Scan(context.Background()))

	assert.Equal(t, now, gotFrom)
	assert.Equal(t, now.Add(24*time.Hour), gotTo)
	assert.Equal(t, []uuid.UUID{due[0].ID, due[1].ID}, sink.got)
	assert.Equal(t, []uuid.UUID{due[0].ID, due[1].ID}, marked)
}

func TestReminderScanner_Scan_markFailureDoesNotStopBatch(t *testing.T) {
	due := []domain.Appointment{
		{ID: uuid.New()},
		{ID: uuid.New()},
	}

	var marked []uuid.UUID
	appts := &mockApptRepo{
		listUpcoming: func(context.Context, time.Time, time.Time) ([]domain.Appointment, error) {
			return due, nil
		},
		markSent: func(_ context.Context, id uuid.UUID) error {
			if id == due[0].ID {
				return errors.New("boom")
			}
			marked = append(marked, id)
			return nil
		},
	}
	sink := &recordingSink{}

	s := worker.NewReminderScanner(worker.ReminderScannerDeps{
		Appointments: appts,
		Sink:         sink,
	})

	require.NoError(t, s.Scan(context.Background()))
	assert.Len(t, sink.got, 2)
	assert.Equal(t, []uuid.UUID{due[1].ID}, marked)
}

func TestReminderScanner_Scan_listError(t *testing.T) {
	appts := &mockApptRepo{
		listUpcoming: func(context.Context, time.Time, time.Time) ([]domain.Appointment, error) {
			return nil, errors.New("db down")
		},
	}

	s := worker.NewReminderScanner(worker.ReminderScannerDeps{
		Appointments: appts,
		Sink:         &recordingSink{},
	})

	assert.Error(t, s.Scan(context.Background()))
}
