// Package repo contains all database access logic for the grooming API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/groompro/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AppointmentFilter narrows appointment range queries. Nil/zero fields are
// not applied.
type AppointmentFilter struct {
	From     *time.Time
	To       *time.Time
	ClientID *uuid.UUID
	Status   string
}

// AppointmentRepo defines the persistence operations for appointments.
// All operations are scoped by userID. Series-wide operations are predicate
// writes over group_id — a recurring series is never a separate table.
type AppointmentRepo interface {
	// Create inserts a single appointment with all fields supplied by the caller.
	Create(ctx context.Context, a domain.Appointment) error

	// CreateBatch inserts every appointment of a freshly generated series.
	CreateBatch(ctx context.Context, appts []domain.Appointment) error

	// GetByID retrieves one appointment scoped to userID.
	// Returns domain.ErrNotFound if absent or owned by another user.
	GetByID(ctx context.Context, userID string, id uuid.UUID) (domain.Appointment, error)

	// List returns appointments matching the filter, ordered by start_time ascending.
	List(ctx context.Context, userID string, f AppointmentFilter) ([]domain.Appointment, error)

	// Update overwrites the mutable fields of an appointment and returns the
	// stored record. Returns domain.ErrNotFound if absent under that user.
	Update(ctx context.Context, a domain.Appointment) (domain.Appointment, error)

	// Delete removes one appointment. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, userID string, id uuid.UUID) error

	// ListByGroup returns group members ordered by start_time. When from is
	// non-nil only members with start_time >= from are returned.
	ListByGroup(ctx context.Context, userID string, groupID uuid.UUID, from *time.Time) ([]domain.Appointment, error)

	// DeleteByGroup removes every member of a group, past and future,
	// returning the number of rows removed.
	DeleteByGroup(ctx context.Context, userID string, groupID uuid.UUID) (int64, error)

	// DeleteFutureByGroup removes members with start_time >= from, excluding
	// one appointment (the one being edited in place).
	DeleteFutureByGroup(ctx context.Context, userID string, groupID uuid.UUID, from time.Time, exclude uuid.UUID) (int64, error)

	// ListUpcomingUnreminded returns appointments across all users starting
	// inside [from, to) that have not had a reminder sent.
	ListUpcomingUnreminded(ctx context.Context, from, to time.Time) ([]domain.Appointment, error)

	// MarkReminderSent sets the reminder marker on one appointment.
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}

// pgAppointmentRepo is the Postgres implementation of AppointmentRepo.
type pgAppointmentRepo struct {
	db db
}

// NewAppointmentRepo constructs an AppointmentRepo backed by the provided db.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewAppointmentRepo(db db) AppointmentRepo {
	return &pgAppointmentRepo{db: db}
}

const appointmentColumns = `id, user_id, client_id, client_name, start_time, end_time,
	status, notes, pets, total_duration, total_price,
	is_recurring, group_id, repeat_value, repeat_unit, reminder_sent, created_at`

const insertAppointment = `
	INSERT INTO appointments (` + appointmentColumns + `)
	VALUES (@id, @user_id, @client_id, @client_name, @start_time, @end_time,
	        @status, @notes, @pets, @total_duration, @total_price,
	        @is_recurring, @group_id, @repeat_value, @repeat_unit, @reminder_sent, @created_at)`

func appointmentArgs(a domain.Appointment) (pgx.NamedArgs, error) {
	pets, err := json.Marshal(petsOrEmpty(a.Pets))
	if err != nil {
		return nil, fmt.Errorf("marshal pets: %w", err)
	}
	return pgx.NamedArgs{
		"id":             a.ID,
		"user_id":        a.UserID,
		"client_id":      a.ClientID,
		"client_name":    a.ClientName,
		"start_time":     a.StartTime,
		"end_time":       a.EndTime,
		"status":         a.Status,
		"notes":          a.Notes,
		"pets":           pets,
		"total_duration": a.TotalDuration,
		"total_price":    a.TotalPrice,
		"is_recurring":   a.IsRecurring,
		"group_id":       a.GroupID, // nil becomes NULL
		"repeat_value":   a.RepeatValue,
		"repeat_unit":    a.RepeatUnit,
		"reminder_sent":  a.ReminderSent,
		"created_at":     a.CreatedAt,
	}, nil
}

// petsOrEmpty keeps the pets column a JSON array, never null.
func petsOrEmpty(pets []domain.PetEntry) []domain.PetEntry {
	if pets == nil {
		return []domain.PetEntry{}
	}
	return pets
}

func (r *pgAppointmentRepo) Create(ctx context.Context, a domain.Appointment) error {
	args, err := appointmentArgs(a)
	if err != nil {
		return fmt.Errorf("repo.AppointmentRepo.Create: %w", err)
	}
	if _, err := r.db.Exec(ctx, insertAppointment, args); err != nil {
		return fmt.Errorf("repo.AppointmentRepo.Create: %w", err)
	}
	return nil
}

func (r *pgAppointmentRepo) CreateBatch(ctx context.Context, appts []domain.Appointment) error {
	for i, a := range appts {
		args, err := appointmentArgs(a)
		if err != nil {
			return fmt.Errorf("repo.AppointmentRepo.CreateBatch[%d]: %w", i, err)
		}
		if _, err := r.db.Exec(ctx, insertAppointment, args); err != nil {
			return fmt.Errorf("repo.AppointmentRepo.CreateBatch[%d]: %w", i, err)
		}
	}
	return nil
}

func (r *pgAppointmentRepo) GetByID(ctx context.Context, userID string, id uuid.UUID) (domain.Appointment, error) {
	q := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = @id AND user_id = @user_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID})
	a, err := scanAppointment(row)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("repo.AppointmentRepo.GetByID: %w", err)
	}
	return a, nil
}

func (r *pgAppointmentRepo) List(ctx context.Context, userID string, f AppointmentFilter) ([]domain.Appointment, error) {
	q := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE user_id = @user_id`
	args := pgx.NamedArgs{"user_id": userID}

	if f.From != nil {
		q += ` AND start_time >= @from`
		args["from"] = *f.From
	}
	if f.To != nil {
		q += ` AND start_time <= @to`
		args["to"] = *f.To
	}
	if f.ClientID != nil {
		q += ` AND client_id = @client_id`
		args["client_id"] = *f.ClientID
	}
	if f.Status != "" {
		q += ` AND status = @status`
		args["status"] = f.Status
	}
	q += ` ORDER BY start_time ASC`

	return r.queryAppointments(ctx, "List", q, args)
}

func (r *pgAppointmentRepo) Update(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	q := `
		UPDATE appointments
		SET client_id      = @client_id,
		    client_name    = @client_name,
		    start_time     = @start_time,
		    end_time       = @end_time,
		    status         = @status,
		    notes          = @notes,
		    pets           = @pets,
		    total_duration = @total_duration,
		    total_price    = @total_price,
		    is_recurring   = @is_recurring,
		    group_id       = @group_id,
		    repeat_value   = @repeat_value,
		    repeat_unit    = @repeat_unit,
		    reminder_sent  = @reminder_sent
		WHERE id = @id AND user_id = @user_id
		RETURNING ` + appointmentColumns

	args, err := appointmentArgs(a)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("repo.AppointmentRepo.Update: %w", err)
	}
	delete(args, "created_at")

	row := r.db.QueryRow(ctx, q, args)
	updated, err := scanAppointment(row)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("repo.AppointmentRepo.Update: %w", err)
	}
	return updated, nil
}

func (r *pgAppointmentRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	const q = `DELETE FROM appointments WHERE id = @id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.AppointmentRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.AppointmentRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgAppointmentRepo) ListByGroup(ctx context.Context, userID string, groupID uuid.UUID, from *time.Time) ([]domain.Appointment, error) {
	q := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE user_id = @user_id AND group_id = @group_id`
	args := pgx.NamedArgs{"user_id": userID, "group_id": groupID}

	if from != nil {
		q += ` AND start_time >= @from`
		args["from"] = *from
	}
	q += ` ORDER BY start_time ASC`

	return r.queryAppointments(ctx, "ListByGroup", q, args)
}

func (r *pgAppointmentRepo) DeleteByGroup(ctx context.Context, userID string, groupID uuid.UUID) (int64, error) {
	const q = `DELETE FROM appointments WHERE user_id = @user_id AND group_id = @group_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"user_id": userID, "group_id": groupID})
	if err != nil {
		return 0, fmt.Errorf("repo.AppointmentRepo.DeleteByGroup: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgAppointmentRepo) DeleteFutureByGroup(ctx context.Context, userID string, groupID uuid.UUID, from time.Time, exclude uuid.UUID) (int64, error) {
	const q = `
		DELETE FROM appointments
		WHERE user_id = @user_id
		  AND group_id = @group_id
		  AND start_time >= @from
		  AND id <> @exclude`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"user_id":  userID,
		"group_id": groupID,
		"from":     from,
		"exclude":  exclude,
	})
	if err != nil {
		return 0, fmt.Errorf("repo.AppointmentRepo.DeleteFutureByGroup: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgAppointmentRepo) ListUpcomingUnreminded(ctx context.Context, from, to time.Time) ([]domain.Appointment, error) {
	const q = `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE reminder_sent = FALSE
		  AND status = 'scheduled'
		  AND start_time >= @from
		  AND start_time < @to
		ORDER BY start_time ASC`

	return r.queryAppointments(ctx, "ListUpcomingUnreminded", q, pgx.NamedArgs{"from": from, "to": to})
}

func (r *pgAppointmentRepo) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE appointments SET reminder_sent = TRUE WHERE id = @id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("repo.AppointmentRepo.MarkReminderSent: %w", err)
	}
	return nil
}

func (r *pgAppointmentRepo) queryAppointments(ctx context.Context, op, q string, args pgx.NamedArgs) ([]domain.Appointment, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.AppointmentRepo.%s: %w", op, err)
	}
	defer rows.Close()

	var appts []domain.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.AppointmentRepo.%s: scan: %w", op, err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.AppointmentRepo.%s: rows: %w", op, err)
	}
	return appts, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scan helpers to
// be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanAppointment maps a single database row into a domain.Appointment.
// It handles the UUID, nullable group_id, and JSONB pets conversions.
func scanAppointment(s scanner) (domain.Appointment, error) {
	var (
		a        domain.Appointment
		id       pgtype.UUID
		clientID pgtype.UUID
		groupID  pgtype.UUID
		petsRaw  []byte
	)

	err := s.Scan(&id, &a.UserID, &clientID, &a.ClientName, &a.StartTime, &a.EndTime,
		&a.Status, &a.Notes, &petsRaw, &a.TotalDuration, &a.TotalPrice,
		&a.IsRecurring, &groupID, &a.RepeatValue, &a.RepeatUnit, &a.ReminderSent, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Appointment{}, domain.ErrNotFound
		}
		return domain.Appointment{}, err
	}

	a.ID = uuid.UUID(id.Bytes)
	a.ClientID = uuid.UUID(clientID.Bytes)
	if groupID.Valid {
		g := uuid.UUID(groupID.Bytes)
		a.GroupID = &g
	}
	if len(petsRaw) > 0 {
		if err := json.Unmarshal(petsRaw, &a.Pets); err != nil {
			return domain.Appointment{}, fmt.Errorf("unmarshal pets: %w", err)
		}
	}

	return a, nil
}
