package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/groompro/backend/internal/domain"
)

// ClientRepo defines the persistence operations for grooming clients.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type ClientRepo interface {
	// Create inserts a new client and returns the persisted record (with
	// DB-generated id and created_at populated).
	Create(ctx context.Context, c domain.Client) (domain.Client, error)

	// GetByID retrieves one client scoped to userID.
	// Returns domain.ErrNotFound if absent or owned by another user.
	GetByID(ctx context.Context, userID string, id uuid.UUID) (domain.Client, error)

	// List returns clients ordered by name. A non-empty search matches name,
	// phone, or email case-insensitively.
	List(ctx context.Context, userID, search string, p domain.PaginationParams) ([]domain.Client, error)

	// Update overwrites the mutable fields of a client.
	// Returns domain.ErrNotFound if absent under that user.
	Update(ctx context.Context, c domain.Client) (domain.Client, error)

	// Delete removes a client. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, userID string, id uuid.UUID) error

	// RecordNoShow increments the client's no-show counter and stamps the
	// time of the most recent no-show.
	RecordNoShow(ctx context.Context, userID string, id uuid.UUID, at time.Time) error
}

// pgClientRepo is the Postgres implementation of ClientRepo.
type pgClientRepo struct {
	db db
}

// NewClientRepo constructs a ClientRepo backed by the provided db connection.
func NewClientRepo(db db) ClientRepo {
	return &pgClientRepo{db: db}
}

const clientColumns = `id, user_id, name, phone, email, address, notes, no_show_count, last_no_show, created_at`

func (r *pgClientRepo) Create(ctx context.Context, c domain.Client) (domain.Client, error) {
	const q = `
		INSERT INTO clients (user_id, name, phone, email, address, notes)
		VALUES (@user_id, @name, @phone, @email, @address, @notes)
		RETURNING ` + clientColumns

	args := pgx.NamedArgs{
		"user_id": c.UserID,
		"name":    c.Name,
		"phone":   c.Phone,
		"email":   c.Email,
		"address": c.Address,
		"notes":   c.Notes,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanClient(row)
	if err != nil {
		return domain.Client{}, fmt.Errorf("repo.ClientRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgClientRepo) GetByID(ctx context.Context, userID string, id uuid.UUID) (domain.Client, error) {
	const q = `SELECT ` + clientColumns + ` FROM clients WHERE id = @id AND user_id = @user_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID})
	result, err := scanClient(row)
	if err != nil {
		return domain.Client{}, fmt.Errorf("repo.ClientRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgClientRepo) List(ctx context.Context, userID, search string, p domain.PaginationParams) ([]domain.Client, error) {
	q := `SELECT ` + clientColumns + ` FROM clients WHERE user_id = @user_id`
	args := pgx.NamedArgs{"user_id": userID, "limit": p.Limit, "offset": p.Offset()}

	if search != "" {
		q += ` AND (name ILIKE @search OR phone ILIKE @search OR email ILIKE @search)`
		args["search"] = "%" + search + "%"
	}
	q += ` ORDER BY name ASC LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.ClientRepo.List: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.ClientRepo.List: scan: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ClientRepo.List: rows: %w", err)
	}
	return clients, nil
}

func (r *pgClientRepo) Update(ctx context.Context, c domain.Client) (domain.Client, error) {
	const q = `
		UPDATE clients
		SET name    = @name,
		    phone   = @phone,
		    email   = @email,
		    address = @address,
		    notes   = @notes
		WHERE id = @id AND user_id = @user_id
		RETURNING ` + clientColumns

	args := pgx.NamedArgs{
		"id":      c.ID,
		"user_id": c.UserID,
		"name":    c.Name,
		"phone":   c.Phone,
		"email":   c.Email,
		"address": c.Address,
		"notes":   c.Notes,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanClient(row)
	if err != nil {
		return domain.Client{}, fmt.Errorf("repo.ClientRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgClientRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	const q = `DELETE FROM clients WHERE id = @id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.ClientRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ClientRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgClientRepo) RecordNoShow(ctx context.Context, userID string, id uuid.UUID, at time.Time) error {
	const q = `
		UPDATE clients
		SET no_show_count = no_show_count + 1,
		    last_no_show  = @at
		WHERE id = @id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID, "at": at})
	if err != nil {
		return fmt.Errorf("repo.ClientRepo.RecordNoShow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ClientRepo.RecordNoShow: %w", domain.ErrNotFound)
	}
	return nil
}

// scanClient maps a single database row into a domain.Client.
func scanClient(s scanner) (domain.Client, error) {
	var (
		c          domain.Client
		id         pgtype.UUID
		lastNoShow pgtype.Timestamptz
	)

	err := s.Scan(&id, &c.UserID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Notes,
		&c.NoShowCount, &lastNoShow, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Client{}, domain.ErrNotFound
		}
		return domain.Client{}, err
	}

	c.ID = uuid.UUID(id.Bytes)
	if lastNoShow.Valid {
		t := lastNoShow.Time
		c.LastNoShow = &t
	}

	return c, nil
}
