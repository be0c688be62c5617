package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/groompro/backend/internal/domain"
)

// CatalogRepo defines the persistence operations for the service/item
// catalog. ServicesByIDs and ItemsByIDs back the price/duration calculator;
// they return only the rows that exist — missing IDs are simply absent from
// the result, never an error.
type CatalogRepo interface {
	CreateService(ctx context.Context, s domain.Service) (domain.Service, error)
	GetService(ctx context.Context, userID string, id uuid.UUID) (domain.Service, error)
	ListServices(ctx context.Context, userID string) ([]domain.Service, error)
	UpdateService(ctx context.Context, s domain.Service) (domain.Service, error)
	DeleteService(ctx context.Context, userID string, id uuid.UUID) error

	CreateItem(ctx context.Context, i domain.Item) (domain.Item, error)
	ListItems(ctx context.Context, userID string) ([]domain.Item, error)
	UpdateItem(ctx context.Context, i domain.Item) (domain.Item, error)
	DeleteItem(ctx context.Context, userID string, id uuid.UUID) error

	// ServicesByIDs resolves service IDs to records, keyed by ID.
	ServicesByIDs(ctx context.Context, userID string, ids []uuid.UUID) (map[uuid.UUID]domain.Service, error)

	// ItemsByIDs resolves item IDs to records, keyed by ID.
	ItemsByIDs(ctx context.Context, userID string, ids []uuid.UUID) (map[uuid.UUID]domain.Item, error)
}

// pgCatalogRepo is the Postgres implementation of CatalogRepo.
type pgCatalogRepo struct {
	db db
}

// NewCatalogRepo constructs a CatalogRepo backed by the provided db connection.
func NewCatalogRepo(db db) CatalogRepo {
	return &pgCatalogRepo{db: db}
}

const serviceColumns = `id, user_id, name, duration, price, created_at`
const itemColumns = `id, user_id, name, price, created_at`

func (r *pgCatalogRepo) CreateService(ctx context.Context, s domain.Service) (domain.Service, error) {
	const q = `
		INSERT INTO services (user_id, name, duration, price)
		VALUES (@user_id, @name, @duration, @price)
		RETURNING ` + serviceColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"user_id":  s.UserID,
		"name":     s.Name,
		"duration": s.Duration,
		"price":    s.Price,
	})
	result, err := scanService(row)
	if err != nil {
		return domain.Service{}, fmt.Errorf("repo.CatalogRepo.CreateService: %w", err)
	}
	return result, nil
}

func (r *pgCatalogRepo) GetService(ctx context.Context, userID string, id uuid.UUID) (domain.Service, error) {
	const q = `SELECT ` + serviceColumns + ` FROM services WHERE id = @id AND user_id = @user_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID})
	result, err := scanService(row)
	if err != nil {
		return domain.Service{}, fmt.Errorf("repo.CatalogRepo.GetService: %w", err)
	}
	return result, nil
}

func (r *pgCatalogRepo) ListServices(ctx context.Context, userID string) ([]domain.Service, error) {
	const q = `SELECT ` + serviceColumns + ` FROM services WHERE user_id = @user_id ORDER BY name ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.CatalogRepo.ListServices: %w", err)
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.CatalogRepo.ListServices: scan: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.CatalogRepo.ListServices: rows: %w", err)
	}
	return services, nil
}

func (r *pgCatalogRepo) UpdateService(ctx context.Context, s domain.Service) (domain.Service, error) {
	const q = `
		UPDATE services
		SET name = @name, duration = @duration, price = @price
		WHERE id = @id AND user_id = @user_id
		RETURNING ` + serviceColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":       s.ID,
		"user_id":  s.UserID,
		"name":     s.Name,
		"duration": s.Duration,
		"price":    s.Price,
	})
	result, err := scanService(row)
	if err != nil {
		return domain.Service{}, fmt.Errorf("repo.CatalogRepo.UpdateService: %w", err)
	}
	return result, nil
}

func (r *pgCatalogRepo) DeleteService(ctx context.Context, userID string, id uuid.UUID) error {
	const q = `DELETE FROM services WHERE id = @id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.CatalogRepo.DeleteService: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.CatalogRepo.DeleteService: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgCatalogRepo) CreateItem(ctx context.Context, i domain.Item) (domain.Item, error) {
	const q = `
		INSERT INTO items (user_id, name, price)
		VALUES (@user_id, @name, @price)
		RETURNING ` + itemColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"user_id": i.UserID,
		"name":    i.Name,
		"price":   i.Price,
	})
	result, err := scanItem(row)
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.CatalogRepo.CreateItem: %w", err)
	}
	return result, nil
}

func (r *pgCatalogRepo) ListItems(ctx context.Context, userID string) ([]domain.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items WHERE user_id = @user_id ORDER BY name ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.CatalogRepo.ListItems: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.CatalogRepo.ListItems: scan: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.CatalogRepo.ListItems: rows: %w", err)
	}
	return items, nil
}

func (r *pgCatalogRepo) UpdateItem(ctx context.Context, i domain.Item) (domain.Item, error) {
	const q = `
		UPDATE items
		SET name = @name, price = @price
		WHERE id = @id AND user_id = @user_id
		RETURNING ` + itemColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"id":      i.ID,
		"user_id": i.UserID,
		"name":    i.Name,
		"price":   i.Price,
	})
	result, err := scanItem(row)
	if err != nil {
		return domain.Item{}, fmt.Errorf("repo.CatalogRepo.UpdateItem: %w", err)
	}
	return result, nil
}

func (r *pgCatalogRepo) DeleteItem(ctx context.Context, userID string, id uuid.UUID) error {
	const q = `DELETE FROM items WHERE id = @id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.CatalogRepo.DeleteItem: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.CatalogRepo.DeleteItem: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgCatalogRepo) ServicesByIDs(ctx context.Context, userID string, ids []uuid.UUID) (map[uuid.UUID]domain.Service, error) {
	out := make(map[uuid.UUID]domain.Service, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	const q = `SELECT ` + serviceColumns + ` FROM services WHERE user_id = @user_id AND id = ANY(@ids)`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID, "ids": ids})
	if err != nil {
		return nil, fmt.Errorf("repo.CatalogRepo.ServicesByIDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.CatalogRepo.ServicesByIDs: scan: %w", err)
		}
		out[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.CatalogRepo.ServicesByIDs: rows: %w", err)
	}
	return out, nil
}

func (r *pgCatalogRepo) ItemsByIDs(ctx context.Context, userID string, ids []uuid.UUID) (map[uuid.UUID]domain.Item, error) {
	out := make(map[uuid.UUID]domain.Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	const q = `SELECT ` + itemColumns + ` FROM items WHERE user_id = @user_id AND id = ANY(@ids)`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID, "ids": ids})
	if err != nil {
		return nil, fmt.Errorf("repo.CatalogRepo.ItemsByIDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.CatalogRepo.ItemsByIDs: scan: %w", err)
		}
		out[i.ID] = i
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.CatalogRepo.ItemsByIDs: rows: %w", err)
	}
	return out, nil
}

// scanService maps a single database row into a domain.Service.
func scanService(s scanner) (domain.Service, error) {
	var (
		svc domain.Service
		id  pgtype.UUID
	)
	if err := s.Scan(&id, &svc.UserID, &svc.Name, &svc.Duration, &svc.Price, &svc.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Service{}, domain.ErrNotFound
		}
		return domain.Service{}, err
	}
	svc.ID = uuid.UUID(id.Bytes)
	return svc, nil
}

// scanItem maps a single database row into a domain.Item.
func scanItem(s scanner) (domain.Item, error) {
	var (
		item domain.Item
		id   pgtype.UUID
	)
	if err := s.Scan(&id, &item.UserID, &item.Name, &item.Price, &item.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Item{}, domain.ErrNotFound
		}
		return domain.Item{}, err
	}
	item.ID = uuid.UUID(id.Bytes)
	return item, nil
}
