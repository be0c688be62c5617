package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/groompro/backend/internal/domain"
	"github.com/groompro/backend/internal/repo"
)

// ClientService implements business logic for client records.
type ClientService struct {
	repo repo.ClientRepo
}

// NewClientService constructs a ClientService backed by the provided ClientRepo.
func NewClientService(r repo.ClientRepo) *ClientService {
	return &ClientService{repo: r}
}

// Create validates and persists a new client.
func (s *ClientService) Create(ctx context.Context, c domain.Client) (domain.Client, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.Client{}, fmt.Errorf("service.ClientService.Create: %w: name is required", domain.ErrValidation)
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		return domain.Client{}, fmt.Errorf("service.ClientService.Create: %w", err)
	}
	return created, nil
}

// GetByID returns a single client by ID.
func (s *ClientService) GetByID(ctx context.Context, userID string, id uuid.UUID) (domain.Client, error) {
	c, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return domain.Client{}, fmt.Errorf("service.ClientService.GetByID: %w", err)
	}
	return c, nil
}

// List returns clients, optionally filtered by a search string.
func (s *ClientService) List(ctx context.Context, userID, search string, p domain.PaginationParams) ([]domain.Client, error) {
	clients, err := s.repo.List(ctx, userID, strings.TrimSpace(search), p)
	if err != nil {
		return nil, fmt.Errorf("service.ClientService.List: %w", err)
	}
	return clients, nil
}

// Update validates and updates an existing client.
func (s *ClientService) Update(ctx context.Context, c domain.Client) (domain.Client, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.Client{}, fmt.Errorf("service.ClientService.Update: %w: name is required", domain.ErrValidation)
	}

	updated, err := s.repo.Update(ctx, c)
	if err != nil {
		return domain.Client{}, fmt.Errorf("service.ClientService.Update: %w", err)
	}
	return updated, nil
}

// Delete removes a client by ID. Appointments cascade at the database level.
func (s *ClientService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("service.ClientService.Delete: %w", err)
	}
	return nil
}
