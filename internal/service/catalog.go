package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/groompro/backend/internal/domain"
	"github.com/groompro/backend/internal/repo"
)

// CatalogService implements business logic for the grooming service and
// retail item catalog.
type CatalogService struct {
	repo repo.CatalogRepo
}

// NewCatalogService constructs a CatalogService backed by the provided CatalogRepo.
func NewCatalogService(r repo.CatalogRepo) *CatalogService {
	return &CatalogService{repo: r}
}

// CreateService validates and persists a catalog service.
func (s *CatalogService) CreateService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	svc.Name = strings.TrimSpace(svc.Name)
	if svc.Name == "" {
		return domain.Service{}, fmt.Errorf("service.CatalogService.CreateService: %w: name is required", domain.ErrValidation)
	}
	if svc.Duration < 0 {
		return domain.Service{}, fmt.Errorf("service.CatalogService.CreateService: %w: duration cannot be negative", domain.ErrValidation)
	}

	created, err := s.repo.CreateService(ctx, svc)
	if err != nil {
		return domain.Service{}, fmt.Errorf("service.CatalogService.CreateService: %w", err)
	}
	return created, nil
}

// GetService returns a single catalog service by ID.
func (s *CatalogService) GetService(ctx context.Context, userID string, id uuid.UUID) (domain.Service, error) {
	svc, err := s.repo.GetService(ctx, userID, id)
	if err != nil {
		return domain.Service{}, fmt.Errorf("service.CatalogService.GetService: %w", err)
	}
	return svc, nil
}

// ListServices returns all catalog services for a user.
func (s *CatalogService) ListServices(ctx context.Context, userID string) ([]domain.Service, error) {
	services, err := s.repo.ListServices(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.CatalogService.ListServices: %w", err)
	}
	return services, nil
}

// UpdateService validates and updates a catalog service.
func (s *CatalogService) UpdateService(ctx context.Context, svc domain.Service) (domain.Service, error) {
	svc.Name = strings.TrimSpace(svc.Name)
	if svc.Name == "" {
		return domain.Service{}, fmt.Errorf("service.CatalogService.UpdateService: %w: name is required", domain.ErrValidation)
	}

	updated, err := s.repo.UpdateService(ctx, svc)
	if err != nil {
		return domain.Service{}, fmt.Errorf("service.CatalogService.UpdateService: %w", err)
	}
	return updated, nil
}

// DeleteService removes a catalog service. Existing appointments keep their
// stored totals; the calculator simply skips the missing ID from then on.
func (s *CatalogService) DeleteService(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.repo.DeleteService(ctx, userID, id); err != nil {
		return fmt.Errorf("service.CatalogService.DeleteService: %w", err)
	}
	return nil
}

// CreateItem validates and persists a retail item.
func (s *CatalogService) CreateItem(ctx context.Context, item domain.Item) (domain.Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return domain.Item{}, fmt.Errorf("service.CatalogService.CreateItem: %w: name is required", domain.ErrValidation)
	}

	created, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		return domain.Item{}, fmt.Errorf("service.CatalogService.CreateItem: %w", err)
	}
	return created, nil
}

// ListItems returns all retail items for a user.
func (s *CatalogService) ListItems(ctx context.Context, userID string) ([]domain.Item, error) {
	items, err := s.repo.ListItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.CatalogService.ListItems: %w", err)
	}
	return items, nil
}

// UpdateItem validates and updates a retail item.
func (s *CatalogService) UpdateItem(ctx context.Context, item domain.Item) (domain.Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return domain.Item{}, fmt.Errorf("service.CatalogService.UpdateItem: %w: name is required", domain.ErrValidation)
	}

	updated, err := s.repo.UpdateItem(ctx, item)
	if err != nil {
		return domain.Item{}, fmt.Errorf("service.CatalogService.UpdateItem: %w", err)
	}
	return updated, nil
}

// DeleteItem removes a retail item.
func (s *CatalogService) DeleteItem(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.repo.DeleteItem(ctx, userID, id); err != nil {
		return fmt.Errorf("service.CatalogService.DeleteItem: %w", err)
	}
	return nil
}
