package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/groompro/backend/internal/domain"
	"github.com/groompro/backend/internal/middleware"
)

// ServiceResponse is the wire shape of a catalog service.
type ServiceResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Duration  int       `json:"duration"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

func serviceToResponse(s domain.Service) ServiceResponse {
	return ServiceResponse{
		ID:        s.ID,
		Name:      s.Name,
		Duration:  s.Duration,
		Price:     s.Price,
		CreatedAt: s.CreatedAt,
	}
}

// ItemResponse is the wire shape of a retail item.
type ItemResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

func itemToResponse(i domain.Item) ItemResponse {
	return ItemResponse{ID: i.ID, Name: i.Name, Price: i.Price, CreatedAt: i.CreatedAt}
}

// ServiceRequest is the POST/PUT body for a catalog service.
type ServiceRequest struct {
	Name     string  `json:"name"`
	Duration int     `json:"duration"`
	Price    float64 `json:"price"`
}

// ItemRequest is the POST/PUT body for a retail item.
type ItemRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// CreateService handles POST /services.
func (s *Server) CreateService(w http.ResponseWriter, r *http.Request) {
	var req ServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRequestError(w, "invalid request body")
		return
	}

	created, err := s.catalog.CreateService(r.Context(), domain.Service{
		UserID:   middleware.UserID(r.Context()),
		Name:     req.Name,
		Duration: req.Duration,
		Price:    req.Price,
	})
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, serviceToResponse(created))
}

// ListServices handles GET /services.
func (s *Server) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.catalog.ListServices(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err, "")
		return
	}
	out := make([]ServiceResponse, len(services))
	for i, svc := range services {
		out[i] = serviceToResponse(svc)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetService handles GET /services/{id}.
func (s *Server) GetService(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeRequestError(w, "invalid service id")
		return
	}

	svc, err := s.catalog.GetService(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		writeError(w, err, "service not found")
		return
	}
	writeJSON(w, http.StatusOK, serviceToResponse(svc))
}

// UpdateService handles PUT /services/{id}.
func (s *Server) UpdateService(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeRequestError(w, "invalid service id")
		return
	}

	var req ServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRequestError(w, "invalid request body")
		return
	}

	updated, err := s.catalog.UpdateService(r.Context(), domain.Service{
		ID:       id,
		UserID:   middleware.UserID(r.Context()),
		Name:     req.Name,
		Duration: req.Duration,
		Price:    req.Price,
	})
	if err != nil {
		writeError(w, err, "service not found")
		return
	}
	writeJSON(w, http.StatusOK, serviceToResponse(updated))
}

// DeleteService handles DELETE /services/{id}.
func (s *Server) DeleteService(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeRequestError(w, "invalid service id")
		return
	}
	if err := s.catalog.DeleteService(r.Context(), middleware.UserID(r.Context()), id); err != nil {
		writeError(w, err, "service not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateItem handles POST /items.
func (s *Server) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRequestError(w, "invalid request body")
		return
	}

	created, err := s.catalog.CreateItem(r.Context(), domain.Item{
		UserID: middleware.UserID(r.Context()),
		Name:   req.Name,
		Price:  req.Price,
	})
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, itemToResponse(created))
}

// ListItems handles GET /items.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.catalog.ListItems(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		writeError(w, err, "")
		return
	}
	out := make([]ItemResponse, len(items))
	for i, item := range items {
		out[i] = itemToResponse(item)
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateItem handles PUT /items/{id}.
func (s *Server) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeRequestError(w, "invalid item id")
		return
	}

	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRequestError(w, "invalid request body")
		return
	}

	updated, err := s.catalog.UpdateItem(r.Context(), domain.Item{
		ID:     id,
		UserID: middleware.UserID(r.Context()),
		Name:   req.Name,
		Price:  req.Price,
	})
	if err != nil {
		writeError(w, err, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(updated))
}

// DeleteItem handles DELETE /items/{id}.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeRequestError(w, "invalid item id")
		return
	}
	if err := s.catalog.DeleteItem(r.Context(), middleware.UserID(r.Context()), id); err != nil {
		writeError(w, err, "item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
