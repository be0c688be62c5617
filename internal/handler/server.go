// Package handler implements the HTTP handlers for the grooming API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (appointment.go, client.go, etc.) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/groompro/backend/internal/domain"
	"github.com/groompro/backend/internal/repo"
	"github.com/groompro/backend/internal/service"
)

// AppointmentServicer defines the business operations the appointment
// handlers depend on. Defining the interface here (in the consumer package)
// follows the Go convention: "accept interfaces, return concrete types". It
// lets handler tests inject a mock without touching the database or service
// layer.
type AppointmentServicer interface {
	Create(ctx context.Context, userID string, in service.CreateInput) ([]domain.Appointment, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (domain.Appointment, error)
	List(ctx context.Context, userID string, f repo.AppointmentFilter) ([]domain.Appointment, error)
	Update(ctx context.Context, userID string, id uuid.UUID, patch domain.AppointmentPatch, updateSeries bool) (domain.Appointment, error)
	Delete(ctx context.Context, userID string, id uuid.UUID, deleteSeries bool) ([]domain.Appointment, error)
}

// ClientServicer defines the business operations the client handlers depend on.
type ClientServicer interface {
	Create(ctx context.Context, c domain.Client) (domain.Client, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (domain.Client, error)
	List(ctx context.Context, userID, search string, p domain.PaginationParams) ([]domain.Client, error)
	Update(ctx context.Context, c domain.Client) (domain.Client, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// CatalogServicer defines the business operations the catalog handlers depend on.
type CatalogServicer interface {
	CreateService(ctx context.Context, svc domain.Service) (domain.Service, error)
	GetService(ctx context.Context, userID string, id uuid.UUID) (domain.Service, error)
	ListServices(ctx context.Context, userID string) ([]domain.Service, error)
	UpdateService(ctx context.Context, svc domain.Service) (domain.Service, error)
	DeleteService(ctx context.Context, userID string, id uuid.UUID) error
	CreateItem(ctx context.Context, item domain.Item) (domain.Item, error)
	ListItems(ctx context.Context, userID string) ([]domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) (domain.Item, error)
	DeleteItem(ctx context.Context, userID string, id uuid.UUID) error
}

// Server holds the handler dependencies for all API endpoints.
// Methods are in domain-specific files but all operate on this struct.
type Server struct {
	appointments AppointmentServicer
	clients      ClientServicer
	catalog      CatalogServicer
	loc          *time.Location
}

// NewServer constructs the Server with all its dependencies. loc is the
// business timezone, used by the ICS feed; nil means UTC.
func NewServer(appointments AppointmentServicer, clients ClientServicer, catalog CatalogServicer, loc *time.Location) *Server {
	if loc == nil {
		loc = time.UTC
	}
	return &Server{appointments: appointments, clients: clients, catalog: catalog, loc: loc}
}

// Routes mounts every API endpoint on r. The caller applies middleware; the
// identity middleware must wrap these routes so UserID is set.
func (s *Server) Routes(r chi.Router) {
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", s.CreateAppointment)
		r.Get("/", s.ListAppointments)
		r.Get("/{id}", s.GetAppointment)
		r.Put("/{id}", s.UpdateAppointment)
		r.Delete("/{id}", s.DeleteAppointment)
	})
	r.Route("/clients", func(r chi.Router) {
		r.Post("/", s.CreateClient)
		r.Get("/", s.ListClients)
		r.Get("/{id}", s.GetClient)
		r.Put("/{id}", s.UpdateClient)
		r.Delete("/{id}", s.DeleteClient)
	})
	r.Route("/services", func(r chi.Router) {
		r.Post("/", s.CreateService)
		r.Get("/", s.ListServices)
		r.Get("/{id}", s.GetService)
		r.Put("/{id}", s.UpdateService)
		r.Delete("/{id}", s.DeleteService)
	})
	r.Route("/items", func(r chi.Router) {
		r.Post("/", s.CreateItem)
		r.Get("/", s.ListItems)
		r.Put("/{id}", s.UpdateItem)
		r.Delete("/{id}", s.DeleteItem)
	})
	r.Get("/calendar.ics", s.CalendarFeed)
}

// timeNow is swapped out in tests that need a fixed clock.
var timeNow = time.Now

// writeJSON writes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}
