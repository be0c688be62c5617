package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/groompro/backend/internal/domain"
	"github.com/groompro/backend/internal/middleware"
)

// ClientResponse is the wire shape of a client.
type ClientResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email"`
	Address     string     `json:"address"`
	Notes       string     `json:"notes"`
	NoShowCount int        `json:"no_show_count"`
	LastNoShow  *time.Time `json:"last_no_show,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func clientToResponse(c domain.Client) ClientResponse {
	return ClientResponse{
		ID:          c.ID,
		Name:        c.Name,
		Phone:       c.Phone,
		Email:       c.Email,
		Address:     c.Address,
		Notes:       c.Notes,
		NoShowCount: c.NoShowCount,
		LastNoShow:  c.LastNoShow,
		CreatedAt:   c.CreatedAt,
	}
}

// ClientRequest is the POST/PUT body for a client.
type ClientRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// CreateClient handles POST /clients.
func (s *Server) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRequestError(w, "invalid request body")
		return
	}

	created, err := s.clients.Create(r.Context(), domain.Client{
		UserID:  middleware.UserID(r.Context()),
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		Notes:   req.Notes,
	})
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, clientToResponse(created))
}

// ListClients handles GET /clients.
// Supports ?search= over name, phone, and email, plus ?page= and ?limit=.
func (s *Server) ListClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := domain.NewPaginationParams(intParam(q.Get("page")), intParam(q.Get("limit")))

	clients, err := s.clients.List(r.Context(), middleware.UserID(r.Context()), q.Get("search"), params)
	if err != nil {
		writeError(w, err, "")
		return
	}

	out := make([]ClientResponse, len(clients))
	for i, c := range clients {
		out[i] = clientToResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetClient handles GET /clients/{id}.
func (s *Server) GetClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeRequestError(w, "invalid client id")
		return
	}

	c, err := s.clients.GetByID(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		writeError(w, err, "client not found")
		return
	}
	writeJSON(w, http.StatusOK, clientToResponse(c))
}

// UpdateClient handles PUT /clients/{id}.
func (s *Server) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeRequestError(w, "invalid client id")
		return
	}

	var req ClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRequestError(w, "invalid request body")
		return
	}

	updated, err := s.clients.Update(r.Context(), domain.Client{
		ID:      id,
		UserID:  middleware.UserID(r.Context()),
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		Notes:   req.Notes,
	})
	if err != nil {
		writeError(w, err, "client not found")
		return
	}
	writeJSON(w, http.StatusOK, clientToResponse(updated))
}

// DeleteClient handles DELETE /clients/{id}. Appointments cascade at the
// database level.
func (s *Server) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeRequestError(w, "invalid client id")
		return
	}

	if err := s.clients.Delete(r.Context(), middleware.UserID(r.Context()), id); err != nil {
		writeError(w, err, "client not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// intParam parses a positive integer query value, returning nil when absent
// or malformed so defaults apply.
func intParam(v string) *int {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}
