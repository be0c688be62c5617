package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/groompro/backend/internal/domain"
	"github.com/groompro/backend/internal/middleware"
	"github.com/groompro/backend/internal/repo"
	"github.com/groompro/backend/internal/service"
)

// AppointmentResponse is the wire shape of an appointment. Field names match
// the public API contract consumed by the frontend: date_time for the start
// instant, recurring_id for the group.
type AppointmentResponse struct {
	ID             uuid.UUID         `json:"id"`
	ClientID       uuid.UUID         `json:"client_id"`
	ClientName     string            `json:"client_name"`
	DateTime       time.Time         `json:"date_time"`
	EndTime        time.Time         `json:"end_time"`
	Status         string            `json:"status"`
	Notes          string            `json:"notes"`
	Pets           []domain.PetEntry `json:"pets"`
	TotalDuration  int               `json:"total_duration"`
	TotalPrice     float64           `json:"total_price"`
	IsRecurring    bool              `json:"is_recurring"`
	RecurringID    *uuid.UUID        `json:"recurring_id,omitempty"`
	RecurringValue *int              `json:"recurring_value,omitempty"`
	RecurringUnit  *string           `json:"recurring_unit,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

func appointmentToResponse(a domain.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:            a.ID,
		ClientID:      a.ClientID,
		ClientName:    a.ClientName,
		DateTime:      a.StartTime,
		EndTime:       a.EndTime,
		Status:        a.Status,
		Notes:         a.Notes,
		Pets:          a.Pets,
		TotalDuration: a.TotalDuration,
		TotalPrice:    a.TotalPrice,
		IsRecurring:   a.IsRecurring,
		RecurringID:   a.GroupID,
		CreatedAt:     a.CreatedAt,
	}
	if resp.Pets == nil {
		resp.Pets = []domain.PetEntry{}
	}
	if a.IsRecurring {
		v, u := a.RepeatValue, a.RepeatUnit
		resp.RecurringValue = &v
		resp.RecurringUnit = &u
	}
	return resp
}

func appointmentsToResponse(appts []domain.Appointment) []AppointmentResponse {
	out := make([]AppointmentResponse, len(appts))
	for i, a := range appts {
		out[i] = appointmentToResponse(a)
	}
	return out
}

// CreateAppointmentRequest is the POST /appointments body.
type CreateAppointmentRequest struct {
	ClientID       uuid.UUID         `json:"client_id"`
	DateTime       time.Time         `json:"date_time"`
	Notes          string            `json:"notes"`
	Pets           []domain.PetEntry `json:"pets"`
	IsRecurring    bool              `json:"is_recurring"`
	RecurringValue int               `json:"recurring_value"`
	RecurringUnit  string            `json:"recurring_unit"`
}

// CreateAppointment handles POST /appointments. A recurring request returns
// the whole generated series, anchor first.
func (s *Server) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req CreateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRequestError(w, "invalid request body")
		return
	}
	if req.ClientID == uuid.Nil {
		writeRequestError(w, "client_id is required")
		return
	}
	if req.DateTime.IsZero() {
		writeRequestError(w, "date_time is required")
		return
	}

	created, err := s.appointments.Create(r.Context(), middleware.UserID(r.Context()), service.CreateInput{
		ClientID:    req.ClientID,
		StartTime:   req.DateTime,
		Notes:       req.Notes,
		Pets:        req.Pets,
		IsRecurring: req.IsRecurring,
		RepeatValue: req.RecurringValue,
		RepeatUnit:  req.RecurringUnit,
	})
	if err != nil {
		writeError(w, err, "client not found")
		return
	}

	writeJSON(w, http.StatusCreated, appointmentsToResponse(created))
}

// ListAppointments handles GET /appointments.
// Supports ?start_date=, ?end_date=, ?client_id=, and ?status= filters.
func (s *Server) ListAppointments(w http.ResponseWriter, r *http.Request) {
	var filter repo.AppointmentFilter
	q := r.URL.Query()

	if v := q.Get("start_date"); v != "" {
		ts, err := parseTimeParam(v)
		if err != nil {
			writeRequestError(w, "invalid start_date")
			return
		}
		filter.From = &ts
	}
	if v := q.Get("end_date"); v != "" {
		ts, err := parseTimeParam(v)
		if err != nil {
			writeRequestError(w, "invalid end_date")
			return
		}
		filter.To = &ts
	}
	if v := q.Get("client_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeRequestError(w, "invalid client_id")
			return
		}
		filter.ClientID = &id
	}
	filter.Status = q.Get("status")

	appts, err := s.appointments.List(r.Context(), middleware.UserID(r.Context()), filter)
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, appointmentsToResponse(appts))
}

// GetAppointment handles GET /appointments/{id}.
func (s *Server) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeRequestError(w, "invalid appointment id")
		return
	}

	a, err := s.appointments.GetByID(r.Context(), middleware.UserID(r.Context()), id)
	if err != nil {
		writeError(w, err, "appointment not found")
		return
	}
	writeJSON(w, http.StatusOK, appointmentToResponse(a))
}

// UpdateAppointmentRequest is the PUT /appointments/{id} body. Absent fields
// are left untouched. UpdateSeries widens the edit to every future member of
// the appointment's recurring group.
type UpdateAppointmentRequest struct {
	DateTime       *time.Time         `json:"date_time"`
	Status         *string            `json:"status"`
	Notes          *string            `json:"notes"`
	Pets           *[]domain.PetEntry `json:"pets"`
	IsRecurring    *bool              `json:"is_recurring"`
	RecurringValue *int               `json:"recurring_value"`
	RecurringUnit  *string            `json:"recurring_unit"`
	UpdateSeries   bool               `json:"update_series"`
}

// UpdateAppointment handles PUT /appointments/{id}.
func (s *Server) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeRequestError(w, "invalid appointment id")
		return
	}

	var req UpdateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRequestError(w, "invalid request body")
		return
	}

	patch := domain.AppointmentPatch{
		StartTime:   req.DateTime,
		Status:      req.Status,
		Notes:       req.Notes,
		Pets:        req.Pets,
		IsRecurring: req.IsRecurring,
		RepeatValue: req.RecurringValue,
		RepeatUnit:  req.RecurringUnit,
	}

	updated, err := s.appointments.Update(r.Context(), middleware.UserID(r.Context()), id, patch, req.UpdateSeries)
	if err != nil {
		writeError(w, err, "appointment not found")
		return
	}
	writeJSON(w, http.StatusOK, appointmentToResponse(updated))
}

// DeleteAppointment handles DELETE /appointments/{id}.
// ?delete_series=true removes every member of the appointment's group,
// past and future.
func (s *Server) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeRequestError(w, "invalid appointment id")
		return
	}
	deleteSeries, _ := strconv.ParseBool(r.URL.Query().Get("delete_series"))

	removed, err := s.appointments.Delete(r.Context(), middleware.UserID(r.Context()), id, deleteSeries)
	if err != nil {
		writeError(w, err, "appointment not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": len(removed)})
}

// parseTimeParam accepts RFC 3339 timestamps, zone-less timestamps, and bare
// dates. Values without a zone are read as UTC.
func parseTimeParam(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, nil
		}
	}
	_, err := time.Parse(time.RFC3339, v)
	return time.Time{}, err
}
