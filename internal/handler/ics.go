package handler

import (
	"fmt"
	"net/http"
	"strings"

	ical "github.com/arran4/golang-ical"

	"github.com/groompro/backend/internal/domain"
	"github.com/groompro/backend/internal/middleware"
	"github.com/groompro/backend/internal/repo"
)

// CalendarFeed handles GET /calendar.ics. It renders the caller's upcoming
// appointments as an iCalendar document so the schedule can be subscribed to
// from any calendar app. Cancelled appointments are omitted.
func (s *Server) CalendarFeed(w http.ResponseWriter, r *http.Request) {
	now := timeNow().UTC()
	appts, err := s.appointments.List(r.Context(), middleware.UserID(r.Context()), repo.AppointmentFilter{From: &now})
	if err != nil {
		writeError(w, err, "")
		return
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//groompro//EN")

	for _, a := range appts {
		if a.Status == domain.StatusCancelled {
			continue
		}
		event := cal.AddEvent(a.ID.String())
		event.SetDtStampTime(now)
		event.SetStartAt(a.StartTime)
		event.SetEndAt(a.EndTime)
		event.SetSummary(icsSummary(a))
		if a.Notes != "" {
			event.SetDescription(a.Notes)
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="appointments.ics"`)
	_, _ = w.Write([]byte(cal.Serialize()))
}

func icsSummary(a domain.Appointment) string {
	var pets []string
	for _, p := range a.Pets {
		pets = append(pets, p.PetName)
	}
	if len(pets) == 0 {
		return a.ClientName
	}
	return fmt.Sprintf("%s (%s)", a.ClientName, strings.Join(pets, ", "))
}
