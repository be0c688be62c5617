package hooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/groompro/backend/internal/domain"
)

// CalendarSync mirrors appointments into a Google Calendar. The appointment
// UUID, rendered as bare hex, doubles as the calendar event ID, so upserts
// and removals need no mapping table.
type CalendarSync struct {
	service    *calendar.Service
	calendarID string
	loc        *time.Location
}

// CalendarOptions configures a CalendarSync. TokenFile must hold an OAuth2
// token obtained out of band; there is no interactive flow in the server.
type CalendarOptions struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
	CalendarID   string
	Location     *time.Location
}

func NewCalendarSync(ctx context.Context, opts CalendarOptions) (*CalendarSync, error) {
	config := &oauth2.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		Scopes:       []string{calendar.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}

	token, err := tokenFromFile(opts.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("hooks.NewCalendarSync: load token %s: %w", opts.TokenFile, err)
	}

	service, err := calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("hooks.NewCalendarSync: calendar service: %w", err)
	}

	calendarID := opts.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarSync{service: service, calendarID: calendarID, loc: loc}, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// eventID renders the appointment ID in the character set Google accepts for
// caller-chosen event IDs (lowercase hex is valid base32hex).
func eventID(a domain.Appointment) string {
	return strings.ReplaceAll(a.ID.String(), "-", "")
}

func (c *CalendarSync) toEvent(a domain.Appointment) *calendar.Event {
	var pets []string
	for _, p := range a.Pets {
		pets = append(pets, p.PetName)
	}
	summary := a.ClientName
	if len(pets) > 0 {
		summary = fmt.Sprintf("%s (%s)", a.ClientName, strings.Join(pets, ", "))
	}
	return &calendar.Event{
		Id:          eventID(a),
		Summary:     summary,
		Description: a.Notes,
		Status:      "confirmed",
		Start: &calendar.EventDateTime{
			DateTime: a.StartTime.In(c.loc).Format(time.RFC3339),
			TimeZone: c.loc.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: a.EndTime.In(c.loc).Format(time.RFC3339),
			TimeZone: c.loc.String(),
		},
	}
}

// Upsert updates the event for a, inserting it when it does not exist yet.
func (c *CalendarSync) Upsert(ctx context.Context, a domain.Appointment) error {
	event := c.toEvent(a)
	_, err := c.service.Events.Update(c.calendarID, event.Id, event).Context(ctx).Do()
	if isNotFound(err) {
		_, err = c.service.Events.Insert(c.calendarID, event).Context(ctx).Do()
	}
	if err != nil {
		return fmt.Errorf("hooks.CalendarSync.Upsert %s: %w", event.Id, err)
	}
	return nil
}

func (c *CalendarSync) UpsertAll(ctx context.Context, appts []domain.Appointment) error {
	var errs []error
	for _, a := range appts {
		if err := c.Upsert(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Remove deletes the event for a. A missing event is not an error: the
// appointment may have been created before calendar sync was enabled.
func (c *CalendarSync) Remove(ctx context.Context, a domain.Appointment) error {
	err := c.service.Events.Delete(c.calendarID, eventID(a)).Context(ctx).Do()
	if err != nil && !isNotFound(err) && !isGone(err) {
		return fmt.Errorf("hooks.CalendarSync.Remove %s: %w", eventID(a), err)
	}
	return nil
}

func (c *CalendarSync) RemoveAll(ctx context.Context, appts []domain.Appointment) error {
	var errs []error
	for _, a := range appts {
		if err := c.Remove(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func isNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// Deleting an already-deleted event returns 410.
func isGone(err error) bool { return hasStatus(err, http.StatusGone) }

func hasStatus(err error, code int) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == code
}
