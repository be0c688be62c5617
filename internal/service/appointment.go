// Package service contains the business logic for the grooming API.
// Services validate inputs, enforce business rules, and orchestrate repo
// calls. No SQL lives here; services depend on repo interfaces, not
// implementations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/groompro/backend/internal/domain"
	"github.com/groompro/backend/internal/metrics"
	"github.com/groompro/backend/internal/repo"
	"github.com/groompro/backend/internal/schedule"
)

// Hooks receives the post-state of every mutating operation for best-effort
// external side effects (notification, calendar sync, backup). Implementations
// must never block the caller or surface failures.
type Hooks interface {
	AppointmentsCreated(ctx context.Context, appts []domain.Appointment)
	AppointmentUpdated(ctx context.Context, a domain.Appointment)
	AppointmentsDeleted(ctx context.Context, appts []domain.Appointment)
}

// NopHooks is a Hooks that does nothing. Useful in tests and when no external
// adapters are configured.
type NopHooks struct{}

func (NopHooks) AppointmentsCreated(context.Context, []domain.Appointment) {}
func (NopHooks) AppointmentUpdated(context.Context, domain.Appointment)    {}
func (NopHooks) AppointmentsDeleted(context.Context, []domain.Appointment) {}

// GroupLocker serialises concurrent mutators of one recurring group.
// The returned release function is always safe to call.
type GroupLocker interface {
	Lock(ctx context.Context, groupID uuid.UUID) (func(), error)
}

// NopLocker is a GroupLocker that never blocks.
type NopLocker struct{}

func (NopLocker) Lock(context.Context, uuid.UUID) (func(), error) { return func() {}, nil }

// CreateInput carries a create request into the service.
type CreateInput struct {
	ClientID    uuid.UUID
	StartTime   time.Time
	Notes       string
	Pets        []domain.PetEntry
	IsRecurring bool
	RepeatValue int
	RepeatUnit  string
}

// AppointmentServiceDeps wires an AppointmentService.
type AppointmentServiceDeps struct {
	Appointments repo.AppointmentRepo
	Tx           repo.TxRunner
	Clients      repo.ClientRepo
	Catalog      repo.CatalogRepo
	Hooks        Hooks
	Locks        GroupLocker
	Location     *time.Location
	Logger       *slog.Logger

	// Now overrides the clock in tests. Defaults to time.Now.
	Now func() time.Time
}

// AppointmentService implements scheduling business logic: creation with
// series expansion, scope-aware edits, and single/series deletion.
type AppointmentService struct {
	appts   repo.AppointmentRepo
	tx      repo.TxRunner
	clients repo.ClientRepo
	catalog repo.CatalogRepo
	hooks   Hooks
	locks   GroupLocker
	loc     *time.Location
	log     *slog.Logger
	now     func() time.Time
}

// NewAppointmentService constructs an AppointmentService. Nil Hooks, Locks,
// Logger, and Now fall back to no-op/default implementations.
func NewAppointmentService(d AppointmentServiceDeps) *AppointmentService {
	s := &AppointmentService{
		appts:   d.Appointments,
		tx:      d.Tx,
		clients: d.Clients,
		catalog: d.Catalog,
		hooks:   d.Hooks,
		locks:   d.Locks,
		loc:     d.Location,
		log:     d.Logger,
		now:     d.Now,
	}
	if s.hooks == nil {
		s.hooks = NopHooks{}
	}
	if s.locks == nil {
		s.locks = NopLocker{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	return s
}

// Create persists a new appointment, expanding it into a full series when a
// cadence is supplied. The referenced client must exist before any write.
// Returns every created appointment; the first element is the anchor.
func (s *AppointmentService) Create(ctx context.Context, userID string, in CreateInput) ([]domain.Appointment, error) {
	client, err := s.clients.GetByID(ctx, userID, in.ClientID)
	if err != nil {
		return nil, fmt.Errorf("service.AppointmentService.Create: %w", err)
	}

	duration, price, err := s.totals(ctx, userID, in.Pets)
	if err != nil {
		return nil, fmt.Errorf("service.AppointmentService.Create: %w", err)
	}

	base := domain.Appointment{
		UserID:        userID,
		ClientID:      client.ID,
		ClientName:    client.Name,
		Status:        domain.StatusScheduled,
		Notes:         in.Notes,
		Pets:          in.Pets,
		TotalDuration: duration,
		TotalPrice:    price,
		CreatedAt:     s.now().UTC(),
	}

	if !in.IsRecurring {
		base.ID = uuid.New()
		base.StartTime = in.StartTime.UTC()
		base.EndTime = base.StartTime.Add(time.Duration(duration) * time.Minute)
		if err := s.appts.Create(ctx, base); err != nil {
			return nil, fmt.Errorf("service.AppointmentService.Create: %w", err)
		}
		created := []domain.Appointment{base}
		s.hooks.AppointmentsCreated(ctx, created)
		return created, nil
	}

	cadence := schedule.NewCadence(in.RepeatValue, in.RepeatUnit)
	groupID := schedule.NewGroupID()
	starts := schedule.Expand(in.StartTime, cadence, s.loc)

	appts := make([]domain.Appointment, len(starts))
	for i, start := range starts {
		a := base
		a.ID = uuid.New()
		a.StartTime = start.UTC()
		a.EndTime = a.StartTime.Add(time.Duration(duration) * time.Minute)
		a.IsRecurring = true
		a.GroupID = &groupID
		a.RepeatValue = cadence.Value
		a.RepeatUnit = string(cadence.Unit)
		appts[i] = a
	}

	err = s.tx.WithinTx(ctx, func(txAppts repo.AppointmentRepo) error {
		return txAppts.CreateBatch(ctx, appts)
	})
	if err != nil {
		return nil, fmt.Errorf("service.AppointmentService.Create: %w", err)
	}

	metrics.OccurrencesGenerated.Add(float64(len(appts)))
	s.log.InfoContext(ctx, "recurring series created",
		"group_id", groupID, "count", len(appts),
		"repeat_value", cadence.Value, "repeat_unit", string(cadence.Unit))

	s.hooks.AppointmentsCreated(ctx, appts)
	return appts, nil
}

// GetByID returns a single appointment.
func (s *AppointmentService) GetByID(ctx context.Context, userID string, id uuid.UUID) (domain.Appointment, error) {
	a, err := s.appts.GetByID(ctx, userID, id)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("service.AppointmentService.GetByID: %w", err)
	}
	return a, nil
}

// List returns appointments matching the filter.
func (s *AppointmentService) List(ctx context.Context, userID string, f repo.AppointmentFilter) ([]domain.Appointment, error) {
	appts, err := s.appts.List(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("service.AppointmentService.List: %w", err)
	}
	return appts, nil
}

// operation is the resolved kind of an edit, computed once per update from
// (scope flag, cadence changed?, time changed?) and then dispatched.
type operation int

const (
	opPlain operation = iota
	opDetach
	opBulkFields
	opBulkTime
	opRegenerate
)

func (o operation) String() string {
	switch o {
	case opDetach:
		return "detach"
	case opBulkFields:
		return "bulk_fields"
	case opBulkTime:
		return "bulk_time"
	case opRegenerate:
		return "regenerate"
	default:
		return "plain"
	}
}

// resolveOperation classifies an edit. A cadence that is new or different
// always regenerates, regardless of scope. A single-scope edit on a grouped
// appointment always detaches, even when the edited field is unrelated to
// recurrence. An explicit is_recurring=false also detaches.
func resolveOperation(current domain.Appointment, patch domain.AppointmentPatch, updateSeries bool) operation {
	grouped := current.IsRecurring && current.GroupID != nil

	if patch.IsRecurring != nil && !*patch.IsRecurring {
		if grouped {
			return opDetach
		}
		return opPlain
	}

	if _, changed := cadenceChange(current, patch); changed {
		return opRegenerate
	}

	if grouped {
		if !updateSeries {
			return opDetach
		}
		if patch.StartTime != nil {
			return opBulkTime
		}
		return opBulkFields
	}
	return opPlain
}

// cadenceChange returns the patch's effective cadence and whether it differs
// from the appointment's current one (or introduces one).
func cadenceChange(current domain.Appointment, patch domain.AppointmentPatch) (schedule.Cadence, bool) {
	if !patch.HasCadence() {
		return schedule.Cadence{}, false
	}

	value := current.RepeatValue
	unit := current.RepeatUnit
	if patch.RepeatValue != nil {
		value = *patch.RepeatValue
	}
	if patch.RepeatUnit != nil {
		unit = *patch.RepeatUnit
	}
	next := schedule.NewCadence(value, unit)

	if !current.IsRecurring || current.GroupID == nil {
		return next, true
	}
	cur := schedule.NewCadence(current.RepeatValue, current.RepeatUnit)
	return next, !next.Equal(cur)
}

// Update applies an edit to one appointment under the series flag, resolving
// it into exactly one of: plain update, detach, bulk field update, bulk time
// reschedule, or regenerate. Series scopes touch only members with
// start_time >= now; deletion scope is wider by design.
// Returns the post-state of the directly addressed appointment.
func (s *AppointmentService) Update(ctx context.Context, userID string, id uuid.UUID, patch domain.AppointmentPatch, updateSeries bool) (domain.Appointment, error) {
	if patch.Empty() {
		return domain.Appointment{}, fmt.Errorf("service.AppointmentService.Update: %w: no update data provided", domain.ErrValidation)
	}
	if patch.Status != nil && !domain.ValidStatus(*patch.Status) {
		return domain.Appointment{}, fmt.Errorf("service.AppointmentService.Update: %w: unknown status %q", domain.ErrValidation, *patch.Status)
	}

	current, err := s.appts.GetByID(ctx, userID, id)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("service.AppointmentService.Update: %w", err)
	}

	op := resolveOperation(current, patch, updateSeries)
	metrics.SeriesOperations.WithLabelValues(op.String()).Inc()

	if current.GroupID != nil {
		unlock, err := s.locks.Lock(ctx, *current.GroupID)
		if err != nil {
			return domain.Appointment{}, fmt.Errorf("service.AppointmentService.Update: %w", err)
		}
		defer unlock()
	}

	merged, err := s.applyPatch(ctx, current, patch)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("service.AppointmentService.Update: %w", err)
	}

	var updated domain.Appointment
	switch op {
	case opPlain:
		updated, err = s.appts.Update(ctx, merged)
	case opDetach:
		merged.IsRecurring = false
		merged.GroupID = nil
		merged.RepeatValue = 0
		merged.RepeatUnit = ""
		updated, err = s.appts.Update(ctx, merged)
	case opBulkFields:
		updated, err = s.bulkFieldUpdate(ctx, current, merged, patch)
	case opBulkTime:
		updated, err = s.bulkTimeReschedule(ctx, current, merged, patch)
	case opRegenerate:
		updated, err = s.regenerate(ctx, current, merged, patch)
	}
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("service.AppointmentService.Update: %w", err)
	}

	// Cross-entity side effect: a no-show marks the client's record.
	if patch.Status != nil && *patch.Status == domain.StatusNoShow {
		if err := s.clients.RecordNoShow(ctx, userID, updated.ClientID, s.now().UTC()); err != nil {
			s.log.ErrorContext(ctx, "no-show counter update failed",
				"client_id", updated.ClientID, "error", err)
		}
	}

	s.hooks.AppointmentUpdated(ctx, updated)
	return updated, nil
}

// applyPatch merges the patch onto a copy of current, recomputing totals when
// line items change and the end time when start or duration change.
func (s *AppointmentService) applyPatch(ctx context.Context, current domain.Appointment, patch domain.AppointmentPatch) (domain.Appointment, error) {
	merged := current

	if patch.Notes != nil {
		merged.Notes = *patch.Notes
	}
	if patch.Status != nil {
		merged.Status = *patch.Status
	}
	if patch.Pets != nil {
		merged.Pets = *patch.Pets
		duration, price, err := s.totals(ctx, current.UserID, merged.Pets)
		if err != nil {
			return domain.Appointment{}, err
		}
		merged.TotalDuration = duration
		merged.TotalPrice = price
	}
	if patch.StartTime != nil {
		merged.StartTime = patch.StartTime.UTC()
	}
	merged.EndTime = merged.StartTime.Add(time.Duration(merged.TotalDuration) * time.Minute)

	return merged, nil
}

// bulkFieldUpdate writes the merged target and propagates non-time, non-status
// deltas to every future group member in one transaction. Recurrence fields
// are re-asserted on every write so a partial patch can never silently erase
// group membership.
func (s *AppointmentService) bulkFieldUpdate(ctx context.Context, current, merged domain.Appointment, patch domain.AppointmentPatch) (domain.Appointment, error) {
	// Status never propagates; everything else the patch carries does.
	merged.IsRecurring = true
	merged.GroupID = current.GroupID
	merged.RepeatValue = current.RepeatValue
	merged.RepeatUnit = current.RepeatUnit

	var updated domain.Appointment
	now := s.now().UTC()
	written := 0

	err := s.tx.WithinTx(ctx, func(txAppts repo.AppointmentRepo) error {
		var err error
		updated, err = txAppts.Update(ctx, merged)
		if err != nil {
			return err
		}
		written++

		siblings, err := txAppts.ListByGroup(ctx, current.UserID, *current.GroupID, &now)
		if err != nil {
			return err
		}
		for _, sib := range siblings {
			if sib.ID == current.ID {
				continue
			}
			if patch.Notes != nil {
				sib.Notes = *patch.Notes
			}
			if patch.Pets != nil {
				sib.Pets = merged.Pets
				sib.TotalDuration = merged.TotalDuration
				sib.TotalPrice = merged.TotalPrice
				sib.EndTime = sib.StartTime.Add(time.Duration(sib.TotalDuration) * time.Minute)
			}
			sib.IsRecurring = true
			sib.GroupID = current.GroupID
			sib.RepeatValue = current.RepeatValue
			sib.RepeatUnit = current.RepeatUnit
			if _, err := txAppts.Update(ctx, sib); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "series field update failed",
			"group_id", *current.GroupID, "written", written, "error", err)
		return domain.Appointment{}, err
	}
	return updated, nil
}

// bulkTimeReschedule moves the target to the patch's exact instant and every
// other future member to the new local time-of-day on its own date. Each
// member re-resolves independently, so a series spanning a DST boundary keeps
// one wall-clock time rather than drifting by a flat UTC offset.
func (s *AppointmentService) bulkTimeReschedule(ctx context.Context, current, merged domain.Appointment, patch domain.AppointmentPatch) (domain.Appointment, error) {
	merged.IsRecurring = true
	merged.GroupID = current.GroupID
	merged.RepeatValue = current.RepeatValue
	merged.RepeatUnit = current.RepeatUnit

	newLocal := patch.StartTime.In(s.loc)
	hour, min := newLocal.Hour(), newLocal.Minute()

	var updated domain.Appointment
	now := s.now().UTC()
	written := 0

	err := s.tx.WithinTx(ctx, func(txAppts repo.AppointmentRepo) error {
		var err error
		updated, err = txAppts.Update(ctx, merged)
		if err != nil {
			return err
		}
		written++

		siblings, err := txAppts.ListByGroup(ctx, current.UserID, *current.GroupID, &now)
		if err != nil {
			return err
		}
		for _, sib := range siblings {
			if sib.ID == current.ID {
				continue
			}
			if patch.Notes != nil {
				sib.Notes = *patch.Notes
			}
			if patch.Pets != nil {
				sib.Pets = merged.Pets
				sib.TotalDuration = merged.TotalDuration
				sib.TotalPrice = merged.TotalPrice
			}
			sib.StartTime = schedule.ShiftTimeOfDay(sib.StartTime, hour, min, s.loc).UTC()
			sib.EndTime = sib.StartTime.Add(time.Duration(sib.TotalDuration) * time.Minute)
			sib.IsRecurring = true
			sib.GroupID = current.GroupID
			sib.RepeatValue = current.RepeatValue
			sib.RepeatUnit = current.RepeatUnit
			if _, err := txAppts.Update(ctx, sib); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "series reschedule failed",
			"group_id", *current.GroupID, "written", written, "error", err)
		return domain.Appointment{}, err
	}
	return updated, nil
}

// regenerate replaces a series' future members with a fresh expansion at the
// new cadence. Past members keep the old spacing; the edited appointment is
// the new anchor and is updated in place, reusing its group ID when it has
// one and minting one otherwise.
func (s *AppointmentService) regenerate(ctx context.Context, current, merged domain.Appointment, patch domain.AppointmentPatch) (domain.Appointment, error) {
	cadence, _ := cadenceChange(current, patch)

	var groupID uuid.UUID
	if current.GroupID != nil {
		groupID = *current.GroupID
	} else {
		groupID = schedule.NewGroupID()
	}

	merged.IsRecurring = true
	merged.GroupID = &groupID
	merged.RepeatValue = cadence.Value
	merged.RepeatUnit = string(cadence.Unit)

	starts := schedule.Expand(merged.StartTime, cadence, s.loc)

	var updated domain.Appointment
	now := s.now().UTC()
	created := 0

	err := s.tx.WithinTx(ctx, func(txAppts repo.AppointmentRepo) error {
		if current.GroupID != nil {
			if _, err := txAppts.DeleteFutureByGroup(ctx, current.UserID, *current.GroupID, now, current.ID); err != nil {
				return err
			}
		}

		var err error
		updated, err = txAppts.Update(ctx, merged)
		if err != nil {
			return err
		}

		// The first expansion slot is the anchor itself, already updated in
		// place above.
		members := make([]domain.Appointment, 0, len(starts)-1)
		for _, start := range starts[1:] {
			m := updated
			m.ID = uuid.New()
			m.StartTime = start.UTC()
			m.EndTime = m.StartTime.Add(time.Duration(m.TotalDuration) * time.Minute)
			m.Status = domain.StatusScheduled
			m.ReminderSent = false
			m.CreatedAt = now
			members = append(members, m)
		}
		created = len(members)
		return txAppts.CreateBatch(ctx, members)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "series regeneration failed",
			"group_id", groupID, "created", created, "error", err)
		return domain.Appointment{}, err
	}

	metrics.OccurrencesGenerated.Add(float64(created))
	s.log.InfoContext(ctx, "series regenerated",
		"group_id", groupID, "created", created,
		"repeat_value", cadence.Value, "repeat_unit", string(cadence.Unit))
	return updated, nil
}

// Delete removes one appointment. When deleteSeries is set and the
// appointment belongs to a group it removes every member of that group,
// past and future. Series deletion is total while series edits are
// future-only. Returns the removed appointments for hook fan-out.
func (s *AppointmentService) Delete(ctx context.Context, userID string, id uuid.UUID, deleteSeries bool) ([]domain.Appointment, error) {
	current, err := s.appts.GetByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("service.AppointmentService.Delete: %w", err)
	}

	if !deleteSeries || current.GroupID == nil {
		if err := s.appts.Delete(ctx, userID, id); err != nil {
			return nil, fmt.Errorf("service.AppointmentService.Delete: %w", err)
		}
		removed := []domain.Appointment{current}
		s.hooks.AppointmentsDeleted(ctx, removed)
		return removed, nil
	}

	unlock, err := s.locks.Lock(ctx, *current.GroupID)
	if err != nil {
		return nil, fmt.Errorf("service.AppointmentService.Delete: %w", err)
	}
	defer unlock()

	var removed []domain.Appointment
	err = s.tx.WithinTx(ctx, func(txAppts repo.AppointmentRepo) error {
		var err error
		removed, err = txAppts.ListByGroup(ctx, userID, *current.GroupID, nil)
		if err != nil {
			return err
		}
		_, err = txAppts.DeleteByGroup(ctx, userID, *current.GroupID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service.AppointmentService.Delete: %w", err)
	}

	s.log.InfoContext(ctx, "series deleted",
		"group_id", *current.GroupID, "count", len(removed))
	s.hooks.AppointmentsDeleted(ctx, removed)
	return removed, nil
}

// totals resolves the pets' catalog references and computes the appointment's
// duration and price. Missing catalog IDs are skipped by design.
func (s *AppointmentService) totals(ctx context.Context, userID string, pets []domain.PetEntry) (int, float64, error) {
	var serviceIDs, itemIDs []uuid.UUID
	for _, p := range pets {
		serviceIDs = append(serviceIDs, p.ServiceIDs...)
		itemIDs = append(itemIDs, p.ItemIDs...)
	}

	services, err := s.catalog.ServicesByIDs(ctx, userID, serviceIDs)
	if err != nil {
		return 0, 0, err
	}
	items, err := s.catalog.ItemsByIDs(ctx, userID, itemIDs)
	if err != nil {
		return 0, 0, err
	}

	duration, price := schedule.Totals(pets, services, items)
	return duration, price, nil
}
