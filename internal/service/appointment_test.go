package service_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groompro/backend/internal/domain"
	"github.com/groompro/backend/internal/repo"
	"github.com/groompro/backend/internal/service"
)

// ---- in-memory AppointmentRepo ---------------------------------------------

// fakeAppointmentRepo keeps appointments in a map so series semantics
// (purge, append, cascade) can be asserted on real state rather than on
// recorded calls.
type fakeAppointmentRepo struct {
	byID map[uuid.UUID]domain.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{byID: make(map[uuid.UUID]domain.Appointment)}
}

var _ repo.AppointmentRepo = (*fakeAppointmentRepo)(nil)

func (f *fakeAppointmentRepo) Create(_ context.Context, a domain.Appointment) error {
	f.byID[a.ID] = a
	return nil
}

func (f *fakeAppointmentRepo) CreateBatch(_ context.Context, appts []domain.Appointment) error {
	for _, a := range appts {
		f.byID[a.ID] = a
	}
	return nil
}

func (f *fakeAppointmentRepo) GetByID(_ context.Context, userID string, id uuid.UUID) (domain.Appointment, error) {
	a, ok := f.byID[id]
	if !ok || a.UserID != userID {
		return domain.Appointment{}, domain.ErrNotFound
	}
	return a, nil
}

func (f *fakeAppointmentRepo) List(_ context.Context, userID string, fl repo.AppointmentFilter) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range f.byID {
		if a.UserID != userID {
			continue
		}
		if fl.From != nil && a.StartTime.Before(*fl.From) {
			continue
		}
		if fl.To != nil && a.StartTime.After(*fl.To) {
			continue
		}
		if fl.ClientID != nil && a.ClientID != *fl.ClientID {
			continue
		}
		if fl.Status != "" && a.Status != fl.Status {
			continue
		}
		out = append(out, a)
	}
	sortByStart(out)
	return out, nil
}

func (f *fakeAppointmentRepo) Update(_ context.Context, a domain.Appointment) (domain.Appointment, error) {
	stored, ok := f.byID[a.ID]
	if !ok || stored.UserID != a.UserID {
		return domain.Appointment{}, domain.ErrNotFound
	}
	a.CreatedAt = stored.CreatedAt
	f.byID[a.ID] = a
	return a, nil
}

func (f *fakeAppointmentRepo) Delete(_ context.Context, userID string, id uuid.UUID) error {
	a, ok := f.byID[id]
	if !ok || a.UserID != userID {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeAppointmentRepo) ListByGroup(_ context.Context, userID string, groupID uuid.UUID, from *time.Time) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range f.byID {
		if a.UserID != userID || a.GroupID == nil || *a.GroupID != groupID {
			continue
		}
		if from != nil && a.StartTime.Before(*from) {
			continue
		}
		out = append(out, a)
	}
	sortByStart(out)
	return out, nil
}

func (f *fakeAppointmentRepo) DeleteByGroup(_ context.Context, userID string, groupID uuid.UUID) (int64, error) {
	var n int64
	for id, a := range f.byID {
		if a.UserID == userID && a.GroupID != nil && *a.GroupID == groupID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeAppointmentRepo) DeleteFutureByGroup(_ context.Context, userID string, groupID uuid.UUID, from time.Time, exclude uuid.UUID) (int64, error) {
	var n int64
	for id, a := range f.byID {
		if a.UserID == userID && a.GroupID != nil && *a.GroupID == groupID &&
			!a.StartTime.Before(from) && id != exclude {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeAppointmentRepo) ListUpcomingUnreminded(_ context.Context, from, to time.Time) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, a := range f.byID {
		if !a.ReminderSent && a.Status == domain.StatusScheduled &&
			!a.StartTime.Before(from) && a.StartTime.Before(to) {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out, nil
}

func (f *fakeAppointmentRepo) MarkReminderSent(_ context.Context, id uuid.UUID) error {
	a, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.ReminderSent = true
	f.byID[id] = a
	return nil
}

func sortByStart(appts []domain.Appointment) {
	sort.Slice(appts, func(i, j int) bool { return appts[i].StartTime.Before(appts[j].StartTime) })
}

// groupMembers returns all stored appointments carrying groupID, sorted.
func (f *fakeAppointmentRepo) groupMembers(groupID uuid.UUID) []domain.Appointment {
	var out []domain.Appointment
	for _, a := range f.byID {
		if a.GroupID != nil && *a.GroupID == groupID {
			out = append(out, a)
		}
	}
	sortByStart(out)
	return out
}

// ---- collaborator mocks ----------------------------------------------------

// fakeTxRunner runs the function against the shared fake repo; "transactions"
// are not isolated, which is fine for behavioural assertions.
type fakeTxRunner struct {
	appts repo.AppointmentRepo
}

func (f fakeTxRunner) WithinTx(_ context.Context, fn func(repo.AppointmentRepo) error) error {
	return fn(f.appts)
}

var _ repo.TxRunner = fakeTxRunner{}

type mockClientRepo struct {
	getByID      func(ctx context.Context, userID string, id uuid.UUID) (domain.Client, error)
	recordNoShow func(ctx context.Context, userID string, id uuid.UUID, at time.Time) error
}

func (m *mockClientRepo) Create(_ context.Context, c domain.Client) (domain.Client, error) {
	return c, nil
}
func (m *mockClientRepo) GetByID(ctx context.Context, userID string, id uuid.UUID) (domain.Client, error) {
	return m.getByID(ctx, userID, id)
}
func (m *mockClientRepo) List(context.Context, string, string, domain.PaginationParams) ([]domain.Client, error) {
	return nil, nil
}
func (m *mockClientRepo) Update(_ context.Context, c domain.Client) (domain.Client, error) {
	return c, nil
}
func (m *mockClientRepo) Delete(context.Context, string, uuid.UUID) error { return nil }
func (m *mockClientRepo) RecordNoShow(ctx context.Context, userID string, id uuid.UUID, at time.Time) error {
	if m.recordNoShow != nil {
		return m.recordNoShow(ctx, userID, id, at)
	}
	return nil
}

var _ repo.ClientRepo = (*mockClientRepo)(nil)

// mockCatalogRepo resolves from fixed maps; the CRUD methods are unused by
// the appointment service.
type mockCatalogRepo struct {
	services map[uuid.UUID]domain.Service
	items    map[uuid.UUID]domain.Item
}

func (m *mockCatalogRepo) CreateService(_ context.Context, s domain.Service) (domain.Service, error) {
	return s, nil
}
func (m *mockCatalogRepo) GetService(context.Context, string, uuid.UUID) (domain.Service, error) {
	return domain.Service{}, domain.ErrNotFound
}
func (m *mockCatalogRepo) ListServices(context.Context, string) ([]domain.Service, error) {
	return nil, nil
}
func (m *mockCatalogRepo) UpdateService(_ context.Context, s domain.Service) (domain.Service, error) {
	return s, nil
}
func (m *mockCatalogRepo) DeleteService(context.Context, string, uuid.UUID) error { return nil }
func (m *mockCatalogRepo) CreateItem(_ context.Context, i domain.Item) (domain.Item, error) {
	return i, nil
}
func (m *mockCatalogRepo) ListItems(context.Context, string) ([]domain.Item, error) { return nil, nil }
func (m *mockCatalogRepo) UpdateItem(_ context.Context, i domain.Item) (domain.Item, error) {
	return i, nil
}
func (m *mockCatalogRepo) DeleteItem(context.Context, string, uuid.UUID) error { return nil }

func (m *mockCatalogRepo) ServicesByIDs(_ context.Context, _ string, ids []uuid.UUID) (map[uuid.UUID]domain.Service, error) {
	out := make(map[uuid.UUID]domain.Service)
	for _, id := range ids {
		if s, ok := m.services[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (m *mockCatalogRepo) ItemsByIDs(_ context.Context, _ string, ids []uuid.UUID) (map[uuid.UUID]domain.Item, error) {
	out := make(map[uuid.UUID]domain.Item)
	for _, id := range ids {
		if i, ok := m.items[id]; ok {
			out[id] = i
		}
	}
	return out, nil
}

var _ repo.CatalogRepo = (*mockCatalogRepo)(nil)

// ---- test fixture ----------------------------------------------------------

const testUser = "user-1"

type fixture struct {
	svc     *service.AppointmentService
	appts   *fakeAppointmentRepo
	client  domain.Client
	bath    domain.Service
	noShows []uuid.UUID
	loc     *time.Location
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	f := &fixture{
		appts: newFakeAppointmentRepo(),
		client: domain.Client{
			ID:     uuid.New(),
			UserID: testUser,
			Name:   "Dana Whitfield",
		},
		bath: domain.Service{ID: uuid.New(), UserID: testUser, Name: "Bath", Duration: 45, Price: 40},
		loc:  loc,
		now:  time.Date(2025, time.June, 1, 16, 0, 0, 0, time.UTC),
	}

	clients := &mockClientRepo{
		getByID: func(_ context.Context, userID string, id uuid.UUID) (domain.Client, error) {
			if userID == testUser && id == f.client.ID {
				return f.client, nil
			}
			return domain.Client{}, domain.ErrNotFound
		},
		recordNoShow: func(_ context.Context, _ string, id uuid.UUID, _ time.Time) error {
			f.noShows = append(f.noShows, id)
			return nil
		},
	}

	f.svc = service.NewAppointmentService(service.AppointmentServiceDeps{
		Appointments: f.appts,
		Tx:           fakeTxRunner{appts: f.appts},
		Clients:      clients,
		Catalog: &mockCatalogRepo{
			services: map[uuid.UUID]domain.Service{f.bath.ID: f.bath},
			items:    map[uuid.UUID]domain.Item{},
		},
		Location: loc,
		Now:      func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) pets() []domain.PetEntry {
	return []domain.PetEntry{{PetName: "Bella", ServiceIDs: []uuid.UUID{f.bath.ID}}}
}

// createWeekly seeds a weekly series anchored in the near future and returns
// its members sorted by start time.
func (f *fixture) createWeekly(t *testing.T) []domain.Appointment {
	t.Helper()
	created, err := f.svc.Create(context.Background(), testUser, service.CreateInput{
		ClientID:    f.client.ID,
		StartTime:   time.Date(2025, time.June, 9, 14, 0, 0, 0, time.UTC), // 10:00 EDT
		Pets:        f.pets(),
		IsRecurring: true,
		RepeatValue: 1,
		RepeatUnit:  "week",
	})
	require.NoError(t, err)
	return created
}

// ---- Create ----------------------------------------------------------------

func TestAppointmentService_Create_nonRecurring(t *testing.T) {
	f := newFixture(t)

	start := time.Date(2025, time.June, 9, 14, 0, 0, 0, time.UTC)
	created, err := f.svc.Create(context.Background(), testUser, service.CreateInput{
		ClientID:  f.client.ID,
		StartTime: start,
		Notes:     "first visit",
		Pets:      f.pets(),
	})

	require.NoError(t, err)
	require.Len(t, created, 1)
	a := created[0]
	assert.False(t, a.IsRecurring)
	assert.Nil(t, a.GroupID)
	assert.Equal(t, "Dana Whitfield", a.ClientName)
	assert.Equal(t, domain.StatusScheduled, a.Status)
	assert.Equal(t, 45, a.TotalDuration)
	assert.InDelta(t, 40, a.TotalPrice, 0.001)
	assert.Equal(t, start.Add(45*time.Minute), a.EndTime)
	assert.Len(t, f.appts.byID, 1)
}

func TestAppointmentService_Create_missingClient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), testUser, service.CreateInput{
		ClientID:  uuid.New(),
		StartTime: f.now,
	})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.appts.byID)
}

func TestAppointmentService_Create_weeklySeries(t *testing.T) {
	f := newFixture(t)

	created := f.createWeekly(t)

	require.Len(t, created, 53)
	groupID := created[0].GroupID
	require.NotNil(t, groupID)
	for _, a := range created {
		assert.True(t, a.IsRecurring)
		require.NotNil(t, a.GroupID)
		assert.Equal(t, *groupID, *a.GroupID)
		assert.Equal(t, 1, a.RepeatValue)
		assert.Equal(t, "week", a.RepeatUnit)
		assert.Equal(t, 45, a.TotalDuration)
		local := a.StartTime.In(f.loc)
		assert.Equal(t, 10, local.Hour())
		assert.Equal(t, 0, local.Minute())
	}
	// The anchor is the first member, at its exact requested instant.
	assert.Equal(t, time.Date(2025, time.June, 9, 14, 0, 0, 0, time.UTC), created[0].StartTime)
}

func TestAppointmentService_Create_unknownUnitDefaultsToWeekly(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.Create(context.Background(), testUser, service.CreateInput{
		ClientID:    f.client.ID,
		StartTime:   time.Date(2025, time.June, 9, 14, 0, 0, 0, time.UTC),
		Pets:        f.pets(),
		IsRecurring: true,
		RepeatValue: 1,
		RepeatUnit:  "lunar",
	})

	require.NoError(t, err)
	require.Len(t, created, 53)
	assert.Equal(t, "week", created[0].RepeatUnit)
}

// ---- Update: validation ----------------------------------------------------

func TestAppointmentService_Update_emptyPatch(t *testing.T) {
	f := newFixture(t)
	created := f.createWeekly(t)

	_, err := f.svc.Update(context.Background(), testUser, created[0].ID, domain.AppointmentPatch{}, false)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAppointmentService_Update_notFound(t *testing.T) {
	f := newFixture(t)

	notes := "hello"
	_, err := f.svc.Update(context.Background(), testUser, uuid.New(), domain.AppointmentPatch{Notes: &notes}, false)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAppointmentService_Update_invalidStatus(t *testing.T) {
	f := newFixture(t)
	created := f.createWeekly(t)

	status := "rescheduled"
	_, err := f.svc.Update(context.Background(), testUser, created[0].ID, domain.AppointmentPatch{Status: &status}, false)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- Update: detach --------------------------------------------------------

func TestAppointmentService_Update_singleScopeDetaches(t *testing.T) {
	f := newFixture(t)
	created := f.createWeekly(t)
	groupID := *created[0].GroupID
	target := created[3]

	notes := "bring the slicker brush"
	updated, err := f.svc.Update(context.Background(), testUser, target.ID, domain.AppointmentPatch{Notes: &notes}, false)

	require.NoError(t, err)
	assert.False(t, updated.IsRecurring)
	assert.Nil(t, updated.GroupID)
	assert.Zero(t, updated.RepeatValue)
	assert.Empty(t, updated.RepeatUnit)
	assert.Equal(t, notes, updated.Notes)
	// Start time is untouched by a notes-only detach.
	assert.Equal(t, target.StartTime, updated.StartTime)

	// Every sibling is unchanged.
	members := f.appts.groupMembers(groupID)
	assert.Len(t, members, 52)
	for _, m := range members {
		assert.NotEqual(t, target.ID, m.ID)
		assert.Empty(t, m.Notes)
	}
}

// ---- Update: bulk field update ---------------------------------------------

func TestAppointmentService_Update_seriesNotesHitFutureOnly(t *testing.T) {
	f := newFixture(t)
	created := f.createWeekly(t)
	groupID := *created[0].GroupID

	// Push two members into the past relative to the fixed clock.
	f.now = time.Date(2025, time.June, 25, 0, 0, 0, 0, time.UTC)

	notes := "UPDATED SERIES"
	target := created[5]
	updated, err := f.svc.Update(context.Background(), testUser, target.ID, domain.AppointmentPatch{Notes: &notes}, true)

	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	assert.True(t, updated.IsRecurring)
	require.NotNil(t, updated.GroupID)
	assert.Equal(t, groupID, *updated.GroupID)

	for _, m := range f.appts.groupMembers(groupID) {
		if m.StartTime.Before(f.now) {
			assert.Empty(t, m.Notes, "past member %s must be untouched", m.StartTime)
		} else {
			assert.Equal(t, notes, m.Notes, "future member %s must carry the edit", m.StartTime)
		}
	}
}

func TestAppointmentService_Update_statusNeverPropagates(t *testing.T) {
	f := newFixture(t)
	created := f.createWeekly(t)
	groupID := *created[0].GroupID
	target := created[2]

	status := domain.StatusCompleted
	notes := "done early"
	updated, err := f.svc.Update(context.Background(), testUser, target.ID,
		domain.AppointmentPatch{Status: &status, Notes: &notes}, true)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)

	for _, m := range f.appts.groupMembers(groupID) {
		if m.ID == target.ID {
			continue
		}
		assert.Equal(t, domain.StatusScheduled, m.Status)
		assert.Equal(t, notes, m.Notes) // the non-status delta did propagate
	}
}

// ---- Update: bulk time reschedule ------------------------------------------

func TestAppointmentService_Update_seriesRescheduleKeepsDatesAdoptsTime(t *testing.T) {
	f := newFixture(t)
	created := f.createWeekly(t)
	groupID := *created[0].GroupID
	target := created[0]

	// Move the series from 10:00 to 13:30 local via the anchor.
	newStart := time.Date(2025, time.June, 9, 17, 30, 0, 0, time.UTC) // 13:30 EDT
	updated, err := f.svc.Update(context.Background(), testUser, target.ID,
		domain.AppointmentPatch{StartTime: &newStart}, true)

	require.NoError(t, err)
	assert.Equal(t, newStart, updated.StartTime)

	members := f.appts.groupMembers(groupID)
	require.Len(t, members, 53)
	for i, m := range members {
		local := m.StartTime.In(f.loc)
		assert.Equal(t, 13, local.Hour())
		assert.Equal(t, 30, local.Minute())
		// Dates are preserved: still weekly Mondays from the anchor.
		if i > 0 {
			prev := members[i-1].StartTime.In(f.loc)
			assert.Equal(t, prev.AddDate(0, 0, 7).Day(), local.Day())
		}
		assert.Equal(t, m.StartTime.Add(45*time.Minute), m.EndTime)
	}
}

// ---- Update: regenerate ----------------------------------------------------

func TestAppointmentService_Update_cadenceChangeRegenerates(t *testing.T) {
	f := newFixture(t)
	created := f.createWeekly(t)
	groupID := *created[0].GroupID

	// Two members are already in the past when the cadence changes.
	f.now = time.Date(2025, time.June, 20, 0, 0, 0, 0, time.UTC)
	var past []uuid.UUID
	for _, m := range created {
		if m.StartTime.Before(f.now) {
			past = append(past, m.ID)
		}
	}
	require.Len(t, past, 2)

	// Edit the first future member to biweekly.
	target := created[2]
	value, unit := 2, "week"
	updated, err := f.svc.Update(context.Background(), testUser, target.ID,
		domain.AppointmentPatch{RepeatValue: &value, RepeatUnit: &unit}, true)

	require.NoError(t, err)
	assert.Equal(t, 2, updated.RepeatValue)
	assert.Equal(t, "week", updated.RepeatUnit)
	require.NotNil(t, updated.GroupID)
	assert.Equal(t, groupID, *updated.GroupID, "group id is reused on regeneration")

	members := f.appts.groupMembers(groupID)

	// Past members retain the old cadence and are untouched.
	for _, id := range past {
		a, err := f.appts.GetByID(context.Background(), testUser, id)
		require.NoError(t, err)
		assert.Equal(t, 1, a.RepeatValue)
	}

	// Future members are the edited anchor plus a fresh biweekly expansion:
	// anchor June 23 @ 10:00, horizon June 23 + 365d, every 14 days → 27
	// slots, plus the two past members = 29 total.
	require.Len(t, members, 29)
	var future []domain.Appointment
	for _, m := range members {
		if !m.StartTime.Before(f.now) {
			future = append(future, m)
		}
	}
	require.Len(t, future, 27)
	for i := 1; i < len(future); i++ {
		prev := future[i-1].StartTime.In(f.loc)
		cur := future[i].StartTime.In(f.loc)
		assert.Equal(t, prev.AddDate(0, 0, 14).Format("2006-01-02"), cur.Format("2006-01-02"))
	}
}

func TestAppointmentService_Update_convertStandaloneToRecurring(t *testing.T) {
	f := newFixture(t)

	start := time.Date(2025, time.June, 9, 14, 0, 0, 0, time.UTC)
	created, err := f.svc.Create(context.Background(), testUser, service.CreateInput{
		ClientID:  f.client.ID,
		StartTime: start,
		Pets:      f.pets(),
	})
	require.NoError(t, err)
	standalone := created[0]

	recurring := true
	value, unit := 1, "week"
	updated, err := f.svc.Update(context.Background(), testUser, standalone.ID,
		domain.AppointmentPatch{IsRecurring: &recurring, RepeatValue: &value, RepeatUnit: &unit}, true)

	require.NoError(t, err)
	assert.True(t, updated.IsRecurring)
	require.NotNil(t, updated.GroupID)
	assert.Equal(t, standalone.ID, updated.ID, "the original becomes the anchor")

	members := f.appts.groupMembers(*updated.GroupID)
	require.Len(t, members, 53)
	assert.Equal(t, standalone.ID, members[0].ID)
}

// ---- Update: no-show side effect -------------------------------------------

func TestAppointmentService_Update_noShowMarksClient(t *testing.T) {
	f := newFixture(t)
	created := f.createWeekly(t)

	status := domain.StatusNoShow
	_, err := f.svc.Update(context.Background(), testUser, created[1].ID,
		domain.AppointmentPatch{Status: &status}, false)

	require.NoError(t, err)
	require.Len(t, f.noShows, 1)
	assert.Equal(t, f.client.ID, f.noShows[0])
}

// ---- Delete ----------------------------------------------------------------

func TestAppointmentService_Delete_single(t *testing.T) {
	f := newFixture(t)
	created := f.createWeekly(t)
	groupID := *created[0].GroupID

	removed, err := f.svc.Delete(context.Background(), testUser, created[4].ID, false)

	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, created[4].ID, removed[0].ID)
	assert.Len(t, f.appts.groupMembers(groupID), 52)
}

func TestAppointmentService_Delete_seriesRemovesPastMembersToo(t *testing.T) {
	f := newFixture(t)
	created := f.createWeekly(t)
	groupID := *created[0].GroupID

	// Some members are in the past; series delete must still take them.
	f.now = time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)

	removed, err := f.svc.Delete(context.Background(), testUser, created[10].ID, true)

	require.NoError(t, err)
	assert.Len(t, removed, 53)
	assert.Empty(t, f.appts.groupMembers(groupID))
	assert.Empty(t, f.appts.byID)
}

func TestAppointmentService_Delete_notFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Delete(context.Background(), testUser, uuid.New(), true)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAppointmentService_Delete_otherUsersAppointment(t *testing.T) {
	f := newFixture(t)
	created := f.createWeekly(t)

	_, err := f.svc.Delete(context.Background(), "someone-else", created[0].ID, false)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
