package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclub/backend/internal/authz"
	"github.com/openclub/backend/internal/models"
)

type fakeBookingStore struct {
	bookings map[uuid.UUID]*models.Booking
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{bookings: make(map[uuid.UUID]*models.Booking)}
}

func (s *fakeBookingStore) HasOverlap(_ context.Context, resourceID uuid.UUID, start, end time.Time) (bool, error) {
	for _, b := range s.bookings {
		if b.ResourceID != resourceID {
			continue
		}
		if b.Status != models.BookingPending && b.Status != models.BookingConfirmed {
			continue
		}
		if b.StartTime.Before(end) && b.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeBookingStore) Insert(_ context.Context, b *models.Booking) error {
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	s.bookings[b.ID] = b
	return nil
}

func (s *fakeBookingStore) GetByID(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *b
	return &copied, nil
}

func (s *fakeBookingStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.BookingStatus) (*models.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	b.Status = status
	b.UpdatedAt = time.Now()
	copied := *b
	return &copied, nil
}

type fakeResourceStore struct {
	resources map[uuid.UUID]*models.Resource
}

func (s *fakeResourceStore) GetActive(_ context.Context, id uuid.UUID) (*models.Resource, error) {
	r, ok := s.resources[id]
	if !ok || !r.IsActive {
		return nil, pgx.ErrNoRows
	}
	return r, nil
}

// fakeAccess grants membership and manager capability from explicit sets,
// plus everything to callers holding the bypass role.
type fakeAccess struct {
	members  map[uuid.UUID]bool
	managers map[uuid.UUID]bool
}

func (a *fakeAccess) HasOrganizationAccess(_ context.Context, caller *authz.Caller, _ uuid.UUID) (bool, error) {
	if caller.HasRole(models.RoleSuperAdmin) {
		return true, nil
	}
	return a.members[caller.User.ID], nil
}

func (a *fakeAccess) HasOrganizationCapability(_ context.Context, caller *authz.Caller, _ uuid.UUID, kind string) (bool, error) {
	if caller.HasRole(models.RoleSuperAdmin) {
		return true, nil
	}
	if kind == models.MembershipManager {
		return a.managers[caller.User.ID], nil
	}
	return a.members[caller.User.ID], nil
}

type fixture struct {
	service *Service
	store   *fakeBookingStore
	access  *fakeAccess

	resource *models.Resource
	member   *authz.Caller
	manager  *authz.Caller
	outsider *authz.Caller
	admin    *authz.Caller
}

func caller(roles ...string) *authz.Caller {
	return &authz.Caller{
		User:  &models.User{ID: uuid.New(), Email: uuid.New().String() + "@example.com", IsActive: true},
		Roles: roles,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: newFakeBookingStore(),
		resource: &models.Resource{
			ID:              uuid.New(),
			OrganizationID:  uuid.New(),
			Name:            "Court 1",
			Category:        "tennis",
			HourlyRateCents: 2000,
			IsActive:        true,
		},
		member:   caller(),
		manager:  caller(),
		outsider: caller(),
		admin:    caller(models.RoleSuperAdmin),
	}
	f.access = &fakeAccess{
		members:  map[uuid.UUID]bool{f.member.User.ID: true, f.manager.User.ID: true},
		managers: map[uuid.UUID]bool{f.manager.User.ID: true},
	}
	resources := &fakeResourceStore{resources: map[uuid.UUID]*models.Resource{f.resource.ID: f.resource}}
	f.service = NewService(f.store, resources, f.access)
	f.service.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) at(hour, min int) time.Time {
	return time.Date(2026, 3, 1, hour, min, 0, 0, time.UTC)
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)

	b, err := f.service.Create(context.Background(), f.member, f.resource.ID, f.at(10, 0), f.at(11, 0), "warmup")
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Equal(t, f.member.User.ID, b.UserID)
	assert.Equal(t, f.resource.OrganizationID, b.OrganizationID)
	assert.Equal(t, int64(2000), b.TotalAmountCents)
	assert.NotEqual(t, uuid.Nil, b.ID)
}

func TestCreateBookingOverlap(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), f.member, f.resource.ID, f.at(10, 0), f.at(11, 0), "")
	require.NoError(t, err)

	_, err = f.service.Create(context.Background(), f.member, f.resource.ID, f.at(10, 30), f.at(11, 30), "")
	assert.ErrorIs(t, err, ErrOverlap)

	// touching windows do not conflict under half-open intervals
	_, err = f.service.Create(context.Background(), f.member, f.resource.ID, f.at(11, 0), f.at(12, 0), "")
	assert.NoError(t, err)

	_, err = f.service.Create(context.Background(), f.member, f.resource.ID, f.at(9, 0), f.at(10, 0), "")
	assert.NoError(t, err)
}

func TestCreateBookingCancelledDoesNotBlock(t *testing.T) {
	f := newFixture(t)

	b, err := f.service.Create(context.Background(), f.member, f.resource.ID, f.at(10, 0), f.at(11, 0), "")
	require.NoError(t, err)
	_, err = f.service.Cancel(context.Background(), f.member, b.ID)
	require.NoError(t, err)

	_, err = f.service.Create(context.Background(), f.member, f.resource.ID, f.at(10, 0), f.at(11, 0), "")
	assert.NoError(t, err)
}

func TestCreateBookingBadWindow(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), f.member, f.resource.ID, f.at(11, 0), f.at(10, 0), "")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.service.Create(context.Background(), f.member, f.resource.ID, f.at(10, 0), f.at(10, 0), "")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	// start before the fixture clock's now
	_, err = f.service.Create(context.Background(), f.member, f.resource.ID, f.at(7, 0), f.at(8, 0), "")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCreateBookingResourceMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), f.member, uuid.New(), f.at(10, 0), f.at(11, 0), "")
	assert.ErrorIs(t, err, ErrNotFound)

	f.resource.IsActive = false
	_, err = f.service.Create(context.Background(), f.member, f.resource.ID, f.at(10, 0), f.at(11, 0), "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBookingRequiresMembership(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), f.outsider, f.resource.ID, f.at(10, 0), f.at(11, 0), "")
	assert.ErrorIs(t, err, ErrForbidden)

	// bypass role books without a membership
	_, err = f.service.Create(context.Background(), f.admin, f.resource.ID, f.at(10, 0), f.at(11, 0), "")
	assert.NoError(t, err)
}

func TestUpdateStatusStateMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.service.Create(ctx, f.member, f.resource.ID, f.at(10, 0), f.at(11, 0), "")
	require.NoError(t, err)

	// pending -> confirmed by manager
	updated, err := f.service.UpdateStatus(ctx, f.manager, b.ID, models.BookingConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, updated.Status)

	// confirmed -> completed by manager
	updated, err = f.service.UpdateStatus(ctx, f.manager, b.ID, models.BookingCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, updated.Status)

	// terminal: no further transitions for any caller
	_, err = f.service.UpdateStatus(ctx, f.manager, b.ID, models.BookingPending)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.service.UpdateStatus(ctx, f.member, b.ID, models.BookingCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.service.UpdateStatus(ctx, f.admin, b.ID, models.BookingConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusCancelledIsTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.service.Create(ctx, f.member, f.resource.ID, f.at(10, 0), f.at(11, 0), "")
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, f.manager, b.ID, models.BookingCancelled)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(ctx, f.manager, b.ID, models.BookingConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatusOwnerRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.service.Create(ctx, f.member, f.resource.ID, f.at(10, 0), f.at(11, 0), "")
	require.NoError(t, err)

	// owners may not confirm their own booking
	_, err = f.service.UpdateStatus(ctx, f.member, b.ID, models.BookingConfirmed)
	assert.ErrorIs(t, err, ErrForbidden)

	// but may cancel it
	updated, err := f.service.UpdateStatus(ctx, f.member, b.ID, models.BookingCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, updated.Status)
}

func TestUpdateStatusRejectsOutsiders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.service.Create(ctx, f.member, f.resource.ID, f.at(10, 0), f.at(11, 0), "")
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(ctx, f.outsider, b.ID, models.BookingCancelled)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.service.UpdateStatus(ctx, f.manager, b.ID, "paused")
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.service.UpdateStatus(ctx, f.manager, uuid.New(), models.BookingConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.service.Create(ctx, f.member, f.resource.ID, f.at(10, 0), f.at(11, 0), "")
	require.NoError(t, err)

	// only the owner, even managers are rejected here
	_, err = f.service.Cancel(ctx, f.manager, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.service.Cancel(ctx, f.outsider, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := f.service.Cancel(ctx, f.member, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, updated.Status)

	_, err = f.service.Cancel(ctx, f.member, b.ID)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestCancelCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.service.Create(ctx, f.member, f.resource.ID, f.at(10, 0), f.at(11, 0), "")
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, f.manager, b.ID, models.BookingConfirmed)
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, f.manager, b.ID, models.BookingCompleted)
	require.NoError(t, err)

	_, err = f.service.Cancel(ctx, f.member, b.ID)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAmount(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		rate int64
		mins int
		want int64
	}{
		{"one hour", 2000, 60, 2000},
		{"ninety minutes", 2000, 90, 3000},
		{"half hour", 2500, 30, 1250},
		{"rounds half up", 1001, 30, 501},
		{"rounds down below half", 1001, 15, 250},
		{"free resource", 0, 60, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Amount(tt.rate, base, base.Add(time.Duration(tt.mins)*time.Minute))
			assert.Equal(t, tt.want, got)
		})
	}
}
