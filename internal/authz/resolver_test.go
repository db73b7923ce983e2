package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclub/backend/internal/models"
)

type fakeStores struct {
	users       map[uuid.UUID]*models.User
	roles       map[uuid.UUID][]string
	memberships map[[2]uuid.UUID]*models.Membership
	failWith    error
}

func newFakeStores() *fakeStores {
	return &fakeStores{
		users:       make(map[uuid.UUID]*models.User),
		roles:       make(map[uuid.UUID][]string),
		memberships: make(map[[2]uuid.UUID]*models.Membership),
	}
}

func (f *fakeStores) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeStores) ListRoleNames(_ context.Context, userID uuid.UUID) ([]string, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.roles[userID], nil
}

func (f *fakeStores) GetActiveMembership(_ context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	m, ok := f.memberships[[2]uuid.UUID{userID, orgID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return m, nil
}

func (f *fakeStores) addUser(roles ...string) *models.User {
	u := &models.User{ID: uuid.New(), Email: "u@x.com", IsActive: true}
	f.users[u.ID] = u
	f.roles[u.ID] = roles
	return u
}

func (f *fakeStores) addMembership(userID, orgID uuid.UUID, kind string) {
	f.memberships[[2]uuid.UUID{userID, orgID}] = &models.Membership{
		ID: uuid.New(), UserID: userID, OrganizationID: orgID, Kind: kind, IsActive: true,
	}
}

func newTestResolver(f *fakeStores) *Resolver {
	return NewResolver(f, f, f, "super_admin")
}

func TestResolveCaller(t *testing.T) {
	f := newFakeStores()
	u := f.addUser("manager", "owner")
	r := newTestResolver(f)

	caller, err := r.ResolveCaller(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, caller.User.ID)
	assert.True(t, caller.HasRole("manager"))
	assert.True(t, caller.HasRole("owner"))
	assert.False(t, caller.HasRole("super_admin"))
}

func TestResolveCallerUnknownSubject(t *testing.T) {
	r := newTestResolver(newFakeStores())
	_, err := r.ResolveCaller(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUnknownSubject)
}

func TestResolveCallerDeactivated(t *testing.T) {
	f := newFakeStores()
	u := f.addUser()
	u.IsActive = false
	r := newTestResolver(f)

	_, err := r.ResolveCaller(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrUnknownSubject)
}

func TestResolveCallerStoreFailure(t *testing.T) {
	f := newFakeStores()
	f.failWith = errors.New("connection refused")
	r := newTestResolver(f)

	_, err := r.ResolveCaller(context.Background(), uuid.New())
	require.Error(t, err)
	// A store failure must not masquerade as an auth failure.
	assert.NotErrorIs(t, err, ErrUnknownSubject)
}

func TestOrganizationCapabilityExactKind(t *testing.T) {
	f := newFakeStores()
	u := f.addUser()
	orgID := uuid.New()
	f.addMembership(u.ID, orgID, models.MembershipMember)
	r := newTestResolver(f)
	caller := &Caller{User: u}

	ok, err := r.HasOrganizationCapability(context.Background(), caller, orgID, models.MembershipMember)
	require.NoError(t, err)
	assert.True(t, ok)

	// A member does not satisfy a manager requirement.
	ok, err = r.HasOrganizationCapability(context.Background(), caller, orgID, models.MembershipManager)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrganizationCapabilityManagerIsNotMember(t *testing.T) {
	f := newFakeStores()
	u := f.addUser()
	orgID := uuid.New()
	f.addMembership(u.ID, orgID, models.MembershipManager)
	r := newTestResolver(f)
	caller := &Caller{User: u}

	// Exact match only: a manager does not satisfy a member requirement either.
	ok, err := r.HasOrganizationCapability(context.Background(), caller, orgID, models.MembershipMember)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBypassRoleGrantsEverything(t *testing.T) {
	f := newFakeStores()
	u := f.addUser("super_admin")
	r := newTestResolver(f)
	caller := &Caller{User: u, Roles: []string{"super_admin"}}
	orgID := uuid.New() // no membership rows at all

	ok, err := r.HasOrganizationCapability(context.Background(), caller, orgID, models.MembershipManager)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.HasOrganizationAccess(context.Background(), caller, orgID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrganizationAccessAnyKind(t *testing.T) {
	f := newFakeStores()
	u := f.addUser()
	orgID := uuid.New()
	f.addMembership(u.ID, orgID, models.MembershipVisitor)
	r := newTestResolver(f)
	caller := &Caller{User: u}

	ok, err := r.HasOrganizationAccess(context.Background(), caller, orgID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.HasOrganizationAccess(context.Background(), caller, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}
