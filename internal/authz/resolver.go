// Package authz resolves caller identity, global roles, and
// organization-scoped memberships into capability checks. Every gated
// endpoint goes through this package rather than running its own role SQL.
package authz

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/openclub/backend/internal/models"
)

// ErrUnknownSubject is returned when a token's subject no longer exists or
// has been deactivated. Callers must treat this as unauthenticated, not
// as forbidden.
var ErrUnknownSubject = errors.New("unknown subject")

// UserStore loads accounts.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RoleStore loads an account's global role set.
type RoleStore interface {
	ListRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// MembershipStore loads the single active membership for a (user, org) pair.
type MembershipStore interface {
	GetActiveMembership(ctx context.Context, userID, organizationID uuid.UUID) (*models.Membership, error)
}

// Caller is a resolved identity: the account plus its full global role set.
// The set is authoritative; order carries no meaning.
type Caller struct {
	User  *models.User
	Roles []string
}

// HasRole reports whether the caller holds the named global role.
func (c *Caller) HasRole(name string) bool {
	for _, r := range c.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Resolver answers capability questions for resolved callers.
type Resolver struct {
	users       UserStore
	roles       RoleStore
	memberships MembershipStore
	bypassRole  string
}

// NewResolver creates a resolver. bypassRole is the global role that
// satisfies any organization-scoped check without a membership row; the
// exact name is configuration, not contract.
func NewResolver(users UserStore, roles RoleStore, memberships MembershipStore, bypassRole string) *Resolver {
	return &Resolver{users: users, roles: roles, memberships: memberships, bypassRole: bypassRole}
}

// BypassRole returns the configured global bypass role name.
func (r *Resolver) BypassRole() string { return r.bypassRole }

// ResolveCaller loads the account behind a validated token subject and its
// global roles. Returns ErrUnknownSubject if the account is gone or
// deactivated; store failures propagate unchanged.
func (r *Resolver) ResolveCaller(ctx context.Context, subjectID uuid.UUID) (*Caller, error) {
	u, err := r.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownSubject
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUnknownSubject
	}
	roles, err := r.roles.ListRoleNames(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &Caller{User: u, Roles: roles}, nil
}

// Membership returns the caller's active membership in the organization, or
// nil if there is none.
func (r *Resolver) Membership(ctx context.Context, userID, organizationID uuid.UUID) (*models.Membership, error) {
	m, err := r.memberships.GetActiveMembership(ctx, userID, organizationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}

// HasOrganizationCapability reports whether the caller holds the bypass role
// or an active membership of exactly the required kind. Kind matching is
// exact: a member does not satisfy a manager requirement and vice versa.
func (r *Resolver) HasOrganizationCapability(ctx context.Context, caller *Caller, organizationID uuid.UUID, requiredKind string) (bool, error) {
	if caller.HasRole(r.bypassRole) {
		return true, nil
	}
	m, err := r.Membership(ctx, caller.User.ID, organizationID)
	if err != nil {
		return false, err
	}
	return m != nil && m.Kind == requiredKind, nil
}

// HasOrganizationAccess reports whether the caller holds the bypass role or
// any active membership in the organization.
func (r *Resolver) HasOrganizationAccess(ctx context.Context, caller *Caller, organizationID uuid.UUID) (bool, error) {
	if caller.HasRole(r.bypassRole) {
		return true, nil
	}
	m, err := r.Membership(ctx, caller.User.ID, organizationID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}
