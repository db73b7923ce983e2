package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/openclub/backend/internal/authz"
	"github.com/openclub/backend/internal/models"
)

// Sentinel errors the handler maps to response categories. Anything else
// coming out of the service is an internal failure.
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrOverlap           = errors.New("booking overlaps an existing booking")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// BookingStore is the slice of Repository the service needs.
type BookingStore interface {
	HasOverlap(ctx context.Context, resourceID uuid.UUID, start, end time.Time) (bool, error)
	Insert(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) (*models.Booking, error)
}

// ResourceStore loads active resources.
type ResourceStore interface {
	GetActive(ctx context.Context, id uuid.UUID) (*models.Resource, error)
}

// AccessChecker answers organization capability questions for a caller.
type AccessChecker interface {
	HasOrganizationAccess(ctx context.Context, caller *authz.Caller, organizationID uuid.UUID) (bool, error)
	HasOrganizationCapability(ctx context.Context, caller *authz.Caller, organizationID uuid.UUID, kind string) (bool, error)
}

// Service implements booking creation and the status state machine.
type Service struct {
	store     BookingStore
	resources ResourceStore
	access    AccessChecker
	now       func() time.Time
}

func NewService(store BookingStore, resources ResourceStore, access AccessChecker) *Service {
	return &Service{store: store, resources: resources, access: access, now: time.Now}
}

// Amount computes the booking charge in cents for an hourly rate and a
// duration, rounding half up.
func Amount(hourlyRateCents int64, start, end time.Time) int64 {
	seconds := int64(end.Sub(start) / time.Second)
	return (hourlyRateCents*seconds + 1800) / 3600
}

// Create validates and persists a new pending booking on behalf of caller.
func (s *Service) Create(ctx context.Context, caller *authz.Caller, resourceID uuid.UUID, start, end time.Time, notes string) (*models.Booking, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end must be after start", ErrInvalidRequest)
	}
	if start.Before(s.now()) {
		return nil, fmt.Errorf("%w: start must not be in the past", ErrInvalidRequest)
	}

	res, err := s.resources.GetActive(ctx, resourceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: resource", ErrNotFound)
		}
		return nil, err
	}

	ok, err := s.access.HasOrganizationAccess(ctx, caller, res.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no membership in resource's organization", ErrForbidden)
	}

	// Pre-check gives the common case a clean answer; the exclusion
	// constraint on the insert settles concurrent racers.
	overlap, err := s.store.HasOverlap(ctx, resourceID, start, end)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, ErrOverlap
	}

	b := &models.Booking{
		UserID:           caller.User.ID,
		OrganizationID:   res.OrganizationID,
		ResourceID:       resourceID,
		StartTime:        start,
		EndTime:          end,
		Status:           models.BookingPending,
		TotalAmountCents: Amount(res.HourlyRateCents, start, end),
		Notes:            notes,
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateStatus applies the status state machine. Terminal states accept no
// transition from anyone. The owning account may only move to cancelled from
// pending or confirmed; managers of the booking's organization and bypass
// callers may set any non-terminal-violating status.
func (s *Service) UpdateStatus(ctx context.Context, caller *authz.Caller, bookingID uuid.UUID, newStatus models.BookingStatus) (*models.Booking, error) {
	if !models.ValidBookingStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, newStatus)
	}

	b, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: booking", ErrNotFound)
		}
		return nil, err
	}

	manager, err := s.access.HasOrganizationCapability(ctx, caller, b.OrganizationID, models.MembershipManager)
	if err != nil {
		return nil, err
	}
	owner := b.UserID == caller.User.ID
	if !manager && !owner {
		return nil, fmt.Errorf("%w: not booking owner or organization manager", ErrForbidden)
	}

	if b.Status.Terminal() {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
	}
	if !manager && newStatus != models.BookingCancelled {
		return nil, fmt.Errorf("%w: owners may only cancel", ErrForbidden)
	}

	return s.store.UpdateStatus(ctx, bookingID, newStatus)
}

// Cancel is the owner-only cancellation path. Unlike UpdateStatus it reports
// an already-settled booking as an invalid request rather than an invalid
// transition.
func (s *Service) Cancel(ctx context.Context, caller *authz.Caller, bookingID uuid.UUID) (*models.Booking, error) {
	b, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: booking", ErrNotFound)
		}
		return nil, err
	}

	if b.UserID != caller.User.ID {
		return nil, fmt.Errorf("%w: not the booking owner", ErrForbidden)
	}
	switch b.Status {
	case models.BookingCancelled:
		return nil, fmt.Errorf("%w: booking is already cancelled", ErrInvalidRequest)
	case models.BookingCompleted:
		return nil, fmt.Errorf("%w: completed bookings cannot be cancelled", ErrInvalidRequest)
	}

	return s.store.UpdateStatus(ctx, bookingID, models.BookingCancelled)
}

// View loads a booking for reading. Owners, organization members with the
// manager kind, and bypass callers may read.
func (s *Service) View(ctx context.Context, caller *authz.Caller, bookingID uuid.UUID) (*models.Booking, error) {
	b, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: booking", ErrNotFound)
		}
		return nil, err
	}
	if b.UserID == caller.User.ID {
		return b, nil
	}
	manager, err := s.access.HasOrganizationCapability(ctx, caller, b.OrganizationID, models.MembershipManager)
	if err != nil {
		return nil, err
	}
	if !manager {
		return nil, fmt.Errorf("%w: not booking owner or organization manager", ErrForbidden)
	}
	return b, nil
}
