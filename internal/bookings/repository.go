package bookings

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclub/backend/internal/models"
	"github.com/openclub/backend/pkg/database"
)

// Repository handles booking persistence.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const bookingColumns = `id, user_id, organization_id, resource_id, start_time, end_time, status, total_amount_cents, notes, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.OrganizationID, &b.ResourceID, &b.StartTime, &b.EndTime,
		&b.Status, &b.TotalAmountCents, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// HasOverlap reports whether an active booking on the resource intersects
// [start, end). Intervals are half-open, so touching endpoints do not count.
// The database exclusion constraint is the real guard against concurrent
// inserts; this check exists to answer with a clean conflict before paying
// for the insert.
func (r *Repository) HasOverlap(ctx context.Context, resourceID uuid.UUID, start, end time.Time) (bool, error) {
	const q = `SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE resource_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND start_time < $3
		  AND end_time > $2
	)`
	var exists bool
	err := r.pool.QueryRow(ctx, q, resourceID, start, end).Scan(&exists)
	return exists, err
}

// Insert persists a new booking. Returns ErrOverlap when the exclusion
// constraint rejects the row, which is how concurrent overlapping inserts
// lose the race.
func (r *Repository) Insert(ctx context.Context, b *models.Booking) error {
	const q = `INSERT INTO bookings (user_id, organization_id, resource_id, start_time, end_time, status, total_amount_cents, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, b.UserID, b.OrganizationID, b.ResourceID, b.StartTime, b.EndTime,
		b.Status, b.TotalAmountCents, b.Notes).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if database.IsExclusionViolation(err) {
			return ErrOverlap
		}
		return err
	}
	return nil
}

// GetByID returns a booking by ID. Absence is pgx.ErrNoRows.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

// UpdateStatus persists a status change and returns the updated row.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.BookingStatus) (*models.Booking, error) {
	const q = `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING ` + bookingColumns
	return scanBooking(r.pool.QueryRow(ctx, q, status, id))
}

const bookingDetailQuery = `SELECT b.id, b.user_id, b.organization_id, b.resource_id, b.start_time, b.end_time,
		b.status, b.total_amount_cents, b.notes, b.created_at, b.updated_at,
		u.display_name, u.email, r.name, o.name, o.slug
	FROM bookings b
	JOIN users u ON u.id = b.user_id
	JOIN resources r ON r.id = b.resource_id
	JOIN organizations o ON o.id = b.organization_id`

func scanBookingDetail(row interface{ Scan(...any) error }) (*models.BookingDetail, error) {
	var d models.BookingDetail
	err := row.Scan(&d.ID, &d.UserID, &d.OrganizationID, &d.ResourceID, &d.StartTime, &d.EndTime,
		&d.Status, &d.TotalAmountCents, &d.Notes, &d.CreatedAt, &d.UpdatedAt,
		&d.UserName, &d.UserEmail, &d.ResourceName, &d.OrganizationName, &d.OrganizationSlug)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDetailByID returns a booking with joined display names.
func (r *Repository) GetDetailByID(ctx context.Context, id uuid.UUID) (*models.BookingDetail, error) {
	return scanBookingDetail(r.pool.QueryRow(ctx, bookingDetailQuery+` WHERE b.id = $1`, id))
}

// ListMine returns the caller's bookings, newest start first.
func (r *Repository) ListMine(ctx context.Context, userID uuid.UUID) ([]*models.BookingDetail, error) {
	rows, err := r.pool.Query(ctx, bookingDetailQuery+` WHERE b.user_id = $1 ORDER BY b.start_time DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

// ListFilter narrows an organization booking listing. Zero-valued fields are
// not applied. From/To filter on the booking start time.
type ListFilter struct {
	ResourceID uuid.UUID
	Status     models.BookingStatus
	From       time.Time
	To         time.Time
}

// ListByOrganization returns an organization's bookings matching the filter,
// ordered by start time.
func (r *Repository) ListByOrganization(ctx context.Context, organizationID uuid.UUID, f ListFilter) ([]*models.BookingDetail, error) {
	q := bookingDetailQuery + ` WHERE b.organization_id = $1`
	args := []any{organizationID}
	if f.ResourceID != uuid.Nil {
		args = append(args, f.ResourceID)
		q += ` AND b.resource_id = $` + strconv.Itoa(len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		q += ` AND b.status = $` + strconv.Itoa(len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		q += ` AND b.start_time >= $` + strconv.Itoa(len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		q += ` AND b.start_time < $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY b.start_time`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

func collectDetails(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]*models.BookingDetail, error) {
	var list []*models.BookingDetail
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

