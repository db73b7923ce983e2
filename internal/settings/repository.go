package settings

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openclub/backend/internal/models"
)

// Repository handles organization booking-policy settings. Rows are created
// lazily with column defaults the first time an organization's settings are
// read.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const settingsColumns = `organization_id, slot_interval_minutes, session_durations_minutes,
	allow_consecutive, show_day_view, days_ahead_booking, next_day_opens_at,
	summer_open, summer_close, winter_open, winter_close,
	notification_email, guest_booking_email, created_at, updated_at`

func scanSettings(row interface{ Scan(...any) error }) (*models.OrganizationSettings, error) {
	var s models.OrganizationSettings
	err := row.Scan(&s.OrganizationID, &s.SlotIntervalMinutes, &s.SessionDurationsMinutes,
		&s.AllowConsecutive, &s.ShowDayView, &s.DaysAheadBooking, &s.NextDayOpensAt,
		&s.SummerOpen, &s.SummerClose, &s.WinterOpen, &s.WinterClose,
		&s.NotificationEmail, &s.GuestBookingEmail, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetOrCreate returns the organization's settings, inserting a defaults row
// if none exists yet. Losing a concurrent insert race falls through to the
// existing row.
func (r *Repository) GetOrCreate(ctx context.Context, organizationID uuid.UUID) (*models.OrganizationSettings, error) {
	const q = `WITH created AS (
		INSERT INTO organization_settings (organization_id)
		VALUES ($1)
		ON CONFLICT (organization_id) DO NOTHING
		RETURNING ` + settingsColumns + `
	)
	SELECT ` + settingsColumns + ` FROM created
	UNION ALL
	SELECT ` + settingsColumns + ` FROM organization_settings WHERE organization_id = $1
	LIMIT 1`
	return scanSettings(r.pool.QueryRow(ctx, q, organizationID))
}

// UpdateParams is a partial settings update; nil fields keep stored values.
type UpdateParams struct {
	SlotIntervalMinutes     *int
	SessionDurationsMinutes []int32
	AllowConsecutive        *bool
	ShowDayView             *bool
	DaysAheadBooking        *int
	NextDayOpensAt          *string
	SummerOpen              *string
	SummerClose             *string
	WinterOpen              *string
	WinterClose             *string
	NotificationEmail       *string
	GuestBookingEmail       *string
}

// Update applies a partial update and returns the stored row.
func (r *Repository) Update(ctx context.Context, organizationID uuid.UUID, p UpdateParams) (*models.OrganizationSettings, error) {
	if _, err := r.GetOrCreate(ctx, organizationID); err != nil {
		return nil, err
	}
	const q = `UPDATE organization_settings SET
		slot_interval_minutes     = COALESCE($1, slot_interval_minutes),
		session_durations_minutes = COALESCE($2, session_durations_minutes),
		allow_consecutive         = COALESCE($3, allow_consecutive),
		show_day_view             = COALESCE($4, show_day_view),
		days_ahead_booking        = COALESCE($5, days_ahead_booking),
		next_day_opens_at         = COALESCE($6, next_day_opens_at),
		summer_open               = COALESCE($7, summer_open),
		summer_close              = COALESCE($8, summer_close),
		winter_open               = COALESCE($9, winter_open),
		winter_close              = COALESCE($10, winter_close),
		notification_email        = COALESCE($11, notification_email),
		guest_booking_email       = COALESCE($12, guest_booking_email),
		updated_at                = NOW()
		WHERE organization_id = $13
		RETURNING ` + settingsColumns
	return scanSettings(r.pool.QueryRow(ctx, q,
		p.SlotIntervalMinutes, p.SessionDurationsMinutes, p.AllowConsecutive, p.ShowDayView,
		p.DaysAheadBooking, p.NextDayOpensAt, p.SummerOpen, p.SummerClose,
		p.WinterOpen, p.WinterClose, p.NotificationEmail, p.GuestBookingEmail,
		organizationID))
}

// NotificationEmail returns the organization's configured notification
// address, empty when unset.
func (r *Repository) NotificationEmail(ctx context.Context, organizationID uuid.UUID) (string, error) {
	s, err := r.GetOrCreate(ctx, organizationID)
	if err != nil {
		return "", err
	}
	return s.NotificationEmail, nil
}
