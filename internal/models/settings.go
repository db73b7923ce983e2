package models

import (
	"time"

	"github.com/google/uuid"
)

// OrganizationSettings holds per-organization booking policy. A row is
// created lazily with defaults the first time settings are read.
type OrganizationSettings struct {
	OrganizationID          uuid.UUID `json:"organization_id"`
	SlotIntervalMinutes     int       `json:"slot_interval_minutes"`
	SessionDurationsMinutes []int32   `json:"session_durations_minutes"`
	AllowConsecutive        bool      `json:"allow_consecutive"`
	ShowDayView             bool      `json:"show_day_view"`
	DaysAheadBooking        int       `json:"days_ahead_booking"`
	NextDayOpensAt          string    `json:"next_day_opens_at"` // HH:MM
	SummerOpen              string    `json:"summer_open"`
	SummerClose             string    `json:"summer_close"`
	WinterOpen              string    `json:"winter_open"`
	WinterClose             string    `json:"winter_close"`
	NotificationEmail       string    `json:"notification_email,omitempty"`
	GuestBookingEmail       string    `json:"guest_booking_email,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}
