package settings

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclub/backend/internal/organizations"
	"github.com/openclub/backend/pkg/response"
)

var timeOfDayRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Handler handles organization settings endpoints. Both routes sit behind
// the organization manager gate.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// UpdateRequest is the body for PUT /organizations/:id/settings. Absent
// fields keep their stored values.
type UpdateRequest struct {
	SlotIntervalMinutes     *int     `json:"slot_interval_minutes"`
	SessionDurationsMinutes []int32  `json:"session_durations_minutes"`
	AllowConsecutive        *bool    `json:"allow_consecutive"`
	ShowDayView             *bool    `json:"show_day_view"`
	DaysAheadBooking        *int     `json:"days_ahead_booking"`
	NextDayOpensAt          *string  `json:"next_day_opens_at"`
	SummerOpen              *string  `json:"summer_open"`
	SummerClose             *string  `json:"summer_close"`
	WinterOpen              *string  `json:"winter_open"`
	WinterClose             *string  `json:"winter_close"`
	NotificationEmail       *string  `json:"notification_email"`
	GuestBookingEmail       *string  `json:"guest_booking_email"`
}

func (r *UpdateRequest) validate() string {
	if r.SlotIntervalMinutes != nil && *r.SlotIntervalMinutes <= 0 {
		return "slot interval must be positive"
	}
	if r.DaysAheadBooking != nil && *r.DaysAheadBooking < 0 {
		return "days ahead must not be negative"
	}
	for _, d := range r.SessionDurationsMinutes {
		if d <= 0 {
			return "session durations must be positive"
		}
	}
	for _, v := range []*string{r.NextDayOpensAt, r.SummerOpen, r.SummerClose, r.WinterOpen, r.WinterClose} {
		if v != nil && !timeOfDayRegex.MatchString(*v) {
			return "times must use HH:MM"
		}
	}
	return ""
}

// Get handles GET /organizations/:id/settings (manager only). Creates the
// defaults row on first read.
func (h *Handler) Get(c *gin.Context) {
	orgID := c.MustGet(organizations.ContextOrganizationID).(uuid.UUID)

	s, err := h.repo.GetOrCreate(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("get settings", zap.Error(err))
		response.Internal(c, "failed to load settings")
		return
	}
	response.OK(c, s)
}

// Update handles PUT /organizations/:id/settings (manager only).
func (h *Handler) Update(c *gin.Context) {
	orgID := c.MustGet(organizations.ContextOrganizationID).(uuid.UUID)

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindingError(c, err, "invalid request")
		return
	}
	if msg := req.validate(); msg != "" {
		response.BadRequest(c, msg)
		return
	}

	s, err := h.repo.Update(c.Request.Context(), orgID, UpdateParams{
		SlotIntervalMinutes:     req.SlotIntervalMinutes,
		SessionDurationsMinutes: req.SessionDurationsMinutes,
		AllowConsecutive:        req.AllowConsecutive,
		ShowDayView:             req.ShowDayView,
		DaysAheadBooking:        req.DaysAheadBooking,
		NextDayOpensAt:          req.NextDayOpensAt,
		SummerOpen:              req.SummerOpen,
		SummerClose:             req.SummerClose,
		WinterOpen:              req.WinterOpen,
		WinterClose:             req.WinterClose,
		NotificationEmail:       req.NotificationEmail,
		GuestBookingEmail:       req.GuestBookingEmail,
	})
	if err != nil {
		h.logger.Error("update settings", zap.Error(err))
		response.Internal(c, "failed to update settings")
		return
	}
	response.OK(c, s)
}
