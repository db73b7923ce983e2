package bookings

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclub/backend/internal/authz"
	"github.com/openclub/backend/internal/models"
	"github.com/openclub/backend/internal/organizations"
	"github.com/openclub/backend/pkg/queue"
	"github.com/openclub/backend/pkg/response"
)

// Broadcaster pushes booking events to live organization feeds.
type Broadcaster interface {
	BroadcastBooking(organizationID uuid.UUID, event string, booking *models.Booking)
}

// Handler handles booking HTTP endpoints.
type Handler struct {
	service   *Service
	repo      *Repository
	jobs      *queue.Queue
	broadcast Broadcaster
	logger    *zap.Logger
}

// NewHandler creates a bookings handler. jobs and broadcast may be nil;
// notifications and the live feed are then skipped.
func NewHandler(service *Service, repo *Repository, jobs *queue.Queue, broadcast Broadcaster, logger *zap.Logger) *Handler {
	return &Handler{service: service, repo: repo, jobs: jobs, broadcast: broadcast, logger: logger}
}

// CreateRequest is the body for POST /bookings.
type CreateRequest struct {
	ResourceID uuid.UUID `json:"resource_id" binding:"required"`
	StartTime  time.Time `json:"start_time" binding:"required"`
	EndTime    time.Time `json:"end_time" binding:"required"`
	Notes      string    `json:"notes"`
}

// StatusRequest is the body for PUT /bookings/:bookingID/status.
type StatusRequest struct {
	Status models.BookingStatus `json:"status" binding:"required"`
}

func (h *Handler) fail(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, ErrOverlap):
		response.Conflict(c, "requested window overlaps an existing booking")
	case errors.Is(err, ErrInvalidTransition):
		response.InvalidTransition(c, err.Error())
	default:
		h.logger.Error(op, zap.Error(err))
		response.Internal(c, "booking operation failed")
	}
}

func (h *Handler) notify(c *gin.Context, b *models.Booking, event string) {
	if h.jobs != nil {
		err := h.jobs.EnqueueBookingNotification(c.Request.Context(), queue.BookingNotificationPayload{
			BookingID:      b.ID,
			OrganizationID: b.OrganizationID,
			Event:          event,
		})
		if err != nil {
			h.logger.Warn("enqueue booking notification", zap.Error(err), zap.String("booking_id", b.ID.String()))
		}
	}
	if h.broadcast != nil {
		h.broadcast.BroadcastBooking(b.OrganizationID, event, b)
	}
}

// Create handles POST /bookings.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindingError(c, err, "invalid request")
		return
	}

	caller := authz.CallerFrom(c)
	b, err := h.service.Create(c.Request.Context(), caller, req.ResourceID, req.StartTime, req.EndTime, req.Notes)
	if err != nil {
		h.fail(c, err, "create booking")
		return
	}
	h.notify(c, b, "created")
	response.Created(c, b)
}

// Get handles GET /bookings/:bookingID.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("bookingID"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	b, err := h.service.View(c.Request.Context(), authz.CallerFrom(c), id)
	if err != nil {
		h.fail(c, err, "get booking")
		return
	}
	response.OK(c, b)
}

// ListMine handles GET /accounts/me/bookings.
func (h *Handler) ListMine(c *gin.Context) {
	caller := authz.CallerFrom(c)
	list, err := h.repo.ListMine(c.Request.Context(), caller.User.ID)
	if err != nil {
		h.logger.Error("list own bookings", zap.Error(err))
		response.Internal(c, "failed to list bookings")
		return
	}
	response.OK(c, list)
}

// ListByOrganization handles GET /organizations/:id/bookings (org access
// required). Optional query params: resource_id, status, from, to (RFC 3339).
func (h *Handler) ListByOrganization(c *gin.Context) {
	orgID := c.MustGet(organizations.ContextOrganizationID).(uuid.UUID)

	var f ListFilter
	if v := c.Query("resource_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			response.BadRequest(c, "invalid resource_id filter")
			return
		}
		f.ResourceID = id
	}
	if v := c.Query("status"); v != "" {
		s := models.BookingStatus(v)
		if !models.ValidBookingStatus(s) {
			response.BadRequest(c, "invalid status filter")
			return
		}
		f.Status = s
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, "invalid from filter")
			return
		}
		f.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			response.BadRequest(c, "invalid to filter")
			return
		}
		f.To = t
	}

	list, err := h.repo.ListByOrganization(c.Request.Context(), orgID, f)
	if err != nil {
		h.logger.Error("list organization bookings", zap.Error(err))
		response.Internal(c, "failed to list bookings")
		return
	}
	response.OK(c, list)
}

// UpdateStatus handles PUT /bookings/:bookingID/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("bookingID"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindingError(c, err, "invalid request")
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), authz.CallerFrom(c), id, req.Status)
	if err != nil {
		h.fail(c, err, "update booking status")
		return
	}
	h.notify(c, b, "status_changed")
	response.OK(c, b)
}

// Cancel handles PUT /bookings/:bookingID/cancel (owner only).
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("bookingID"))
	if err != nil {
		response.BadRequest(c, "invalid booking id")
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), authz.CallerFrom(c), id)
	if err != nil {
		h.fail(c, err, "cancel booking")
		return
	}
	h.notify(c, b, "cancelled")
	response.OK(c, b)
}
