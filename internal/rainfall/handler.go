package rainfall

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openclub/backend/internal/authz"
	"github.com/openclub/backend/internal/models"
	"github.com/openclub/backend/internal/organizations"
	"github.com/openclub/backend/pkg/response"
)

const maxNotesLen = 1000

// Store is the persistence surface the handler needs. Implemented by
// Repository; tests substitute fakes.
type Store interface {
	Upsert(ctx context.Context, organizationID uuid.UUID, recordedOn time.Time, amountMM float64, notes string, recordedBy uuid.UUID) (*models.RainfallRecord, error)
	List(ctx context.Context, organizationID uuid.UUID) ([]*models.RainfallRecord, error)
	Delete(ctx context.Context, organizationID, id uuid.UUID) (bool, error)
	Summary(ctx context.Context, organizationID uuid.UUID) ([]MonthlyTotal, error)
}

// Handler handles rainfall HTTP endpoints.
type Handler struct {
	repo   Store
	logger *zap.Logger
}

// NewHandler creates a rainfall handler.
func NewHandler(repo Store, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// RecordRequest is the body for POST /organizations/:id/rainfall.
type RecordRequest struct {
	Date     string  `json:"date" binding:"required"` // YYYY-MM-DD
	AmountMM float64 `json:"amount_mm"`
	Notes    string  `json:"notes"`
}

func (r *RecordRequest) validate() (time.Time, string) {
	day, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return time.Time{}, "date must be YYYY-MM-DD"
	}
	if r.AmountMM < 0 {
		return time.Time{}, "amount_mm must not be negative"
	}
	if len(r.Notes) > maxNotesLen {
		return time.Time{}, "notes too long"
	}
	return day, ""
}

// List handles GET /organizations/:id/rainfall (org access required).
func (h *Handler) List(c *gin.Context) {
	orgID := c.MustGet(organizations.ContextOrganizationID).(uuid.UUID)
	records, err := h.repo.List(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("list rainfall", zap.Error(err))
		response.Internal(c, "failed to load rainfall records")
		return
	}
	response.OK(c, records)
}

// Record handles POST /organizations/:id/rainfall (manager gated at route).
// Recording a day that already has a measurement overwrites it.
func (h *Handler) Record(c *gin.Context) {
	orgID := c.MustGet(organizations.ContextOrganizationID).(uuid.UUID)
	caller := authz.CallerFrom(c)

	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "date required")
		return
	}
	day, msg := req.validate()
	if msg != "" {
		response.BadRequest(c, msg)
		return
	}

	rec, err := h.repo.Upsert(c.Request.Context(), orgID, day, req.AmountMM, req.Notes, caller.User.ID)
	if err != nil {
		h.logger.Error("record rainfall", zap.Error(err))
		response.Internal(c, "failed to record rainfall")
		return
	}
	response.Created(c, rec)
}

// Delete handles DELETE /organizations/:id/rainfall/:recordID (manager gated
// at route).
func (h *Handler) Delete(c *gin.Context) {
	orgID := c.MustGet(organizations.ContextOrganizationID).(uuid.UUID)
	id, err := uuid.Parse(c.Param("recordID"))
	if err != nil {
		response.BadRequest(c, "invalid record id")
		return
	}
	removed, err := h.repo.Delete(c.Request.Context(), orgID, id)
	if err != nil {
		h.logger.Error("delete rainfall", zap.Error(err))
		response.Internal(c, "failed to delete rainfall record")
		return
	}
	if !removed {
		response.NotFound(c, "rainfall record not found")
		return
	}
	response.NoContent(c)
}

// Summary handles GET /organizations/:id/rainfall/summary (org access
// required). Totals per month, newest year first.
func (h *Handler) Summary(c *gin.Context) {
	orgID := c.MustGet(organizations.ContextOrganizationID).(uuid.UUID)
	totals, err := h.repo.Summary(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("summarize rainfall", zap.Error(err))
		response.Internal(c, "failed to summarize rainfall")
		return
	}
	response.OK(c, totals)
}
