package resources

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/openclub/backend/internal/models"
	"github.com/openclub/backend/internal/organizations"
	"github.com/openclub/backend/pkg/response"
)

// Handler handles resource HTTP endpoints.
type Handler struct {
	repo   *Repository
	orgs   *organizations.Repository
	logger *zap.Logger
}

func NewHandler(repo *Repository, orgs *organizations.Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, orgs: orgs, logger: logger}
}

// CreateRequest is the body for POST /organizations/:id/resources.
type CreateRequest struct {
	Name            string `json:"name" binding:"required"`
	Category        string `json:"category" binding:"required"`
	HourlyRateCents int64  `json:"hourly_rate_cents"`
}

// UpdateRequest is the body for PUT /organizations/:id/resources/:resourceID.
// Absent fields keep their stored values.
type UpdateRequest struct {
	Name            *string `json:"name"`
	Category        *string `json:"category"`
	HourlyRateCents *int64  `json:"hourly_rate_cents"`
}

// List handles GET /organizations/:id/resources (public, active only).
func (h *Handler) List(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid organization id")
		return
	}
	if _, err := h.orgs.GetByID(c.Request.Context(), orgID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "organization not found")
			return
		}
		h.logger.Error("load organization", zap.Error(err))
		response.Internal(c, "failed to load organization")
		return
	}
	list, err := h.repo.ListByOrganization(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("list resources", zap.Error(err))
		response.Internal(c, "failed to list resources")
		return
	}
	response.OK(c, list)
}

// Get handles GET /organizations/:id/resources/:resourceID (public).
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("resourceID"))
	if err != nil {
		response.BadRequest(c, "invalid resource id")
		return
	}
	res, err := h.repo.GetActive(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "resource not found")
			return
		}
		h.logger.Error("get resource", zap.Error(err))
		response.Internal(c, "failed to load resource")
		return
	}
	response.OK(c, res)
}

// Create handles POST /organizations/:id/resources (manager only).
func (h *Handler) Create(c *gin.Context) {
	orgID := c.MustGet(organizations.ContextOrganizationID).(uuid.UUID)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindingError(c, err, "invalid request")
		return
	}
	if !models.ResourceCategories[req.Category] {
		response.BadRequest(c, "unknown resource category")
		return
	}
	if req.HourlyRateCents < 0 {
		response.BadRequest(c, "hourly rate must not be negative")
		return
	}

	res := &models.Resource{
		OrganizationID:  orgID,
		Name:            req.Name,
		Category:        req.Category,
		HourlyRateCents: req.HourlyRateCents,
	}
	if err := h.repo.Create(c.Request.Context(), res); err != nil {
		h.logger.Error("create resource", zap.Error(err))
		response.Internal(c, "failed to create resource")
		return
	}
	response.Created(c, res)
}

// Update handles PUT /organizations/:id/resources/:resourceID (manager only).
func (h *Handler) Update(c *gin.Context) {
	orgID := c.MustGet(organizations.ContextOrganizationID).(uuid.UUID)
	id, err := uuid.Parse(c.Param("resourceID"))
	if err != nil {
		response.BadRequest(c, "invalid resource id")
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindingError(c, err, "invalid request")
		return
	}
	if req.Category != nil && !models.ResourceCategories[*req.Category] {
		response.BadRequest(c, "unknown resource category")
		return
	}
	if req.HourlyRateCents != nil && *req.HourlyRateCents < 0 {
		response.BadRequest(c, "hourly rate must not be negative")
		return
	}

	existing, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "resource not found")
			return
		}
		h.logger.Error("load resource", zap.Error(err))
		response.Internal(c, "failed to load resource")
		return
	}
	if existing.OrganizationID != orgID {
		response.NotFound(c, "resource not found")
		return
	}

	res, err := h.repo.Update(c.Request.Context(), id, req.Name, req.Category, req.HourlyRateCents)
	if err != nil {
		h.logger.Error("update resource", zap.Error(err))
		response.Internal(c, "failed to update resource")
		return
	}
	response.OK(c, res)
}

// Deactivate handles DELETE /organizations/:id/resources/:resourceID (manager
// only). Existing bookings on the resource are untouched.
func (h *Handler) Deactivate(c *gin.Context) {
	orgID := c.MustGet(organizations.ContextOrganizationID).(uuid.UUID)
	id, err := uuid.Parse(c.Param("resourceID"))
	if err != nil {
		response.BadRequest(c, "invalid resource id")
		return
	}

	existing, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "resource not found")
			return
		}
		h.logger.Error("load resource", zap.Error(err))
		response.Internal(c, "failed to load resource")
		return
	}
	if existing.OrganizationID != orgID || !existing.IsActive {
		response.NotFound(c, "resource not found")
		return
	}

	if _, err := h.repo.Deactivate(c.Request.Context(), id); err != nil {
		h.logger.Error("deactivate resource", zap.Error(err))
		response.Internal(c, "failed to deactivate resource")
		return
	}
	response.NoContent(c)
}
