package organizations

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/openclub/backend/internal/authz"
	"github.com/openclub/backend/internal/models"
	"github.com/openclub/backend/pkg/database"
	"github.com/openclub/backend/pkg/response"
	"github.com/openclub/backend/pkg/storage"
)

// Slug must be lowercase alphanumeric and hyphens only, 2-64 chars.
var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,63}$`)

// ValidSlug reports whether s is an acceptable organization slug.
func ValidSlug(s string) bool { return slugRegex.MatchString(s) }

// Store is the persistence surface the handler needs. Implemented by
// Repository; tests substitute fakes.
type Store interface {
	CreateWithManager(ctx context.Context, org *models.Organization, managerID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*models.Organization, error)
	List(ctx context.Context) ([]*models.Organization, error)
	Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Organization, error)
	SetLogoURL(ctx context.Context, id uuid.UUID, logoURL string) error
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
	AddMembership(ctx context.Context, userID, organizationID uuid.UUID, kind string) (*models.Membership, error)
	RemoveMembership(ctx context.Context, userID, organizationID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, organizationID uuid.UUID) ([]Member, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error)
	GetStats(ctx context.Context, organizationID uuid.UUID) (*Stats, error)
	UserExists(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Handler handles organization HTTP endpoints.
type Handler struct {
	repo   Store
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an organizations handler. s3 may be nil; logo upload is
// then unavailable.
func NewHandler(repo Store, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// CreateRequest is the body for POST /organizations.
type CreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Website     string `json:"website"`
}

// UpdateRequest is the body for PUT /organizations/:id. Absent fields keep
// their stored values.
type UpdateRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Address     *string         `json:"address"`
	Phone       *string         `json:"phone"`
	Email       *string         `json:"email"`
	Website     *string         `json:"website"`
	Settings    json.RawMessage `json:"settings"`
}

// AddMemberRequest is the body for POST /organizations/:id/members.
type AddMemberRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Kind   string    `json:"kind" binding:"required"`
}

// List handles GET /organizations (public, active only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list organizations", zap.Error(err))
		response.Internal(c, "failed to list organizations")
		return
	}
	response.OK(c, list)
}

// Get handles GET /organizations/:id (public). Accepts a UUID or a slug.
func (h *Handler) Get(c *gin.Context) {
	idOrSlug := c.Param("id")
	var (
		org *models.Organization
		err error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		org, err = h.repo.GetByID(c.Request.Context(), id)
	} else {
		org, err = h.repo.GetBySlug(c.Request.Context(), idOrSlug)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "organization not found")
			return
		}
		response.Internal(c, "failed to load organization")
		return
	}
	response.OK(c, org)
}

// ListMine handles GET /accounts/me/organizations.
func (h *Handler) ListMine(c *gin.Context) {
	caller := authz.CallerFrom(c)
	list, err := h.repo.ListForUser(c.Request.Context(), caller.User.ID)
	if err != nil {
		h.logger.Error("list my organizations", zap.Error(err))
		response.Internal(c, "failed to load organizations")
		return
	}
	response.OK(c, list)
}

// Create handles POST /organizations. The creating account becomes the
// organization's first manager.
func (h *Handler) Create(c *gin.Context) {
	caller := authz.CallerFrom(c)
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "name and slug required")
		return
	}
	req.Slug = strings.TrimSpace(req.Slug)
	if !ValidSlug(req.Slug) {
		response.BadRequest(c, "slug must be 2-64 chars, lowercase letters, numbers, hyphens only")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if len(req.Name) < 1 || len(req.Name) > 255 {
		response.BadRequest(c, "name must be 1-255 characters")
		return
	}

	org := &models.Organization{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
	}
	if err := h.repo.CreateWithManager(c.Request.Context(), org, caller.User.ID); err != nil {
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "an organization with this slug already exists")
			return
		}
		h.logger.Error("create organization", zap.Error(err))
		response.Internal(c, "failed to create organization")
		return
	}
	response.Created(c, org)
}

// Update handles PUT /organizations/:id (manager gated at route).
func (h *Handler) Update(c *gin.Context) {
	orgID := c.MustGet(ContextOrganizationID).(uuid.UUID)
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindingError(c, err, "invalid request")
		return
	}
	org, err := h.repo.Update(c.Request.Context(), orgID, UpdateParams{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		Settings:    req.Settings,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "organization not found")
			return
		}
		h.logger.Error("update organization", zap.Error(err))
		response.Internal(c, "failed to update organization")
		return
	}
	response.OK(c, org)
}

// Deactivate handles DELETE /organizations/:id (manager gated at route).
func (h *Handler) Deactivate(c *gin.Context) {
	orgID := c.MustGet(ContextOrganizationID).(uuid.UUID)
	ok, err := h.repo.Deactivate(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("deactivate organization", zap.Error(err))
		response.Internal(c, "failed to deactivate organization")
		return
	}
	if !ok {
		response.NotFound(c, "organization not found")
		return
	}
	response.NoContent(c)
}

// ListMembers handles GET /organizations/:id/members (org access gated at route).
func (h *Handler) ListMembers(c *gin.Context) {
	orgID := c.MustGet(ContextOrganizationID).(uuid.UUID)
	members, err := h.repo.ListMembers(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("list members", zap.Error(err))
		response.Internal(c, "failed to load members")
		return
	}
	response.OK(c, members)
}

// AddMember handles POST /organizations/:id/members (manager gated at route).
func (h *Handler) AddMember(c *gin.Context) {
	orgID := c.MustGet(ContextOrganizationID).(uuid.UUID)
	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "user_id and kind required")
		return
	}
	if !models.ValidMembershipKind(req.Kind) {
		response.BadRequest(c, "kind must be manager, member, or visitor")
		return
	}
	exists, err := h.repo.UserExists(c.Request.Context(), req.UserID)
	if err != nil {
		response.Internal(c, "failed to check user")
		return
	}
	if !exists {
		response.NotFound(c, "user not found")
		return
	}
	m, err := h.repo.AddMembership(c.Request.Context(), req.UserID, orgID, req.Kind)
	if err != nil {
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "user already has an active membership in this organization")
			return
		}
		h.logger.Error("add member", zap.Error(err))
		response.Internal(c, "failed to add member")
		return
	}
	response.Created(c, m)
}

// RemoveMember handles DELETE /organizations/:id/members/:userID (manager
// gated at route). The membership row is deactivated, not deleted.
func (h *Handler) RemoveMember(c *gin.Context) {
	orgID := c.MustGet(ContextOrganizationID).(uuid.UUID)
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	ok, err := h.repo.RemoveMembership(c.Request.Context(), userID, orgID)
	if err != nil {
		h.logger.Error("remove member", zap.Error(err))
		response.Internal(c, "failed to remove member")
		return
	}
	if !ok {
		response.NotFound(c, "user is not an active member of this organization")
		return
	}
	response.NoContent(c)
}

// GetStats handles GET /organizations/:id/stats (manager gated at route).
func (h *Handler) GetStats(c *gin.Context) {
	orgID := c.MustGet(ContextOrganizationID).(uuid.UUID)
	stats, err := h.repo.GetStats(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("organization stats", zap.Error(err))
		response.Internal(c, "failed to load stats")
		return
	}
	response.OK(c, stats)
}

// UploadLogo handles POST /organizations/:id/logo (manager gated at route).
// Multipart form with a "file" field; stored in S3 and the public URL saved.
func (h *Handler) UploadLogo(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "logo storage is not configured")
		return
	}
	orgID := c.MustGet(ContextOrganizationID).(uuid.UUID)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file required")
		return
	}
	if fileHeader.Size > storage.MaxLogoFileSize {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateLogoFileType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(fileHeader.Filename)
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Internal(c, "failed to read file")
		return
	}
	defer file.Close()

	key := storage.LogoKey(orgID.String(), fileHeader.Filename)
	url, err := h.s3.Upload(c.Request.Context(), h.s3.AssetsBucket(), key, contentType, file, fileHeader.Size, true)
	if err != nil {
		h.logger.Error("upload logo", zap.Error(err), zap.String("org_id", orgID.String()))
		response.Internal(c, "failed to upload logo")
		return
	}
	if err := h.repo.SetLogoURL(c.Request.Context(), orgID, url); err != nil {
		h.logger.Error("save logo url", zap.Error(err))
		response.Internal(c, "failed to save logo")
		return
	}
	response.OK(c, gin.H{"logo_url": url})
}
