package auth

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/openclub/backend/internal/authz"
	"github.com/openclub/backend/internal/models"
	"github.com/openclub/backend/pkg/database"
	"github.com/openclub/backend/pkg/response"
	"github.com/openclub/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"display_name" binding:"required"`
	Locale      string `json:"locale"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is the body for PUT /accounts/me.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Locale      string `json:"locale"`
}

// ChangePasswordRequest is the body for PUT /accounts/me/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// RoleRequest is the body for POST /users/:id/roles.
type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// TokenResponse is the auth response with JWT and caller summary.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Store is the account persistence surface the handler needs. Implemented
// by Repository; tests substitute fakes.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, email, passwordHash, displayName, locale string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, displayName, locale string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	List(ctx context.Context) ([]models.UserPublic, error)
	ListRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error)
	GrantRole(ctx context.Context, userID uuid.UUID, roleName string) (bool, error)
	RevokeRole(ctx context.Context, userID uuid.UUID, roleName string) error
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   Store
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo Store, jwt *JWTService, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindingError(c, err, "invalid request")
		return
	}
	if req.Locale == "" {
		req.Locale = "en"
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.DisplayName, req.Locale)
	if err != nil {
		if database.IsUniqueViolation(err) {
			response.Conflict(c, "email already registered")
			return
		}
		h.logger.Error("create user", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic(nil)})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindingError(c, err, "invalid request")
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		// A store failure is not an authentication verdict.
		h.logger.Error("load account", zap.Error(err))
		response.Internal(c, "failed to load account")
		return
	}
	if err != nil || !user.IsActive || !utils.CheckPassword(req.Password, user.Password) {
		// Same answer for unknown email, deactivated account, and bad password.
		response.Unauthorized(c, "invalid email or password")
		return
	}

	roles, err := h.repo.ListRoleNames(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("load roles", zap.Error(err))
		response.Internal(c, "failed to load roles")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email)
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic(roles)})
}

// Me handles GET /accounts/me.
func (h *Handler) Me(c *gin.Context) {
	caller := authz.CallerFrom(c)
	response.OK(c, caller.User.ToPublic(caller.Roles))
}

// UpdateProfile handles PUT /accounts/me.
func (h *Handler) UpdateProfile(c *gin.Context) {
	caller := authz.CallerFrom(c)
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindingError(c, err, "invalid request")
		return
	}
	user, err := h.repo.UpdateProfile(c.Request.Context(), caller.User.ID, req.DisplayName, req.Locale)
	if err != nil {
		h.logger.Error("update profile", zap.Error(err))
		response.Internal(c, "failed to update profile")
		return
	}
	response.OK(c, user.ToPublic(caller.Roles))
}

// ChangePassword handles PUT /accounts/me/password.
func (h *Handler) ChangePassword(c *gin.Context) {
	caller := authz.CallerFrom(c)
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindingError(c, err, "invalid request")
		return
	}
	if !utils.CheckPassword(req.CurrentPassword, caller.User.Password) {
		response.Unauthorized(c, "current password is incorrect")
		return
	}
	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.repo.UpdatePassword(c.Request.Context(), caller.User.ID, hash); err != nil {
		h.logger.Error("update password", zap.Error(err))
		response.Internal(c, "failed to update password")
		return
	}
	response.OK(c, gin.H{"message": "password updated"})
}

// Logout handles POST /auth/logout. Tokens are stateless; the client drops it.
func (h *Handler) Logout(c *gin.Context) {
	response.OK(c, gin.H{"message": "logged out"})
}

// List handles GET /users (bypass role only).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list users", zap.Error(err))
		response.Internal(c, "failed to list users")
		return
	}
	response.OK(c, list)
}

// GetUser handles GET /users/:id. Callers may view their own record; viewing
// anyone else requires the bypass role.
func (h *Handler) GetUser(bypassRole string) gin.HandlerFunc {
	return func(c *gin.Context) { h.getUser(c, bypassRole) }
}

func (h *Handler) getUser(c *gin.Context, bypassRole string) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	caller := authz.CallerFrom(c)
	if caller.User.ID != id && !caller.HasRole(bypassRole) {
		response.Forbidden(c, "access denied")
		return
	}
	user, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.NotFound(c, "user not found")
			return
		}
		response.Internal(c, "failed to load user")
		return
	}
	roles, err := h.repo.ListRoleNames(c.Request.Context(), user.ID)
	if err != nil {
		response.Internal(c, "failed to load roles")
		return
	}
	response.OK(c, user.ToPublic(roles))
}

// GrantRole handles POST /users/:id/roles (bypass role only).
func (h *Handler) GrantRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "role required")
		return
	}
	ok, err := h.repo.GrantRole(c.Request.Context(), id, req.Role)
	if err != nil {
		h.logger.Error("grant role", zap.Error(err))
		response.Internal(c, "failed to grant role")
		return
	}
	if !ok {
		response.BadRequest(c, "unknown role")
		return
	}
	response.OK(c, gin.H{"user_id": id, "role": req.Role})
}

// RevokeRole handles DELETE /users/:id/roles/:role (bypass role only).
func (h *Handler) RevokeRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	role := c.Param("role")
	if role == "" {
		response.BadRequest(c, "role required")
		return
	}
	if err := h.repo.RevokeRole(c.Request.Context(), id, role); err != nil {
		h.logger.Error("revoke role", zap.Error(err))
		response.Internal(c, "failed to revoke role")
		return
	}
	response.NoContent(c)
}
