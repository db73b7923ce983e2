package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclub/backend/internal/auth"
	"github.com/openclub/backend/internal/authz"
	"github.com/openclub/backend/internal/models"
)

type stubUsers struct {
	user *models.User
}

func (s *stubUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, pgx.ErrNoRows
	}
	return s.user, nil
}

type stubRoles struct {
	roles []string
}

func (s *stubRoles) ListRoleNames(context.Context, uuid.UUID) ([]string, error) {
	return s.roles, nil
}

type stubMemberships struct{}

func (stubMemberships) GetActiveMembership(context.Context, uuid.UUID, uuid.UUID) (*models.Membership, error) {
	return nil, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *auth.JWTService, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userID := uuid.New()
	users := &stubUsers{user: &models.User{ID: userID, Email: "a@b.c", IsActive: true}}
	resolver := authz.NewResolver(users, &stubRoles{roles: []string{"owner"}}, stubMemberships{}, "super_admin")
	jwtService := auth.NewJWTService("test-secret", 1)

	router := gin.New()
	router.GET("/me", JWT(jwtService, resolver), func(c *gin.Context) {
		caller := authz.CallerFrom(c)
		c.String(http.StatusOK, caller.User.ID.String())
	})
	return router, jwtService, userID
}

func TestJWTMiddlewareResolvesCaller(t *testing.T) {
	router, jwtService, userID := newTestRouter(t)

	token, err := jwtService.Generate(userID, "a@b.c")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
}

func TestJWTMiddlewareRejects(t *testing.T) {
	router, jwtService, _ := newTestRouter(t)

	vanished, err := jwtService.Generate(uuid.New(), "gone@b.c")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-token"},
		{"unknown subject", "Bearer " + vanished},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
