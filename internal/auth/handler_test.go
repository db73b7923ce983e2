package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openclub/backend/internal/models"
	"github.com/openclub/backend/pkg/response"
	"github.com/openclub/backend/pkg/utils"
)

type fakeStore struct {
	Store
	byEmail    map[string]*models.User
	byEmailErr error
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.byEmailErr != nil {
		return nil, f.byEmailErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeStore) ListRoleNames(context.Context, uuid.UUID) ([]string, error) {
	return []string{"owner"}, nil
}

func postLogin(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/auth/login", h.Login)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestLogin(t *testing.T) {
	hash, err := utils.HashPassword("right-password")
	require.NoError(t, err)

	active := &models.User{ID: uuid.New(), Email: "a@b.c", Password: hash, IsActive: true}
	inactive := &models.User{ID: uuid.New(), Email: "off@b.c", Password: hash, IsActive: false}
	store := &fakeStore{byEmail: map[string]*models.User{
		active.Email:   active,
		inactive.Email: inactive,
	}}
	h := NewHandler(store, NewJWTService("test-secret", 1), zap.NewNop())

	t.Run("success", func(t *testing.T) {
		w := postLogin(t, h, `{"email":"a@b.c","password":"right-password"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		w := postLogin(t, h, `{"email":"nobody@b.c","password":"right-password"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := postLogin(t, h, `{"email":"a@b.c","password":"wrong"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deactivated account", func(t *testing.T) {
		w := postLogin(t, h, `{"email":"off@b.c","password":"right-password"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// A store outage is an internal failure, never an authentication verdict.
func TestLoginStoreFailureIsNot401(t *testing.T) {
	store := &fakeStore{byEmailErr: errors.New("connection refused")}
	h := NewHandler(store, NewJWTService("test-secret", 1), zap.NewNop())

	w := postLogin(t, h, `{"email":"a@b.c","password":"whatever"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, response.CodeInternal, body.Code)
}
