package organizations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openclub/backend/internal/authz"
	"github.com/openclub/backend/internal/models"
)

func TestValidSlug(t *testing.T) {
	valid := []string{"demo", "demo-club", "a1", "club-42", "x0-y1-z2"}
	for _, s := range valid {
		assert.True(t, ValidSlug(s), "expected %q to be valid", s)
	}

	invalid := []string{
		"",
		"a",            // too short
		"-demo",        // leading hyphen
		"Demo",         // uppercase
		"demo club",    // space
		"demo_club",    // underscore
		"démo",         // non-ascii
		strings.Repeat("a", 70), // too long
	}
	for _, s := range invalid {
		assert.False(t, ValidSlug(s), "expected %q to be invalid", s)
	}
}

type fakeOrgStore struct {
	Store
	created   *models.Organization
	managerID uuid.UUID
	createErr error
}

func (f *fakeOrgStore) CreateWithManager(_ context.Context, org *models.Organization, managerID uuid.UUID) error {
	if f.createErr != nil {
		return f.createErr
	}
	org.ID = uuid.New()
	f.created = org
	f.managerID = managerID
	return nil
}

func postCreateOrg(t *testing.T, store Store, caller *authz.Caller, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(store, nil, zap.NewNop())
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set(authz.ContextCaller, caller) })
	router.POST("/organizations", h.Create)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/organizations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

// Organization and first-manager membership are written through a single
// transactional repository call carrying the creator's ID.
func TestCreateOrganization(t *testing.T) {
	caller := &authz.Caller{User: &models.User{ID: uuid.New()}}

	t.Run("creator becomes manager atomically", func(t *testing.T) {
		store := &fakeOrgStore{}
		w := postCreateOrg(t, store, caller, `{"name":"Demo Club","slug":"demo-club"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, store.created)
		assert.Equal(t, "demo-club", store.created.Slug)
		assert.Equal(t, caller.User.ID, store.managerID)
	})

	t.Run("slug conflict maps to 409", func(t *testing.T) {
		store := &fakeOrgStore{createErr: &pgconn.PgError{Code: "23505"}}
		w := postCreateOrg(t, store, caller, `{"name":"Demo Club","slug":"demo-club"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}
