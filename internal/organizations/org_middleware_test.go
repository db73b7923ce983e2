package organizations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/openclub/backend/internal/authz"
	"github.com/openclub/backend/internal/models"
)

type stubMemberships struct {
	kind map[uuid.UUID]string // user -> membership kind
}

func (s *stubMemberships) GetActiveMembership(_ context.Context, userID, orgID uuid.UUID) (*models.Membership, error) {
	kind, ok := s.kind[userID]
	if !ok {
		return nil, nil
	}
	return &models.Membership{UserID: userID, OrganizationID: orgID, Kind: kind, IsActive: true}, nil
}

type noUsers struct{}

func (noUsers) GetByID(context.Context, uuid.UUID) (*models.User, error) { return nil, nil }

type noRoles struct{}

func (noRoles) ListRoleNames(context.Context, uuid.UUID) ([]string, error) { return nil, nil }

func gateRouter(t *testing.T, resolver *authz.Resolver, caller *authz.Caller) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(authz.ContextCaller, caller)
	})
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/orgs/:id/manager", RequireManager(resolver), ok)
	router.GET("/orgs/:id/access", RequireAccess(resolver), ok)
	return router
}

func TestOrganizationGates(t *testing.T) {
	orgID := uuid.New()
	manager := &authz.Caller{User: &models.User{ID: uuid.New()}}
	member := &authz.Caller{User: &models.User{ID: uuid.New()}}
	visitor := &authz.Caller{User: &models.User{ID: uuid.New()}}
	outsider := &authz.Caller{User: &models.User{ID: uuid.New()}}
	admin := &authz.Caller{User: &models.User{ID: uuid.New()}, Roles: []string{"super_admin"}}

	memberships := &stubMemberships{kind: map[uuid.UUID]string{
		manager.User.ID: models.MembershipManager,
		member.User.ID:  models.MembershipMember,
		visitor.User.ID: models.MembershipVisitor,
	}}
	resolver := authz.NewResolver(noUsers{}, noRoles{}, memberships, "super_admin")

	cases := []struct {
		name   string
		caller *authz.Caller
		path   string
		status int
	}{
		{"manager passes manager gate", manager, "/manager", http.StatusOK},
		{"member fails manager gate", member, "/manager", http.StatusForbidden},
		{"member passes access gate", member, "/access", http.StatusOK},
		{"visitor passes access gate", visitor, "/access", http.StatusOK},
		{"visitor fails manager gate", visitor, "/manager", http.StatusForbidden},
		{"outsider fails access gate", outsider, "/access", http.StatusForbidden},
		{"bypass passes manager gate", admin, "/manager", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gateRouter(t, resolver, tc.caller)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/orgs/"+orgID.String()+tc.path, nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
