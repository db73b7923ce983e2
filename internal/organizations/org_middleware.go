package organizations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openclub/backend/internal/authz"
	"github.com/openclub/backend/internal/models"
	"github.com/openclub/backend/pkg/response"
)

// ContextOrganizationID is the context key for the organization ID once org
// access has been enforced.
const ContextOrganizationID = "organization_id"

// RequireManager validates that the caller manages the organization in the
// :id route param (or holds the bypass role). Call after JWT.
func RequireManager(resolver *authz.Resolver) gin.HandlerFunc {
	return requireCapability(resolver, models.MembershipManager)
}

func requireCapability(resolver *authz.Resolver, kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid organization id")
			c.Abort()
			return
		}
		caller := authz.CallerFrom(c)
		ok, err := resolver.HasOrganizationCapability(c.Request.Context(), caller, orgID, kind)
		if err != nil {
			response.Internal(c, "failed to check organization access")
			c.Abort()
			return
		}
		if !ok {
			response.Forbidden(c, "organization manager access required")
			c.Abort()
			return
		}
		c.Set(ContextOrganizationID, orgID)
		c.Next()
	}
}

// RequireAccess validates that the caller has any active membership in the
// organization in the :id route param (or holds the bypass role).
func RequireAccess(resolver *authz.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid organization id")
			c.Abort()
			return
		}
		caller := authz.CallerFrom(c)
		ok, err := resolver.HasOrganizationAccess(c.Request.Context(), caller, orgID)
		if err != nil {
			response.Internal(c, "failed to check organization access")
			c.Abort()
			return
		}
		if !ok {
			response.Forbidden(c, "no access to this organization")
			c.Abort()
			return
		}
		c.Set(ContextOrganizationID, orgID)
		c.Next()
	}
}
