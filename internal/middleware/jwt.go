package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openclub/backend/internal/authz"
	"github.com/openclub/backend/pkg/response"
)

// TokenValidator verifies a bearer token and returns the subject it was
// issued to. Satisfied by the JWT service.
type TokenValidator interface {
	Subject(token string) (uuid.UUID, error)
}

// JWT returns a middleware that validates the bearer token, resolves the
// subject into a Caller (account + global role set), and sets it in context
// under authz.ContextCaller. Missing, malformed, or expired tokens and
// vanished subjects are all 401; capability misses are decided later and are
// 403. The two are never mixed.
func JWT(tokens TokenValidator, resolver *authz.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		subject, err := tokens.Subject(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		caller, err := resolver.ResolveCaller(c.Request.Context(), subject)
		if err != nil {
			if errors.Is(err, authz.ErrUnknownSubject) {
				response.Unauthorized(c, "invalid token")
			} else {
				response.Internal(c, "failed to resolve caller")
			}
			c.Abort()
			return
		}
		c.Set(authz.ContextCaller, caller)
		c.Next()
	}
}
