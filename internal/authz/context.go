package authz

import "github.com/gin-gonic/gin"

// ContextCaller is the gin context key under which the JWT middleware stores
// the resolved caller.
const ContextCaller = "caller"

// CallerFrom returns the caller stored in gin context by the JWT middleware.
// Panics when called on a route that is not behind the middleware.
func CallerFrom(c *gin.Context) *Caller {
	return c.MustGet(ContextCaller).(*Caller)
}
