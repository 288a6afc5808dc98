package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/agreements-api/internal/policy"
	appErrors "github.com/noah-isme/agreements-api/pkg/errors"
	"github.com/noah-isme/agreements-api/pkg/response"
)

// Authorize enforces the role/action matrix for a route. It must run after JWT.
func Authorize(action policy.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if !policy.CanAccess(claims.Role, action) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "you do not have permission to "+string(action)))
			c.Abort()
			return
		}

		c.Next()
	}
}
