package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/care-billing-api/internal/models"
	appErrors "github.com/noah-isme/care-billing-api/pkg/errors"
	"github.com/noah-isme/care-billing-api/pkg/response"
)

// SelfParam grants access when the named path parameter equals the caller's user id.
type SelfParam string

// RBAC enforces role-based access control for routes. Entries prefixed with
// "SELF:" name a path parameter that may match the caller's own id.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{})
	var selfParams []string
	for _, a := range allowed {
		if len(a) > 5 && a[:5] == "SELF:" {
			selfParams = append(selfParams, a[5:])
			continue
		}
		allowedRoles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok || claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		for _, param := range selfParams {
			if target := c.Param(param); target != "" && target == claims.UserID {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

// RequireRolesOrSelf allows roles plus callers whose id equals the path parameter.
func RequireRolesOrSelf(param SelfParam, roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, 0, len(roles)+1)
	for _, r := range roles {
		allowed = append(allowed, string(r))
	}
	allowed = append(allowed, "SELF:"+string(param))
	return RBAC(allowed...)
}
