// README: Bearer-token auth middleware and role guards.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carebook/internal/infra"
)

const (
	ctxCallerUID  = "caller_uid"
	ctxCallerRole = "caller_role"
)

// Auth verifies the Authorization: Bearer <token> header and stores the caller's
// uid and role on the context.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abort(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimSpace(raw))
		if err != nil || token == nil {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Set(ctxCallerUID, token.UID)
		c.Set(ctxCallerRole, strings.ToUpper(token.Role))
		c.Next()
	}
}

// Anonymous stands in for Auth when authentication is disabled; every caller gets role.
func Anonymous(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxCallerUID, "anonymous")
		c.Set(ctxCallerRole, strings.ToUpper(role))
		c.Next()
	}
}

// RequireRole rejects callers whose role is not one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CallerRole(c)
		for _, r := range roles {
			if strings.EqualFold(r, role) {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "forbidden")
	}
}

func CallerUID(c *gin.Context) string {
	return c.GetString(ctxCallerUID)
}

func CallerRole(c *gin.Context) string {
	return c.GetString(ctxCallerRole)
}

func abort(c *gin.Context, status int, msg string) {
	kind := "Unauthorized"
	if status == http.StatusForbidden {
		kind = "Forbidden"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "kind": kind})
}
