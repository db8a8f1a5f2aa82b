package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vibelab/vibe-api/internal/domain"
	"github.com/vibelab/vibe-api/pkg/response"
)

// RequireRoles is the authorization guard. It checks the authenticated
// user's role against an explicit permitted set. There is no role
// hierarchy: every role a route accepts must be listed.
//
// RequireRoles must be composed after Authenticate. Missing claims mean the
// pipeline was assembled wrong, which is reported as an internal error, not
// an authorization failure.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	permitted := make(map[domain.Role]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		permitted[r] = struct{}{}
		names = append(names, r.String())
	}
	required := strings.Join(names, ", ")

	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			response.AbortError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Authorization guard invoked without authentication")
			return
		}

		if _, ok := permitted[claims.Role]; !ok {
			response.AbortError(c, http.StatusForbidden, "AUTHORIZATION_ERROR", "Insufficient permissions. Required roles: "+required)
			return
		}

		c.Next()
	}
}
