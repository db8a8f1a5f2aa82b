package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vibelab/vibe-api/internal/domain"
	"github.com/vibelab/vibe-api/internal/token"
	"github.com/vibelab/vibe-api/pkg/response"
)

// claimsKey is the context key the gate stores verified claims under. It is
// unexported so claims can only be read through ClaimsFromContext, after
// Authenticate has run.
const claimsKey = "vibe-api/auth-claims"

// ClaimsFromContext returns the claims attached by Authenticate, and false
// when the gate has not run for this request.
func ClaimsFromContext(c *gin.Context) (*token.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*token.Claims)
	return claims, ok
}

// Authenticate is the authentication gate. It extracts the bearer token
// from the Authorization header, validates it as an access token, and
// attaches the claims to the request context. On any failure the chain is
// aborted and the protected handler never runs.
func Authenticate(tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.AbortError(c, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Missing or malformed authorization header")
			return
		}

		claims, err := tokens.Validate(raw, domain.KindAccess)
		if err != nil {
			// Uniform response regardless of the validation failure cause.
			response.AbortError(c, http.StatusUnauthorized, "AUTHENTICATION_ERROR", "Invalid or expired token")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	raw := header[len(prefix):]
	if raw == "" {
		return "", false
	}
	return raw, true
}
