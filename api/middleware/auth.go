package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pcubed/gradeboard/internal/auth"
	"github.com/pcubed/gradeboard/internal/authz"
	"github.com/pcubed/gradeboard/pkg/logger"
)

const principalKey = "principal"

// Auth resolves the bearer token to a principal and aborts with 401
// otherwise. Every route behind it can rely on PrincipalFrom succeeding.
func Auth(authenticator auth.Authenticator, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		principal, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			log.Warn("authentication failed",
				logger.String("path", c.Request.URL.Path),
				logger.Error(err),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// PrincipalFrom returns the authenticated principal stored by Auth.
func PrincipalFrom(c *gin.Context) (authz.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return authz.Principal{}, false
	}
	p, ok := v.(authz.Principal)
	return p, ok
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
