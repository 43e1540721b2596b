package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/folio"
)

const AdminRole = "admin"

// AdminAuth requires a bearer token issued by tokens on every request. A nil
// manager means admin auth is not configured and requests pass through.
func AdminAuth(tokens *folio.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			folio.SendError(c, folio.ErrUnauthorized.New("Authorization header is required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			folio.SendError(c, folio.ErrUnauthorized.New("Invalid authorization header format"))
			return
		}

		claims, err := tokens.Parse(parts[1])
		if err != nil || claims.Role != AdminRole {
			folio.SendError(c, folio.ErrUnauthorized.New("Invalid token"))
			return
		}

		c.Set("user_id", claims.Subject)
		c.Set("role", claims.Role)
		c.Next()
	}
}
