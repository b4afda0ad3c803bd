package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// VerifyServiceKey guards service-to-service endpoints. The caller must send
// the shared key in the x-service-api-key header. A server missing its own
// key configuration is a 500, a caller with a wrong or absent key a 403.
func VerifyServiceKey(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			RespondWithError(c, http.StatusInternalServerError, "Service key not configured")
			c.Abort()
			return
		}
		key := c.GetHeader("x-service-api-key")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
			RespondWithError(c, http.StatusForbidden, "Forbidden: invalid service key")
			c.Abort()
			return
		}
		c.Next()
	}
}
