package middleware

import (
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	accessSecretOnce sync.Once
	accessSecretVal  []byte
)

func accessSecret() []byte {
	accessSecretOnce.Do(func() {
		secret := os.Getenv("ACCESS_TOKEN_SECRET")
		if secret == "" {
			panic("ACCESS_TOKEN_SECRET environment variable is not set")
		}
		accessSecretVal = []byte(secret)
	})
	return accessSecretVal
}

// MustInitAccessSecret loads the access-token secret eagerly so a missing
// secret kills the process at startup instead of on the first request.
func MustInitAccessSecret() {
	accessSecret()
}

// AccessClaims is the access-token JWT payload. The account id travels under
// the legacy claim name "id".
type AccessClaims struct {
	AccountID string `json:"id"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies the bearer access token and stores the account id
// in the request context. Missing, malformed, invalid and expired tokens are
// all the same 401 — the distinction is deliberately not leaked.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
			c.Abort()
			return
		}

		claims := &AccessClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (any, error) {
			return accessSecret(), nil
		})
		if err != nil || !token.Valid || claims.AccountID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthenticated"})
			c.Abort()
			return
		}

		c.Set("accountId", claims.AccountID)
		c.Next()
	}
}

// GetAccountID returns the authenticated account id stored by AuthMiddleware.
func GetAccountID(c *gin.Context) (string, bool) {
	accountID, exists := c.Get("accountId")
	if !exists {
		return "", false
	}
	return accountID.(string), true
}
