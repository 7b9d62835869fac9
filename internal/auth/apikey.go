package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const apiKeyHeader = "X-API-Key"

// RequireAPIKey guards service-to-service endpoints with a shared key, taken
// from a bearer token, the X-API-Key header or the apiKey query parameter.
// An empty key disables the check (local development only; config refuses
// it in production).
func RequireAPIKey(key string) gin.HandlerFunc {
	want := []byte(strings.TrimSpace(key))
	return func(c *gin.Context) {
		if len(want) == 0 {
			c.Next()
			return
		}
		got := presentedAPIKey(c)
		if got == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing api key"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}

// RequireIssuerKey guards credential minting. Unlike RequireAPIKey it never
// degrades to open access: with no key configured every request is refused.
func RequireIssuerKey(key string) gin.HandlerFunc {
	if strings.TrimSpace(key) == "" {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "token issuing disabled: no api key configured"})
		}
	}
	return RequireAPIKey(key)
}

func presentedAPIKey(c *gin.Context) string {
	if tok, ok := bearerToken(c); ok {
		return tok
	}
	if v := strings.TrimSpace(c.GetHeader(apiKeyHeader)); v != "" {
		return v
	}
	return strings.TrimSpace(c.Query("apiKey"))
}
