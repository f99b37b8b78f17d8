package middleware

import (
	"net/http"
	"strings"

	"case-chat/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// RequireBearer rejects requests without an "Authorization: Bearer <token>"
// header. With a non-empty secret the token must also be an HMAC-signed JWT
// valid under that secret; otherwise it is passed through unverified for the
// workflow backend to judge.
func RequireBearer(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if !strings.HasPrefix(auth, "Bearer ") || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if len(secret) > 0 {
			parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
			if err != nil || !parsed.Valid {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			if sub, err := parsed.Claims.GetSubject(); err == nil && sub != "" {
				c.Set("token_subject", sub)
			}
		}

		c.Set("token_fingerprint", service.TokenFingerprint(token))
		c.Next()
	}
}
