package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/http/dto"
)

const (
	// HeaderAuthorization carries the gateway's bearer token.
	HeaderAuthorization = "Authorization"

	bearerPrefix = "Bearer "
)

// RequireBearerToken returns middleware that admits only requests carrying
// "Authorization: Bearer <token>". The gateway collaborator posting message
// events is the only expected caller.
//
// An empty token disables the check, which is the local development setup.
func RequireBearerToken(token string) gin.HandlerFunc {
	if token == "" {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	want := []byte(token)

	return func(c *gin.Context) {
		got, ok := bearerToken(c.GetHeader(HeaderAuthorization))
		if !ok {
			dto.AbortWithErrorCode(c, dto.ErrorCodeUnauthorized, "bearer token required")
			return
		}

		if subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			dto.AbortWithErrorCode(c, dto.ErrorCodeForbidden, "invalid bearer token")
			return
		}

		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}

	return token, true
}
