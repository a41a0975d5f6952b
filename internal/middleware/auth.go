package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"practice-scheduler/internal/apperr"
	"practice-scheduler/internal/auth"
	"practice-scheduler/internal/response"
)

const CtxUserIDKey = "uid"

// Auth requires "Authorization: Bearer <jwt>" and stores the user id in the context.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			response.Error(c, apperr.Unauthorized("no token"))
			return
		}

		claims, err := auth.ParseToken(strings.TrimSpace(authz[7:]), secret)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, apperr.Unauthorized("bad token"))
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Next()
	}
}

// UserID returns the id set by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// StaticKey guards internal triggers with a shared key sent as a bearer token
// or in X-Trigger-Key.
func StaticKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader("X-Trigger-Key")
		if got == "" {
			authz := c.GetHeader("Authorization")
			if len(authz) > 7 && strings.EqualFold(authz[:7], "Bearer ") {
				got = strings.TrimSpace(authz[7:])
			}
		}
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			response.Error(c, apperr.Unauthorized("invalid trigger key"))
			return
		}
		c.Next()
	}
}
