package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/gigboard/pkg/helpers"
	"github.com/oksasatya/gigboard/pkg/response"
)

// CtxUserIDKey holds the authenticated caller id in the Gin context.
const CtxUserIDKey = "userID"

// SessionKey is the Redis hash written by the auth service on login.
func SessionKey(userID string) string { return "user:session:" + userID }

// Auth validates the access token and sets the caller id in the context.
// The token is read from the Authorization header, then the access_token cookie,
// then the access_token query parameter (browsers cannot set headers on websockets).
// With rdb set, an active session hash must also exist in Redis.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil || claims.UserID == "" {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", nil)
			c.Abort()
			return
		}

		if rdb != nil {
			n, err := rdb.Exists(c.Request.Context(), SessionKey(claims.UserID)).Result()
			if err != nil {
				response.Error[any](c, http.StatusServiceUnavailable, "session store unavailable", nil)
				c.Abort()
				return
			}
			if n == 0 {
				response.Error[any](c, http.StatusUnauthorized, "session not found", nil)
				c.Abort()
				return
			}
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	if tok, err := c.Cookie("access_token"); err == nil && tok != "" {
		return tok
	}
	return c.Query("access_token")
}
