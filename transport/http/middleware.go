package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kubi-stream/kubi-auth/service"
)

const (
	ctxUserKey    = "user"
	ctxSessionKey = "session"
)

// sessionToken extracts the session token from the request: the session
// cookie first, then a Bearer header for non-browser clients.
func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	return ""
}

// AuthMiddleware resolves the session token on every request. A missing or
// expired session is a normal 401; a store failure fails closed with 500.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		resolved, err := authService.Resolve(c.Request.Context(), sessionToken(c))
		if err != nil {
			log.Error().Err(err).Msg("session resolution failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session resolution failed"})
			return
		}
		if resolved == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		c.Set(ctxUserKey, resolved.User)
		c.Set(ctxSessionKey, resolved.Session)

		c.Next()
	}
}

// RequestLogger logs every request with method, path, status and latency
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
