package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kubi-stream/kubi-auth/core"
	"github.com/kubi-stream/kubi-auth/service"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService   *service.AuthService
	secureCookies bool
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, secureCookies bool) *AuthHandlers {
	return &AuthHandlers{
		authService:   authService,
		secureCookies: secureCookies,
	}
}

// applyCookie translates a directive into a Set-Cookie on the response
func applyCookie(c *gin.Context, d CookieDirective) {
	c.SetSameSite(d.SameSite)
	c.SetCookie(d.Name, d.Value, d.MaxAge, d.Path, "", d.Secure, d.HTTPOnly)
}

// Challenge handles the challenge request
func (h *AuthHandlers) Challenge(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.authService.CreateChallenge(c.Request.Context(), req.Address)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAddress) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
			return
		}
		log.Error().Err(err).Msg("failed to create challenge")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create challenge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"challenge_token": result.Token,
		"message":         result.Message,
	})
}

// Login handles the login request. Every verification failure maps to the
// same 401 body so the response does not act as an oracle for attackers.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req struct {
		ChallengeToken string `json:"challenge_token" binding:"required"`
		Signature      string `json:"signature" binding:"required"`
		Address        string `json:"address" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.ChallengeToken, req.Signature, req.Address)
	if err != nil {
		if isVerificationFailure(err) {
			log.Debug().Err(err).Str("address", req.Address).Msg("login rejected")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
			return
		}
		log.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	applyCookie(c, SessionCookie(result.Token, result.ExpiresAt, h.secureCookies))

	c.JSON(http.StatusOK, gin.H{
		"session_token": result.Token,
		"expires_at":    result.ExpiresAt,
		"user": gin.H{
			"id":      result.User.ID,
			"address": result.User.Address,
		},
	})
}

// Logout handles session logout. Logging out without a live session succeeds.
func (h *AuthHandlers) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), sessionToken(c)); err != nil {
		log.Error().Err(err).Msg("logout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}

	applyCookie(c, ClearSessionCookie(h.secureCookies))

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the authenticated user
func (h *AuthHandlers) Me(c *gin.Context) {
	value, exists := c.Get(ctxUserKey)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user not found in context"})
		return
	}

	user := value.(*core.User)
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":      user.ID,
			"address": user.Address,
		},
	})
}

// Healthz reports liveness
func (h *AuthHandlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// isVerificationFailure reports whether err is one of the expected rejection
// causes rather than an infrastructure failure
func isVerificationFailure(err error) bool {
	return errors.Is(err, core.ErrInvalidNonce) ||
		errors.Is(err, core.ErrExpiredChallenge) ||
		errors.Is(err, core.ErrSignatureMismatch) ||
		errors.Is(err, core.ErrInvalidSignature) ||
		errors.Is(err, core.ErrInvalidToken)
}
