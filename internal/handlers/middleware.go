package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	errMissingAuth  = "missing Authorization header"
	errAuthFormat   = "invalid Authorization header format"
	errInvalidToken = "invalid or expired token"

	userIDKey = "userId"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>" value.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}

// requireUser guards the routes that change heater settings.
func (h *Handler) requireUser(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMissingAuth})
		return
	}
	token, ok := bearerToken(header)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errAuthFormat})
		return
	}
	uid, err := h.services.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidToken})
		return
	}
	c.Set(userIDKey, uid)
	c.Next()
}

// wsUser authenticates a websocket client from ?token= or a bearer header.
// Browser clients cannot set headers on the upgrade request.
func (h *Handler) wsUser(c *gin.Context) (int, bool) {
	token := c.Query("token")
	if token == "" {
		token, _ = bearerToken(c.GetHeader("Authorization"))
	}
	if token == "" || h.services.Authorization == nil {
		return 0, false
	}
	uid, err := h.services.ParseToken(token)
	if err != nil {
		return 0, false
	}
	return uid, true
}
