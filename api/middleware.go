package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestID reuses the caller's request id or creates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// ApiAuth checks the apikey query parameter. Without a configured key every request passes.
func ApiAuth(c *gin.Context) {
	key := cfgMain.General.WebAPIKey
	if key == "" {
		c.Next()
		return
	}
	if queryParam, ok := c.GetQuery("apikey"); !ok || queryParam != key {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Next()
}

// requireCSRF checks the CSRF token of state-changing requests
func requireCSRF(c *gin.Context) {
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
		c.Next()
		return
	}
	token := cfgMain.General.CSRFToken
	if token == "" {
		c.Next()
		return
	}

	csrfToken := c.GetHeader("X-CSRF-Token")
	if csrfToken == "" {
		csrfToken = c.PostForm("csrf_token")
	}
	if csrfToken != token {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid CSRF token"})
		return
	}
	c.Next()
}

// settingsUser names whose saved table settings apply to the request.
func settingsUser(c *gin.Context) string {
	if user := c.GetHeader("X-User"); user != "" {
		return user
	}
	if user, err := c.Cookie("case_user"); err == nil && user != "" {
		return user
	}
	return "default"
}
