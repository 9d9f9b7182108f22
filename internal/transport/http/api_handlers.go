package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremsg-server/internal/auth"
)

// APIHandlers provides HTTP handlers for login and the API root.
type APIHandlers struct {
	authService *auth.Service
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		log:         logger,
	}
}

// Login exchanges credentials for the user's API token.
// POST /api/auth/login/
func (h *APIHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}

	token, err := h.authService.Login(c.Request.Context(), credentials(req))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	h.log.Info().Int64("user_id", token.UserID).Msg("user logged in")
	c.JSON(http.StatusOK, TokenResponse{Token: token.Key})
}

// IssueAccessToken exchanges credentials for a signed JWT.
// POST /api/auth/jwt/
func (h *APIHandlers) IssueAccessToken(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}

	access, ttl, err := h.authService.IssueAccessToken(c.Request.Context(), credentials(req))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, AccessTokenResponse{Access: access, ExpiresIn: int64(ttl.Seconds())})
}

// APIRoot lists the resource endpoints.
// GET /api/
func (h *APIHandlers) APIRoot(c *gin.Context) {
	base := fmt.Sprintf("%s://%s/api", scheme(c), c.Request.Host)
	c.JSON(http.StatusOK, APIRootResponse{
		Users:   base + "/users/",
		Message: base + "/message/",
	})
}

func scheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

func healthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
