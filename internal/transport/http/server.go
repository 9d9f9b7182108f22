package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremsg-server/internal/auth"
	"github.com/vovakirdan/wiremsg-server/internal/config"
	"github.com/vovakirdan/wiremsg-server/internal/metrics"
	"github.com/vovakirdan/wiremsg-server/internal/service/messages"
	"github.com/vovakirdan/wiremsg-server/internal/service/users"
)

// Services bundles what the HTTP layer dispatches to.
type Services struct {
	Auth     *auth.Service
	Users    *users.Service
	Messages *messages.Service
	// Metrics is optional; nil disables /metrics and request instrumentation.
	Metrics *metrics.Metrics
}

// NewServer builds an HTTP server with all API routes.
func NewServer(svc Services, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(svc, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter builds the gin engine.
func NewRouter(svc Services, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	if svc.Metrics != nil {
		router.Use(MetricsMiddleware(svc.Metrics))
		router.GET("/metrics", gin.WrapH(svc.Metrics.Handler()))
	}

	router.GET("/health", healthHandler)
	router.GET("/", func(c *gin.Context) {
		c.Redirect(stdhttp.StatusFound, "/api/")
	})

	apiHandlers := NewAPIHandlers(svc.Auth, logger)
	userHandlers := NewUserHandlers(svc.Users, logger)
	messageHandlers := NewMessageHandlers(svc.Messages, logger)

	api := router.Group("/api")
	api.Use(AuthMiddleware(svc.Auth, logger))
	{
		api.GET("/", apiHandlers.APIRoot)
		api.POST("/auth/login/", apiHandlers.Login)
		api.POST("/auth/jwt/", apiHandlers.IssueAccessToken)

		api.GET("/users/", userHandlers.List)
		api.POST("/users/", userHandlers.Create)
		api.GET("/users/:id/", userHandlers.Retrieve)
		api.PUT("/users/:id/", userHandlers.Update)
		api.PATCH("/users/:id/", userHandlers.Update)
		api.DELETE("/users/:id/", userHandlers.Destroy)

		api.GET("/message/", messageHandlers.List)
		api.POST("/message/", messageHandlers.Create)
		api.GET("/message/get_user_received_messages/", messageHandlers.Received)
		api.GET("/message/get_unread_messages/", messageHandlers.Unread)
		api.GET("/message/get_user_messages/:user_id/", messageHandlers.UserMessages)
		api.GET("/message/get_unread_messages_by_user/", messageHandlers.UnreadByUser)
		api.GET("/message/:id/", messageHandlers.Retrieve)
		api.PUT("/message/:id/", messageHandlers.Update)
		api.PATCH("/message/:id/", messageHandlers.Update)
		api.DELETE("/message/:id/", messageHandlers.Destroy)
	}

	return router
}
