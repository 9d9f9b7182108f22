package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremsg-server/internal/auth"
	"github.com/vovakirdan/wiremsg-server/internal/core"
	"github.com/vovakirdan/wiremsg-server/internal/metrics"
)

const (
	// ContextKeyCaller is the context key for storing the authenticated *core.Caller.
	ContextKeyCaller = "caller"
	// ContextKeyRequestID is the context key for storing the request id.
	ContextKeyRequestID = "request_id"

	headerRequestID = "X-Request-ID"
)

// AuthMiddleware resolves the Authorization header into a caller.
// Requests without the header continue anonymously; a header that does not
// resolve to a user is rejected with 401.
func AuthMiddleware(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := authService.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			logger.Debug().Err(err).Str("request_id", requestID(c)).Msg("authentication failed")
			writeError(c, logger, err)
			return
		}

		if user != nil {
			c.Set(ContextKeyCaller, core.CallerFromUser(user))
		}

		c.Next()
	}
}

// RequestIDMiddleware propagates X-Request-ID or assigns a new one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(headerRequestID, id)
		c.Next()
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= 500 {
			event = logger.Warn()
		}

		// Log after request
		event.
			Str("request_id", requestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}

// MetricsMiddleware records request counts and latency by route.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// callerFrom returns the request's caller, nil when anonymous.
func callerFrom(c *gin.Context) *core.Caller {
	v, ok := c.Get(ContextKeyCaller)
	if !ok {
		return nil
	}
	caller, _ := v.(*core.Caller)
	return caller
}

func requestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}
