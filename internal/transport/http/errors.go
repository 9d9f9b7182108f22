package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremsg-server/internal/core"
)

const msgInternal = "internal server error"

// statusFor maps a domain error kind to its HTTP status.
func statusFor(kind core.Kind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindUnauthenticated:
		return http.StatusUnauthorized
	case core.KindPermissionDenied:
		return http.StatusForbidden
	case core.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err and aborts the request.
// Domain errors keep their message, anything else becomes a logged 500.
func writeError(c *gin.Context, logger *zerolog.Logger, err error) {
	var cerr *core.Error
	if !errors.As(err, &cerr) {
		logger.Error().
			Err(err).
			Str("request_id", requestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Detail: msgInternal})
		return
	}

	status := statusFor(cerr.Kind)
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Token")
	}
	if cerr.Kind == core.KindValidation && len(cerr.Fields) > 0 {
		logger.Debug().Str("request_id", requestID(c)).Interface("fields", cerr.Fields).Msg("rejected input")
		c.AbortWithStatusJSON(status, cerr.Fields)
		return
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Detail: cerr.Message})
}

// bindJSON decodes the request body into dst. An empty body decodes as {}.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return core.FieldError(typeErr.Field, "Not a valid string.")
	}
	return &core.Error{
		Kind:    core.KindValidation,
		Message: "JSON parse error - " + err.Error(),
	}
}

// pathID parses an integer path parameter. Unparseable values map to 0,
// which names no row, so lookups fail with 404 after the access checks ran.
func pathID(c *gin.Context, name string) int64 {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// userIDParam parses the user id a staff query targets.
func userIDParam(raw string, present bool) (int64, error) {
	if !present || raw == "" {
		return 0, core.FieldError("user_id", core.MsgFieldRequired)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, core.FieldError("user_id", "A valid integer is required.")
	}
	return id, nil
}
