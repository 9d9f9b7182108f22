package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremsg-server/internal/core"
	"github.com/vovakirdan/wiremsg-server/internal/service/users"
)

// UserHandlers provides HTTP handlers for user operations.
type UserHandlers struct {
	svc *users.Service
	log *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(svc *users.Service, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		svc: svc,
		log: logger,
	}
}

// List handles listing and searching users.
// GET /api/users/?search=query
func (h *UserHandlers) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), callerFrom(c), c.Query("search"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, usersToResponse(list))
}

// Create registers a new user.
// POST /api/users/
func (h *UserHandlers) Create(c *gin.Context) {
	var req CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}

	user, err := h.svc.Create(c.Request.Context(), callerFrom(c), userInput(req))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, userToResponse(user))
}

// Retrieve returns the caller's own account.
// GET /api/users/:id/
func (h *UserHandlers) Retrieve(c *gin.Context) {
	user, err := h.svc.Retrieve(c.Request.Context(), callerFrom(c), pathID(c, "id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

// Update handles PUT (full) and PATCH (partial) on the caller's account.
// PUT|PATCH /api/users/:id/
func (h *UserHandlers) Update(c *gin.Context) {
	caller := callerFrom(c)
	partial := c.Request.Method == http.MethodPatch
	action := core.ActionUpdate
	if partial {
		action = core.ActionPartialUpdate
	}
	if err := core.AuthorizeUser(action, caller); err != nil {
		writeError(c, h.log, err)
		return
	}

	var req UpdateUserRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}

	user, err := h.svc.Update(c.Request.Context(), caller, pathID(c, "id"), userInput(req), partial)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(user))
}

// Destroy deletes the caller's account.
// DELETE /api/users/:id/
func (h *UserHandlers) Destroy(c *gin.Context) {
	if err := h.svc.Destroy(c.Request.Context(), callerFrom(c), pathID(c, "id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
