package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wiremsg-server/internal/core"
	"github.com/vovakirdan/wiremsg-server/internal/service/messages"
)

// MessageHandlers provides HTTP handlers for message operations.
type MessageHandlers struct {
	svc *messages.Service
	log *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(svc *messages.Service, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		svc: svc,
		log: logger,
	}
}

// List returns messages the caller sent or received.
// GET /api/message/?search=terms
func (h *MessageHandlers) List(c *gin.Context) {
	h.list(c, core.ListParams{Mode: core.ModeAll, Search: c.Query("search")})
}

// Received returns messages addressed to the caller.
// GET /api/message/get_user_received_messages/
func (h *MessageHandlers) Received(c *gin.Context) {
	h.list(c, core.ListParams{Mode: core.ModeReceived})
}

// Unread returns unviewed messages addressed to the caller.
// GET /api/message/get_unread_messages/
func (h *MessageHandlers) Unread(c *gin.Context) {
	h.list(c, core.ListParams{Mode: core.ModeUnread})
}

// UserMessages returns every message a user is party to. Staff only.
// GET /api/message/get_user_messages/:user_id/
func (h *MessageHandlers) UserMessages(c *gin.Context) {
	if err := core.AuthorizeMessage(core.ActionStaffUserMessages, callerFrom(c)); err != nil {
		writeError(c, h.log, err)
		return
	}

	userID, err := userIDParam(c.Param("user_id"), true)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	h.list(c, core.ListParams{Mode: core.ModeStaffUser, TargetUserID: userID})
}

// UnreadByUser returns unviewed messages addressed to a user. Staff only.
// GET /api/message/get_unread_messages_by_user/?user_id=
func (h *MessageHandlers) UnreadByUser(c *gin.Context) {
	if err := core.AuthorizeMessage(core.ActionStaffUnreadByUser, callerFrom(c)); err != nil {
		writeError(c, h.log, err)
		return
	}

	raw, present := c.GetQuery("user_id")
	userID, err := userIDParam(raw, present)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	h.list(c, core.ListParams{Mode: core.ModeStaffUnread, TargetUserID: userID})
}

func (h *MessageHandlers) list(c *gin.Context, params core.ListParams) {
	msgs, err := h.svc.List(c.Request.Context(), callerFrom(c), params)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, messagesToResponse(msgs))
}

// Create sends a message from the caller.
// POST /api/message/
func (h *MessageHandlers) Create(c *gin.Context) {
	caller := callerFrom(c)
	if err := core.AuthorizeMessage(core.ActionCreate, caller); err != nil {
		writeError(c, h.log, err)
		return
	}

	var req CreateMessageRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}

	msg, err := h.svc.Create(c.Request.Context(), caller, messageInput(req))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, messageToResponse(msg))
}

// Retrieve returns one message and marks it viewed.
// GET /api/message/:id/
func (h *MessageHandlers) Retrieve(c *gin.Context) {
	msg, err := h.svc.Retrieve(c.Request.Context(), callerFrom(c), pathID(c, "id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, messageToResponse(msg))
}

// Update handles PUT (full) and PATCH (partial) on a message.
// PUT|PATCH /api/message/:id/
func (h *MessageHandlers) Update(c *gin.Context) {
	caller := callerFrom(c)
	partial := c.Request.Method == http.MethodPatch
	action := core.ActionUpdate
	if partial {
		action = core.ActionPartialUpdate
	}
	if err := core.AuthorizeMessage(action, caller); err != nil {
		writeError(c, h.log, err)
		return
	}

	var req UpdateMessageRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, h.log, err)
		return
	}

	msg, err := h.svc.Update(c.Request.Context(), caller, pathID(c, "id"), messageInput(req), partial)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, messageToResponse(msg))
}

// Destroy deletes a message.
// DELETE /api/message/:id/
func (h *MessageHandlers) Destroy(c *gin.Context) {
	if err := h.svc.Destroy(c.Request.Context(), callerFrom(c), pathID(c, "id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
