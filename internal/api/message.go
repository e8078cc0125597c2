package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huddle-chat/huddle/internal/middleware"
	"github.com/huddle-chat/huddle/internal/workspace"
	"go.uber.org/zap"
)

// MessageHandler serves message send, paging, mutation and search.
type MessageHandler struct {
	ws     *workspace.Workspace
	logger *zap.Logger
}

func NewMessageHandler(ws *workspace.Workspace, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{ws: ws, logger: logger}
}

// queryInt64 parses a required integer query parameter, replying 400 on
// absence or garbage.
func queryInt64(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

type sendRequest struct {
	ChannelID int64  `json:"channel_id" binding:"required"`
	Message   string `json:"message"`
}

// Send handles POST /v1/message/send
func (h *MessageHandler) Send(c *gin.Context) {
	var req sendRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.ws.Send(middleware.GetUserID(c), req.ChannelID, req.Message)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message_id": id})
}

type sendLaterRequest struct {
	ChannelID int64  `json:"channel_id" binding:"required"`
	Message   string `json:"message"`
	TimeSent  int64  `json:"time_sent" binding:"required"`
}

// SendLater handles POST /v1/message/sendlater. The request blocks until
// delivery; a dropped connection cancels the pending send.
func (h *MessageHandler) SendLater(c *gin.Context) {
	var req sendLaterRequest
	if !bindJSON(c, &req) {
		return
	}

	deliverAt := time.Unix(req.TimeSent, 0)
	id, err := h.ws.SendLater(c.Request.Context(), middleware.GetUserID(c), req.ChannelID, req.Message, deliverAt)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message_id": id})
}

// Retrieve handles GET /v1/channel/messages?channel_id=N&start=M
func (h *MessageHandler) Retrieve(c *gin.Context) {
	channelID, ok := queryInt64(c, "channel_id")
	if !ok {
		return
	}
	start, ok := queryInt64(c, "start")
	if !ok {
		return
	}

	page, err := h.ws.Retrieve(middleware.GetUserID(c), channelID, int(start))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

type editRequest struct {
	MessageID int64  `json:"message_id" binding:"required"`
	Message   string `json:"message"`
}

// Edit handles PUT /v1/message/edit. Editing to empty text deletes the
// message.
func (h *MessageHandler) Edit(c *gin.Context) {
	var req editRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.Edit(middleware.GetUserID(c), req.MessageID, req.Message); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type messageTargetRequest struct {
	MessageID int64 `json:"message_id" binding:"required"`
}

// Remove handles DELETE /v1/message/remove
func (h *MessageHandler) Remove(c *gin.Context) {
	var req messageTargetRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.Remove(middleware.GetUserID(c), req.MessageID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type reactRequest struct {
	MessageID int64 `json:"message_id" binding:"required"`
	ReactID   int64 `json:"react_id" binding:"required"`
}

// React handles POST /v1/message/react
func (h *MessageHandler) React(c *gin.Context) {
	var req reactRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.React(middleware.GetUserID(c), req.MessageID, req.ReactID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Unreact handles POST /v1/message/unreact
func (h *MessageHandler) Unreact(c *gin.Context) {
	var req reactRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.Unreact(middleware.GetUserID(c), req.MessageID, req.ReactID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Pin handles POST /v1/message/pin
func (h *MessageHandler) Pin(c *gin.Context) {
	var req messageTargetRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.Pin(middleware.GetUserID(c), req.MessageID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Unpin handles POST /v1/message/unpin
func (h *MessageHandler) Unpin(c *gin.Context) {
	var req messageTargetRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.Unpin(middleware.GetUserID(c), req.MessageID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Search handles GET /v1/search?query_str=...
func (h *MessageHandler) Search(c *gin.Context) {
	msgs, err := h.ws.Search(middleware.GetUserID(c), c.Query("query_str"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
