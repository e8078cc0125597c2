package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huddle-chat/huddle/internal/middleware"
	"github.com/huddle-chat/huddle/internal/workspace"
	"go.uber.org/zap"
)

// StandupHandler serves the buffered-standup surface.
type StandupHandler struct {
	ws     *workspace.Workspace
	logger *zap.Logger
}

func NewStandupHandler(ws *workspace.Workspace, logger *zap.Logger) *StandupHandler {
	return &StandupHandler{ws: ws, logger: logger}
}

type standupStartRequest struct {
	ChannelID int64 `json:"channel_id" binding:"required"`
	Length    int64 `json:"length" binding:"required"`
}

// Start handles POST /v1/standup/start. Length is in seconds.
func (h *StandupHandler) Start(c *gin.Context) {
	var req standupStartRequest
	if !bindJSON(c, &req) {
		return
	}

	finish, err := h.ws.StartStandup(middleware.GetUserID(c), req.ChannelID, time.Duration(req.Length)*time.Second)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"time_finish": finish.Unix()})
}

// Active handles GET /v1/standup/active?channel_id=N
func (h *StandupHandler) Active(c *gin.Context) {
	channelID, ok := queryInt64(c, "channel_id")
	if !ok {
		return
	}

	status, err := h.ws.StandupStatusFor(channelID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type standupSendRequest struct {
	ChannelID int64  `json:"channel_id" binding:"required"`
	Message   string `json:"message"`
}

// Send handles POST /v1/standup/send
func (h *StandupHandler) Send(c *gin.Context) {
	var req standupSendRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.SendStandupLine(middleware.GetUserID(c), req.ChannelID, req.Message); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
