package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huddle-chat/huddle/internal/middleware"
	"github.com/huddle-chat/huddle/internal/workspace"
	"go.uber.org/zap"
)

// ChannelHandler serves channel lifecycle and membership requests.
type ChannelHandler struct {
	ws     *workspace.Workspace
	logger *zap.Logger
}

func NewChannelHandler(ws *workspace.Workspace, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{ws: ws, logger: logger}
}

type createChannelRequest struct {
	Name     string `json:"name" binding:"required"`
	IsPublic *bool  `json:"is_public" binding:"required"`
}

// Create handles POST /v1/channels/create
func (h *ChannelHandler) Create(c *gin.Context) {
	var req createChannelRequest
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.ws.CreateChannel(middleware.GetUserID(c), req.Name, *req.IsPublic)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"channel_id": id})
}

type channelTargetRequest struct {
	ChannelID int64 `json:"channel_id" binding:"required"`
}

// Join handles POST /v1/channel/join
func (h *ChannelHandler) Join(c *gin.Context) {
	var req channelTargetRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.Join(middleware.GetUserID(c), req.ChannelID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Leave handles POST /v1/channel/leave
func (h *ChannelHandler) Leave(c *gin.Context) {
	var req channelTargetRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.Leave(middleware.GetUserID(c), req.ChannelID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type channelUserRequest struct {
	ChannelID int64 `json:"channel_id" binding:"required"`
	UserID    int64 `json:"u_id" binding:"required"`
}

// Invite handles POST /v1/channel/invite
func (h *ChannelHandler) Invite(c *gin.Context) {
	var req channelUserRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.Invite(middleware.GetUserID(c), req.ChannelID, req.UserID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// AddOwner handles POST /v1/channel/addowner
func (h *ChannelHandler) AddOwner(c *gin.Context) {
	var req channelUserRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.AddOwner(middleware.GetUserID(c), req.ChannelID, req.UserID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// RemoveOwner handles POST /v1/channel/removeowner
func (h *ChannelHandler) RemoveOwner(c *gin.Context) {
	var req channelUserRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.RemoveOwner(middleware.GetUserID(c), req.ChannelID, req.UserID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// Details handles GET /v1/channel/details?channel_id=N
func (h *ChannelHandler) Details(c *gin.Context) {
	channelID, ok := queryInt64(c, "channel_id")
	if !ok {
		return
	}

	details, err := h.ws.Details(middleware.GetUserID(c), channelID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// List handles GET /v1/channels/list — channels the caller belongs to.
func (h *ChannelHandler) List(c *gin.Context) {
	channels, err := h.ws.ListChannels(middleware.GetUserID(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

// ListAll handles GET /v1/channels/listall — every channel, private ones
// included. Visibility gates joining, not listing.
func (h *ChannelHandler) ListAll(c *gin.Context) {
	channels, err := h.ws.ListAllChannels()
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}
