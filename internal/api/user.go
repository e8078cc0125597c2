package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huddle-chat/huddle/internal/middleware"
	"github.com/huddle-chat/huddle/internal/models"
	"github.com/huddle-chat/huddle/internal/workspace"
	"go.uber.org/zap"
)

// UserHandler serves profile reads and edits.
type UserHandler struct {
	ws     *workspace.Workspace
	logger *zap.Logger
}

func NewUserHandler(ws *workspace.Workspace, logger *zap.Logger) *UserHandler {
	return &UserHandler{ws: ws, logger: logger}
}

// Profile handles GET /v1/user/profile?u_id=N
func (h *UserHandler) Profile(c *gin.Context) {
	userID, ok := queryInt64(c, "u_id")
	if !ok {
		return
	}

	u, err := h.ws.Profile(userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": models.ProfileOf(u)})
}

type setNameRequest struct {
	FirstName string `json:"name_first" binding:"required"`
	LastName  string `json:"name_last" binding:"required"`
}

// SetName handles PUT /v1/user/profile/setname
func (h *UserHandler) SetName(c *gin.Context) {
	var req setNameRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.SetName(middleware.GetUserID(c), req.FirstName, req.LastName); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type setEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// SetEmail handles PUT /v1/user/profile/setemail
func (h *UserHandler) SetEmail(c *gin.Context) {
	var req setEmailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.SetEmail(middleware.GetUserID(c), req.Email); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type setHandleRequest struct {
	Handle string `json:"handle_str" binding:"required"`
}

// SetHandle handles PUT /v1/user/profile/sethandle
func (h *UserHandler) SetHandle(c *gin.Context) {
	var req setHandleRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.SetHandle(middleware.GetUserID(c), req.Handle); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

// All handles GET /v1/users/all
func (h *UserHandler) All(c *gin.Context) {
	users, err := h.ws.UsersAll()
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	profiles := make([]models.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, models.ProfileOf(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": profiles})
}
