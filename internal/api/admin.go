package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huddle-chat/huddle/internal/middleware"
	"github.com/huddle-chat/huddle/internal/models"
	"github.com/huddle-chat/huddle/internal/workspace"
	"go.uber.org/zap"
)

// AdminHandler serves workspace-wide permission changes and account
// termination. Authorization lives in the engine, not here.
type AdminHandler struct {
	ws     *workspace.Workspace
	logger *zap.Logger
}

func NewAdminHandler(ws *workspace.Workspace, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{ws: ws, logger: logger}
}

type changePermissionRequest struct {
	UserID       int64 `json:"u_id" binding:"required"`
	PermissionID int64 `json:"permission_id" binding:"required"`
}

// ChangePermission handles POST /v1/admin/userpermission/change
func (h *AdminHandler) ChangePermission(c *gin.Context) {
	var req changePermissionRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.ws.ChangePermission(middleware.GetUserID(c), req.UserID, models.PermLevel(req.PermissionID))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type removeUserRequest struct {
	UserID int64 `json:"u_id" binding:"required"`
}

// RemoveUser handles DELETE /v1/admin/user/remove
func (h *AdminHandler) RemoveUser(c *gin.Context) {
	var req removeUserRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.RemoveUser(middleware.GetUserID(c), req.UserID); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
