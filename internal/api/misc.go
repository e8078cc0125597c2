package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huddle-chat/huddle/internal/apperr"
	"github.com/huddle-chat/huddle/internal/workspace"
	"go.uber.org/zap"
)

// MiscHandler serves the echo probe and the workspace reset switch.
type MiscHandler struct {
	ws     *workspace.Workspace
	logger *zap.Logger
}

func NewMiscHandler(ws *workspace.Workspace, logger *zap.Logger) *MiscHandler {
	return &MiscHandler{ws: ws, logger: logger}
}

// Echo handles GET /v1/echo?data=X. The literal string "echo" is the one
// input it refuses.
func (h *MiscHandler) Echo(c *gin.Context) {
	data := c.Query("data")
	if data == "echo" {
		writeError(c, h.logger, apperr.Validation(apperr.CodeInvalidInput, "cannot echo %q", data))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// Reset handles POST /v1/workspace/reset. Everything goes: users,
// channels, sessions, pending sends, running games.
func (h *MiscHandler) Reset(c *gin.Context) {
	h.ws.Reset()
	h.logger.Warn("workspace reset")
	c.JSON(http.StatusOK, gin.H{})
}
