package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huddle-chat/huddle/internal/workspace"
	"go.uber.org/zap"
)

// AuthHandler serves registration, login and password-reset requests.
// These routes are the only ones reachable without a session token.
type AuthHandler struct {
	ws     *workspace.Workspace
	logger *zap.Logger
}

func NewAuthHandler(ws *workspace.Workspace, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{ws: ws, logger: logger}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"name_first" binding:"required"`
	LastName  string `json:"name_last" binding:"required"`
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.ws.Register(req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.ws.Login(req.Email, req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type logoutRequest struct {
	Token string `json:"token" binding:"required"`
}

// Logout handles POST /v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req logoutRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"is_success": h.ws.Logout(req.Token)})
}

type resetRequestRequest struct {
	Email string `json:"email" binding:"required"`
}

// RequestReset handles POST /v1/auth/passwordreset/request.
// Always replies 200 so callers cannot probe which emails exist.
func (h *AuthHandler) RequestReset(c *gin.Context) {
	var req resetRequestRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.RequestPasswordReset(req.Email); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type resetPasswordRequest struct {
	ResetCode   string `json:"reset_code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// Reset handles POST /v1/auth/passwordreset/reset
func (h *AuthHandler) Reset(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.ws.ResetPassword(req.ResetCode, req.NewPassword); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
