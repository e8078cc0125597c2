package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/huddle-chat/huddle/internal/apperr"
	"go.uber.org/zap"
)

// writeError translates an engine error into an HTTP response.
//
// Mapping is by error kind, never by message text:
//   - validation and not-found errors are the caller's fault → 400
//   - permission errors → 403
//   - anything else is a bug or infrastructure failure → 500
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindNotFound:
		c.JSON(http.StatusBadRequest, gin.H{
			"code":  string(apperr.CodeOf(err)),
			"error": err.Error(),
		})
	case apperr.KindPermission:
		c.JSON(http.StatusForbidden, gin.H{
			"code":  string(apperr.CodeOf(err)),
			"error": err.Error(),
		})
	default:
		logger.Error("internal error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// bindJSON parses the request body and replies 400 on malformed input.
// Returns false when the handler should bail out.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
