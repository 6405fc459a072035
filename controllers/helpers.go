package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/middleware"
	"github.com/craftlink-lk/craftlink-api/models"
	"github.com/craftlink-lk/craftlink-api/realtime"
	"github.com/craftlink-lk/craftlink-api/workflow"
)

var hubInstance *realtime.Hub

// SetHub wires the websocket hub used for message fan-out
func SetHub(h *realtime.Hub) {
	hubInstance = h
}

// GetHub returns the wired websocket hub
func GetHub() *realtime.Hub {
	return hubInstance
}

// getEngine builds a workflow engine on the current DB handle
func getEngine() *workflow.Engine {
	rate := 0.10
	if cfg := config.GetConfig(); cfg != nil {
		rate = cfg.CommissionRate
	}
	return workflow.NewEngine(config.GetDB(), rate)
}

// requireUser resolves the authenticated user or writes the error response.
// Returns nil when the response has already been written.
func requireUser(c *gin.Context) *models.User {
	user, err := middleware.CurrentUser(c, config.GetDB())
	if err != nil {
		var authErr *middleware.AuthError
		status := http.StatusUnauthorized
		code := "UNAUTHORIZED"
		message := "Could not extract user information"
		if errors.As(err, &authErr) && authErr.Code == "USER_NOT_FOUND" {
			status = http.StatusNotFound
			code = authErr.Code
			message = authErr.Message
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": message,
			},
		})
		return nil
	}
	return user
}

// respondError writes the standard error envelope
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondWorkflowError maps workflow error codes onto HTTP statuses.
// Untyped errors from the service layer are treated as request validation
// failures; infrastructure errors carry their own types.
func respondWorkflowError(c *gin.Context, err error) {
	var coded workflow.CodedError
	if !errors.As(err, &coded) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	status := http.StatusConflict
	switch coded.Code() {
	case "ENTITY_NOT_FOUND":
		status = http.StatusNotFound
	case "ACTOR_NOT_AUTHORIZED":
		status = http.StatusForbidden
	case "ATTEMPT_LIMIT_EXCEEDED":
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    coded.Code(),
			"message": coded.Error(),
		},
	})
}

// broadcastResult pushes a transition's system message to live subscribers.
// Fire-and-forget: the transition has already committed and a failed or
// absent broadcast is recovered by history backfill.
func broadcastResult(result *workflow.Result) {
	if hubInstance == nil || result == nil {
		return
	}
	if result.ConversationID != nil && result.SystemMessage != nil {
		hubInstance.Publish(*result.ConversationID, result.SystemMessage)
	}
}
