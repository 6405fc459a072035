package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/craftlink-lk/craftlink-api/config"
	"github.com/craftlink-lk/craftlink-api/services"
)

// ListNotifications handles GET /api/v1/notifications?limit=, most recent
// first, capped at the default page size
func ListNotifications(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	notifications, err := services.NewNotificationService(config.GetDB()).List(user.ID, limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    notifications,
	})
}

// GetUnreadNotificationCount handles GET /api/v1/notifications/unread-count
func GetUnreadNotificationCount(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}

	count, err := services.NewNotificationService(config.GetDB()).UnreadCount(user.ID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count notifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"unread_count": count,
		},
	})
}

// MarkNotificationRead handles POST /api/v1/notifications/:id/read.
// Idempotent: re-marking a read notification succeeds without effect.
func MarkNotificationRead(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}
	id, ok := idParam(c, "Notification")
	if !ok {
		return
	}

	if err := services.NewNotificationService(config.GetDB()).MarkRead(user.ID, id); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to mark notification read")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Notification marked as read",
	})
}

// MarkAllNotificationsRead handles POST /api/v1/notifications/read-all
func MarkAllNotificationsRead(c *gin.Context) {
	user := requireUser(c)
	if user == nil {
		return
	}

	if err := services.NewNotificationService(config.GetDB()).MarkAllRead(user.ID); err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to mark notifications read")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "All notifications marked as read",
	})
}
