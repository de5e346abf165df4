package notification

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	notifications := protected.Group("/notifications")
	{
		notifications.GET("", h.GetNotifications)
		notifications.GET("/unread-count", h.GetUnreadCount)
		notifications.PUT("/mark-all-read", h.MarkAllRead)
		notifications.PUT("/:id", h.SetRead)
	}
}
