package messaging

import "github.com/gin-gonic/gin"

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	conversations := protected.Group("/conversations")
	{
		conversations.POST("", h.StartConversation)
		conversations.GET("", h.ListConversations)
		conversations.GET("/:id", h.OpenConversation)
	}
	protected.POST("/messages", h.SendMessage)
}
