package messaging

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"smartcity/internal/middleware"
	"smartcity/internal/pkg/pagination"
	"smartcity/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type startConversationRequest struct {
	UserID uuid.UUID `json:"userId" binding:"required"`
}

type sendMessageRequest struct {
	ConversationID uuid.UUID `json:"conversationId" binding:"required"`
	Content        string    `json:"content" binding:"required"`
}

// StartConversation godoc
// @Summary Get or create the conversation with another user
// @Tags Messaging
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body startConversationRequest true "Counterpart"
// @Router /conversations [post]
func (h *Handler) StartConversation(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "userId is required")
		return
	}

	conv, err := h.service.GetOrCreateConversation(c.Request.Context(), userID, req.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"conversation": conv})
}

// ListConversations godoc
// @Summary List my conversations
// @Tags Messaging
// @Security BearerAuth
// @Router /conversations [get]
func (h *Handler) ListConversations(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	p := pagination.FromQuery(c, 20)

	items, total, err := h.service.ListConversations(c.Request.Context(), userID, p)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Paginated(c, items, p, total)
}

// OpenConversation godoc
// @Summary Read a conversation and mark received messages read
// @Tags Messaging
// @Security BearerAuth
// @Param id path string true "Conversation ID"
// @Router /conversations/{id} [get]
func (h *Handler) OpenConversation(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.FromError(c, ErrConversationNotFound)
		return
	}

	conv, msgs, err := h.service.OpenConversation(c.Request.Context(), id, userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if msgs == nil {
		msgs = []Message{}
	}
	response.Success(c, http.StatusOK, gin.H{"conversation": conv, "messages": msgs})
}

// SendMessage godoc
// @Summary Send a message
// @Tags Messaging
// @Security BearerAuth
// @Param body body sendMessageRequest true "Message"
// @Router /messages [post]
func (h *Handler) SendMessage(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "conversationId and content are required")
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), req.ConversationID, userID, req.Content)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": msg})
}
