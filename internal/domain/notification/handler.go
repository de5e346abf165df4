package notification

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"smartcity/internal/middleware"
	"smartcity/internal/pkg/pagination"
	"smartcity/internal/pkg/response"
)

const defaultPageSize = 20

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type listResponse struct {
	pagination.Page[Notification]
	UnreadCount int64 `json:"unreadCount"`
}

type readRequest struct {
	IsRead *bool `json:"isRead" binding:"required"`
}

// GetNotifications godoc
// @Summary		List notifications
// @Description	Newest first. unreadCount covers every unread notification, not just the page.
// @Tags		Notifications
// @Security	BearerAuth
// @Param		page		query	int		false	"Page"
// @Param		limit		query	int		false	"Page size (default 20, max 100)"
// @Param		unreadOnly	query	bool	false	"Only unread"
// @Success		200	{object}	listResponse
// @Failure		401	{object}	map[string]interface{}
// @Router		/notifications [get]
func (h *Handler) GetNotifications(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	p := pagination.FromQuery(c, defaultPageSize)
	unreadOnly, _ := strconv.ParseBool(c.Query("unreadOnly"))

	items, total, unread, err := h.service.List(c.Request.Context(), userID, unreadOnly, p)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, listResponse{
		Page:        pagination.NewPage(items, p, total),
		UnreadCount: unread,
	})
}

// GetUnreadCount godoc
// @Summary		Unread notification count
// @Tags		Notifications
// @Security	BearerAuth
// @Success		200	{object}	map[string]interface{}
// @Router		/notifications/unread-count [get]
func (h *Handler) GetUnreadCount(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	n, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unreadCount": n})
}

// SetRead godoc
// @Summary		Mark one notification read or unread
// @Tags		Notifications
// @Security	BearerAuth
// @Param		id		path	string		true	"Notification ID"
// @Param		body	body	readRequest	true	"Read flag"
// @Success		200	{object}	map[string]interface{}
// @Failure		403	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/notifications/{id} [put]
func (h *Handler) SetRead(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.FromError(c, ErrNotificationNotFound)
		return
	}
	var req readRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "isRead is required")
		return
	}

	n, err := h.service.SetRead(c.Request.Context(), userID, id, *req.IsRead)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"notification": n})
}

// MarkAllRead godoc
// @Summary		Mark every notification read
// @Tags		Notifications
// @Security	BearerAuth
// @Success		200	{object}	map[string]interface{}
// @Router		/notifications/mark-all-read [put]
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if _, err := h.service.MarkAllRead(c.Request.Context(), userID); err != nil {
		response.FromError(c, err)
		return
	}
	response.Message(c, "All notifications marked as read")
}
