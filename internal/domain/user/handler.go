package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"smartcity/internal/middleware"
	"smartcity/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Register creates an account.
// @Summary		Register
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		body	body	RegisterInput	true	"payload"
// @Success		201	{object}	authResponse
// @Router		/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "Invalid request body")
		return
	}

	u, token, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, authResponse{User: u, Token: token})
}

// Login exchanges credentials for a token.
// @Summary		Login
// @Tags		Auth
// @Router		/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "Email and password are required")
		return
	}

	u, token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, authResponse{User: u, Token: token})
}

func (h *Handler) GetMe(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	u, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u})
}

func (h *Handler) UpdateMe(c *gin.Context) {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		response.FromError(c, err)
		return
	}

	var req UpdateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "Invalid request body")
		return
	}

	u, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": u})
}

// GetProfile returns another user's public profile with provider stats.
func (h *Handler) GetProfile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.FromError(c, ErrUserNotFound)
		return
	}

	profile, err := h.service.PublicProfile(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": profile})
}
