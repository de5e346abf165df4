package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"smartcity/internal/apperr"
	"smartcity/internal/pkg/jwt"
	"smartcity/internal/pkg/response"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// JWTAuth requires a valid "Authorization: Bearer <token>" header and puts the
// principal on the context under user_id and role.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authentication required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be a Bearer token")
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// UserID returns the authenticated principal, or "" when there is none.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// CurrentUser parses the principal. A missing or malformed id is reported as
// AuthenticationRequired.
func CurrentUser(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(UserID(c))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperr.Unauthenticated("Authentication required")
	}
	return id, nil
}

// OptionalJWTAuth sets the principal when a valid bearer token is present and
// lets the request through anonymously otherwise. Public listings use it to
// show owners their own hidden rows.
func OptionalJWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if claims, err := jwtService.ValidateToken(strings.TrimSpace(parts[1])); err == nil {
				c.Set(ContextUserID, claims.UserID)
				c.Set(ContextRole, claims.Role)
			}
		}
		c.Next()
	}
}

// OptionalUser returns the principal if one was authenticated, else uuid.Nil.
func OptionalUser(c *gin.Context) uuid.UUID {
	id, err := uuid.Parse(UserID(c))
	if err != nil {
		return uuid.Nil
	}
	return id
}
