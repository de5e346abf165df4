package user

import "smartcity/internal/apperr"

var (
	ErrUserExists         = apperr.Conflict("User already exists")
	ErrUserNotFound       = apperr.NotFound("User not found")
	ErrInvalidCredentials = apperr.Unauthenticated("Invalid email or password")
)
