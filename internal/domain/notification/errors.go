package notification

import "smartcity/internal/apperr"

var (
	ErrAuthRequired         = apperr.Unauthenticated("Authentication required")
	ErrNotificationNotFound = apperr.NotFound("Notification not found")
	ErrNotOwner             = apperr.Forbidden("You do not have access to this notification")
)
