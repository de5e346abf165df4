package messaging

import "smartcity/internal/apperr"

var (
	ErrAuthRequired         = apperr.Unauthenticated("Authentication required")
	ErrConversationNotFound = apperr.NotFound("Conversation not found")
	ErrUserNotFound         = apperr.NotFound("User not found")
	ErrNotParticipant       = apperr.Forbidden("You are not a participant in this conversation")
	ErrSelfConversation     = apperr.Validation("Cannot start a conversation with yourself")
	ErrEmptyMessage         = apperr.Validation("Message content is required")
	ErrMessageTooLong       = apperr.Validation("Message content is too long")
)
