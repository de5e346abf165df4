package messaging

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"smartcity/internal/apperr"
	"smartcity/internal/database"
	"smartcity/internal/domain/user"
	"smartcity/internal/events"
	"smartcity/internal/pkg/pagination"
)

const maxMessageLength = 5000

// Directory resolves conversation counterparts.
type Directory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type Service struct {
	store  Store
	uow    database.UnitOfWork[Store]
	users  Directory
	events events.Dispatcher
	now    func() time.Time
}

func NewService(db *gorm.DB, users Directory, dispatcher events.Dispatcher) *Service {
	return &Service{
		store:  NewRepository(db),
		uow:    database.NewUnitOfWork(db, NewRepository),
		users:  users,
		events: dispatcher,
		now:    time.Now,
	}
}

func wrap(err error) error {
	if err == nil || apperr.KindOf(err) != apperr.KindInternal {
		return err
	}
	return apperr.Internal(err)
}

// GetOrCreateConversation returns the conversation between a and b, creating
// it if needed. Concurrent callers for the same pair end up with the same row.
func (s *Service) GetOrCreateConversation(ctx context.Context, a, b uuid.UUID) (*Conversation, error) {
	if a == uuid.Nil {
		return nil, ErrAuthRequired
	}
	if a == b {
		return nil, ErrSelfConversation
	}
	if _, err := s.users.GetByID(ctx, b); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal(err)
	}

	u1, u2 := orderedPair(a, b)
	existing, err := s.store.FindConversation(ctx, u1, u2)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if existing != nil {
		return existing, nil
	}

	c := &Conversation{User1ID: u1, User2ID: u2}
	err = s.store.CreateConversation(ctx, c)
	if errors.Is(err, ErrPairExists) {
		log.Printf("messaging: conversation created concurrently user1=%s user2=%s", u1, u2)
	} else if err != nil {
		return nil, apperr.Internal(err)
	}

	created, err := s.store.FindConversation(ctx, u1, u2)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if created == nil {
		return nil, ErrConversationNotFound
	}
	return created, nil
}

// SendMessage appends a message and bumps the conversation in one unit of
// work, then notifies the other participant.
func (s *Service) SendMessage(ctx context.Context, conversationID, sender uuid.UUID, content string) (*Message, error) {
	if sender == uuid.Nil {
		return nil, ErrAuthRequired
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, ErrMessageTooLong
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, wrap(err)
	}
	if !conv.HasParticipant(sender) {
		return nil, ErrNotParticipant
	}

	msg := &Message{
		Content:        content,
		SenderID:       sender,
		ConversationID: conv.ID,
		CreatedAt:      s.now(),
	}
	err = s.uow.Commit(ctx,
		func(ctx context.Context, st Store) error {
			return st.CreateMessage(ctx, msg)
		},
		func(ctx context.Context, st Store) error {
			return st.TouchConversation(ctx, conv.ID, msg.CreatedAt)
		},
	)
	if err != nil {
		return nil, wrap(err)
	}

	senderName := "Someone"
	if u, err := s.users.GetByID(ctx, sender); err == nil {
		senderName = u.Name
		msg.Sender = u
	}

	evts := []events.Event{{
		Type:      events.NewMessage,
		Recipient: conv.Other(sender),
		ActorID:   sender,
		ActorName: senderName,
		Data: map[string]any{
			"conversationId": conv.ID.String(),
			"messageId":      msg.ID.String(),
			"senderId":       sender.String(),
		},
	}}
	return msg, events.Emit(ctx, s.events, evts)
}

// OpenConversation marks the messages the viewer received as read and returns
// the whole thread oldest first.
func (s *Service) OpenConversation(ctx context.Context, conversationID, viewer uuid.UUID) (*Conversation, []Message, error) {
	if viewer == uuid.Nil {
		return nil, nil, ErrAuthRequired
	}
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, nil, wrap(err)
	}
	if !conv.HasParticipant(viewer) {
		return nil, nil, ErrNotParticipant
	}

	if _, err := s.store.MarkRead(ctx, conv.ID, viewer); err != nil {
		return nil, nil, apperr.Internal(err)
	}
	msgs, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, nil, apperr.Internal(err)
	}
	return conv, msgs, nil
}

// ListConversations returns the user's inbox, most recently active first.
func (s *Service) ListConversations(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]ConversationSummary, int64, error) {
	if userID == uuid.Nil {
		return nil, 0, ErrAuthRequired
	}
	convs, total, err := s.store.ListConversations(ctx, userID, p)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}

	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		last, err := s.store.LastMessage(ctx, c.ID)
		if err != nil {
			return nil, 0, apperr.Internal(err)
		}
		unread, err := s.store.CountUnread(ctx, c.ID, userID)
		if err != nil {
			return nil, 0, apperr.Internal(err)
		}

		other := c.User1
		if c.User1ID == userID {
			other = c.User2
		}
		out = append(out, ConversationSummary{
			Conversation: c,
			OtherUser:    other,
			LastMessage:  last,
			UnreadCount:  unread,
		})
	}
	return out, total, nil
}
