package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"smartcity/internal/database"
	"smartcity/internal/pkg/pagination"
)

// ErrPairExists is returned by CreateConversation when the pair already has a
// conversation.
var ErrPairExists = errors.New("conversation already exists for pair")

type Store interface {
	CreateConversation(ctx context.Context, c *Conversation) error
	GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error)
	FindConversation(ctx context.Context, user1, user2 uuid.UUID) (*Conversation, error)
	ListConversations(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]Conversation, int64, error)
	TouchConversation(ctx context.Context, id uuid.UUID, at time.Time) error

	CreateMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]Message, error)
	LastMessage(ctx context.Context, conversationID uuid.UUID) (*Message, error)
	CountUnread(ctx context.Context, conversationID, viewer uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, conversationID, viewer uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Store {
	return &repository{db: db}
}

func (r *repository) CreateConversation(ctx context.Context, c *Conversation) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if database.IsUniqueViolation(err) {
		return ErrPairExists
	}
	return err
}

func (r *repository) GetConversation(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	var c Conversation
	err := r.db.WithContext(ctx).Preload("User1").Preload("User2").Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindConversation returns nil, nil when the ordered pair has no conversation.
func (r *repository) FindConversation(ctx context.Context, user1, user2 uuid.UUID) (*Conversation, error) {
	var c Conversation
	err := r.db.WithContext(ctx).Preload("User1").Preload("User2").
		Where("user1_id = ? AND user2_id = ?", user1, user2).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListConversations(ctx context.Context, userID uuid.UUID, p pagination.Params) ([]Conversation, int64, error) {
	q := r.db.WithContext(ctx).Model(&Conversation{}).
		Where("(user1_id = ? OR user2_id = ?)", userID, userID).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []Conversation
	err := q.Preload("User1").Preload("User2").
		Order("updated_at DESC").
		Limit(p.Limit).Offset(p.Offset()).
		Find(&items).Error
	return items, total, err
}

func (r *repository) TouchConversation(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&Conversation{}).
		Where("id = ?", id).
		Update("updated_at", at).Error
}

func (r *repository) CreateMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *repository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]Message, error) {
	var msgs []Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *repository) LastMessage(ctx context.Context, conversationID uuid.UUID) (*Message, error) {
	var m Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) CountUnread(ctx context.Context, conversationID, viewer uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, viewer, false).
		Count(&count).Error
	return count, err
}

// MarkRead flags every message in the conversation not sent by viewer as read.
func (r *repository) MarkRead(ctx context.Context, conversationID, viewer uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, viewer, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
