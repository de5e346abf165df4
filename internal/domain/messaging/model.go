package messaging

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"smartcity/internal/domain/user"
)

// Conversation is a thread between exactly two users. The pair is stored
// ordered so (a, b) and (b, a) map to the same row.
type Conversation struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	User1ID   uuid.UUID `json:"user1Id" gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair"`
	User2ID   uuid.UUID `json:"user2Id" gorm:"type:uuid;not null;uniqueIndex:idx_conversation_pair;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"index"`

	User1 *user.User `json:"user1,omitempty" gorm:"foreignKey:User1ID;references:ID"`
	User2 *user.User `json:"user2,omitempty" gorm:"foreignKey:User2ID;references:ID"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (c *Conversation) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	return nil
}

func (c *Conversation) HasParticipant(id uuid.UUID) bool {
	return c.User1ID == id || c.User2ID == id
}

// Other returns the participant that is not id.
func (c *Conversation) Other(id uuid.UUID) uuid.UUID {
	if c.User1ID == id {
		return c.User2ID
	}
	return c.User1ID
}

type Message struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	SenderID       uuid.UUID `json:"senderId" gorm:"type:uuid;not null;index"`
	ConversationID uuid.UUID `json:"conversationId" gorm:"type:uuid;not null;index"`
	IsRead         bool      `json:"isRead" gorm:"not null;default:false"`
	CreatedAt      time.Time `json:"createdAt" gorm:"autoCreateTime;index"`

	Sender *user.User `json:"sender,omitempty" gorm:"foreignKey:SenderID;references:ID"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// ConversationSummary is one row of a user's inbox.
type ConversationSummary struct {
	Conversation
	OtherUser   *user.User `json:"otherUser,omitempty"`
	LastMessage *Message   `json:"lastMessage,omitempty"`
	UnreadCount int64      `json:"unreadCount"`
}

func Models() []any {
	return []any{&Conversation{}, &Message{}}
}

// orderedPair returns a and b with the smaller uuid first.
func orderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}
