package notification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"smartcity/internal/events"
)

// Notification is one message in a user's inbox. Only IsRead ever changes
// after creation.
type Notification struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID      `json:"userId" gorm:"type:uuid;not null;index:idx_notifications_user_unread"`
	Type      events.Type    `json:"type" gorm:"type:varchar(64);not null"`
	Title     string         `json:"title" gorm:"size:255;not null"`
	Message   string         `json:"message" gorm:"type:text;not null"`
	Data      datatypes.JSON `json:"data,omitempty"`
	IsRead    bool           `json:"isRead" gorm:"not null;default:false;index:idx_notifications_user_unread"`
	CreatedAt time.Time      `json:"createdAt" gorm:"autoCreateTime;index"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// SetData encodes data as the JSON payload.
func (n *Notification) SetData(data map[string]any) error {
	if len(data) == 0 {
		n.Data = nil
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	n.Data = datatypes.JSON(b)
	return nil
}

// GetData decodes the JSON payload. A missing or malformed payload is empty.
func (n *Notification) GetData() map[string]any {
	out := map[string]any{}
	if len(n.Data) == 0 {
		return out
	}
	_ = json.Unmarshal(n.Data, &out)
	return out
}
