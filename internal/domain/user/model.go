package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleLearner Role = "learner"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         Role      `json:"role" gorm:"type:varchar(16);not null;default:learner;check:role IN ('learner','mentor','admin')"`
	Bio          string    `json:"bio,omitempty" gorm:"type:text"`
	Image        string    `json:"image,omitempty" gorm:"size:512"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ProviderStats summarises a provider's track record on the marketplace.
type ProviderStats struct {
	Rating            float64 `json:"rating"`
	CompletedServices int64   `json:"completedServices"`
}

// PublicProfile is what other users may see.
type PublicProfile struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	Role      Role          `json:"role"`
	Bio       string        `json:"bio,omitempty"`
	Image     string        `json:"image,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	Stats     ProviderStats `json:"stats"`
}
