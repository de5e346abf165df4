package marketplace

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"smartcity/internal/domain/user"
)

const featureSeparator = "|"

type ServiceRequest struct {
	ID            uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	Title         string        `json:"title" gorm:"size:255;not null"`
	Description   string        `json:"description" gorm:"type:text;not null"`
	Category      string        `json:"category" gorm:"size:100;not null;index"`
	Budget        *float64      `json:"budget,omitempty"`
	Deadline      *time.Time    `json:"deadline,omitempty"`
	Status        RequestStatus `json:"status" gorm:"type:varchar(16);not null;default:OPEN;index;check:status IN ('OPEN','IN_PROGRESS','COMPLETED','CANCELLED')"`
	RequestedByID uuid.UUID     `json:"requestedById" gorm:"type:uuid;not null;index"`
	CreatedAt     time.Time     `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time     `json:"updatedAt" gorm:"autoUpdateTime"`

	RequestedBy   *user.User `json:"requestedBy,omitempty" gorm:"foreignKey:RequestedByID;references:ID"`
	ProposalCount int64      `json:"proposalCount" gorm:"-"`
}

func (ServiceRequest) TableName() string {
	return "service_requests"
}

func (r *ServiceRequest) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type ServiceOffering struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title        string    `json:"title" gorm:"size:255;not null"`
	Description  string    `json:"description" gorm:"type:text;not null"`
	Category     string    `json:"category" gorm:"size:100;not null;index"`
	Price        float64   `json:"price" gorm:"not null;check:price > 0"`
	DeliveryTime string    `json:"deliveryTime" gorm:"size:100;not null"`
	Features     string    `json:"-" gorm:"type:text"`
	IsActive     bool      `json:"isActive" gorm:"not null;index"`
	ProviderID   uuid.UUID `json:"providerId" gorm:"type:uuid;not null;index"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	Provider      *user.User          `json:"provider,omitempty" gorm:"foreignKey:ProviderID;references:ID"`
	FeatureList   []string            `json:"features" gorm:"-"`
	ProviderStats *user.ProviderStats `json:"providerStats,omitempty" gorm:"-"`
}

func (ServiceOffering) TableName() string {
	return "service_offerings"
}

func (o *ServiceOffering) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (o *ServiceOffering) BeforeSave(_ *gorm.DB) error {
	o.Features = joinFeatures(o.FeatureList)
	return nil
}

func (o *ServiceOffering) AfterFind(_ *gorm.DB) error {
	o.FeatureList = splitFeatures(o.Features)
	return nil
}

func joinFeatures(features []string) string {
	cleaned := make([]string, 0, len(features))
	for _, f := range features {
		f = strings.TrimSpace(strings.ReplaceAll(f, featureSeparator, " "))
		if f != "" {
			cleaned = append(cleaned, f)
		}
	}
	return strings.Join(cleaned, featureSeparator)
}

func splitFeatures(stored string) []string {
	if stored == "" {
		return []string{}
	}
	return strings.Split(stored, featureSeparator)
}

type ServiceProposal struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Description  string         `json:"description" gorm:"type:text;not null"`
	Price        float64        `json:"price" gorm:"not null;check:price > 0"`
	DeliveryTime string         `json:"deliveryTime" gorm:"size:100;not null"`
	Status       ProposalStatus `json:"status" gorm:"type:varchar(16);not null;default:PENDING;index;check:status IN ('PENDING','ACCEPTED','REJECTED','COMPLETED')"`
	RequestID    uuid.UUID      `json:"requestId" gorm:"type:uuid;not null;uniqueIndex:idx_proposal_request_provider"`
	ProviderID   uuid.UUID      `json:"providerId" gorm:"type:uuid;not null;uniqueIndex:idx_proposal_request_provider;index"`
	CreatedAt    time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`

	Request       *ServiceRequest     `json:"request,omitempty" gorm:"foreignKey:RequestID;references:ID"`
	Provider      *user.User          `json:"provider,omitempty" gorm:"foreignKey:ProviderID;references:ID"`
	ProviderStats *user.ProviderStats `json:"providerStats,omitempty" gorm:"-"`
}

func (ServiceProposal) TableName() string {
	return "service_proposals"
}

func (p *ServiceProposal) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type ServiceTransaction struct {
	ID             uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	Amount         float64           `json:"amount" gorm:"not null"`
	Status         TransactionStatus `json:"status" gorm:"type:varchar(16);not null;default:PENDING;index;check:status IN ('PENDING','IN_PROGRESS','COMPLETED','CANCELLED','DISPUTED')"`
	ClientID       uuid.UUID         `json:"clientId" gorm:"type:uuid;not null;index"`
	ProviderID     uuid.UUID         `json:"providerId" gorm:"type:uuid;not null;index"`
	ProposalID     uuid.UUID         `json:"proposalId" gorm:"type:uuid;not null;uniqueIndex"`
	ClientRating   *int              `json:"clientRating,omitempty" gorm:"check:client_rating IS NULL OR (client_rating >= 1 AND client_rating <= 5)"`
	ClientReview   *string           `json:"clientReview,omitempty" gorm:"type:text"`
	ProviderRating *int              `json:"providerRating,omitempty" gorm:"check:provider_rating IS NULL OR (provider_rating >= 1 AND provider_rating <= 5)"`
	ProviderReview *string           `json:"providerReview,omitempty" gorm:"type:text"`
	CompletedAt    *time.Time        `json:"completedAt,omitempty"`
	CreatedAt      time.Time         `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `json:"updatedAt" gorm:"autoUpdateTime"`

	Proposal *ServiceProposal `json:"proposal,omitempty" gorm:"foreignKey:ProposalID;references:ID"`
	Client   *user.User       `json:"client,omitempty" gorm:"foreignKey:ClientID;references:ID"`
	Provider *user.User       `json:"provider,omitempty" gorm:"foreignKey:ProviderID;references:ID"`
}

func (ServiceTransaction) TableName() string {
	return "service_transactions"
}

func (t *ServiceTransaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Counterparty returns the other side of the engagement from actor.
func (t *ServiceTransaction) Counterparty(actor uuid.UUID) uuid.UUID {
	if actor == t.ClientID {
		return t.ProviderID
	}
	return t.ClientID
}

// Payment is the simulated payment record returned when a client pays.
type Payment struct {
	ID            uuid.UUID `json:"id"`
	TransactionID uuid.UUID `json:"transactionId"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Models lists every table this package owns, in migration order.
func Models() []any {
	return []any{&ServiceRequest{}, &ServiceOffering{}, &ServiceProposal{}, &ServiceTransaction{}}
}
