package marketplace

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartcity/internal/database"
	"smartcity/internal/domain/user"
	"smartcity/internal/pkg/pagination"
)

type RequestFilter struct {
	Category string
	Status   RequestStatus
	UserID   uuid.UUID
	Search   string
}

type OfferingFilter struct {
	Category   string
	ProviderID uuid.UUID
	Search     string
	// IncludeInactive lists inactive offerings too. Only set for the provider's own listing.
	IncludeInactive bool
}

type ProposalFilter struct {
	RequestID  uuid.UUID
	ProviderID uuid.UUID
	Status     ProposalStatus
}

type TransactionFilter struct {
	// Party restricts to transactions the user is part of. Nil means all.
	Party  uuid.UUID
	Role   string
	Status TransactionStatus
}

// Store is the persistence surface of the marketplace. A Store bound to a
// transaction handle is what unit-of-work mutations receive.
type Store interface {
	CreateRequest(ctx context.Context, r *ServiceRequest) error
	GetRequest(ctx context.Context, id uuid.UUID) (*ServiceRequest, error)
	GetRequestForUpdate(ctx context.Context, id uuid.UUID) (*ServiceRequest, error)
	ListRequests(ctx context.Context, f RequestFilter, p pagination.Params) ([]ServiceRequest, int64, error)
	UpdateRequestFields(ctx context.Context, r *ServiceRequest) error
	SetRequestStatus(ctx context.Context, id uuid.UUID, from, to RequestStatus) (bool, error)
	DeleteRequest(ctx context.Context, id uuid.UUID) error
	CountProposals(ctx context.Context, requestIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	RequestHasTransaction(ctx context.Context, requestID uuid.UUID) (bool, error)

	CreateOffering(ctx context.Context, o *ServiceOffering) error
	GetOffering(ctx context.Context, id uuid.UUID) (*ServiceOffering, error)
	ListOfferings(ctx context.Context, f OfferingFilter, p pagination.Params) ([]ServiceOffering, int64, error)
	UpdateOffering(ctx context.Context, o *ServiceOffering) error
	DeleteOffering(ctx context.Context, id uuid.UUID) error
	ProvidersInCategory(ctx context.Context, category string, exclude uuid.UUID) ([]uuid.UUID, error)

	CreateProposal(ctx context.Context, p *ServiceProposal) error
	GetProposal(ctx context.Context, id uuid.UUID) (*ServiceProposal, error)
	GetProposalForUpdate(ctx context.Context, id uuid.UUID) (*ServiceProposal, error)
	HasProposal(ctx context.Context, requestID, providerID uuid.UUID) (bool, error)
	ListProposals(ctx context.Context, viewer uuid.UUID, f ProposalFilter, p pagination.Params) ([]ServiceProposal, int64, error)
	SetProposalStatus(ctx context.Context, id uuid.UUID, from, to ProposalStatus) (bool, error)
	PendingProposals(ctx context.Context, requestID, excludeID uuid.UUID) ([]ServiceProposal, error)
	RejectPendingProposals(ctx context.Context, requestID, excludeID uuid.UUID) (int64, error)
	DeleteProposal(ctx context.Context, id uuid.UUID) (bool, error)

	CreateTransaction(ctx context.Context, t *ServiceTransaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*ServiceTransaction, error)
	GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*ServiceTransaction, error)
	TransactionByProposal(ctx context.Context, proposalID uuid.UUID) (*ServiceTransaction, error)
	ListTransactions(ctx context.Context, f TransactionFilter, p pagination.Params) ([]ServiceTransaction, int64, error)
	UpdateTransaction(ctx context.Context, id uuid.UUID, from TransactionStatus, fields map[string]any) (bool, error)

	ProviderStats(ctx context.Context, providerID uuid.UUID) (user.ProviderStats, error)
	ProviderStatsFor(ctx context.Context, providerIDs []uuid.UUID) (map[uuid.UUID]user.ProviderStats, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Store {
	return &repository{db: db}
}

func first[T any](q *gorm.DB, notFound error) (*T, error) {
	var out T
	err := q.First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

func (r *repository) forUpdate(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

// requests

func (r *repository) CreateRequest(ctx context.Context, req *ServiceRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) GetRequest(ctx context.Context, id uuid.UUID) (*ServiceRequest, error) {
	return first[ServiceRequest](r.db.WithContext(ctx).Preload("RequestedBy").Where("id = ?", id), ErrRequestNotFound)
}

func (r *repository) GetRequestForUpdate(ctx context.Context, id uuid.UUID) (*ServiceRequest, error) {
	return first[ServiceRequest](r.forUpdate(ctx).Where("id = ?", id), ErrRequestNotFound)
}

func (r *repository) ListRequests(ctx context.Context, f RequestFilter, p pagination.Params) ([]ServiceRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&ServiceRequest{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UserID != uuid.Nil {
		q = q.Where("requested_by_id = ?", f.UserID)
	}
	if strings.TrimSpace(f.Search) != "" {
		pattern := likePattern(f.Search)
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []ServiceRequest
	err := q.Preload("RequestedBy").
		Order("created_at DESC").
		Limit(p.Limit).Offset(p.Offset()).
		Find(&items).Error
	return items, total, err
}

func (r *repository) UpdateRequestFields(ctx context.Context, req *ServiceRequest) error {
	return r.db.WithContext(ctx).Model(req).
		Select("title", "description", "category", "budget", "deadline", "updated_at").
		Updates(req).Error
}

func (r *repository) SetRequestStatus(ctx context.Context, id uuid.UUID, from, to RequestStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&ServiceRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("request_id = ?", id).Delete(&ServiceProposal{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&ServiceRequest{}).Error
}

func (r *repository) CountProposals(ctx context.Context, requestIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(requestIDs))
	if len(requestIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		RequestID uuid.UUID
		Total     int64
	}
	err := r.db.WithContext(ctx).Model(&ServiceProposal{}).
		Select("request_id, COUNT(*) AS total").
		Where("request_id IN ?", requestIDs).
		Group("request_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.RequestID] = row.Total
	}
	return counts, nil
}

func (r *repository) RequestHasTransaction(ctx context.Context, requestID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ServiceTransaction{}).
		Joins("JOIN service_proposals ON service_proposals.id = service_transactions.proposal_id").
		Where("service_proposals.request_id = ?", requestID).
		Count(&count).Error
	return count > 0, err
}

// offerings

func (r *repository) CreateOffering(ctx context.Context, o *ServiceOffering) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *repository) GetOffering(ctx context.Context, id uuid.UUID) (*ServiceOffering, error) {
	return first[ServiceOffering](r.db.WithContext(ctx).Preload("Provider").Where("id = ?", id), ErrOfferingNotFound)
}

func (r *repository) ListOfferings(ctx context.Context, f OfferingFilter, p pagination.Params) ([]ServiceOffering, int64, error) {
	q := r.db.WithContext(ctx).Model(&ServiceOffering{})
	if !f.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.ProviderID != uuid.Nil {
		q = q.Where("provider_id = ?", f.ProviderID)
	}
	if strings.TrimSpace(f.Search) != "" {
		pattern := likePattern(f.Search)
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []ServiceOffering
	err := q.Preload("Provider").
		Order("created_at DESC").
		Limit(p.Limit).Offset(p.Offset()).
		Find(&items).Error
	return items, total, err
}

func (r *repository) UpdateOffering(ctx context.Context, o *ServiceOffering) error {
	return r.db.WithContext(ctx).Model(o).
		Select("title", "description", "category", "price", "delivery_time", "features", "is_active", "updated_at").
		Updates(o).Error
}

func (r *repository) DeleteOffering(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&ServiceOffering{}).Error
}

func (r *repository) ProvidersInCategory(ctx context.Context, category string, exclude uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&ServiceOffering{}).
		Distinct("provider_id").
		Where("category = ? AND is_active = ? AND provider_id <> ?", category, true, exclude).
		Pluck("provider_id", &ids).Error
	return ids, err
}

// proposals

func (r *repository) CreateProposal(ctx context.Context, p *ServiceProposal) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if database.IsUniqueViolation(err) {
		return ErrDuplicateProposal
	}
	return err
}

func (r *repository) GetProposal(ctx context.Context, id uuid.UUID) (*ServiceProposal, error) {
	return first[ServiceProposal](r.db.WithContext(ctx).Preload("Request").Preload("Provider").Where("id = ?", id), ErrProposalNotFound)
}

func (r *repository) GetProposalForUpdate(ctx context.Context, id uuid.UUID) (*ServiceProposal, error) {
	return first[ServiceProposal](r.forUpdate(ctx).Where("id = ?", id), ErrProposalNotFound)
}

func (r *repository) HasProposal(ctx context.Context, requestID, providerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&ServiceProposal{}).
		Where("request_id = ? AND provider_id = ?", requestID, providerID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListProposals(ctx context.Context, viewer uuid.UUID, f ProposalFilter, p pagination.Params) ([]ServiceProposal, int64, error) {
	q := r.db.WithContext(ctx).Model(&ServiceProposal{}).
		Joins("JOIN service_requests ON service_requests.id = service_proposals.request_id").
		Where("(service_proposals.provider_id = ? OR service_requests.requested_by_id = ?)", viewer, viewer)
	if f.RequestID != uuid.Nil {
		q = q.Where("service_proposals.request_id = ?", f.RequestID)
	}
	if f.ProviderID != uuid.Nil {
		q = q.Where("service_proposals.provider_id = ?", f.ProviderID)
	}
	if f.Status != "" {
		q = q.Where("service_proposals.status = ?", f.Status)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []ServiceProposal
	err := q.Select("service_proposals.*").
		Preload("Request").Preload("Provider").
		Order("service_proposals.created_at DESC").
		Limit(p.Limit).Offset(p.Offset()).
		Find(&items).Error
	return items, total, err
}

func (r *repository) SetProposalStatus(ctx context.Context, id uuid.UUID, from, to ProposalStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&ServiceProposal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	return res.RowsAffected == 1, res.Error
}

func (r *repository) PendingProposals(ctx context.Context, requestID, excludeID uuid.UUID) ([]ServiceProposal, error) {
	var items []ServiceProposal
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND id <> ? AND status = ?", requestID, excludeID, ProposalPending).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) RejectPendingProposals(ctx context.Context, requestID, excludeID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&ServiceProposal{}).
		Where("request_id = ? AND id <> ? AND status = ?", requestID, excludeID, ProposalPending).
		Updates(map[string]any{"status": ProposalRejected, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

// DeleteProposal removes the proposal only while it is still deletable.
func (r *repository) DeleteProposal(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status IN ?", id, []ProposalStatus{ProposalPending, ProposalRejected}).
		Where("NOT EXISTS (SELECT 1 FROM service_transactions WHERE service_transactions.proposal_id = service_proposals.id)").
		Delete(&ServiceProposal{})
	return res.RowsAffected == 1, res.Error
}

// transactions

func (r *repository) CreateTransaction(ctx context.Context, t *ServiceTransaction) error {
	err := r.db.WithContext(ctx).Create(t).Error
	if database.IsUniqueViolation(err) {
		return ErrTransactionExists
	}
	return err
}

func (r *repository) preloadTransaction(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Proposal").
		Preload("Proposal.Request").
		Preload("Client").
		Preload("Provider")
}

func (r *repository) GetTransaction(ctx context.Context, id uuid.UUID) (*ServiceTransaction, error) {
	return first[ServiceTransaction](r.preloadTransaction(ctx).Where("id = ?", id), ErrTransactionNotFound)
}

func (r *repository) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*ServiceTransaction, error) {
	return first[ServiceTransaction](r.forUpdate(ctx).Where("id = ?", id), ErrTransactionNotFound)
}

// TransactionByProposal returns nil, nil when the proposal has no transaction.
func (r *repository) TransactionByProposal(ctx context.Context, proposalID uuid.UUID) (*ServiceTransaction, error) {
	t, err := first[ServiceTransaction](r.db.WithContext(ctx).Where("proposal_id = ?", proposalID), ErrTransactionNotFound)
	if errors.Is(err, ErrTransactionNotFound) {
		return nil, nil
	}
	return t, err
}

func (r *repository) ListTransactions(ctx context.Context, f TransactionFilter, p pagination.Params) ([]ServiceTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&ServiceTransaction{})
	if f.Party != uuid.Nil {
		switch f.Role {
		case "client":
			q = q.Where("client_id = ?", f.Party)
		case "provider":
			q = q.Where("provider_id = ?", f.Party)
		default:
			q = q.Where("(client_id = ? OR provider_id = ?)", f.Party, f.Party)
		}
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []ServiceTransaction
	err := q.Preload("Proposal").Preload("Proposal.Request").Preload("Client").Preload("Provider").
		Order("created_at DESC").
		Limit(p.Limit).Offset(p.Offset()).
		Find(&items).Error
	return items, total, err
}

// UpdateTransaction applies fields only while the row still has status from.
func (r *repository) UpdateTransaction(ctx context.Context, id uuid.UUID, from TransactionStatus, fields map[string]any) (bool, error) {
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&ServiceTransaction{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return res.RowsAffected == 1, res.Error
}

// stats

type providerStatsRow struct {
	ProviderID uuid.UUID
	AvgRating  *float64
	Completed  int64
}

func (r *repository) ProviderStats(ctx context.Context, providerID uuid.UUID) (user.ProviderStats, error) {
	stats, err := r.ProviderStatsFor(ctx, []uuid.UUID{providerID})
	if err != nil {
		return user.ProviderStats{}, err
	}
	return stats[providerID], nil
}

func (r *repository) ProviderStatsFor(ctx context.Context, providerIDs []uuid.UUID) (map[uuid.UUID]user.ProviderStats, error) {
	out := make(map[uuid.UUID]user.ProviderStats, len(providerIDs))
	if len(providerIDs) == 0 {
		return out, nil
	}

	var rows []providerStatsRow
	err := r.db.WithContext(ctx).Model(&ServiceTransaction{}).
		Select("provider_id, AVG(client_rating) AS avg_rating, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS completed", TransactionCompleted).
		Where("provider_id IN ?", providerIDs).
		Group("provider_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		stats := user.ProviderStats{CompletedServices: row.Completed}
		if row.AvgRating != nil {
			stats.Rating = math.Round(*row.AvgRating*10) / 10
		}
		out[row.ProviderID] = stats
	}
	return out, nil
}
