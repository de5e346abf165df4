package marketplace

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"smartcity/internal/domain/user"
	"smartcity/internal/pkg/pagination"
	"smartcity/internal/pkg/validator"
)

type CreateOfferingInput struct {
	Title        string   `json:"title" validate:"required,max=255"`
	Description  string   `json:"description" validate:"required"`
	Category     string   `json:"category" validate:"required,max=100"`
	Price        float64  `json:"price" validate:"gt=0"`
	DeliveryTime string   `json:"deliveryTime" validate:"required,max=100"`
	Features     []string `json:"features" validate:"max=20,dive,max=200"`
}

type UpdateOfferingInput struct {
	Title        *string   `json:"title" validate:"omitnil,min=1,max=255"`
	Description  *string   `json:"description" validate:"omitnil,min=1"`
	Category     *string   `json:"category" validate:"omitnil,min=1,max=100"`
	Price        *float64  `json:"price" validate:"omitempty,gt=0"`
	DeliveryTime *string   `json:"deliveryTime" validate:"omitnil,min=1,max=100"`
	Features     *[]string `json:"features" validate:"omitempty,max=20"`
	IsActive     *bool     `json:"isActive"`
}

func (s *Service) CreateOffering(ctx context.Context, actor uuid.UUID, in CreateOfferingInput) (*ServiceOffering, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = NormalizeCategory(in.Category)
	in.DeliveryTime = strings.TrimSpace(in.DeliveryTime)
	if err := validator.Check(in); err != nil {
		return nil, err
	}

	o := &ServiceOffering{
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		Price:        in.Price,
		DeliveryTime: in.DeliveryTime,
		FeatureList:  in.Features,
		IsActive:     true,
		ProviderID:   actor,
	}
	if err := s.store.CreateOffering(ctx, o); err != nil {
		return nil, internal(err)
	}
	o.FeatureList = splitFeatures(o.Features)
	return o, nil
}

// GetOffering returns an offering with provider stats. Inactive offerings are
// only visible to their provider.
func (s *Service) GetOffering(ctx context.Context, viewer, id uuid.UUID) (*ServiceOffering, error) {
	o, err := s.store.GetOffering(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	if !o.IsActive && o.ProviderID != viewer {
		return nil, ErrOfferingNotFound
	}

	stats, err := s.store.ProviderStats(ctx, o.ProviderID)
	if err != nil {
		return nil, internal(err)
	}
	o.ProviderStats = &stats
	return o, nil
}

func (s *Service) ListOfferings(ctx context.Context, viewer uuid.UUID, f OfferingFilter, p pagination.Params) ([]ServiceOffering, int64, error) {
	if f.Category != "" {
		f.Category = NormalizeCategory(f.Category)
	}
	f.IncludeInactive = viewer != uuid.Nil && f.ProviderID == viewer

	items, total, err := s.store.ListOfferings(ctx, f, p)
	if err != nil {
		return nil, 0, internal(err)
	}

	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ProviderID
	}
	err = s.attachStats(ctx, ids, func(stats map[uuid.UUID]user.ProviderStats) {
		for i := range items {
			items[i].ProviderStats = ptrStats(stats, items[i].ProviderID)
		}
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *Service) UpdateOffering(ctx context.Context, actor, id uuid.UUID, in UpdateOfferingInput) (*ServiceOffering, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	in.Title = trimmed(in.Title)
	in.Description = trimmed(in.Description)
	in.Category = normalizedCategory(in.Category)
	in.DeliveryTime = trimmed(in.DeliveryTime)
	if err := validator.Check(in); err != nil {
		return nil, err
	}

	o, err := s.store.GetOffering(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	if err := CanEditOffering(actor, o); err != nil {
		return nil, err
	}

	if in.Title != nil {
		o.Title = *in.Title
	}
	if in.Description != nil {
		o.Description = *in.Description
	}
	if in.Category != nil {
		o.Category = *in.Category
	}
	if in.Price != nil {
		o.Price = *in.Price
	}
	if in.DeliveryTime != nil {
		o.DeliveryTime = *in.DeliveryTime
	}
	if in.Features != nil {
		o.FeatureList = *in.Features
	}
	if in.IsActive != nil {
		o.IsActive = *in.IsActive
	}

	if err := s.store.UpdateOffering(ctx, o); err != nil {
		return nil, internal(err)
	}
	o.FeatureList = splitFeatures(o.Features)
	return o, nil
}

func (s *Service) DeleteOffering(ctx context.Context, actor, id uuid.UUID) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	o, err := s.store.GetOffering(ctx, id)
	if err != nil {
		return internal(err)
	}
	if err := CanEditOffering(actor, o); err != nil {
		return err
	}
	return internal(s.store.DeleteOffering(ctx, id))
}
