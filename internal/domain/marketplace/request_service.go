package marketplace

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"smartcity/internal/events"
	"smartcity/internal/pkg/pagination"
	"smartcity/internal/pkg/validator"
)

type CreateRequestInput struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"required"`
	Category    string     `json:"category" validate:"required,max=100"`
	Budget      *float64   `json:"budget" validate:"omitempty,gt=0"`
	Deadline    *time.Time `json:"deadline"`
}

type UpdateRequestInput struct {
	Title       *string        `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string        `json:"description" validate:"omitnil,min=1"`
	Category    *string        `json:"category" validate:"omitnil,min=1,max=100"`
	Budget      *float64       `json:"budget" validate:"omitempty,gt=0"`
	Deadline    *time.Time     `json:"deadline"`
	Status      *RequestStatus `json:"status"`
}

func (s *Service) CreateRequest(ctx context.Context, actor uuid.UUID, in CreateRequestInput) (*ServiceRequest, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = NormalizeCategory(in.Category)
	if err := validator.Check(in); err != nil {
		return nil, err
	}

	req := &ServiceRequest{
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		Budget:        in.Budget,
		Deadline:      in.Deadline,
		Status:        RequestOpen,
		RequestedByID: actor,
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, internal(err)
	}

	providers, err := s.store.ProvidersInCategory(ctx, req.Category, actor)
	if err != nil {
		return req, internal(err)
	}

	evts := make([]events.Event, 0, len(providers))
	for _, providerID := range providers {
		evts = append(evts, events.Event{
			Type:      events.NewServiceRequest,
			Recipient: providerID,
			ActorID:   actor,
			Subject:   req.Title,
			Data: map[string]any{
				"requestId": req.ID.String(),
				"category":  req.Category,
			},
		})
	}
	return req, s.emit(ctx, evts)
}

func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*ServiceRequest, error) {
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	counts, err := s.store.CountProposals(ctx, []uuid.UUID{req.ID})
	if err != nil {
		return nil, internal(err)
	}
	req.ProposalCount = counts[req.ID]
	return req, nil
}

func (s *Service) ListRequests(ctx context.Context, f RequestFilter, p pagination.Params) ([]ServiceRequest, int64, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	if f.Category != "" {
		f.Category = NormalizeCategory(f.Category)
	}

	items, total, err := s.store.ListRequests(ctx, f, p)
	if err != nil {
		return nil, 0, internal(err)
	}

	ids := make([]uuid.UUID, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}
	counts, err := s.store.CountProposals(ctx, ids)
	if err != nil {
		return nil, 0, internal(err)
	}
	for i := range items {
		items[i].ProposalCount = counts[items[i].ID]
	}
	return items, total, nil
}

// UpdateRequest edits an open or in-progress request. The only status change
// an owner may ask for directly is OPEN -> CANCELLED; in-progress work is
// stopped by cancelling its transaction.
func (s *Service) UpdateRequest(ctx context.Context, actor, id uuid.UUID, in UpdateRequestInput) (*ServiceRequest, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	in.Title = trimmed(in.Title)
	in.Description = trimmed(in.Description)
	in.Category = normalizedCategory(in.Category)
	if err := validator.Check(in); err != nil {
		return nil, err
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		if *in.Status != RequestCancelled {
			return nil, ErrCancelOnly
		}
	}

	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	if err := CanEditRequest(actor, req); err != nil {
		return nil, err
	}
	if req.Status == RequestCompleted || req.Status == RequestCancelled {
		return nil, ErrRequestClosed
	}

	if in.Title != nil {
		req.Title = *in.Title
	}
	if in.Description != nil {
		req.Description = *in.Description
	}
	if in.Category != nil {
		req.Category = *in.Category
	}
	if in.Budget != nil {
		req.Budget = in.Budget
	}
	if in.Deadline != nil {
		req.Deadline = in.Deadline
	}

	cancel := in.Status != nil
	if cancel && req.Status != RequestOpen {
		return nil, ErrCancelInProgress
	}

	err = s.uow.Commit(ctx,
		func(ctx context.Context, st Store) error {
			return st.UpdateRequestFields(ctx, req)
		},
		func(ctx context.Context, st Store) error {
			if !cancel {
				return nil
			}
			if err := req.TransitionTo(RequestCancelled); err != nil {
				return err
			}
			ok, err := st.SetRequestStatus(ctx, req.ID, RequestOpen, RequestCancelled)
			if err != nil {
				return err
			}
			if !ok {
				return ErrRequestNotOpen
			}
			return nil
		},
	)
	if err != nil {
		return nil, internal(err)
	}
	return s.GetRequest(ctx, id)
}

// DeleteRequest removes an open or cancelled request and its proposals, as long
// as no proposal on it ever turned into a transaction.
func (s *Service) DeleteRequest(ctx context.Context, actor, id uuid.UUID) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return internal(err)
	}
	if err := CanEditRequest(actor, req); err != nil {
		return err
	}
	if req.Status == RequestInProgress || req.Status == RequestCompleted {
		return ErrRequestInUse
	}

	err = s.uow.Commit(ctx, func(ctx context.Context, st Store) error {
		hasTx, err := st.RequestHasTransaction(ctx, id)
		if err != nil {
			return err
		}
		if hasTx {
			return ErrRequestInUse
		}
		return st.DeleteRequest(ctx, id)
	})
	return internal(err)
}
