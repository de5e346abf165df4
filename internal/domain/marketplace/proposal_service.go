package marketplace

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"smartcity/internal/domain/user"
	"smartcity/internal/events"
	"smartcity/internal/pkg/pagination"
	"smartcity/internal/pkg/validator"
)

type SubmitProposalInput struct {
	RequestID    uuid.UUID `json:"requestId" validate:"required"`
	Description  string    `json:"description" validate:"required"`
	Price        float64   `json:"price" validate:"gt=0"`
	DeliveryTime string    `json:"deliveryTime" validate:"required,max=100"`
}

// AcceptResult is what accepting a proposal produced.
type AcceptResult struct {
	Proposal    *ServiceProposal
	Transaction *ServiceTransaction
	Rejected    []ServiceProposal
}

func (s *Service) SubmitProposal(ctx context.Context, actor uuid.UUID, in SubmitProposalInput) (*ServiceProposal, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	in.Description = strings.TrimSpace(in.Description)
	in.DeliveryTime = strings.TrimSpace(in.DeliveryTime)
	if err := validator.Check(in); err != nil {
		return nil, err
	}

	req, err := s.store.GetRequest(ctx, in.RequestID)
	if err != nil {
		return nil, internal(err)
	}
	exists, err := s.store.HasProposal(ctx, req.ID, actor)
	if err != nil {
		return nil, internal(err)
	}
	if err := CanSubmitProposal(actor, req, exists); err != nil {
		return nil, err
	}

	p := &ServiceProposal{
		Description:  in.Description,
		Price:        in.Price,
		DeliveryTime: in.DeliveryTime,
		Status:       ProposalPending,
		RequestID:    req.ID,
		ProviderID:   actor,
	}
	if err := s.store.CreateProposal(ctx, p); err != nil {
		return nil, internal(err)
	}

	created, err := s.store.GetProposal(ctx, p.ID)
	if err != nil {
		return nil, internal(err)
	}

	evts := []events.Event{{
		Type:      events.NewProposal,
		Recipient: req.RequestedByID,
		ActorID:   actor,
		ActorName: s.displayName(ctx, actor),
		Subject:   req.Title,
		Data: map[string]any{
			"requestId":  req.ID.String(),
			"proposalId": p.ID.String(),
			"providerId": actor.String(),
		},
	}}
	return created, s.emit(ctx, evts)
}

func (s *Service) GetProposal(ctx context.Context, actor, id uuid.UUID) (*ServiceProposal, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	p, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	if err := CanViewProposal(actor, p, p.Request); err != nil {
		return nil, err
	}

	stats, err := s.store.ProviderStats(ctx, p.ProviderID)
	if err != nil {
		return nil, internal(err)
	}
	p.ProviderStats = &stats
	return p, nil
}

// ListProposals only ever returns proposals the actor submitted or received.
func (s *Service) ListProposals(ctx context.Context, actor uuid.UUID, f ProposalFilter, p pagination.Params) ([]ServiceProposal, int64, error) {
	if err := requireAuth(actor); err != nil {
		return nil, 0, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, ErrInvalidStatus
	}

	items, total, err := s.store.ListProposals(ctx, actor, f, p)
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

// UpdateProposalStatus validates the status, runs the guard and dispatches to
// the matching workflow.
func (s *Service) UpdateProposalStatus(ctx context.Context, actor, id uuid.UUID, status ProposalStatus) (*ServiceProposal, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	p, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	if err := CanSetProposalStatus(actor, p, p.Request, status); err != nil {
		return nil, err
	}

	switch status {
	case ProposalAccepted:
		res, err := s.AcceptProposal(ctx, actor, p)
		if res == nil {
			return nil, err
		}
		return res.Proposal, err
	case ProposalRejected:
		return s.RejectProposal(ctx, actor, p)
	case ProposalCompleted:
		return s.CompleteProposal(ctx, actor, p)
	default:
		return nil, p.Status.CanTransitionTo(status)
	}
}

// AcceptProposal accepts p as one unit of work: the proposal becomes ACCEPTED,
// a PENDING transaction is created for its price, the request moves to
// IN_PROGRESS and every other PENDING proposal on the request is rejected.
// Request and proposal status are re-read inside the unit of work so only one
// acceptance per request can win.
func (s *Service) AcceptProposal(ctx context.Context, actor uuid.UUID, p *ServiceProposal) (*AcceptResult, error) {
	if err := p.Status.CanTransitionTo(ProposalAccepted); err != nil {
		return nil, err
	}

	var (
		req      *ServiceRequest
		tx       *ServiceTransaction
		rejected []ServiceProposal
	)
	err := s.uow.Commit(ctx,
		func(ctx context.Context, st Store) error {
			var err error
			req, err = st.GetRequestForUpdate(ctx, p.RequestID)
			if err != nil {
				return err
			}
			if req.Status != RequestOpen {
				return ErrRequestNotOpen
			}
			return nil
		},
		func(ctx context.Context, st Store) error {
			cur, err := st.GetProposalForUpdate(ctx, p.ID)
			if err != nil {
				return err
			}
			if err := cur.TransitionTo(ProposalAccepted); err != nil {
				return err
			}
			ok, err := st.SetProposalStatus(ctx, cur.ID, ProposalPending, ProposalAccepted)
			if err != nil {
				return err
			}
			if !ok {
				return ErrProposalChanged
			}
			p.Price = cur.Price
			return nil
		},
		func(ctx context.Context, st Store) error {
			tx = &ServiceTransaction{
				Amount:     p.Price,
				Status:     TransactionPending,
				ClientID:   req.RequestedByID,
				ProviderID: p.ProviderID,
				ProposalID: p.ID,
			}
			return st.CreateTransaction(ctx, tx)
		},
		func(ctx context.Context, st Store) error {
			if err := req.TransitionTo(RequestInProgress); err != nil {
				return err
			}
			ok, err := st.SetRequestStatus(ctx, req.ID, RequestOpen, RequestInProgress)
			if err != nil {
				return err
			}
			if !ok {
				return ErrRequestNotOpen
			}
			return nil
		},
		func(ctx context.Context, st Store) error {
			var err error
			rejected, err = st.PendingProposals(ctx, req.ID, p.ID)
			if err != nil {
				return err
			}
			_, err = st.RejectPendingProposals(ctx, req.ID, p.ID)
			return err
		},
	)
	if err != nil {
		return nil, internal(err)
	}

	accepted, err := s.store.GetProposal(ctx, p.ID)
	if err != nil {
		return nil, internal(err)
	}
	for i := range rejected {
		rejected[i].Status = ProposalRejected
	}
	res := &AcceptResult{Proposal: accepted, Transaction: tx, Rejected: rejected}

	clientName := s.displayName(ctx, actor)
	evts := []events.Event{{
		Type:      events.ProposalAccepted,
		Recipient: p.ProviderID,
		ActorID:   actor,
		ActorName: clientName,
		Subject:   req.Title,
		Data: map[string]any{
			"requestId":     req.ID.String(),
			"proposalId":    p.ID.String(),
			"clientId":      actor.String(),
			"transactionId": tx.ID.String(),
		},
	}}
	for _, r := range rejected {
		evts = append(evts, events.Event{
			Type:      events.ProposalRejected,
			Recipient: r.ProviderID,
			ActorID:   actor,
			ActorName: clientName,
			Subject:   req.Title,
			Data: map[string]any{
				"requestId":  req.ID.String(),
				"proposalId": r.ID.String(),
				"clientId":   actor.String(),
			},
		})
	}
	return res, s.emit(ctx, evts)
}

func (s *Service) RejectProposal(ctx context.Context, actor uuid.UUID, p *ServiceProposal) (*ServiceProposal, error) {
	if err := p.Status.CanTransitionTo(ProposalRejected); err != nil {
		return nil, err
	}

	err := s.uow.Commit(ctx, func(ctx context.Context, st Store) error {
		ok, err := st.SetProposalStatus(ctx, p.ID, ProposalPending, ProposalRejected)
		if err != nil {
			return err
		}
		if !ok {
			return ErrProposalChanged
		}
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}

	updated, err := s.store.GetProposal(ctx, p.ID)
	if err != nil {
		return nil, internal(err)
	}

	subject := ""
	if updated.Request != nil {
		subject = updated.Request.Title
	}
	evts := []events.Event{{
		Type:      events.ProposalRejected,
		Recipient: p.ProviderID,
		ActorID:   actor,
		ActorName: s.displayName(ctx, actor),
		Subject:   subject,
		Data: map[string]any{
			"requestId":  p.RequestID.String(),
			"proposalId": p.ID.String(),
			"clientId":   actor.String(),
		},
	}}
	return updated, s.emit(ctx, evts)
}

// CompleteProposal is the provider closing the engagement: the proposal becomes
// COMPLETED, its transaction COMPLETED with completedAt stamped, and the
// request COMPLETED.
func (s *Service) CompleteProposal(ctx context.Context, actor uuid.UUID, p *ServiceProposal) (*ServiceProposal, error) {
	if err := p.Status.CanTransitionTo(ProposalCompleted); err != nil {
		return nil, err
	}

	var (
		tx  *ServiceTransaction
		req *ServiceRequest
	)
	now := s.now()
	err := s.uow.Commit(ctx,
		func(ctx context.Context, st Store) error {
			var err error
			tx, err = st.TransactionByProposal(ctx, p.ID)
			if err != nil {
				return err
			}
			if tx == nil {
				return ErrNoTransaction
			}
			if tx.Status.Terminal() {
				return &TransitionError{Entity: "transaction", From: string(tx.Status), To: string(TransactionCompleted)}
			}
			return nil
		},
		func(ctx context.Context, st Store) error {
			ok, err := st.SetProposalStatus(ctx, p.ID, ProposalAccepted, ProposalCompleted)
			if err != nil {
				return err
			}
			if !ok {
				return ErrProposalChanged
			}
			return nil
		},
		func(ctx context.Context, st Store) error {
			from := tx.Status
			ok, err := st.UpdateTransaction(ctx, tx.ID, from, map[string]any{
				"status":       TransactionCompleted,
				"completed_at": now,
			})
			if err != nil {
				return err
			}
			if !ok {
				return ErrTransactionChanged
			}
			tx.Status = TransactionCompleted
			tx.CompletedAt = &now
			return nil
		},
		func(ctx context.Context, st Store) error {
			var err error
			req, err = st.GetRequestForUpdate(ctx, p.RequestID)
			if err != nil {
				return err
			}
			return completeRequest(ctx, st, req)
		},
	)
	if err != nil {
		return nil, internal(err)
	}

	updated, err := s.store.GetProposal(ctx, p.ID)
	if err != nil {
		return nil, internal(err)
	}

	evts := []events.Event{transactionStatusEvent(tx, actor, s.displayName(ctx, actor), req.Title)}
	return updated, s.emit(ctx, evts)
}

func (s *Service) DeleteProposal(ctx context.Context, actor, id uuid.UUID) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	p, err := s.store.GetProposal(ctx, id)
	if err != nil {
		return internal(err)
	}
	tx, err := s.store.TransactionByProposal(ctx, id)
	if err != nil {
		return internal(err)
	}
	if err := CanDeleteProposal(actor, p, tx != nil); err != nil {
		return err
	}

	err = s.uow.Commit(ctx, func(ctx context.Context, st Store) error {
		ok, err := st.DeleteProposal(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return ErrProposalChanged
		}
		return nil
	})
	return internal(err)
}

// completeRequest moves an in-progress request to COMPLETED. A request that is
// already COMPLETED is left alone.
func completeRequest(ctx context.Context, st Store, req *ServiceRequest) error {
	if req.Status == RequestCompleted {
		return nil
	}
	from := req.Status
	if err := req.TransitionTo(RequestCompleted); err != nil {
		return err
	}
	ok, err := st.SetRequestStatus(ctx, req.ID, from, RequestCompleted)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRequestNotOpen
	}
	return nil
}
