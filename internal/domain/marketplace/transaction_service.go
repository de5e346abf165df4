package marketplace

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"smartcity/internal/events"
	"smartcity/internal/pkg/pagination"
	"smartcity/internal/pkg/validator"
)

// UpdateTransactionInput carries an optional status change and the rating
// fields of both parties. Only the caller's own rating fields are applied.
type UpdateTransactionInput struct {
	Status         *TransactionStatus `json:"status"`
	ClientRating   *int               `json:"clientRating"`
	ClientReview   *string            `json:"clientReview"`
	ProviderRating *int               `json:"providerRating"`
	ProviderReview *string            `json:"providerReview"`
}

type PayInput struct {
	TransactionID uuid.UUID `json:"transactionId" validate:"required"`
	PaymentMethod string    `json:"paymentMethod" validate:"required,max=50"`
}

const (
	RoleClient   = "client"
	RoleProvider = "provider"
)

func validRating(r *int) bool {
	return r == nil || (*r >= 1 && *r <= 5)
}

func (s *Service) GetTransaction(ctx context.Context, actor, id uuid.UUID) (*ServiceTransaction, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	if err := CanAccessTransaction(actor, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTransactions returns the actor's transactions, optionally narrowed to the
// side they are on.
func (s *Service) ListTransactions(ctx context.Context, actor uuid.UUID, role string, status TransactionStatus, p pagination.Params) ([]ServiceTransaction, int64, error) {
	if err := requireAuth(actor); err != nil {
		return nil, 0, err
	}
	if role != "" && role != RoleClient && role != RoleProvider {
		return nil, 0, ErrInvalidRole
	}
	if status != "" && !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}

	items, total, err := s.store.ListTransactions(ctx, TransactionFilter{Party: actor, Role: role, Status: status}, p)
	if err != nil {
		return nil, 0, internal(err)
	}
	return items, total, nil
}

// AdminListTransactions lists every transaction. Role checks happen in the
// router.
func (s *Service) AdminListTransactions(ctx context.Context, status TransactionStatus, p pagination.Params) ([]ServiceTransaction, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	items, total, err := s.store.ListTransactions(ctx, TransactionFilter{Status: status}, p)
	if err != nil {
		return nil, 0, internal(err)
	}
	return items, total, nil
}

// UpdateTransaction applies a status change and/or the caller's rating. The
// other party's rating fields are ignored; the caller's are validated before
// anything is written. Status changes cascade:
// COMPLETED completes the proposal and request, CANCELLED cancels the request.
func (s *Service) UpdateTransaction(ctx context.Context, actor, id uuid.UUID, in UpdateTransactionInput) (*ServiceTransaction, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	t, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	if err := CanAccessTransaction(actor, t); err != nil {
		return nil, err
	}
	if in.Status != nil {
		if err := CanSetTransactionStatus(actor, t, *in.Status); err != nil {
			return nil, err
		}
		if err := t.Status.CanTransitionTo(*in.Status); err != nil {
			return nil, err
		}
	}

	fields := map[string]any{}
	var rating *int
	if actor == t.ClientID {
		rating = in.ClientRating
		if in.ClientRating != nil {
			fields["client_rating"] = *in.ClientRating
		}
		if in.ClientReview != nil {
			fields["client_review"] = strings.TrimSpace(*in.ClientReview)
		}
	} else {
		rating = in.ProviderRating
		if in.ProviderRating != nil {
			fields["provider_rating"] = *in.ProviderRating
		}
		if in.ProviderReview != nil {
			fields["provider_review"] = strings.TrimSpace(*in.ProviderReview)
		}
	}
	if !validRating(rating) {
		return nil, ErrInvalidRating
	}
	if in.Status == nil && len(fields) == 0 {
		return nil, ErrNoChanges
	}

	from := t.Status
	next := from
	if in.Status != nil {
		next = *in.Status
		fields["status"] = next
		if next == TransactionCompleted {
			fields["completed_at"] = s.now()
		}
	}

	err = s.uow.Commit(ctx,
		func(ctx context.Context, st Store) error {
			locked, err := st.GetTransactionForUpdate(ctx, t.ID)
			if err != nil {
				return err
			}
			if locked.Status != from {
				return ErrTransactionChanged
			}
			ok, err := st.UpdateTransaction(ctx, t.ID, from, fields)
			if err != nil {
				return err
			}
			if !ok {
				return ErrTransactionChanged
			}
			return nil
		},
		func(ctx context.Context, st Store) error {
			if next == from {
				return nil
			}
			return cascadeTransactionStatus(ctx, st, t, next)
		},
	)
	if err != nil {
		return nil, internal(err)
	}

	updated, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, internal(err)
	}

	name := s.displayName(ctx, actor)
	subject := transactionSubject(updated)
	var evts []events.Event
	if next != from {
		evts = append(evts, transactionStatusEvent(updated, actor, name, subject))
	}
	if rating != nil {
		evts = append(evts, events.Event{
			Type:      events.NewReview,
			Recipient: updated.Counterparty(actor),
			ActorID:   actor,
			ActorName: name,
			Subject:   subject,
			Rating:    *rating,
			Data: map[string]any{
				"transactionId": updated.ID.String(),
				"reviewerId":    actor.String(),
				"rating":        *rating,
			},
		})
	}
	return updated, s.emit(ctx, evts)
}

// Pay records a simulated payment for a PENDING transaction and starts it.
func (s *Service) Pay(ctx context.Context, actor uuid.UUID, in PayInput) (*Payment, error) {
	if err := requireAuth(actor); err != nil {
		return nil, err
	}
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	if err := validator.Check(in); err != nil {
		return nil, err
	}

	t, err := s.store.GetTransaction(ctx, in.TransactionID)
	if err != nil {
		return nil, internal(err)
	}
	if err := CanPay(actor, t); err != nil {
		return nil, err
	}
	if t.Status != TransactionPending {
		return nil, ErrNotPayable
	}

	err = s.uow.Commit(ctx, func(ctx context.Context, st Store) error {
		ok, err := st.UpdateTransaction(ctx, t.ID, TransactionPending, map[string]any{"status": TransactionInProgress})
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotPayable
		}
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	t.Status = TransactionInProgress

	payment := &Payment{
		ID:            uuid.New(),
		TransactionID: t.ID,
		Amount:        t.Amount,
		PaymentMethod: in.PaymentMethod,
		Status:        "succeeded",
		CreatedAt:     s.now(),
	}
	evts := []events.Event{transactionStatusEvent(t, actor, s.displayName(ctx, actor), transactionSubject(t))}
	return payment, s.emit(ctx, evts)
}

func cascadeTransactionStatus(ctx context.Context, st Store, t *ServiceTransaction, next TransactionStatus) error {
	switch next {
	case TransactionCompleted:
		if _, err := st.SetProposalStatus(ctx, t.ProposalID, ProposalAccepted, ProposalCompleted); err != nil {
			return err
		}
		p, err := st.GetProposalForUpdate(ctx, t.ProposalID)
		if err != nil {
			return err
		}
		req, err := st.GetRequestForUpdate(ctx, p.RequestID)
		if err != nil {
			return err
		}
		return completeRequest(ctx, st, req)
	case TransactionCancelled:
		p, err := st.GetProposalForUpdate(ctx, t.ProposalID)
		if err != nil {
			return err
		}
		req, err := st.GetRequestForUpdate(ctx, p.RequestID)
		if err != nil {
			return err
		}
		if req.Status == RequestCompleted || req.Status == RequestCancelled {
			return nil
		}
		from := req.Status
		if err := req.TransitionTo(RequestCancelled); err != nil {
			return err
		}
		_, err = st.SetRequestStatus(ctx, req.ID, from, RequestCancelled)
		return err
	}
	return nil
}

func transactionSubject(t *ServiceTransaction) string {
	if t.Proposal != nil && t.Proposal.Request != nil {
		return t.Proposal.Request.Title
	}
	return ""
}

// transactionStatusEvent addresses a TRANSACTION_<STATUS> event to whoever did
// not make the change.
func transactionStatusEvent(t *ServiceTransaction, actor uuid.UUID, actorName, subject string) events.Event {
	return events.Event{
		Type:      events.TransactionStatus(string(t.Status)),
		Recipient: t.Counterparty(actor),
		ActorID:   actor,
		ActorName: actorName,
		Subject:   subject,
		Data: map[string]any{
			"transactionId": t.ID.String(),
			"status":        string(t.Status),
			"clientId":      t.ClientID.String(),
			"providerId":    t.ProviderID.String(),
		},
	}
}
