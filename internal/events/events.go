// Package events holds the effects workflows emit after their writes commit.
// Workflows return events; a Dispatcher turns them into side effects.
package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"smartcity/internal/apperr"
)

type Type string

const (
	NewProposal       Type = "NEW_PROPOSAL"
	ProposalAccepted  Type = "PROPOSAL_ACCEPTED"
	ProposalRejected  Type = "PROPOSAL_REJECTED"
	NewReview         Type = "NEW_REVIEW"
	NewMessage        Type = "NEW_MESSAGE"
	NewServiceRequest Type = "NEW_SERVICE_REQUEST"

	transactionPrefix = "TRANSACTION_"
)

// TransactionStatus is the event type for a transaction moving to status.
func TransactionStatus(status string) Type {
	return Type(transactionPrefix + status)
}

// IsTransaction reports whether t is a TRANSACTION_<STATUS> event.
func (t Type) IsTransaction() bool {
	return len(t) > len(transactionPrefix) && string(t[:len(transactionPrefix)]) == transactionPrefix
}

// TransactionStatusOf returns the status part of a TRANSACTION_<STATUS> type.
func (t Type) TransactionStatusOf() string {
	if !t.IsTransaction() {
		return ""
	}
	return string(t[len(transactionPrefix):])
}

// Event is one notification-worthy fact addressed to one recipient.
type Event struct {
	Type      Type
	Recipient uuid.UUID
	ActorID   uuid.UUID
	ActorName string
	// Subject is the title of the request the event concerns, if any.
	Subject string
	Rating  int
	Data    map[string]any
}

type Dispatcher interface {
	Dispatch(ctx context.Context, evts []Event) error
}

// Emit hands evts to d. A failed dispatch is reported as Internal; whatever
// the workflow already committed stays committed.
func Emit(ctx context.Context, d Dispatcher, evts []Event) error {
	if d == nil || len(evts) == 0 {
		return nil
	}
	if err := d.Dispatch(ctx, evts); err != nil {
		return apperr.Internal(fmt.Errorf("dispatch %d events: %w", len(evts), err))
	}
	return nil
}
