package marketplace

import (
	"fmt"
	"slices"

	"smartcity/internal/apperr"
)

type RequestStatus string

const (
	RequestOpen       RequestStatus = "OPEN"
	RequestInProgress RequestStatus = "IN_PROGRESS"
	RequestCompleted  RequestStatus = "COMPLETED"
	RequestCancelled  RequestStatus = "CANCELLED"
)

type ProposalStatus string

const (
	ProposalPending   ProposalStatus = "PENDING"
	ProposalAccepted  ProposalStatus = "ACCEPTED"
	ProposalRejected  ProposalStatus = "REJECTED"
	ProposalCompleted ProposalStatus = "COMPLETED"
)

type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "PENDING"
	TransactionInProgress TransactionStatus = "IN_PROGRESS"
	TransactionCompleted  TransactionStatus = "COMPLETED"
	TransactionCancelled  TransactionStatus = "CANCELLED"
	TransactionDisputed   TransactionStatus = "DISPUTED"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestOpen:       {RequestInProgress, RequestCancelled},
	RequestInProgress: {RequestCompleted, RequestCancelled},
}

var proposalTransitions = map[ProposalStatus][]ProposalStatus{
	ProposalPending:  {ProposalAccepted, ProposalRejected},
	ProposalAccepted: {ProposalCompleted},
}

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionPending:    {TransactionInProgress, TransactionCancelled},
	TransactionInProgress: {TransactionCompleted, TransactionCancelled, TransactionDisputed},
	TransactionDisputed:   {TransactionCompleted, TransactionCancelled},
}

// TransitionError rejects a status change the state table does not allow.
type TransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
}

func (e *TransitionError) ErrorKind() apperr.Kind {
	return apperr.KindConflict
}

func transition[S ~string](entity string, table map[S][]S, from, to S) error {
	if !slices.Contains(table[from], to) {
		return &TransitionError{Entity: entity, From: string(from), To: string(to)}
	}
	return nil
}

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestOpen, RequestInProgress, RequestCompleted, RequestCancelled:
		return true
	}
	return false
}

func (s ProposalStatus) Valid() bool {
	switch s {
	case ProposalPending, ProposalAccepted, ProposalRejected, ProposalCompleted:
		return true
	}
	return false
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionPending, TransactionInProgress, TransactionCompleted, TransactionCancelled, TransactionDisputed:
		return true
	}
	return false
}

// Terminal reports whether no further status change is possible.
func (s TransactionStatus) Terminal() bool {
	return len(transactionTransitions[s]) == 0
}

func (s RequestStatus) CanTransitionTo(next RequestStatus) error {
	return transition("service request", requestTransitions, s, next)
}

func (s ProposalStatus) CanTransitionTo(next ProposalStatus) error {
	return transition("proposal", proposalTransitions, s, next)
}

func (s TransactionStatus) CanTransitionTo(next TransactionStatus) error {
	return transition("transaction", transactionTransitions, s, next)
}

func (r *ServiceRequest) TransitionTo(next RequestStatus) error {
	if err := r.Status.CanTransitionTo(next); err != nil {
		return err
	}
	r.Status = next
	return nil
}

func (p *ServiceProposal) TransitionTo(next ProposalStatus) error {
	if err := p.Status.CanTransitionTo(next); err != nil {
		return err
	}
	p.Status = next
	return nil
}

func (t *ServiceTransaction) TransitionTo(next TransactionStatus) error {
	if err := t.Status.CanTransitionTo(next); err != nil {
		return err
	}
	t.Status = next
	return nil
}
