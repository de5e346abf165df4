package marketplace

import (
	"github.com/google/uuid"
)

// The guard functions decide allow/deny for one operation given the principal
// and the already-loaded entities. Callers report absent entities as NotFound
// before asking the guard.

func requireAuth(actor uuid.UUID) error {
	if actor == uuid.Nil {
		return ErrAuthRequired
	}
	return nil
}

func CanSubmitProposal(actor uuid.UUID, req *ServiceRequest, alreadyProposed bool) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	if req.RequestedByID == actor {
		return ErrOwnRequest
	}
	if req.Status != RequestOpen {
		return ErrRequestNotOpen
	}
	if alreadyProposed {
		return ErrDuplicateProposal
	}
	return nil
}

func CanViewProposal(actor uuid.UUID, p *ServiceProposal, req *ServiceRequest) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	if p.ProviderID != actor && req.RequestedByID != actor {
		return ErrNotProposalParty
	}
	return nil
}

func CanSetProposalStatus(actor uuid.UUID, p *ServiceProposal, req *ServiceRequest, next ProposalStatus) error {
	if err := CanViewProposal(actor, p, req); err != nil {
		return err
	}
	switch next {
	case ProposalAccepted, ProposalRejected:
		if req.RequestedByID != actor {
			return ErrOwnerOnlyDecision
		}
	case ProposalCompleted:
		if p.ProviderID != actor {
			return ErrProviderOnlyFinish
		}
	}
	return nil
}

func CanDeleteProposal(actor uuid.UUID, p *ServiceProposal, hasTransaction bool) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	if p.ProviderID != actor {
		return ErrProviderOnlyDelete
	}
	if p.Status == ProposalAccepted || p.Status == ProposalCompleted {
		return ErrProposalAccepted
	}
	if hasTransaction {
		return ErrProposalHasTx
	}
	return nil
}

func CanEditRequest(actor uuid.UUID, req *ServiceRequest) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	if req.RequestedByID != actor {
		return ErrNotRequestOwner
	}
	return nil
}

func CanEditOffering(actor uuid.UUID, o *ServiceOffering) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	if o.ProviderID != actor {
		return ErrNotOfferingOwner
	}
	return nil
}

func CanAccessTransaction(actor uuid.UUID, t *ServiceTransaction) error {
	if err := requireAuth(actor); err != nil {
		return err
	}
	if t.ClientID != actor && t.ProviderID != actor {
		return ErrNotTransactionParty
	}
	return nil
}

func CanSetTransactionStatus(actor uuid.UUID, t *ServiceTransaction, next TransactionStatus) error {
	if err := CanAccessTransaction(actor, t); err != nil {
		return err
	}
	if (next == TransactionInProgress || next == TransactionCompleted) && t.ClientID != actor {
		return ErrClientOnlyStatus
	}
	return nil
}

func CanPay(actor uuid.UUID, t *ServiceTransaction) error {
	if err := CanAccessTransaction(actor, t); err != nil {
		return err
	}
	if t.ClientID != actor {
		return ErrClientOnlyPayment
	}
	return nil
}
