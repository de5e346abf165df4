package marketplace

import "smartcity/internal/apperr"

var (
	ErrAuthRequired = apperr.Unauthenticated("Authentication required")

	ErrRequestNotFound     = apperr.NotFound("Service request not found")
	ErrOfferingNotFound    = apperr.NotFound("Service offering not found")
	ErrProposalNotFound    = apperr.NotFound("Proposal not found")
	ErrTransactionNotFound = apperr.NotFound("Transaction not found")

	ErrInvalidStatus = apperr.Validation("Invalid status")
	ErrInvalidRating = apperr.Validation("Rating must be between 1 and 5")
	ErrNoChanges     = apperr.Validation("No changes supplied")
	ErrCancelOnly    = apperr.Validation("A request can only be moved to CANCELLED directly")
	ErrInvalidRole   = apperr.Validation("Role must be client or provider")

	ErrRequestNotOpen     = apperr.Conflict("This request is no longer accepting proposals")
	ErrOwnRequest         = apperr.Conflict("You cannot submit a proposal to your own request")
	ErrDuplicateProposal  = apperr.Conflict("You have already submitted a proposal for this request")
	ErrProposalAccepted   = apperr.Conflict("Cannot delete an accepted or completed proposal")
	ErrProposalHasTx      = apperr.Conflict("Cannot delete a proposal with a linked transaction")
	ErrProposalChanged    = apperr.Conflict("The proposal was modified by another request, reload and try again")
	ErrTransactionExists  = apperr.Conflict("A transaction already exists for this proposal")
	ErrNoTransaction      = apperr.Conflict("Cannot complete a proposal without a transaction")
	ErrTransactionChanged = apperr.Conflict("The transaction was modified by another request, reload and try again")
	ErrNotPayable         = apperr.Conflict("Transaction is not awaiting payment")
	ErrRequestClosed      = apperr.Conflict("Closed requests cannot be edited")
	ErrRequestInUse       = apperr.Conflict("Requests with an accepted proposal cannot be deleted")
	ErrCancelInProgress   = apperr.Conflict("Cancel the transaction to stop work on an in-progress request")

	ErrNotProposalParty    = apperr.Forbidden("You do not have access to this proposal")
	ErrOwnerOnlyDecision   = apperr.Forbidden("Only the request owner can accept or reject proposals")
	ErrProviderOnlyFinish  = apperr.Forbidden("Only the provider can mark a proposal as completed")
	ErrProviderOnlyDelete  = apperr.Forbidden("Only the provider can delete this proposal")
	ErrNotRequestOwner     = apperr.Forbidden("Only the owner can modify this service request")
	ErrNotOfferingOwner    = apperr.Forbidden("Only the owner can modify this service offering")
	ErrNotTransactionParty = apperr.Forbidden("You do not have access to this transaction")
	ErrClientOnlyStatus    = apperr.Forbidden("Only the client can start or complete a transaction")
	ErrClientOnlyPayment   = apperr.Forbidden("Only the client can pay for this transaction")
)
