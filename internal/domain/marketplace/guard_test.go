package marketplace

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"smartcity/internal/apperr"
)

func TestGuard(t *testing.T) {
	owner, provider, stranger := uuid.New(), uuid.New(), uuid.New()
	req := &ServiceRequest{ID: uuid.New(), RequestedByID: owner, Status: RequestOpen}
	prop := &ServiceProposal{ID: uuid.New(), RequestID: req.ID, ProviderID: provider, Status: ProposalPending}
	tx := &ServiceTransaction{ClientID: owner, ProviderID: provider, Status: TransactionPending}

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"anonymous submit", CanSubmitProposal(uuid.Nil, req, false), ErrAuthRequired},
		{"submit own request", CanSubmitProposal(owner, req, false), ErrOwnRequest},
		{"submit duplicate", CanSubmitProposal(provider, req, true), ErrDuplicateProposal},
		{"submit closed", CanSubmitProposal(provider, &ServiceRequest{RequestedByID: owner, Status: RequestInProgress}, false), ErrRequestNotOpen},
		{"submit ok", CanSubmitProposal(provider, req, false), nil},

		{"view as provider", CanViewProposal(provider, prop, req), nil},
		{"view as owner", CanViewProposal(owner, prop, req), nil},
		{"view as stranger", CanViewProposal(stranger, prop, req), ErrNotProposalParty},

		{"accept as owner", CanSetProposalStatus(owner, prop, req, ProposalAccepted), nil},
		{"accept as provider", CanSetProposalStatus(provider, prop, req, ProposalAccepted), ErrOwnerOnlyDecision},
		{"reject as provider", CanSetProposalStatus(provider, prop, req, ProposalRejected), ErrOwnerOnlyDecision},
		{"complete as owner", CanSetProposalStatus(owner, prop, req, ProposalCompleted), ErrProviderOnlyFinish},
		{"complete as provider", CanSetProposalStatus(provider, prop, req, ProposalCompleted), nil},
		{"status as stranger", CanSetProposalStatus(stranger, prop, req, ProposalAccepted), ErrNotProposalParty},

		{"delete pending", CanDeleteProposal(provider, prop, false), nil},
		{"delete by owner", CanDeleteProposal(owner, prop, false), ErrProviderOnlyDelete},
		{"delete accepted", CanDeleteProposal(provider, &ServiceProposal{ProviderID: provider, Status: ProposalAccepted}, false), ErrProposalAccepted},
		{"delete with transaction", CanDeleteProposal(provider, &ServiceProposal{ProviderID: provider, Status: ProposalRejected}, true), ErrProposalHasTx},

		{"edit request by owner", CanEditRequest(owner, req), nil},
		{"edit request by stranger", CanEditRequest(stranger, req), ErrNotRequestOwner},
		{"edit offering by stranger", CanEditOffering(stranger, &ServiceOffering{ProviderID: provider}), ErrNotOfferingOwner},

		{"view tx as stranger", CanAccessTransaction(stranger, tx), ErrNotTransactionParty},
		{"start tx as provider", CanSetTransactionStatus(provider, tx, TransactionInProgress), ErrClientOnlyStatus},
		{"complete tx as provider", CanSetTransactionStatus(provider, tx, TransactionCompleted), ErrClientOnlyStatus},
		{"cancel tx as provider", CanSetTransactionStatus(provider, tx, TransactionCancelled), nil},
		{"dispute tx as provider", CanSetTransactionStatus(provider, tx, TransactionDisputed), nil},
		{"pay as provider", CanPay(provider, tx), ErrClientOnlyPayment},
		{"pay as client", CanPay(owner, tx), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.want == nil {
				assert.NoError(t, tc.err)
				return
			}
			assert.ErrorIs(t, tc.err, tc.want)
		})
	}
}

func TestGuardKinds(t *testing.T) {
	owner := uuid.New()
	req := &ServiceRequest{RequestedByID: owner, Status: RequestOpen}

	assert.Equal(t, apperr.KindAuthenticationRequired, apperr.KindOf(CanEditRequest(uuid.Nil, req)))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(CanEditRequest(uuid.New(), req)))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(CanSubmitProposal(owner, req, false)))
}
