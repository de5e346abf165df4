package marketplace

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcity/internal/apperr"
	"smartcity/internal/events"
)

type engagement struct {
	client, provider uuid.UUID
	request          *ServiceRequest
	proposal         *ServiceProposal
	tx               *ServiceTransaction
}

func (e *testEnv) engage(t *testing.T) engagement {
	t.Helper()
	ctx := context.Background()
	client := e.user(t, "Lindiwe")
	provider := e.user(t, "Bongani")
	req := e.request(t, client, "Fix leaking tap")
	p := e.propose(t, provider, req.ID, 100)
	_, err := e.svc.UpdateProposalStatus(ctx, client, p.ID, ProposalAccepted)
	require.NoError(t, err)

	var tx ServiceTransaction
	require.NoError(t, e.db.Where("proposal_id = ?", p.ID).First(&tx).Error)
	e.events.Reset()
	return engagement{client: client, provider: provider, request: req, proposal: p, tx: &tx}
}

func statusPtr(s TransactionStatus) *TransactionStatus { return &s }
func intPtr(i int) *int                                { return &i }
func strPtr(s string) *string                          { return &s }

func TestTransaction_StartThenComplete(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	eg := env.engage(t)

	started, err := env.svc.UpdateTransaction(ctx, eg.client, eg.tx.ID, UpdateTransactionInput{Status: statusPtr(TransactionInProgress)})
	require.NoError(t, err)
	assert.Equal(t, TransactionInProgress, started.Status)
	assert.Nil(t, started.CompletedAt)

	done, err := env.svc.UpdateTransaction(ctx, eg.client, eg.tx.ID, UpdateTransactionInput{Status: statusPtr(TransactionCompleted)})
	require.NoError(t, err)
	assert.Equal(t, TransactionCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	assert.Equal(t, ProposalCompleted, env.reloadProposal(t, eg.proposal.ID).Status)
	assert.Equal(t, RequestCompleted, env.reloadRequest(t, eg.request.ID).Status)

	evts := env.events.All()
	require.Len(t, evts, 2)
	assert.Equal(t, events.TransactionStatus("IN_PROGRESS"), evts[0].Type)
	assert.Equal(t, events.TransactionStatus("COMPLETED"), evts[1].Type)
	for _, e := range evts {
		assert.Equal(t, eg.provider, e.Recipient)
		assert.Equal(t, "Fix leaking tap", e.Subject)
	}

	_, err = env.svc.UpdateTransaction(ctx, eg.client, eg.tx.ID, UpdateTransactionInput{Status: statusPtr(TransactionCancelled)})
	var terr *TransitionError
	assert.ErrorAs(t, err, &terr, "completed transactions never regress")
}

func TestTransaction_ClientOnlyTransitions(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	eg := env.engage(t)

	_, err := env.svc.UpdateTransaction(ctx, eg.provider, eg.tx.ID, UpdateTransactionInput{Status: statusPtr(TransactionInProgress)})
	assert.ErrorIs(t, err, ErrClientOnlyStatus)

	_, err = env.svc.UpdateTransaction(ctx, uuid.New(), eg.tx.ID, UpdateTransactionInput{Status: statusPtr(TransactionCancelled)})
	assert.ErrorIs(t, err, ErrNotTransactionParty)

	_, err = env.svc.UpdateTransaction(ctx, eg.client, uuid.New(), UpdateTransactionInput{Status: statusPtr(TransactionCancelled)})
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	_, err = env.svc.UpdateTransaction(ctx, eg.client, eg.tx.ID, UpdateTransactionInput{Status: statusPtr("SHIPPED")})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = env.svc.UpdateTransaction(ctx, eg.client, eg.tx.ID, UpdateTransactionInput{Status: statusPtr(TransactionCompleted)})
	var terr *TransitionError
	assert.ErrorAs(t, err, &terr, "PENDING cannot jump to COMPLETED")

	assert.Equal(t, TransactionPending, env.reloadTransaction(t, eg.tx.ID).Status)
}

func TestTransaction_DisputeThenCancel(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	eg := env.engage(t)

	_, err := env.svc.UpdateTransaction(ctx, eg.client, eg.tx.ID, UpdateTransactionInput{Status: statusPtr(TransactionInProgress)})
	require.NoError(t, err)

	disputed, err := env.svc.UpdateTransaction(ctx, eg.provider, eg.tx.ID, UpdateTransactionInput{Status: statusPtr(TransactionDisputed)})
	require.NoError(t, err)
	assert.Equal(t, TransactionDisputed, disputed.Status)

	got := env.events.OfType(events.TransactionStatus("DISPUTED"))
	require.Len(t, got, 1)
	assert.Equal(t, eg.client, got[0].Recipient)

	_, err = env.svc.UpdateTransaction(ctx, eg.client, eg.tx.ID, UpdateTransactionInput{Status: statusPtr(TransactionCancelled)})
	require.NoError(t, err)
	assert.Equal(t, RequestCancelled, env.reloadRequest(t, eg.request.ID).Status)
	assert.Equal(t, ProposalAccepted, env.reloadProposal(t, eg.proposal.ID).Status)
}

func TestTransaction_Ratings(t *testing.T) {
	cases := []struct {
		name   string
		rating int
		ok     bool
	}{
		{"zero", 0, false},
		{"lower bound", 1, true},
		{"upper bound", 5, true},
		{"six", 6, false},
		{"negative", -1, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := setupTestService(t)
			ctx := context.Background()
			eg := env.engage(t)

			got, err := env.svc.UpdateTransaction(ctx, eg.client, eg.tx.ID, UpdateTransactionInput{
				ClientRating: intPtr(tc.rating),
				ClientReview: strPtr("Quick and tidy"),
			})
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalidRating)
				assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
				assert.Nil(t, env.reloadTransaction(t, eg.tx.ID).ClientRating)
				assert.Empty(t, env.events.All())
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got.ClientRating)
			assert.Equal(t, tc.rating, *got.ClientRating)
			assert.Equal(t, TransactionPending, got.Status, "ratings never change status")

			reviews := env.events.OfType(events.NewReview)
			require.Len(t, reviews, 1)
			assert.Equal(t, eg.provider, reviews[0].Recipient)
			assert.Equal(t, tc.rating, reviews[0].Rating)
		})
	}
}

func TestTransaction_RatingIndependence(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	eg := env.engage(t)

	// The provider may rate first; the client's fields in the same payload are ignored.
	got, err := env.svc.UpdateTransaction(ctx, eg.provider, eg.tx.ID, UpdateTransactionInput{
		ProviderRating: intPtr(4),
		ProviderReview: strPtr("Clear brief"),
		ClientRating:   intPtr(1),
	})
	require.NoError(t, err)
	require.NotNil(t, got.ProviderRating)
	assert.Equal(t, 4, *got.ProviderRating)
	assert.Nil(t, got.ClientRating)

	got, err = env.svc.UpdateTransaction(ctx, eg.client, eg.tx.ID, UpdateTransactionInput{ClientRating: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, *got.ClientRating)
	assert.Equal(t, 4, *got.ProviderRating)

	_, err = env.svc.UpdateTransaction(ctx, eg.client, eg.tx.ID, UpdateTransactionInput{ProviderRating: intPtr(3)})
	assert.ErrorIs(t, err, ErrNoChanges)

	got, err = env.svc.UpdateTransaction(ctx, eg.client, eg.tx.ID, UpdateTransactionInput{ClientRating: intPtr(4), ProviderRating: intPtr(9)})
	require.NoError(t, err, "the provider's field is ignored for the client")
	assert.Equal(t, 4, *got.ClientRating)
	assert.Equal(t, 4, *got.ProviderRating)

	_, err = env.svc.UpdateTransaction(ctx, eg.provider, eg.tx.ID, UpdateTransactionInput{ProviderRating: intPtr(0), ClientRating: intPtr(5)})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = env.svc.UpdateTransaction(ctx, eg.client, eg.tx.ID, UpdateTransactionInput{ClientRating: intPtr(5)})
	require.NoError(t, err)

	stats, err := env.svc.Store().ProviderStats(ctx, eg.provider)
	require.NoError(t, err)
	assert.Equal(t, 5.0, stats.Rating)
	assert.Zero(t, stats.CompletedServices)
}

func TestTransaction_RatingWithStatusChange(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	eg := env.engage(t)

	got, err := env.svc.UpdateTransaction(ctx, eg.client, eg.tx.ID, UpdateTransactionInput{
		Status:       statusPtr(TransactionInProgress),
		ClientRating: intPtr(3),
	})
	require.NoError(t, err)
	assert.Equal(t, TransactionInProgress, got.Status)

	evts := env.events.For(eg.provider)
	require.Len(t, evts, 2)
	assert.Equal(t, events.TransactionStatus("IN_PROGRESS"), evts[0].Type)
	assert.Equal(t, events.NewReview, evts[1].Type)
}

func TestPay(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	eg := env.engage(t)

	_, err := env.svc.Pay(ctx, eg.provider, PayInput{TransactionID: eg.tx.ID, PaymentMethod: "card"})
	assert.ErrorIs(t, err, ErrClientOnlyPayment)

	_, err = env.svc.Pay(ctx, eg.client, PayInput{TransactionID: eg.tx.ID})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	payment, err := env.svc.Pay(ctx, eg.client, PayInput{TransactionID: eg.tx.ID, PaymentMethod: "card"})
	require.NoError(t, err)
	assert.Equal(t, "succeeded", payment.Status)
	assert.Equal(t, 100.0, payment.Amount)
	assert.Equal(t, eg.tx.ID, payment.TransactionID)
	assert.Equal(t, TransactionInProgress, env.reloadTransaction(t, eg.tx.ID).Status)

	started := env.events.OfType(events.TransactionStatus("IN_PROGRESS"))
	require.Len(t, started, 1)
	assert.Equal(t, eg.provider, started[0].Recipient)

	_, err = env.svc.Pay(ctx, eg.client, PayInput{TransactionID: eg.tx.ID, PaymentMethod: "card"})
	assert.ErrorIs(t, err, ErrNotPayable)
}

func TestListTransactions(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	eg := env.engage(t)

	items, total, err := env.svc.ListTransactions(ctx, eg.client, RoleClient, "", pageOf(1, 10))
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.NotNil(t, items[0].Proposal)
	require.NotNil(t, items[0].Proposal.Request)
	assert.Equal(t, "Fix leaking tap", items[0].Proposal.Request.Title)

	_, total, err = env.svc.ListTransactions(ctx, eg.client, RoleProvider, "", pageOf(1, 10))
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = env.svc.ListTransactions(ctx, eg.provider, "", TransactionPending, pageOf(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, _, err = env.svc.ListTransactions(ctx, eg.provider, "broker", "", pageOf(1, 10))
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, total, err = env.svc.AdminListTransactions(ctx, "", pageOf(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
