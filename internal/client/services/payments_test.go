package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/viqi/internal/client/api"
	"github.com/dmitrijs2005/viqi/internal/client/flow"
	"github.com/dmitrijs2005/viqi/internal/client/models"
	"github.com/dmitrijs2005/viqi/internal/client/session"
	"github.com/dmitrijs2005/viqi/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPaymentsAPI struct {
	mock.Mock
}

func (m *mockPaymentsAPI) Plans(ctx context.Context) (*api.PlansResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*api.PlansResponse)
	return resp, args.Error(1)
}

func (m *mockPaymentsAPI) Checkout(ctx context.Context, req api.CheckoutRequest) (*models.CheckoutSession, error) {
	args := m.Called(ctx, req)
	cs, _ := args.Get(0).(*models.CheckoutSession)
	return cs, args.Error(1)
}

func (m *mockPaymentsAPI) Verify(ctx context.Context, sessionID, email string) (*models.PaymentVerification, error) {
	args := m.Called(ctx, sessionID, email)
	v, _ := args.Get(0).(*models.PaymentVerification)
	return v, args.Error(1)
}

type payFixture struct {
	svc    PaymentService
	api    *mockPaymentsAPI
	rec    *fakeReconciler
	ids    *fakeIdentity
	store  *session.Store
	nav    *flow.Navigator
	toasts *RecordingNotifier
}

func newPayFixture(t *testing.T) *payFixture {
	t.Helper()
	st, _ := newSession(t)
	f := &payFixture{
		api:    &mockPaymentsAPI{},
		rec:    &fakeReconciler{Result: &ReconcileResult{Matches: results(models.StatusRevealed, "a@netflix.com"), Outcome: OutcomeFetched}},
		ids:    &fakeIdentity{ID: ada},
		store:  st,
		nav:    newNavigator(),
		toasts: &RecordingNotifier{},
	}
	f.svc = f.newService(f.rec)
	return f
}

func (f *payFixture) newService(rec Reconciler) PaymentService {
	return NewPaymentService(PaymentDeps{
		Store:      f.store,
		Identity:   f.ids,
		API:        f.api,
		Reconciler: rec,
		Credits:    NewCreditService(f.store, &fakeSubscription{}, logging.Discard()),
		Navigator:  f.nav,
		Notifier:   f.toasts,
		Logger:     logging.Discard(),
		AppBaseURL: "http://viqi.local/",
	})
}

const returnURL = "http://viqi.local/reveal?session_id=cs_test_1&plan=pro"

func (f *payFixture) open(u string) {
	f.nav.Open(u)
}

func TestHandleReturn_SameSessionVerifiedOnce(t *testing.T) {
	f := newPayFixture(t)
	f.api.On("Verify", mock.Anything, "cs_test_1", "ada@studio.com").
		Return(&models.PaymentVerification{Success: true, SessionID: "cs_test_1"}, nil).Once()

	f.open(returnURL)
	first, err := f.svc.HandleReturn(context.Background(), returnURL)
	require.NoError(t, err)
	assert.False(t, first.Skipped)

	f.open(returnURL)
	second, err := f.svc.HandleReturn(context.Background(), returnURL)
	require.NoError(t, err)
	assert.True(t, second.Skipped)

	f.api.AssertNumberOfCalls(t, "Verify", 1)
	f.api.AssertExpectations(t)
	assert.Equal(t, 1, f.rec.Calls)
}

func TestHandleReturn_GuardSharedAcrossRuns(t *testing.T) {
	f := newPayFixture(t)
	f.api.On("Verify", mock.Anything, "cs_test_1", mock.Anything).
		Return(&models.PaymentVerification{Success: true}, nil).Once()

	f.open(returnURL)
	_, err := f.svc.HandleReturn(context.Background(), returnURL)
	require.NoError(t, err)

	// A later run starts with a fresh service over the same session store.
	again := f.newService(f.rec)
	f.open(returnURL)
	res, err := again.HandleReturn(context.Background(), returnURL)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	f.api.AssertNumberOfCalls(t, "Verify", 1)

	last, err := f.store.LastCheckoutSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", last)
}

func TestHandleReturn_SuccessForcesRefreshAndStripsID(t *testing.T) {
	f := newPayFixture(t)
	f.api.On("Verify", mock.Anything, "cs_test_1", "ada@studio.com").
		Return(&models.PaymentVerification{
			Success:       true,
			CreditSummary: &models.CreditSummary{IncludedCredits: 200, Remaining: 200},
		}, nil)

	f.open(returnURL)
	res, err := f.svc.HandleReturn(context.Background(), returnURL)
	require.NoError(t, err)

	assert.True(t, f.rec.LastOpts.ForceRefresh)
	assert.True(t, f.rec.LastOpts.Unlock)
	assert.Equal(t, "http://viqi.local/reveal?plan=pro", f.nav.URL())
	assert.Equal(t, flow.Reveal, f.nav.Current())
	assert.Equal(t, []Toast{{Level: LevelSuccess, Message: "Payment confirmed. Unlocking your matches."}}, f.toasts.Toasts())
	assert.Same(t, f.rec.Result, res.Reconcile)

	c, err := f.store.CreditSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, c.Remaining)
}

func TestHandleReturn_NotCompletedWarns(t *testing.T) {
	f := newPayFixture(t)
	f.api.On("Verify", mock.Anything, "cs_test_1", mock.Anything).
		Return(&models.PaymentVerification{Success: false, Message: "Payment not completed"}, nil)

	f.open(returnURL)
	_, err := f.svc.HandleReturn(context.Background(), returnURL)
	require.NoError(t, err)

	assert.False(t, f.rec.LastOpts.ForceRefresh)
	require.Len(t, f.toasts.Toasts(), 1)
	assert.Equal(t, LevelWarn, f.toasts.Toasts()[0].Level)
}

func TestHandleReturn_MaskedResultGoesToPaywall(t *testing.T) {
	f := newPayFixture(t)
	f.rec.Result = &ReconcileResult{Matches: results(models.StatusPreview, ""), Outcome: OutcomeFetched}
	f.api.On("Verify", mock.Anything, "cs_test_1", mock.Anything).
		Return(&models.PaymentVerification{Success: false}, nil)

	f.open(returnURL)
	res, err := f.svc.HandleReturn(context.Background(), returnURL)
	require.NoError(t, err)
	assert.Same(t, f.rec.Result, res.Reconcile)
	assert.Equal(t, flow.Paywall, f.nav.Current())
}

func TestHandleReturn_PaymentRequiredWithoutCacheGoesToPaywall(t *testing.T) {
	f := newPayFixture(t)
	f.rec.Result = nil
	f.rec.Err = &api.HTTPError{StatusCode: 402, Detail: "Insufficient credits"}
	f.api.On("Verify", mock.Anything, "cs_test_1", mock.Anything).Return(nil, api.ErrUnavailable)

	f.open(returnURL)
	res, err := f.svc.HandleReturn(context.Background(), returnURL)
	require.NoError(t, err)
	assert.Nil(t, res.Reconcile)
	assert.Equal(t, flow.Paywall, f.nav.Current())
	require.Len(t, f.toasts.Toasts(), 2)
	assert.Equal(t, Toast{Level: LevelInfo, Message: "You are out of credits. Pick a plan to continue."}, f.toasts.Toasts()[1])
}

// Verification fails and unlocking is refused: the cached preview from the
// earlier match is still shown, and the user lands on the paywall.
func TestHandleReturn_VerifyErrorShowsCachedPreviewInAccountMode(t *testing.T) {
	ctx := context.Background()
	f := newPayFixture(t)
	withQuery(t, f.store, colorist)

	fa := &fakeMatchingAPI{
		MatchResp: &api.MatchResponse{MatchID: 31, CreditCost: 3, Results: []api.PersonPreview{{
			ID: 5, Name: "Sarah", CompanyName: "N*****x", CompanyBlurred: true, EmailMasked: "s***h@n*****x.com",
		}}},
		RevealErr: &api.HTTPError{StatusCode: 402, Detail: "Insufficient credits"},
	}
	rec := NewReconciler(f.store, f.ids, NewAccountMatcher(fa, 4),
		NewCreditService(f.store, &fakeSubscription{}, logging.Discard()), logging.Discard())

	preview, err := rec.Reconcile(ctx, ReconcileOptions{})
	require.NoError(t, err)
	require.Equal(t, "31", preview.Matches.MatchID)

	f.api.On("Verify", mock.Anything, "cs_test_1", "ada@studio.com").Return(nil, api.ErrUnavailable)
	svc := f.newService(rec)

	f.open(returnURL)
	res, err := svc.HandleReturn(ctx, returnURL)
	require.NoError(t, err)

	require.NotNil(t, res.Reconcile)
	assert.True(t, res.Reconcile.PaymentRequired)
	assert.Equal(t, OutcomeDegraded, res.Reconcile.Outcome)
	assert.Equal(t, preview.Matches.Results, res.Reconcile.Matches.Results)
	assert.Equal(t, 1, fa.RevealCalls)
	assert.Equal(t, "31", fa.LastRevealID)
	assert.Equal(t, flow.Paywall, f.nav.Current())

	toasts := f.toasts.Toasts()
	require.Len(t, toasts, 2)
	assert.Equal(t, LevelError, toasts[0].Level)
	assert.Equal(t, Toast{Level: LevelInfo, Message: "You are out of credits. Pick a plan to continue."}, toasts[1])
}

func TestHandleReturn_VerifyErrorStillReconciles(t *testing.T) {
	f := newPayFixture(t)
	f.api.On("Verify", mock.Anything, "cs_test_1", mock.Anything).Return(nil, api.ErrUnavailable)

	f.open(returnURL)
	res, err := f.svc.HandleReturn(context.Background(), returnURL)
	require.NoError(t, err)

	assert.Nil(t, res.Verification)
	assert.Equal(t, 1, f.rec.Calls)
	assert.False(t, f.rec.LastOpts.ForceRefresh)
	assert.True(t, f.rec.LastOpts.Unlock)
	require.Len(t, f.toasts.Toasts(), 1)
	assert.Equal(t, LevelError, f.toasts.Toasts()[0].Level)
}

func TestHandleReturn_EmailHintFromCheckoutContext(t *testing.T) {
	f := newPayFixture(t)
	f.ids.ID = nil
	require.NoError(t, f.store.SetCheckoutContext(context.Background(), session.CheckoutContext{Email: "buyer@corp.com", Plan: "Pro"}))
	f.api.On("Verify", mock.Anything, "cs_test_1", "buyer@corp.com").
		Return(&models.PaymentVerification{Success: true}, nil)

	f.open(returnURL)
	_, err := f.svc.HandleReturn(context.Background(), returnURL)
	require.NoError(t, err)
	f.api.AssertExpectations(t)
}

func TestHandleReturn_NoSessionID(t *testing.T) {
	f := newPayFixture(t)
	res, err := f.svc.HandleReturn(context.Background(), "http://viqi.local/reveal")
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	f.api.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
	assert.Zero(t, f.rec.Calls)
}

func TestPlans_UnauthenticatedUsesBuiltIns(t *testing.T) {
	f := newPayFixture(t)
	f.ids.ID = nil

	plans, err := f.svc.Plans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.MockPlans(), plans)
	f.api.AssertNotCalled(t, "Plans", mock.Anything)
}

func TestPlans_FetchErrorUsesBuiltIns(t *testing.T) {
	f := newPayFixture(t)
	f.api.On("Plans", mock.Anything).Return(nil, api.ErrServer)

	plans, err := f.svc.Plans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Starter", plans[0].Name)
}

func TestPlans_FromBackend(t *testing.T) {
	f := newPayFixture(t)
	backend := []models.Plan{{Name: "Team", MonthlyPriceCents: 19900, Currency: "USD"}}
	f.api.On("Plans", mock.Anything).Return(&api.PlansResponse{Plans: backend}, nil)

	plans, err := f.svc.Plans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, backend, plans)
}

func TestStartCheckout(t *testing.T) {
	f := newPayFixture(t)
	pro := models.MockPlans()[1]
	pro.StripeAnnualPriceID = "price_pro_annual"

	f.api.On("Checkout", mock.Anything, api.CheckoutRequest{
		PlanName:      "Pro",
		BillingCycle:  models.Annual,
		SuccessURL:    "http://viqi.local/reveal?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     "http://viqi.local/paywall",
		CustomerEmail: "ada@studio.com",
		PriceID:       "price_pro_annual",
	}).Return(&models.CheckoutSession{CheckoutURL: "https://pay.example/cs_1", SessionID: "cs_1"}, nil)

	cs, err := f.svc.StartCheckout(context.Background(), pro, models.Annual)
	require.NoError(t, err)
	assert.Equal(t, "cs_1", cs.SessionID)

	cc, err := f.store.CheckoutContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.CheckoutContext{Email: "ada@studio.com", Plan: "Pro"}, cc)
}
