package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/dmitrijs2005/viqi/internal/client/api"
	"github.com/dmitrijs2005/viqi/internal/client/flow"
	"github.com/dmitrijs2005/viqi/internal/client/models"
	"github.com/dmitrijs2005/viqi/internal/client/session"
	"github.com/dmitrijs2005/viqi/internal/common"
	"github.com/dmitrijs2005/viqi/internal/logging"
)

type PaymentsAPI interface {
	Plans(ctx context.Context) (*api.PlansResponse, error)
	Checkout(ctx context.Context, req api.CheckoutRequest) (*models.CheckoutSession, error)
	Verify(ctx context.Context, sessionID, customerEmail string) (*models.PaymentVerification, error)
}

// ReturnResult describes what HandleReturn did with a return URL.
type ReturnResult struct {
	SessionID string
	// Skipped is set when the URL had no session id or the id was already
	// handled.
	Skipped      bool
	Verification *models.PaymentVerification
	Reconcile    *ReconcileResult
}

// PaymentService covers the paywall: plans, starting a checkout, and the
// return from the payments provider.
//
// Contract:
//   - HandleReturn verifies each checkout session id at most once, fully
//     awaits verification, then reconciles with unlocking allowed (forced on
//     success). Results that stay masked lead to the paywall.
//   - Plans never fails: without an identity, or when the backend errors,
//     the built-in plans are returned.
type PaymentService interface {
	// HandleReturn expects rawURL to be the current location already; the
	// session id is stripped from it with Navigator.Replace.
	HandleReturn(ctx context.Context, rawURL string) (*ReturnResult, error)
	Plans(ctx context.Context) ([]models.Plan, error)
	StartCheckout(ctx context.Context, plan models.Plan, cycle models.BillingCycle) (*models.CheckoutSession, error)
}

type paymentService struct {
	store      *session.Store
	ids        IdentitySource
	api        PaymentsAPI
	reconciler Reconciler
	credits    CreditService
	nav        *flow.Navigator
	notify     Notifier
	log        logging.Logger
	appBaseURL string

	mu sync.Mutex
}

type PaymentDeps struct {
	Store      *session.Store
	Identity   IdentitySource
	API        PaymentsAPI
	Reconciler Reconciler
	Credits    CreditService
	Navigator  *flow.Navigator
	Notifier   Notifier
	Logger     logging.Logger
	AppBaseURL string
}

func NewPaymentService(d PaymentDeps) PaymentService {
	return &paymentService{
		store:      d.Store,
		ids:        d.Identity,
		api:        d.API,
		reconciler: d.Reconciler,
		credits:    d.Credits,
		nav:        d.Navigator,
		notify:     d.Notifier,
		log:        d.Logger,
		appBaseURL: strings.TrimRight(d.AppBaseURL, "/"),
	}
}

// claim records sid as the last handled checkout session and reports
// whether it was new. The record lives in the session store so separate
// runs share it.
func (s *paymentService) claim(ctx context.Context, sid string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, err := s.store.LastCheckoutSession(ctx)
	if err != nil {
		return false, fmt.Errorf("read last checkout session: %w", err)
	}
	if sid == last {
		return false, nil
	}
	if err := s.store.SetLastCheckoutSession(ctx, sid); err != nil {
		return false, fmt.Errorf("store last checkout session: %w", err)
	}
	return true, nil
}

func (s *paymentService) HandleReturn(ctx context.Context, rawURL string) (*ReturnResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse return url: %w", err)
	}
	sid := u.Query().Get(common.CheckoutSessionParam)
	if sid == "" {
		return &ReturnResult{Skipped: true}, nil
	}

	q := u.Query()
	q.Del(common.CheckoutSessionParam)
	u.RawQuery = q.Encode()
	s.nav.Replace(u.String())

	fresh, err := s.claim(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !fresh {
		s.log.Debug(ctx, "checkout session already handled", "session_id", sid)
		return &ReturnResult{SessionID: sid, Skipped: true}, nil
	}

	out := &ReturnResult{SessionID: sid}
	v, verr := s.api.Verify(ctx, sid, s.emailHint(ctx))
	force := false
	switch {
	case verr != nil:
		s.log.Error(ctx, "payment verification failed", "session_id", sid, "error", verr)
		s.notify.Notify(LevelError, "We could not confirm your payment yet. Showing what we have.")
	case !v.Success:
		out.Verification = v
		s.log.Warn(ctx, "payment not completed", "session_id", sid, "status", v.PaymentStatus, "message", v.Message)
		msg := "Payment was not completed."
		if v.Message != "" {
			msg = v.Message
		}
		s.notify.Notify(LevelWarn, msg)
	default:
		out.Verification = v
		force = true
		s.log.Info(ctx, "payment verified", "session_id", sid, "subscription", v.StripeSubscriptionID)
		s.notify.Notify(LevelSuccess, "Payment confirmed. Unlocking your matches.")
		if v.CreditSummary != nil {
			if err := s.credits.Apply(ctx, *v.CreditSummary, -1); err != nil {
				s.log.Warn(ctx, "failed to apply credit summary", "error", err)
			}
		}
	}

	res, err := s.reconciler.Reconcile(ctx, ReconcileOptions{ForceRefresh: force, Unlock: true})
	if errors.Is(err, api.ErrPaymentRequired) {
		s.notify.Notify(LevelInfo, "You are out of credits. Pick a plan to continue.")
		return out, s.nav.Go(flow.Paywall)
	}
	if err != nil {
		return out, err
	}
	out.Reconcile = res
	if !res.Revealed() {
		if res.PaymentRequired {
			s.notify.Notify(LevelInfo, paywallMessage(res))
		}
		return out, s.nav.Go(flow.Paywall)
	}
	return out, nil
}

func (s *paymentService) emailHint(ctx context.Context) string {
	if id, err := s.ids.GetIdentity(ctx); err == nil {
		return id.Email
	}
	c, err := s.store.CheckoutContext(ctx)
	if err != nil {
		s.log.Debug(ctx, "no checkout context", "error", err)
		return ""
	}
	return c.Email
}

func (s *paymentService) Plans(ctx context.Context) ([]models.Plan, error) {
	if _, err := s.ids.GetIdentity(ctx); errors.Is(err, common.ErrNoIdentity) {
		return models.MockPlans(), nil
	}
	resp, err := s.api.Plans(ctx)
	if err != nil {
		s.log.Warn(ctx, "plans fetch failed, using built-in plans", "error", err)
		return models.MockPlans(), nil
	}
	if len(resp.Plans) == 0 {
		return models.MockPlans(), nil
	}
	return resp.Plans, nil
}

func (s *paymentService) StartCheckout(ctx context.Context, plan models.Plan, cycle models.BillingCycle) (*models.CheckoutSession, error) {
	id, err := s.ids.GetIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if cycle != models.Annual {
		cycle = models.Monthly
	}

	if err := s.store.SetCheckoutContext(ctx, session.CheckoutContext{Email: id.Email, Plan: plan.Name}); err != nil {
		return nil, fmt.Errorf("store checkout context: %w", err)
	}

	revealRoute, _ := flow.Route(flow.Reveal)
	paywallRoute, _ := flow.Route(flow.Paywall)
	cs, err := s.api.Checkout(ctx, api.CheckoutRequest{
		PlanName:      plan.Name,
		BillingCycle:  cycle,
		SuccessURL:    s.appBaseURL + revealRoute + "?" + common.CheckoutSessionParam + "={CHECKOUT_SESSION_ID}",
		CancelURL:     s.appBaseURL + paywallRoute,
		CustomerEmail: id.Email,
		PriceID:       plan.PriceID(cycle),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "checkout started", "plan", plan.Name, "cycle", cycle, "session_id", cs.SessionID)
	return cs, nil
}
