package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/viqi/internal/client/api"
	"github.com/dmitrijs2005/viqi/internal/client/flow"
	"github.com/dmitrijs2005/viqi/internal/client/session"
	"github.com/dmitrijs2005/viqi/internal/common"
	"github.com/dmitrijs2005/viqi/internal/logging"
)

// Funnel moves the user through the steps. It persists state before it
// navigates, and turns reconciliation failures into a redirect plus a
// notification.
type Funnel struct {
	store      *session.Store
	ids        IdentitySource
	reconciler Reconciler
	nav        *flow.Navigator
	notify     Notifier
	log        logging.Logger
}

func NewFunnel(store *session.Store, ids IdentitySource, rec Reconciler, nav *flow.Navigator, notify Notifier, log logging.Logger) *Funnel {
	return &Funnel{store: store, ids: ids, reconciler: rec, nav: nav, notify: notify, log: log}
}

// SubmitQuery stores a new query, drops results of the previous one, and
// moves to sign-in or processing depending on whether anyone is signed in.
func (f *Funnel) SubmitQuery(ctx context.Context, query string) (flow.Step, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return f.nav.Current(), common.ErrEmptyQuery
	}
	if err := f.store.SetQuery(ctx, query); err != nil {
		return f.nav.Current(), fmt.Errorf("store query: %w", err)
	}
	if err := f.store.ClearMatchResults(ctx); err != nil {
		return f.nav.Current(), fmt.Errorf("clear results: %w", err)
	}

	next := flow.Processing
	if _, err := f.ids.GetIdentity(ctx); err != nil {
		next = flow.SSOOptional
	}
	return next, f.nav.Go(next)
}

// Process reconciles results for the processing step and navigates to
// preview or reveal. Failures that redirect (missing query, no identity,
// expired session, no credits) or that were shown as a notification return
// a nil result and a nil error. Processing never spends credits; unlocking
// is left to Reveal.
func (f *Funnel) Process(ctx context.Context, opts ReconcileOptions) (*ReconcileResult, error) {
	opts.Unlock = false
	res, err := f.reconciler.Reconcile(ctx, opts)
	if err != nil {
		return nil, f.redirect(ctx, err)
	}
	if res.Warning != "" {
		f.notify.Notify(LevelWarn, res.Warning)
	}
	next := flow.Preview
	if res.Revealed() {
		next = flow.Reveal
	}
	return res, f.nav.Go(next)
}

// Reveal shows unlocked results, or sends the user to the paywall when the
// results are still masked.
func (f *Funnel) Reveal(ctx context.Context) (*ReconcileResult, error) {
	res, err := f.reconciler.Reconcile(ctx, ReconcileOptions{Unlock: true})
	if err != nil {
		return nil, f.redirect(ctx, err)
	}
	if res.Warning != "" {
		f.notify.Notify(LevelWarn, res.Warning)
	}
	if !res.Revealed() {
		f.notify.Notify(LevelInfo, paywallMessage(res))
		return res, f.nav.Go(flow.Paywall)
	}
	return res, f.nav.Go(flow.Reveal)
}

func paywallMessage(res *ReconcileResult) string {
	if res.PaymentRequired {
		return "You are out of credits. Pick a plan to continue."
	}
	return "Choose a plan to unlock these contacts."
}

func (f *Funnel) redirect(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrMissingQuery):
		f.notify.Notify(LevelWarn, "Tell us who you are looking for first.")
		return f.nav.Go(flow.Intent)
	case errors.Is(err, common.ErrNoIdentity):
		f.notify.Notify(LevelInfo, "Sign in to see your matches.")
		return f.nav.Go(flow.SSOOptional)
	case errors.Is(err, api.ErrUnauthorized):
		f.notify.Notify(LevelWarn, "Your session expired. Please sign in again.")
		return f.nav.Go(flow.SSOOptional)
	case errors.Is(err, api.ErrPaymentRequired):
		f.notify.Notify(LevelInfo, "You are out of credits. Pick a plan to continue.")
		return f.nav.Go(flow.Paywall)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, api.ErrUnavailable), errors.Is(err, api.ErrServer):
		f.log.Error(ctx, "matching failed", "error", err)
		f.notify.Notify(LevelError, "Matching is unavailable right now. Please try again.")
		return nil
	default:
		var herr *api.HTTPError
		if errors.As(err, &herr) {
			f.log.Error(ctx, "matching failed", "status", herr.StatusCode, "error", err)
			f.notify.Notify(LevelError, "Matching failed: "+herr.Detail)
			return nil
		}
		return err
	}
}

// StartOver forgets the query and its results and returns to the landing step.
func (f *Funnel) StartOver(ctx context.Context) error {
	if err := f.store.ClearFunnel(ctx); err != nil {
		return err
	}
	return f.nav.Go(flow.Landing)
}
