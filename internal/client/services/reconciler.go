package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/viqi/internal/client/api"
	"github.com/dmitrijs2005/viqi/internal/client/models"
	"github.com/dmitrijs2005/viqi/internal/client/session"
	"github.com/dmitrijs2005/viqi/internal/common"
	"github.com/dmitrijs2005/viqi/internal/logging"
)

// IdentitySource resolves the signed-in user.
type IdentitySource interface {
	GetIdentity(ctx context.Context) (*models.Identity, error)
}

type Outcome string

const (
	// OutcomeCache: the cached results were already revealed.
	OutcomeCache Outcome = "cache"
	// OutcomePromoted: the cached preview carried plain emails and was
	// revealed locally.
	OutcomePromoted Outcome = "promoted"
	OutcomeFetched  Outcome = "fetched"
	// OutcomeDegraded: the fetch failed and a fallback was shown instead.
	OutcomeDegraded Outcome = "degraded"
)

type ReconcileOptions struct {
	ForceRefresh bool
	// Unlock allows the fetch to spend credits on revealing the current
	// match. Only the reveal step and the payment return set it.
	Unlock bool
	// Fallback is shown when the fetch fails. The cached preview is used
	// when it is nil.
	Fallback *models.MatchResults
}

type ReconcileResult struct {
	Matches *models.MatchResults
	Outcome Outcome
	// Warning is set when the result is degraded.
	Warning string
	// PaymentRequired is set when unlocking was refused for lack of credits
	// and Matches holds the fallback preview.
	PaymentRequired bool
}

// Revealed reports whether the result can be shown on the reveal step.
func (r *ReconcileResult) Revealed() bool {
	return r != nil && r.Matches != nil && r.Matches.Status == models.StatusRevealed
}

// Reconciler decides whether match results come from the cache, a local
// promotion, or the backend.
//
// Contract:
//   - revealed cache and no force: served as is, no network call.
//   - preview cache with at least one plain email and no force: promoted
//     locally, no network call.
//   - otherwise exactly one fetch; the response replaces the cache and its
//     credit summary is applied.
//   - only opts.Unlock lets the fetch spend credits on a reveal.
//   - a failed fetch falls back to the explicit fallback or the cached
//     preview and reports OutcomeDegraded instead of an error. A refused
//     unlock (402) does the same with PaymentRequired set. Auth failures,
//     and 402 without a fallback, are returned as errors.
//   - results arriving after ctx is done are discarded.
type Reconciler interface {
	Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileResult, error)
}

type reconciler struct {
	store   *session.Store
	ids     IdentitySource
	matcher Matcher
	credits CreditService
	log     logging.Logger
}

func NewReconciler(store *session.Store, ids IdentitySource, matcher Matcher, credits CreditService, log logging.Logger) Reconciler {
	return &reconciler{store: store, ids: ids, matcher: matcher, credits: credits, log: log}
}

func (r *reconciler) Reconcile(ctx context.Context, opts ReconcileOptions) (*ReconcileResult, error) {
	query, err := r.store.Query(ctx)
	if err != nil {
		return nil, fmt.Errorf("read query: %w", err)
	}
	if query == "" {
		return nil, common.ErrMissingQuery
	}

	id, err := r.ids.GetIdentity(ctx)
	if err != nil {
		return nil, err
	}

	cached := r.cached(ctx, query)

	if !opts.ForceRefresh {
		if cached.IsRevealed() {
			r.log.Debug(ctx, "serving revealed results from cache", "results", len(cached.Results))
			return &ReconcileResult{Matches: cached, Outcome: OutcomeCache}, nil
		}
		if promoted, ok := cached.Promote(); ok {
			if err := r.store.SetMatchResults(ctx, promoted); err != nil {
				return nil, fmt.Errorf("store promoted results: %w", err)
			}
			r.log.Debug(ctx, "promoted cached preview", "results", len(promoted.Results))
			return &ReconcileResult{Matches: promoted, Outcome: OutcomePromoted}, nil
		}
	}

	matchID, err := r.store.CurrentMatchID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read match id: %w", err)
	}

	res, fetchErr := r.matcher.Fetch(ctx, FetchRequest{
		Query:    query,
		Identity: id,
		MatchID:  matchID,
		Unlock:   opts.Unlock,
		Cached:   cached,
	})
	if ctxErr := ctx.Err(); ctxErr != nil {
		r.log.Debug(ctx, "discarding match result, caller is gone")
		return nil, ctxErr
	}
	if fetchErr != nil {
		return r.degrade(ctx, fetchErr, opts.Fallback, cached)
	}

	if err := r.store.SetMatchResults(ctx, res.Matches); err != nil {
		return nil, fmt.Errorf("store results: %w", err)
	}
	if err := r.store.SetCurrentMatchID(ctx, res.Matches.MatchID); err != nil {
		return nil, fmt.Errorf("store match id: %w", err)
	}
	if res.Credits != nil {
		if err := r.credits.Apply(ctx, *res.Credits, res.Charged); err != nil {
			r.log.Warn(ctx, "failed to apply credit summary", "error", err)
		}
	}
	r.log.Info(ctx, "fetched matches", "results", len(res.Matches.Results), "status", res.Matches.Status)
	return &ReconcileResult{Matches: res.Matches, Outcome: OutcomeFetched}, nil
}

// cached returns the stored results for query. Unreadable caches and caches
// of a different query count as absent.
func (r *reconciler) cached(ctx context.Context, query string) *models.MatchResults {
	m, err := r.store.MatchResults(ctx)
	if err != nil {
		r.log.Warn(ctx, "ignoring cached results", "error", err)
		return nil
	}
	if m != nil && m.Query != "" && m.Query != query {
		return nil
	}
	return m
}

func (r *reconciler) degrade(ctx context.Context, fetchErr error, fallback, cached *models.MatchResults) (*ReconcileResult, error) {
	if errors.Is(fetchErr, api.ErrUnauthorized) {
		return nil, fetchErr
	}
	if fallback == nil {
		fallback = cached
	}
	if fallback == nil {
		return nil, fetchErr
	}

	if errors.Is(fetchErr, api.ErrPaymentRequired) {
		r.log.Info(ctx, "unlock refused, showing preview", "error", fetchErr)
		return &ReconcileResult{Matches: fallback, Outcome: OutcomeDegraded, PaymentRequired: true}, nil
	}

	r.log.Warn(ctx, "match fetch failed, using fallback", "error", fetchErr)
	warning := fmt.Sprintf("Could not refresh results: %v", fetchErr)
	if promoted, ok := fallback.Promote(); ok {
		if err := r.store.SetMatchResults(ctx, promoted); err != nil {
			r.log.Warn(ctx, "failed to store promoted fallback", "error", err)
		}
		return &ReconcileResult{Matches: promoted, Outcome: OutcomeDegraded, Warning: warning}, nil
	}
	return &ReconcileResult{Matches: fallback, Outcome: OutcomeDegraded, Warning: warning}, nil
}
