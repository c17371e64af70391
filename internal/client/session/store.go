// Package session is the typed client-side store. Components read and write
// funnel state through its actions instead of touching raw storage keys.
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/viqi/internal/client/events"
	"github.com/dmitrijs2005/viqi/internal/client/models"
	"github.com/dmitrijs2005/viqi/internal/client/storage"
	"github.com/dmitrijs2005/viqi/internal/common"
)

// Store wraps the durable and session scopes.
type Store struct {
	durable storage.Store
	session storage.Store
	bus     *events.Bus
}

func New(durable, session storage.Store, bus *events.Bus) *Store {
	return &Store{durable: durable, session: session, bus: bus}
}

// SessionAuth is the ephemeral sign-in blob kept in three session keys.
type SessionAuth struct {
	Email          string
	BackendToken   string
	BusinessDomain string
}

// CheckoutContext remembers who started a checkout and for which plan.
type CheckoutContext struct {
	Email string
	Plan  string
}

func getJSON[T any](ctx context.Context, s storage.Store, key string) (*T, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrorMalformed, key, err)
	}
	return &v, nil
}

func setJSON(ctx context.Context, s storage.Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

func getString(ctx context.Context, s storage.Store, key string) (string, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func setOrDelete(values map[string][]byte, drop *[]string, key, value string) {
	if value == "" {
		*drop = append(*drop, key)
		return
	}
	values[key] = []byte(value)
}

func (s *Store) Query(ctx context.Context) (string, error) {
	return getString(ctx, s.session, common.KeyUserQuery)
}

func (s *Store) SetQuery(ctx context.Context, q string) error {
	return s.session.Set(ctx, common.KeyUserQuery, []byte(q))
}

// MatchResults returns the cached results, (nil, nil) when absent, or an
// error wrapping common.ErrorMalformed when the cache cannot be decoded.
func (s *Store) MatchResults(ctx context.Context) (*models.MatchResults, error) {
	return getJSON[models.MatchResults](ctx, s.session, common.KeyMatchResults)
}

func (s *Store) SetMatchResults(ctx context.Context, m *models.MatchResults) error {
	return setJSON(ctx, s.session, common.KeyMatchResults, m)
}

// ClearMatchResults drops the cached results and the match id, as starting a
// new query does.
func (s *Store) ClearMatchResults(ctx context.Context) error {
	return s.session.DeleteMany(ctx, common.KeyMatchResults, common.KeyCurrentMatchID)
}

func (s *Store) CurrentMatchID(ctx context.Context) (string, error) {
	return getString(ctx, s.session, common.KeyCurrentMatchID)
}

func (s *Store) SetCurrentMatchID(ctx context.Context, id string) error {
	if id == "" {
		return s.session.Delete(ctx, common.KeyCurrentMatchID)
	}
	return s.session.Set(ctx, common.KeyCurrentMatchID, []byte(id))
}

func (s *Store) CreditSummary(ctx context.Context) (*models.CreditSummary, error) {
	return getJSON[models.CreditSummary](ctx, s.session, common.KeyCreditSummary)
}

// SetCreditSummary caches c and broadcasts events.CreditsUpdated with it.
func (s *Store) SetCreditSummary(ctx context.Context, c models.CreditSummary) error {
	if err := setJSON(ctx, s.session, common.KeyCreditSummary, c); err != nil {
		return err
	}
	if s.bus != nil {
		s.bus.Publish(events.CreditsUpdated, c)
	}
	return nil
}

func (s *Store) CustomAuth(ctx context.Context) (*models.Identity, error) {
	return getJSON[models.Identity](ctx, s.durable, common.KeyCustomAuth)
}

func (s *Store) SetCustomAuth(ctx context.Context, id models.Identity) error {
	return setJSON(ctx, s.durable, common.KeyCustomAuth, id)
}

func (s *Store) SessionAuth(ctx context.Context) (SessionAuth, error) {
	var a SessionAuth
	var err error
	if a.Email, err = getString(ctx, s.session, common.KeyUserEmail); err != nil {
		return a, err
	}
	if a.BackendToken, err = getString(ctx, s.session, common.KeyBackendToken); err != nil {
		return a, err
	}
	if a.BusinessDomain, err = getString(ctx, s.session, common.KeyBusinessDomain); err != nil {
		return a, err
	}
	return a, nil
}

func (s *Store) SetSessionAuth(ctx context.Context, a SessionAuth) error {
	values := map[string][]byte{}
	var drop []string
	setOrDelete(values, &drop, common.KeyUserEmail, a.Email)
	setOrDelete(values, &drop, common.KeyBackendToken, a.BackendToken)
	setOrDelete(values, &drop, common.KeyBusinessDomain, a.BusinessDomain)
	if err := s.session.SetMany(ctx, values); err != nil {
		return err
	}
	if len(drop) == 0 {
		return nil
	}
	return s.session.DeleteMany(ctx, drop...)
}

// Federated returns the identity-provider ID token, or "".
func (s *Store) Federated(ctx context.Context) (string, error) {
	return getString(ctx, s.durable, common.KeyFederatedSession)
}

func (s *Store) SetFederated(ctx context.Context, idToken string) error {
	return s.durable.Set(ctx, common.KeyFederatedSession, []byte(idToken))
}

func (s *Store) CheckoutContext(ctx context.Context) (CheckoutContext, error) {
	var c CheckoutContext
	var err error
	if c.Email, err = getString(ctx, s.session, common.KeyStripeCheckoutEmail); err != nil {
		return c, err
	}
	if c.Plan, err = getString(ctx, s.session, common.KeyStripeCheckoutPlan); err != nil {
		return c, err
	}
	return c, nil
}

func (s *Store) SetCheckoutContext(ctx context.Context, c CheckoutContext) error {
	values := map[string][]byte{}
	var drop []string
	setOrDelete(values, &drop, common.KeyStripeCheckoutEmail, c.Email)
	setOrDelete(values, &drop, common.KeyStripeCheckoutPlan, c.Plan)
	if err := s.session.SetMany(ctx, values); err != nil {
		return err
	}
	if len(drop) == 0 {
		return nil
	}
	return s.session.DeleteMany(ctx, drop...)
}

// LastCheckoutSession returns the id of the last verified checkout session.
// It survives ClearFunnel.
func (s *Store) LastCheckoutSession(ctx context.Context) (string, error) {
	return getString(ctx, s.session, common.KeyLastCheckoutSession)
}

func (s *Store) SetLastCheckoutSession(ctx context.Context, id string) error {
	return s.session.Set(ctx, common.KeyLastCheckoutSession, []byte(id))
}

// ClearCredentials removes every identity source and the credit summary.
func (s *Store) ClearCredentials(ctx context.Context) error {
	if err := s.durable.DeleteMany(ctx, common.KeyCustomAuth, common.KeyFederatedSession); err != nil {
		return fmt.Errorf("clear durable credentials: %w", err)
	}
	if err := s.session.DeleteMany(ctx,
		common.KeyUserEmail, common.KeyBackendToken, common.KeyBusinessDomain, common.KeyCreditSummary,
	); err != nil {
		return fmt.Errorf("clear session credentials: %w", err)
	}
	return nil
}

// ClearFunnel forgets the query and everything derived from it.
func (s *Store) ClearFunnel(ctx context.Context) error {
	return s.session.DeleteMany(ctx,
		common.KeyUserQuery, common.KeyMatchResults, common.KeyCurrentMatchID,
		common.KeyStripeCheckoutEmail, common.KeyStripeCheckoutPlan,
	)
}
