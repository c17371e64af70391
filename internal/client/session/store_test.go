package session

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/viqi/internal/client/events"
	"github.com/dmitrijs2005/viqi/internal/client/models"
	"github.com/dmitrijs2005/viqi/internal/client/storage"
	"github.com/dmitrijs2005/viqi/internal/common"
	"github.com/dmitrijs2005/viqi/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *storage.MemoryStore, *storage.MemoryStore, *events.Bus) {
	t.Helper()
	durable, sess := storage.NewMemoryStore(), storage.NewMemoryStore()
	bus := events.NewBus(logging.Discard())
	return New(durable, sess, bus), durable, sess, bus
}

func TestQuery_RoundTripsUnderUserQueryKey(t *testing.T) {
	ctx := context.Background()
	s, _, sess, _ := newStore(t)

	require.NoError(t, s.SetQuery(ctx, "Need a colorist in NYC"))

	raw, _ := sess.Get(ctx, common.KeyUserQuery)
	assert.Equal(t, "Need a colorist in NYC", string(raw))

	q, err := s.Query(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Need a colorist in NYC", q)
}

func TestMatchResults_AbsentMalformedAndStored(t *testing.T) {
	ctx := context.Background()
	s, _, sess, _ := newStore(t)

	m, err := s.MatchResults(ctx)
	require.NoError(t, err)
	assert.Nil(t, m)

	require.NoError(t, sess.Set(ctx, common.KeyMatchResults, []byte("{not json")))
	_, err = s.MatchResults(ctx)
	require.ErrorIs(t, err, common.ErrorMalformed)

	want := &models.MatchResults{Status: models.StatusPreview, Query: "q", Results: []models.MatchResult{{Name: "Sarah"}}}
	require.NoError(t, s.SetMatchResults(ctx, want))
	require.NoError(t, s.SetCurrentMatchID(ctx, "42"))

	got, err := s.MatchResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sarah", got.Results[0].Name)

	require.NoError(t, s.ClearMatchResults(ctx))
	got, err = s.MatchResults(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	id, _ := s.CurrentMatchID(ctx)
	assert.Empty(t, id)
}

func TestSetCreditSummary_Broadcasts(t *testing.T) {
	ctx := context.Background()
	s, _, _, bus := newStore(t)

	var got []models.CreditSummary
	bus.Subscribe(events.CreditsUpdated, func(p any) { got = append(got, p.(models.CreditSummary)) })

	require.NoError(t, s.SetCreditSummary(ctx, models.CreditSummary{IncludedCredits: 50, Remaining: 47}))

	require.Len(t, got, 1)
	assert.Equal(t, 47, got[0].Remaining)

	cached, err := s.CreditSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 47, cached.Remaining)
}

func TestSessionAuth_SetsAndDropsKeys(t *testing.T) {
	ctx := context.Background()
	s, _, sess, _ := newStore(t)

	require.NoError(t, s.SetSessionAuth(ctx, SessionAuth{Email: "ada@studio.com", BackendToken: "tok", BusinessDomain: "studio.com"}))
	a, err := s.SessionAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, SessionAuth{Email: "ada@studio.com", BackendToken: "tok", BusinessDomain: "studio.com"}, a)

	require.NoError(t, s.SetSessionAuth(ctx, SessionAuth{Email: "ada@studio.com"}))
	raw, _ := sess.Get(ctx, common.KeyBackendToken)
	assert.Nil(t, raw)
}

func TestClearCredentials_RemovesAllSources(t *testing.T) {
	ctx := context.Background()
	s, durable, sess, _ := newStore(t)

	require.NoError(t, s.SetCustomAuth(ctx, models.Identity{Email: "ada@studio.com"}))
	require.NoError(t, s.SetFederated(ctx, "header.payload.sig"))
	require.NoError(t, s.SetSessionAuth(ctx, SessionAuth{Email: "ada@studio.com", BackendToken: "tok"}))
	require.NoError(t, s.SetCreditSummary(ctx, models.CreditSummary{Remaining: 3}))
	require.NoError(t, s.SetQuery(ctx, "keep me"))

	require.NoError(t, s.ClearCredentials(ctx))

	d, _ := durable.List(ctx)
	assert.Empty(t, d)
	rest, _ := sess.List(ctx)
	assert.Equal(t, map[string][]byte{common.KeyUserQuery: []byte("keep me")}, rest)
}

func TestCheckoutContext_AndClearFunnel(t *testing.T) {
	ctx := context.Background()
	s, _, sess, _ := newStore(t)

	require.NoError(t, s.SetQuery(ctx, "q"))
	require.NoError(t, s.SetCheckoutContext(ctx, CheckoutContext{Email: "ada@studio.com", Plan: "Pro"}))

	c, err := s.CheckoutContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Pro", c.Plan)

	require.NoError(t, s.ClearFunnel(ctx))
	rest, _ := sess.List(ctx)
	assert.Empty(t, rest)
}

func TestLastCheckoutSession_SurvivesClearFunnel(t *testing.T) {
	ctx := context.Background()
	s, _, sess, _ := newStore(t)

	id, err := s.LastCheckoutSession(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, s.SetLastCheckoutSession(ctx, "cs_1"))
	require.NoError(t, s.ClearFunnel(ctx))

	id, err = s.LastCheckoutSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cs_1", id)

	raw, err := sess.Get(ctx, common.KeyLastCheckoutSession)
	require.NoError(t, err)
	assert.Equal(t, []byte("cs_1"), raw)
}
