package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dmitrijs2005/viqi/internal/client/events"
	"github.com/dmitrijs2005/viqi/internal/client/flow"
	"github.com/dmitrijs2005/viqi/internal/client/models"
	"github.com/dmitrijs2005/viqi/internal/client/session"
	"github.com/dmitrijs2005/viqi/internal/client/storage"
	"github.com/dmitrijs2005/viqi/internal/common"
	"github.com/dmitrijs2005/viqi/internal/logging"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

const colorist = "Need a colorist in NYC"

func newSession(t *testing.T) (*session.Store, *events.Bus) {
	t.Helper()
	bus := events.NewBus(logging.Discard())
	return session.New(storage.NewMemoryStore(), storage.NewMemoryStore(), bus), bus
}

func withQuery(t *testing.T, st *session.Store, q string) {
	t.Helper()
	require.NoError(t, st.SetQuery(context.Background(), q))
}

func withCache(t *testing.T, st *session.Store, m *models.MatchResults) {
	t.Helper()
	require.NoError(t, st.SetMatchResults(context.Background(), m))
}

func results(status models.MatchStatus, plain ...string) *models.MatchResults {
	m := &models.MatchResults{Status: status, Query: colorist}
	for i, p := range plain {
		m.Results = append(m.Results, models.MatchResult{
			Name:           fmt.Sprintf("Contact %d", i),
			CompanyName:    "Netflix",
			CompanyBlurred: "N*****x",
			EmailMasked:    "s***z@n*****x.com",
			EmailPlain:     p,
		})
	}
	return m
}

var ada = &models.Identity{Email: "ada@studio.com", Token: "tok", AuthType: models.AuthCustom}

// ---- fakes ----

type fakeIdentity struct {
	ID *models.Identity
}

func (f *fakeIdentity) GetIdentity(context.Context) (*models.Identity, error) {
	if f.ID == nil {
		return nil, common.ErrNoIdentity
	}
	return f.ID, nil
}

type fakeMatcher struct {
	mu      sync.Mutex
	Result  *FetchResult
	Err     error
	Calls   int
	LastReq FetchRequest
	// OnFetch runs inside Fetch, before it returns.
	OnFetch func()
}

func (f *fakeMatcher) Fetch(_ context.Context, req FetchRequest) (*FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.LastReq = req
	if f.OnFetch != nil {
		f.OnFetch()
	}
	return f.Result, f.Err
}

type fakeReconciler struct {
	Result   *ReconcileResult
	Err      error
	Calls    int
	LastOpts ReconcileOptions
}

func (f *fakeReconciler) Reconcile(_ context.Context, opts ReconcileOptions) (*ReconcileResult, error) {
	f.Calls++
	f.LastOpts = opts
	return f.Result, f.Err
}

type fakeSubscription struct {
	Status *models.SubscriptionStatus
	Err    error
	Calls  int
}

func (f *fakeSubscription) Subscription(context.Context) (*models.SubscriptionStatus, error) {
	f.Calls++
	return f.Status, f.Err
}

// recLogger keeps warnings so tests can assert on them.
type recLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recLogger) Debug(context.Context, string, ...any) {}
func (l *recLogger) Info(context.Context, string, ...any)  {}
func (l *recLogger) Error(context.Context, string, ...any) {}
func (l *recLogger) With(...any) logging.Logger          { return l }

func (l *recLogger) Warn(_ context.Context, msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

func newNavigator() *flow.Navigator {
	return flow.NewNavigator("http://viqi.local")
}
