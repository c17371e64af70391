package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/viqi/internal/client/api"
	"github.com/dmitrijs2005/viqi/internal/client/config"
	"github.com/dmitrijs2005/viqi/internal/client/flow"
	"github.com/dmitrijs2005/viqi/internal/client/models"
	"github.com/dmitrijs2005/viqi/internal/client/services"
	"github.com/dmitrijs2005/viqi/internal/client/storage"
	"github.com/dmitrijs2005/viqi/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// ------------ fake backend ------------

type backend struct {
	mu          sync.Mutex
	paid        bool
	healthy     bool
	matchCalls  int
	verifyCalls int
}

func (b *backend) counts() (match, verify int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.matchCalls, b.verifyCalls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newBackend(t *testing.T) (*backend, string) {
	t.Helper()
	b := &backend{healthy: true}
	r := chi.NewRouter()

	r.Post("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req api.RegisterRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusOK, api.AuthResponse{
			AccessToken: "jwt-" + req.Email,
			TokenType:   "bearer",
			User:        api.User{Email: req.Email, Name: req.Name},
		})
	})

	r.Post("/api/matching-poc/match", func(w http.ResponseWriter, r *http.Request) {
		var req api.POCMatchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		b.mu.Lock()
		b.matchCalls++
		paid := b.paid
		b.mu.Unlock()

		result := func(name, plain string) models.MatchResult {
			return models.MatchResult{
				Name: name, Title: "Colorist", CompanyName: "Netflix", CompanyBlurred: "N*****x",
				EmailMasked: "s***z@n*****x.com", EmailPlain: plain, Reason: "Grades features in NYC", Score: 0.9,
			}
		}
		resp := api.POCMatchResponse{QueryProcessed: req.Query, UserCompany: "Studio"}
		if paid {
			resp.Revealed = true
			resp.Results = []models.MatchResult{result("Sarah", "sarah@netflix.com"), result("Tom", "tom@netflix.com")}
			resp.CreditSummary = &models.CreditSummary{IncludedCredits: 200, Used: 0, Remaining: 200}
		} else {
			resp.Results = []models.MatchResult{result("Sarah", ""), result("Tom", "")}
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/api/matching-poc/health", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		healthy := b.healthy
		b.mu.Unlock()
		if !healthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"detail": "down"})
			return
		}
		writeJSON(w, http.StatusOK, api.Health{Status: "ok"})
	})

	r.Get("/api/payments/plans", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.PlansResponse{Plans: models.MockPlans(), GeoGroup: "default"})
	})

	r.Post("/api/payments/checkout", func(w http.ResponseWriter, r *http.Request) {
		var req api.CheckoutRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeJSON(w, http.StatusOK, models.CheckoutSession{
			CheckoutURL: "https://pay.example/c/cs_1?plan=" + req.PlanName,
			SessionID:   "cs_1",
		})
	})

	r.Post("/api/payments/verify/{sid}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.verifyCalls++
		b.paid = true
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, models.PaymentVerification{Success: true, SessionID: chi.URLParam(r, "sid"), PaymentStatus: "paid"})
	})

	r.Get("/api/users/me/subscription", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.SubscriptionStatus{
			CreditsBalance: 200,
			Access:         models.SubscriptionAccess{CanAccessPremium: true},
			CreditSummary:  &models.CreditSummary{IncludedCredits: 200, Remaining: 200},
		})
	})

	r.Get("/api/matching/history", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"matches": []api.HistoryItem{}})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return b, srv.URL
}

const appURL = "http://app.test"

func newTestApp(t *testing.T, apiURL string) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.APIBaseURL = apiURL
	cfg.AppBaseURL = appURL
	cfg.RequestTimeout = 2 * time.Second

	var out bytes.Buffer
	a := wire(context.Background(), cfg, storage.NewMemoryStore(), storage.NewMemoryStore(),
		logging.Discard(), strings.NewReader(""), &out)
	t.Cleanup(func() { _ = a.Close() })
	return a, &out
}

// ------------ tests ------------

func TestApp_FullFunnel(t *testing.T) {
	ctx := context.Background()
	b, url := newBackend(t)
	a, out := newTestApp(t, url)

	// Anonymous query waits for sign-in, with the query already stored.
	require.NoError(t, a.Query(ctx, strings.Fields("Need a colorist in NYC")))
	assert.Equal(t, flow.SSOOptional, a.nav.Current())
	q, err := a.store.Query(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Need a colorist in NYC", q)
	match, _ := b.counts()
	assert.Zero(t, match)

	// Signing in continues to matching.
	require.NoError(t, a.SignIn(ctx, []string{"ada@studio.com"}))
	assert.Equal(t, flow.Preview, a.nav.Current())
	assert.Contains(t, out.String(), "Preview: 2 matches")
	assert.Contains(t, out.String(), "s***z@n*****x.com")
	match, _ = b.counts()
	assert.Equal(t, 1, match)

	// Previewing again is served from the cache.
	require.NoError(t, a.Preview(ctx))
	match, _ = b.counts()
	assert.Equal(t, 1, match)

	// Masked results cannot be revealed yet.
	require.NoError(t, a.Reveal(ctx))
	assert.Equal(t, flow.Paywall, a.nav.Current())
	assert.Contains(t, out.String(), "Starter")

	out.Reset()
	require.NoError(t, a.Checkout(ctx, []string{"pro", "annual"}))
	assert.Contains(t, out.String(), "https://pay.example/c/cs_1?plan=Pro")

	// Returning from the payment page verifies and unlocks.
	out.Reset()
	require.NoError(t, a.Return(ctx, []string{appURL + "/reveal?session_id=cs_1"}))
	assert.Contains(t, out.String(), "sarah@netflix.com")
	assert.Contains(t, out.String(), "Payment confirmed")
	assert.Equal(t, appURL+"/reveal", a.nav.URL())
	assert.Equal(t, "credits 200/200", a.badge.String())

	// The same return link is not verified twice.
	out.Reset()
	require.NoError(t, a.Return(ctx, []string{appURL + "/reveal?session_id=cs_1"}))
	assert.Contains(t, out.String(), "Nothing to verify.")

	// Revealed results come from the cache.
	matchBefore, verify := b.counts()
	assert.Equal(t, 1, verify)
	require.NoError(t, a.Reveal(ctx))
	matchAfter, _ := b.counts()
	assert.Equal(t, matchBefore, matchAfter)
	assert.Equal(t, flow.Reveal, a.nav.Current())

	out.Reset()
	require.NoError(t, a.WhoAmI(ctx))
	assert.Contains(t, out.String(), "ada@studio.com (custom)")

	out.Reset()
	require.NoError(t, a.Dashboard(ctx))
	assert.Contains(t, out.String(), "Subscription: active")
	assert.Equal(t, flow.Dashboard, a.nav.Current())

	require.NoError(t, a.SignOut(ctx))
	assert.Empty(t, a.badge.String())
	assert.False(t, a.isSignedIn(ctx))
}

func TestApp_CreditsRequireSignIn(t *testing.T) {
	_, url := newBackend(t)
	a, out := newTestApp(t, url)

	require.NoError(t, a.Credits(context.Background()))
	assert.Contains(t, out.String(), "Sign in to see your credits.")

	require.NoError(t, a.SignIn(context.Background(), []string{"ada@studio.com"}))
	out.Reset()
	require.NoError(t, a.Credits(context.Background()))
	assert.Contains(t, out.String(), "Credits: 200 of 200 remaining")
}

func TestApp_CheckoutUnknownPlan(t *testing.T) {
	_, url := newBackend(t)
	a, _ := newTestApp(t, url)
	require.NoError(t, a.SignIn(context.Background(), []string{"ada@studio.com"}))

	err := a.Checkout(context.Background(), []string{"enterprise"})
	assert.ErrorContains(t, err, "unknown plan")

	err = a.Checkout(context.Background(), nil)
	assert.True(t, errors.Is(err, errNoInput))
}

func TestApp_StartOverAndBack(t *testing.T) {
	ctx := context.Background()
	_, url := newBackend(t)
	a, out := newTestApp(t, url)

	require.NoError(t, a.Back(ctx))
	assert.Contains(t, out.String(), "Already at the start.")

	require.NoError(t, a.Query(ctx, []string{"editor"}))
	require.NoError(t, a.Back(ctx))
	assert.Equal(t, flow.Landing, a.nav.Current())

	require.NoError(t, a.StartOver(ctx))
	q, _ := a.store.Query(ctx)
	assert.Empty(t, q)
}

func TestApp_GetStatus(t *testing.T) {
	_, url := newBackend(t)
	a, _ := newTestApp(t, url)
	assert.Equal(t, "(landing | online)", a.getStatus())

	require.NoError(t, a.SignIn(context.Background(), []string{"ada@studio.com"}))
	assert.Equal(t, "(landing | ada@studio.com | online)", a.getStatus())
}

type fakeHealth struct {
	mu  sync.Mutex
	err error
}

func (f *fakeHealth) set(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeHealth) Health(context.Context) (*api.Health, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &api.Health{Status: "ok"}, nil
}

func TestCheckOnline_FlipsModeOnce(t *testing.T) {
	h := &fakeHealth{}
	toasts := &services.RecordingNotifier{}
	a := &App{health: h, notify: toasts, log: logging.Discard(), mode: ModeOnline}

	a.checkOnline(context.Background())
	assert.Empty(t, toasts.Toasts(), "already online")

	h.set(api.ErrUnavailable)
	a.checkOnline(context.Background())
	a.checkOnline(context.Background())
	assert.Equal(t, ModeOffline, a.Mode())
	assert.Len(t, toasts.Toasts(), 1)

	h.set(nil)
	a.checkOnline(context.Background())
	assert.Equal(t, ModeOnline, a.Mode())
	assert.Equal(t, "Switched to online mode", toasts.Toasts()[1].Message)
}

func TestStartOnlineStatusWatcher_StopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h := &fakeHealth{err: api.ErrUnavailable}
	a := &App{health: h, notify: &services.RecordingNotifier{}, log: logging.Discard(), mode: ModeOnline}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.StartOnlineStatusWatcher(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return a.Mode() == ModeOffline }, time.Second, time.Millisecond)
	cancel()
	<-done
}
