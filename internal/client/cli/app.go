package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/viqi/internal/client/api"
	"github.com/dmitrijs2005/viqi/internal/client/config"
	"github.com/dmitrijs2005/viqi/internal/client/events"
	"github.com/dmitrijs2005/viqi/internal/client/flow"
	"github.com/dmitrijs2005/viqi/internal/client/identity"
	"github.com/dmitrijs2005/viqi/internal/client/models"
	"github.com/dmitrijs2005/viqi/internal/client/services"
	"github.com/dmitrijs2005/viqi/internal/client/session"
	"github.com/dmitrijs2005/viqi/internal/client/storage"
	"github.com/dmitrijs2005/viqi/internal/filex"
	"github.com/dmitrijs2005/viqi/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// IdentityService is the part of the identity provider the commands use.
type IdentityService interface {
	GetIdentity(ctx context.Context) (*models.Identity, error)
	SignInEmail(ctx context.Context, email, name string) (*models.Identity, error)
	SignInFederated(ctx context.Context, idToken string) (*models.Identity, error)
	SignOut(ctx context.Context) error
	Conflicts(ctx context.Context) []identity.Source
}

type HealthChecker interface {
	Health(ctx context.Context) (*api.Health, error)
}

type App struct {
	config    *config.Config
	log       logging.Logger
	closers   []func() error
	store     *session.Store
	identity  IdentityService
	funnel    *services.Funnel
	payments  services.PaymentService
	credits   services.CreditService
	dashboard *services.Dashboard
	badge     *services.Badge
	nav       *flow.Navigator
	notify    services.Notifier
	health    HealthChecker
	reader    *bufio.Reader
	out       io.Writer

	modeMu sync.RWMutex
	mode   Mode
}

// NewApp opens the local store at cfg.StorePath and wires every service.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	log := logging.New(os.Stderr, cfg.LogLevel)

	if _, err := filex.EnsureParentDir(cfg.StorePath); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	db, err := storage.InitDatabase(ctx, cfg.StorePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", cfg.StorePath, "error", err)
		return nil, err
	}
	if cfg.FreshSession {
		if err := db.ResetSession(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("reset session: %w", err)
		}
	}

	a := wire(ctx, cfg, db.Durable, db.Session, log, in, out)
	a.closers = append(a.closers, db.Close)
	return a, nil
}

// wire builds the App over the given stores.
func wire(ctx context.Context, cfg *config.Config, durable, sess storage.Store, log logging.Logger, in io.Reader, out io.Writer) *App {
	bus := events.NewBus(log)
	store := session.New(durable, sess, bus)

	client := api.New(cfg.APIBaseURL, api.WithTimeout(cfg.RequestTimeout), api.WithLogger(log))
	ids := identity.NewProvider(store, client, bus, log)
	client.SetTokenSource(ids)
	client.SetUnauthorizedHandler(func(ctx context.Context) {
		if err := ids.SignOut(ctx); err != nil {
			log.Error(ctx, "failed to clear credentials after 401", "error", err)
		}
	})

	nav := flow.NewNavigator(cfg.AppBaseURL)
	notifier := services.NewWriterNotifier(out)
	credits := services.NewCreditService(store, client, log)

	var matcher services.Matcher
	if cfg.MatchingMode == config.ModeAccount {
		matcher = services.NewAccountMatcher(client, cfg.MaxResults)
	} else {
		matcher = services.NewPOCMatcher(client, cfg.MaxResults)
	}
	rec := services.NewReconciler(store, ids, matcher, credits, log)

	payments := services.NewPaymentService(services.PaymentDeps{
		Store:      store,
		Identity:   ids,
		API:        client,
		Reconciler: rec,
		Credits:    credits,
		Navigator:  nav,
		Notifier:   notifier,
		Logger:     log,
		AppBaseURL: cfg.AppBaseURL,
	})

	badge := services.NewBadge(bus)
	if c, err := store.CreditSummary(ctx); err == nil {
		badge.Seed(c)
	}
	ids.Conflicts(ctx)

	return &App{
		config:    cfg,
		log:       log,
		closers:   []func() error{func() error { badge.Close(); return nil }},
		store:     store,
		identity:  ids,
		funnel:    services.NewFunnel(store, ids, rec, nav, notifier, log),
		payments:  payments,
		credits:   credits,
		dashboard: services.NewDashboard(ids, credits, payments, client, log),
		badge:     badge,
		nav:       nav,
		notify:    notifier,
		health:    client,
		reader:    bufio.NewReader(in),
		out:       out,
		mode:      ModeOnline,
	}
}

// Close releases the local store.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (a *App) Mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.mode
}

// setMode switches the mode and reports whether it changed.
func (a *App) setMode(ctx context.Context, mode Mode) bool {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	if a.mode == mode {
		return false
	}
	a.mode = mode
	a.log.Info(ctx, "switched mode", "mode", mode)
	return true
}

func (a *App) isSignedIn(ctx context.Context) bool {
	_, err := a.identity.GetIdentity(ctx)
	return err == nil
}
