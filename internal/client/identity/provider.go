// Package identity resolves who the current user is from the three places a
// sign-in can be recorded, and owns signing in and out.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/viqi/internal/client/api"
	"github.com/dmitrijs2005/viqi/internal/client/events"
	"github.com/dmitrijs2005/viqi/internal/client/models"
	"github.com/dmitrijs2005/viqi/internal/client/session"
	"github.com/dmitrijs2005/viqi/internal/common"
	"github.com/dmitrijs2005/viqi/internal/logging"
)

// Registrar creates the backend account for a verified identity.
type Registrar interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
}

type Provider struct {
	store *session.Store
	reg   Registrar
	bus   *events.Bus
	log   logging.Logger
	now   func() time.Time
}

func NewProvider(store *session.Store, reg Registrar, bus *events.Bus, log logging.Logger) *Provider {
	return &Provider{store: store, reg: reg, bus: bus, log: log, now: time.Now}
}

// Source is one place an identity was found.
type Source struct {
	AuthType models.AuthType
	Identity *models.Identity
}

type resolver func(ctx context.Context) (*models.Identity, error)

// resolvers lists the sources in precedence order.
func (p *Provider) resolvers() []resolver {
	return []resolver{p.fromCustom, p.fromSession, p.fromFederated}
}

// GetIdentity returns the first source that yields an identity with an
// email, in the order custom blob, session blob, federated session.
// Unreadable sources are logged and skipped. It returns
// common.ErrNoIdentity when nothing resolves.
func (p *Provider) GetIdentity(ctx context.Context) (*models.Identity, error) {
	for _, r := range p.resolvers() {
		id, err := r(ctx)
		if err != nil {
			p.log.Warn(ctx, "skipping identity source", "error", err)
			continue
		}
		if id.Valid() {
			return id, nil
		}
	}
	return nil, common.ErrNoIdentity
}

// Sources returns every source that currently resolves, in precedence order.
func (p *Provider) Sources(ctx context.Context) []Source {
	var out []Source
	for _, r := range p.resolvers() {
		id, err := r(ctx)
		if err != nil || !id.Valid() {
			continue
		}
		out = append(out, Source{AuthType: id.AuthType, Identity: id})
	}
	return out
}

// Conflicts returns the resolving sources when they disagree on the email,
// and nil when they agree or fewer than two resolve.
func (p *Provider) Conflicts(ctx context.Context) []Source {
	sources := p.Sources(ctx)
	for _, s := range sources[min(1, len(sources)):] {
		if !strings.EqualFold(s.Identity.Email, sources[0].Identity.Email) {
			p.log.Warn(ctx, "identity sources disagree",
				"primary", sources[0].Identity.Email, "primary_source", sources[0].AuthType,
				"other", s.Identity.Email, "other_source", s.AuthType)
			return sources
		}
	}
	return nil
}

// Token returns the backend token of the current identity, or "" when the
// user is anonymous or signed in without one.
func (p *Provider) Token(ctx context.Context) (string, error) {
	id, err := p.GetIdentity(ctx)
	if errors.Is(err, common.ErrNoIdentity) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id.Token, nil
}

func (p *Provider) fromCustom(ctx context.Context) (*models.Identity, error) {
	id, err := p.store.CustomAuth(ctx)
	if err != nil || id == nil {
		return nil, err
	}
	if id.AuthType == "" {
		id.AuthType = models.AuthCustom
	}
	if id.Company == "" {
		id.Company = models.CompanyFromEmail(id.Email)
	}
	return id, nil
}

func (p *Provider) fromSession(ctx context.Context) (*models.Identity, error) {
	a, err := p.store.SessionAuth(ctx)
	if err != nil || a.Email == "" {
		return nil, err
	}
	return &models.Identity{
		Email:    a.Email,
		Company:  models.CompanyFromEmail(a.Email),
		Token:    a.BackendToken,
		AuthType: models.AuthSession,
	}, nil
}

func (p *Provider) fromFederated(ctx context.Context) (*models.Identity, error) {
	raw, err := p.store.Federated(ctx)
	if err != nil || raw == "" {
		return nil, err
	}
	id, _, err := parseFederated(raw, p.now())
	if errors.Is(err, common.ErrTokenExpired) {
		return nil, nil
	}
	return id, err
}

// SignInEmail records an email sign-in. The backend account is registered
// when possible; if the backend is unreachable the identity is kept without
// a token so email-only matching still works.
func (p *Provider) SignInEmail(ctx context.Context, email, name string) (*models.Identity, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidEmail, email)
	}

	id := models.Identity{
		Email:    email,
		Name:     name,
		Company:  models.CompanyFromEmail(email),
		AuthType: models.AuthCustom,
	}

	resp, err := p.reg.Register(ctx, api.RegisterRequest{
		Email:          email,
		Name:           name,
		AuthProvider:   api.ProviderEmail,
		BusinessDomain: models.EmailDomain(email),
	})
	if err != nil {
		p.log.Warn(ctx, "backend registration failed, continuing without token", "email", email, "error", err)
	} else {
		id.Token = resp.AccessToken
		if resp.User.Name != "" && id.Name == "" {
			id.Name = resp.User.Name
		}
		if c := resp.User.CompanyName(); c != "" {
			id.Company = c
		}
	}

	if err := p.store.SetCustomAuth(ctx, id); err != nil {
		return nil, fmt.Errorf("store identity: %w", err)
	}
	p.log.Info(ctx, "signed in", "email", id.Email, "auth_type", id.AuthType)
	p.bus.Publish(events.SignIn, &id)
	return &id, nil
}

// SignInFederated records an identity-provider sign-in from its ID token and
// exchanges it for a backend token kept in the session scope.
func (p *Provider) SignInFederated(ctx context.Context, idToken string) (*models.Identity, error) {
	id, domain, err := parseFederated(idToken, p.now())
	if err != nil {
		return nil, err
	}
	if err := p.store.SetFederated(ctx, strings.TrimSpace(idToken)); err != nil {
		return nil, fmt.Errorf("store federated session: %w", err)
	}

	resp, err := p.reg.Register(ctx, api.RegisterRequest{
		Email:          id.Email,
		Name:           id.Name,
		AuthProvider:   api.ProviderGoogle,
		BusinessDomain: domain,
	})
	if err != nil {
		p.log.Warn(ctx, "backend registration failed, federated session kept", "email", id.Email, "error", err)
		p.bus.Publish(events.SignIn, id)
		return id, nil
	}

	if err := p.store.SetSessionAuth(ctx, session.SessionAuth{
		Email:          id.Email,
		BackendToken:   resp.AccessToken,
		BusinessDomain: domain,
	}); err != nil {
		return nil, fmt.Errorf("store session identity: %w", err)
	}

	out := resp.Identity(models.AuthSession)
	if out.Email == "" {
		out.Email = id.Email
	}
	if out.Name == "" {
		out.Name = id.Name
	}
	if out.Company == "" {
		out.Company = id.Company
	}
	p.log.Info(ctx, "signed in", "email", out.Email, "auth_type", models.AuthFederated)
	p.bus.Publish(events.SignIn, &out)
	return &out, nil
}

// SignOut forgets every identity source and the cached credit summary, then
// broadcasts events.SignOut.
func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.store.ClearCredentials(ctx); err != nil {
		return err
	}
	p.log.Info(ctx, "signed out")
	p.bus.Publish(events.SignOut, nil)
	return nil
}

// OnChange calls fn with the new identity after a sign-in and with nil after
// a sign-out. The returned func unsubscribes.
func (p *Provider) OnChange(fn func(*models.Identity)) (unsubscribe func()) {
	offIn := p.bus.Subscribe(events.SignIn, func(payload any) {
		id, _ := payload.(*models.Identity)
		fn(id)
	})
	offOut := p.bus.Subscribe(events.SignOut, func(any) { fn(nil) })
	return func() {
		offIn()
		offOut()
	}
}
