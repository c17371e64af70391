package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/viqi/internal/client/events"
	"github.com/dmitrijs2005/viqi/internal/client/models"
	"github.com/dmitrijs2005/viqi/internal/client/session"
	"github.com/dmitrijs2005/viqi/internal/logging"
)

type SubscriptionAPI interface {
	Subscription(ctx context.Context) (*models.SubscriptionStatus, error)
}

// CreditService keeps the cached credit summary current.
type CreditService interface {
	// Apply caches summary and broadcasts it. charged is what the call that
	// produced summary consumed; pass a negative value when unknown.
	Apply(ctx context.Context, summary models.CreditSummary, charged int) error
	Current(ctx context.Context) (*models.CreditSummary, error)
	// Refresh reloads the subscription and applies its summary.
	Refresh(ctx context.Context) (*models.SubscriptionStatus, error)
}

type creditService struct {
	store *session.Store
	api   SubscriptionAPI
	log   logging.Logger
}

func NewCreditService(store *session.Store, a SubscriptionAPI, log logging.Logger) CreditService {
	return &creditService{store: store, api: a, log: log}
}

func (s *creditService) Apply(ctx context.Context, summary models.CreditSummary, charged int) error {
	if charged >= 0 {
		prev, err := s.store.CreditSummary(ctx)
		if err != nil {
			s.log.Debug(ctx, "no usable previous credit summary", "error", err)
		}
		if prev != nil {
			if expected := max(prev.Remaining-charged, 0); expected != summary.Remaining {
				s.log.Warn(ctx, "credit balance drift",
					"previous", prev.Remaining, "charged", charged,
					"expected", expected, "reported", summary.Remaining)
			}
		}
	}
	if err := s.store.SetCreditSummary(ctx, summary); err != nil {
		return fmt.Errorf("store credit summary: %w", err)
	}
	return nil
}

func (s *creditService) Current(ctx context.Context) (*models.CreditSummary, error) {
	return s.store.CreditSummary(ctx)
}

func (s *creditService) Refresh(ctx context.Context) (*models.SubscriptionStatus, error) {
	st, err := s.api.Subscription(ctx)
	if err != nil {
		return nil, err
	}
	if st.CreditSummary != nil {
		if err := s.Apply(ctx, *st.CreditSummary, -1); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Badge mirrors the latest credit summary for display. It follows
// credits-updated broadcasts and empties itself on sign-out.
type Badge struct {
	mu      sync.RWMutex
	summary *models.CreditSummary
	offs    []func()
}

func NewBadge(bus *events.Bus) *Badge {
	b := &Badge{}
	b.offs = append(b.offs,
		bus.Subscribe(events.CreditsUpdated, func(payload any) {
			if c, ok := payload.(models.CreditSummary); ok {
				b.set(&c)
			}
		}),
		bus.Subscribe(events.SignOut, func(any) { b.set(nil) }),
	)
	return b
}

func (b *Badge) set(c *models.CreditSummary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.summary = c
}

// Seed sets the initial value, typically from the cache at startup.
func (b *Badge) Seed(c *models.CreditSummary) {
	b.set(c)
}

func (b *Badge) Summary() *models.CreditSummary {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.summary
}

// String renders the badge, or "" when there is nothing to show.
func (b *Badge) String() string {
	c := b.Summary()
	if c == nil {
		return ""
	}
	if c.Pending > 0 {
		return fmt.Sprintf("credits %d/%d (%d pending)", c.Remaining, c.IncludedCredits, c.Pending)
	}
	return fmt.Sprintf("credits %d/%d", c.Remaining, c.IncludedCredits)
}

func (b *Badge) Close() {
	for _, off := range b.offs {
		off()
	}
}
