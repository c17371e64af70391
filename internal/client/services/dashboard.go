package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/viqi/internal/client/api"
	"github.com/dmitrijs2005/viqi/internal/client/models"
	"github.com/dmitrijs2005/viqi/internal/logging"
	"golang.org/x/sync/errgroup"
)

type HistoryAPI interface {
	History(ctx context.Context) ([]api.HistoryItem, error)
}

// DashboardView is everything the dashboard step shows.
type DashboardView struct {
	Identity     *models.Identity
	Subscription *models.SubscriptionStatus
	Credits      *models.CreditSummary
	Plans        []models.Plan
	History      []api.HistoryItem
}

type Dashboard struct {
	ids      IdentitySource
	credits  CreditService
	payments PaymentService
	history  HistoryAPI
	log      logging.Logger
}

func NewDashboard(ids IdentitySource, credits CreditService, payments PaymentService, history HistoryAPI, log logging.Logger) *Dashboard {
	return &Dashboard{ids: ids, credits: credits, payments: payments, history: history, log: log}
}

// Load fetches the subscription, plans and match history concurrently.
// Only a missing identity is an error; each section that fails to load is
// left empty.
func (d *Dashboard) Load(ctx context.Context) (*DashboardView, error) {
	id, err := d.ids.GetIdentity(ctx)
	if err != nil {
		return nil, err
	}
	view := &DashboardView{Identity: id}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := d.credits.Refresh(gctx)
		if err != nil {
			d.log.Warn(gctx, "subscription load failed", "error", err)
			return nil
		}
		view.Subscription = st
		return nil
	})
	g.Go(func() error {
		plans, err := d.payments.Plans(gctx)
		if err != nil {
			return err
		}
		view.Plans = plans
		return nil
	})
	g.Go(func() error {
		items, err := d.history.History(gctx)
		if err != nil {
			if !errors.Is(err, api.ErrNotFound) {
				d.log.Warn(gctx, "history load failed", "error", err)
			}
			return nil
		}
		view.History = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view.Credits, err = d.credits.Current(ctx)
	if err != nil {
		d.log.Warn(ctx, "cached credit summary unreadable", "error", err)
	}
	return view, nil
}
