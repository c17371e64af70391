package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/viqi/internal/client/flow"
	"github.com/dmitrijs2005/viqi/internal/client/identity"
	"github.com/dmitrijs2005/viqi/internal/client/models"
	"github.com/dmitrijs2005/viqi/internal/client/services"
	"github.com/dmitrijs2005/viqi/internal/common"
)

// Query starts the funnel with a new query. Signed-in users go straight to
// matching.
func (a *App) Query(ctx context.Context, args []string) error {
	q, err := a.argOrPrompt(args, "Who are you looking for?")
	if err != nil {
		return err
	}
	step, err := a.funnel.SubmitQuery(ctx, q)
	if err != nil {
		return err
	}
	if step == flow.SSOOptional {
		fmt.Fprintln(a.out, "Sign in to see your matches: signin <email> or sso <id-token>")
		return nil
	}
	return a.Process(ctx)
}

// Process runs matching for the stored query and shows the outcome.
func (a *App) Process(ctx context.Context) error {
	fmt.Fprintln(a.out, "Finding the best people for you...")
	res, err := a.funnel.Process(ctx, services.ReconcileOptions{})
	if err != nil {
		return err
	}
	if res != nil {
		renderMatches(a.out, res.Matches)
	}
	return nil
}

// SignIn signs in with an email address and continues the funnel when a
// query is waiting.
func (a *App) SignIn(ctx context.Context, args []string) error {
	email, err := a.argOrPrompt(args, "Enter your work email")
	if err != nil {
		return err
	}
	id, err := a.identity.SignInEmail(ctx, email, "")
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", id.Email)
	return a.continueAfterSignIn(ctx)
}

// SSO signs in with an identity-provider ID token.
func (a *App) SSO(ctx context.Context, args []string) error {
	token, err := a.argOrPrompt(args, "Paste your ID token")
	if err != nil {
		return err
	}
	id, err := a.identity.SignInFederated(ctx, token)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", id.Email)
	return a.continueAfterSignIn(ctx)
}

func (a *App) continueAfterSignIn(ctx context.Context) error {
	q, err := a.store.Query(ctx)
	if err != nil || q == "" {
		return err
	}
	if err := a.nav.Go(flow.Processing); err != nil {
		return err
	}
	return a.Process(ctx)
}

// Preview shows the cached results, fetching them when there are none.
func (a *App) Preview(ctx context.Context) error {
	m, err := a.store.MatchResults(ctx)
	if err != nil && !errors.Is(err, common.ErrorMalformed) {
		return err
	}
	if m == nil {
		return a.Process(ctx)
	}
	renderMatches(a.out, m)
	return a.nav.Go(flow.Preview)
}

// Paywall lists the plans.
func (a *App) Paywall(ctx context.Context) error {
	if err := a.showPlans(ctx); err != nil {
		return err
	}
	return a.nav.Go(flow.Paywall)
}

func (a *App) showPlans(ctx context.Context) error {
	plans, err := a.payments.Plans(ctx)
	if err != nil {
		return err
	}
	renderPlans(a.out, plans)
	fmt.Fprintln(a.out, "Buy with: checkout <plan> [monthly|annual]")
	return nil
}

// Checkout starts a checkout for the named plan and prints the payment link.
func (a *App) Checkout(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: checkout <plan> [monthly|annual]", errNoInput)
	}
	plans, err := a.payments.Plans(ctx)
	if err != nil {
		return err
	}
	plan, ok := findPlan(plans, args[0])
	if !ok {
		return fmt.Errorf("unknown plan %q", args[0])
	}
	cycle := models.Monthly
	if len(args) > 1 && strings.EqualFold(args[1], string(models.Annual)) {
		cycle = models.Annual
	}

	cs, err := a.payments.StartCheckout(ctx, plan, cycle)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Complete your payment at:\n  %s\nThen paste the return link with: return <url>\n", cs.CheckoutURL)
	return nil
}

func findPlan(plans []models.Plan, name string) (models.Plan, bool) {
	for _, p := range plans {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return models.Plan{}, false
}

// Return handles the link the payments provider redirected to.
func (a *App) Return(ctx context.Context, args []string) error {
	raw, err := a.argOrPrompt(args, "Paste the return link")
	if err != nil {
		return err
	}
	a.nav.Open(raw)
	res, err := a.payments.HandleReturn(ctx, raw)
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Fprintln(a.out, "Nothing to verify.")
		return nil
	}
	if res.Reconcile != nil {
		renderMatches(a.out, res.Reconcile.Matches)
		if res.Reconcile.Warning != "" {
			a.notify.Notify(services.LevelWarn, res.Reconcile.Warning)
		}
	}
	if a.nav.Current() == flow.Paywall {
		return a.showPlans(ctx)
	}
	return nil
}

// Reveal shows unlocked contacts or sends the user to the paywall.
func (a *App) Reveal(ctx context.Context) error {
	res, err := a.funnel.Reveal(ctx)
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}
	renderMatches(a.out, res.Matches)
	if !res.Revealed() {
		return a.showPlans(ctx)
	}
	return nil
}

func (a *App) Dashboard(ctx context.Context) error {
	v, err := a.dashboard.Load(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNoIdentity) {
			fmt.Fprintln(a.out, "Sign in to see your dashboard.")
			return a.nav.Go(flow.SSOOptional)
		}
		return err
	}
	renderDashboard(a.out, v)
	return a.nav.Go(flow.Dashboard)
}

// Credits refreshes and prints the credit balance. The cached value is shown
// when the refresh fails.
func (a *App) Credits(ctx context.Context) error {
	if !a.isSignedIn(ctx) {
		fmt.Fprintln(a.out, "Sign in to see your credits.")
		return nil
	}
	if _, err := a.credits.Refresh(ctx); err != nil {
		a.log.Warn(ctx, "credit refresh failed", "error", err)
	}
	c, err := a.credits.Current(ctx)
	if err != nil {
		return err
	}
	renderCredits(a.out, c)
	return nil
}

func (a *App) Back(ctx context.Context) error {
	if !a.nav.Back() {
		fmt.Fprintln(a.out, "Already at the start.")
		return nil
	}
	fmt.Fprintf(a.out, "Back to %s\n", a.nav.Current())
	return nil
}

func (a *App) StartOver(ctx context.Context) error {
	if err := a.funnel.StartOver(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Starting over.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	id, err := a.identity.GetIdentity(ctx)
	if errors.Is(err, common.ErrNoIdentity) {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s)", id.Email, id.AuthType)
	if id.Company != "" {
		fmt.Fprintf(a.out, ", %s", id.Company)
	}
	fmt.Fprintln(a.out)

	if others := disagreeing(a.identity.Conflicts(ctx)); len(others) > 0 {
		fmt.Fprintln(a.out, "Warning: other sign-ins disagree:")
		for _, s := range others {
			fmt.Fprintf(a.out, "  %s via %s\n", s.Identity.Email, s.AuthType)
		}
	}
	return nil
}

// disagreeing returns the sources after the first whose email differs from
// the first one's.
func disagreeing(sources []identity.Source) []identity.Source {
	if len(sources) < 2 {
		return nil
	}
	primary := sources[0].Identity.Email
	var out []identity.Source
	for _, s := range sources[1:] {
		if !strings.EqualFold(s.Identity.Email, primary) {
			out = append(out, s)
		}
	}
	return out
}

func (a *App) SignOut(ctx context.Context) error {
	if err := a.identity.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}
