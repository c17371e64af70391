package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/viqi/internal/client/models"
	"github.com/dmitrijs2005/viqi/internal/client/services"
)

func renderMatches(w io.Writer, m *models.MatchResults) {
	if m == nil || len(m.Results) == 0 {
		fmt.Fprintln(w, "No matches yet.")
		return
	}
	label := "Preview"
	if m.Status == models.StatusRevealed {
		label = "Revealed"
	}
	fmt.Fprintf(w, "%s: %d matches for %q\n", label, len(m.Results), m.Query)

	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tTITLE\tCOMPANY\tEMAIL\tSCORE")
	for i, r := range m.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.2f\n", i+1, r.Name, r.Title, r.Company(), r.Email(), r.Score)
	}
	_ = tw.Flush()

	for i, r := range m.Results {
		if r.Reason != "" {
			fmt.Fprintf(w, "%d. %s\n", i+1, r.Reason)
		}
		if r.HasPlainEmail() && r.EmailDraft != "" {
			fmt.Fprintf(w, "   Draft:\n   %s\n", strings.ReplaceAll(r.EmailDraft, "\n", "\n   "))
		}
	}
}

func renderPlans(w io.Writer, plans []models.Plan) {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAN\tMONTHLY\tANNUAL\tCREDITS")
	for _, p := range plans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.Name,
			models.FormatPrice(p.MonthlyPriceCents, p.Currency),
			models.FormatPrice(p.AnnualPriceCents, p.Currency),
			p.IncludedCredits)
	}
	_ = tw.Flush()
}

func renderCredits(w io.Writer, c *models.CreditSummary) {
	if c == nil {
		fmt.Fprintln(w, "No credit information yet.")
		return
	}
	fmt.Fprintf(w, "Credits: %d of %d remaining", c.Remaining, c.IncludedCredits)
	if c.Pending > 0 {
		fmt.Fprintf(w, " (%d pending, %d projected)", c.Pending, c.ProjectedRemaining)
	}
	fmt.Fprintln(w)
}

func renderDashboard(w io.Writer, v *services.DashboardView) {
	fmt.Fprintf(w, "Signed in as %s", v.Identity.Email)
	if v.Identity.Company != "" {
		fmt.Fprintf(w, " (%s)", v.Identity.Company)
	}
	fmt.Fprintln(w)

	renderCredits(w, v.Credits)
	if v.Subscription != nil && v.Subscription.Access.CanAccessPremium {
		fmt.Fprintln(w, "Subscription: active")
	}

	if len(v.History) > 0 {
		fmt.Fprintln(w, "Recent matches:")
		tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
		for _, h := range v.History {
			fmt.Fprintf(tw, "  %s\t%s\t%d results\n", h.Query, h.Status, h.ResultCount)
		}
		_ = tw.Flush()
	}

	fmt.Fprintln(w, "Plans:")
	renderPlans(w, v.Plans)
}
