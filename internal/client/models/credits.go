package models

// CreditSummary is the billing view returned with matching calls and
// subscription lookups, cached under creditSummary.
type CreditSummary struct {
	IncludedCredits      int    `json:"included_credits"`
	Used                 int    `json:"used"`
	Remaining            int    `json:"remaining"`
	Pending              int    `json:"pending"`
	ProjectedUsed        int    `json:"projected_used"`
	ProjectedRemaining   int    `json:"projected_remaining"`
	StripeCustomerID     string `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string `json:"stripe_subscription_id,omitempty"`
	PeriodStart          int64  `json:"period_start,omitempty"`
	PeriodEnd            int64  `json:"period_end,omitempty"`
}

// Project recomputes the projected figures as if additional credits were
// consumed on top of the confirmed usage. Negative additions count as zero
// and balances never drop below zero.
func (c CreditSummary) Project(additional int) CreditSummary {
	if additional < 0 {
		additional = 0
	}
	out := c
	out.Remaining = max(c.IncludedCredits-c.Used, 0)
	out.ProjectedUsed = c.Used + additional
	out.Pending = c.Pending + additional
	out.ProjectedRemaining = max(c.IncludedCredits-out.ProjectedUsed, 0)
	return out
}
