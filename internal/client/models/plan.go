package models

import "fmt"

type BillingCycle string

const (
	Monthly BillingCycle = "monthly"
	Annual  BillingCycle = "annual"
)

type Plan struct {
	ID                   int    `json:"id"`
	Name                 string `json:"name"`
	MonthlyPriceCents    int    `json:"monthly_price_cents"`
	AnnualPriceCents     int    `json:"annual_price_cents"`
	IncludedCredits      int    `json:"included_credits"`
	OveragePriceCents    int    `json:"overage_price_cents"`
	Currency             string `json:"currency"`
	StripeMonthlyPriceID string `json:"stripe_monthly_price_id,omitempty"`
	StripeAnnualPriceID  string `json:"stripe_annual_price_id,omitempty"`
}

// PriceCents returns the price for the cycle; unknown cycles are monthly.
func (p Plan) PriceCents(cycle BillingCycle) int {
	if cycle == Annual {
		return p.AnnualPriceCents
	}
	return p.MonthlyPriceCents
}

// PriceID returns the payments-provider price id for the cycle, if configured.
func (p Plan) PriceID(cycle BillingCycle) string {
	if cycle == Annual {
		return p.StripeAnnualPriceID
	}
	return p.StripeMonthlyPriceID
}

// FormatPrice renders whole currency units: "$29" for USD, "29 EUR" otherwise.
func FormatPrice(cents int, currency string) string {
	if currency == "" || currency == "USD" || currency == "usd" {
		return fmt.Sprintf("$%.0f", float64(cents)/100)
	}
	return fmt.Sprintf("%.0f %s", float64(cents)/100, currency)
}

// MockPlans is the offline plan set shown when the payments API cannot be
// used.
func MockPlans() []Plan {
	return []Plan{
		{
			ID:                1,
			Name:              "Starter",
			MonthlyPriceCents: 2900,
			AnnualPriceCents:  29000,
			IncludedCredits:   50,
			OveragePriceCents: 100,
			Currency:          "USD",
		},
		{
			ID:                2,
			Name:              "Pro",
			MonthlyPriceCents: 7900,
			AnnualPriceCents:  79000,
			IncludedCredits:   200,
			OveragePriceCents: 80,
			Currency:          "USD",
		},
	}
}
