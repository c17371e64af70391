package models

type CheckoutSession struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

// PaymentVerification is the payments API's view of a checkout session.
type PaymentVerification struct {
	Success                  bool           `json:"success"`
	Message                  string         `json:"message,omitempty"`
	SessionID                string         `json:"session_id"`
	PaymentStatus            string         `json:"payment_status,omitempty"`
	Status                   string         `json:"status,omitempty"`
	CustomerEmail            string         `json:"customer_email,omitempty"`
	StripeCustomerID         string         `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID     string         `json:"stripe_subscription_id,omitempty"`
	StripeSubscriptionStatus string         `json:"stripe_subscription_status,omitempty"`
	CreditSummary            *CreditSummary `json:"credit_summary,omitempty"`
}

type SubscriptionAccess struct {
	CanAccessPremium         bool `json:"can_access_premium"`
	HasCreditsOrSubscription bool `json:"has_credits_or_subscription"`
	PaymentRequired          bool `json:"payment_required"`
}

type SubscriptionStatus struct {
	Email          string             `json:"email,omitempty"`
	CreditsBalance int                `json:"credits_balance"`
	Subscription   map[string]any     `json:"subscription,omitempty"`
	Access         SubscriptionAccess `json:"access"`
	CreditSummary  *CreditSummary     `json:"credit_summary,omitempty"`
}
