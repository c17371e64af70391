// Package common contains shared constants and sentinel errors used across
// the ViQi client components.
package common

// Header names attached to every outbound API request.
const (
	AuthorizationHeaderName = "Authorization"
	RequestIDHeaderName     = "X-Request-ID"
)

// Storage keys. Durable keys outlive a session, session keys are wiped when a
// fresh session starts.
const (
	KeyCustomAuth       = "customAuth"
	KeyFederatedSession = "federatedSession"

	KeyUserEmail           = "userEmail"
	KeyBackendToken        = "backendToken"
	KeyBusinessDomain      = "businessDomain"
	KeyCreditSummary       = "creditSummary"
	KeyUserQuery           = "userQuery"
	KeyMatchResults        = "matchResults"
	KeyCurrentMatchID      = "currentMatchId"
	KeyStripeCheckoutEmail = "stripeCheckoutEmail"
	KeyStripeCheckoutPlan  = "stripeCheckoutPlan"

	// KeyLastCheckoutSession is the last checkout session id that was
	// verified, so a return link is never verified twice.
	KeyLastCheckoutSession = "lastCheckoutSession"
)

// CheckoutSessionParam is the query parameter the payments provider appends
// to the success URL.
const CheckoutSessionParam = "session_id"
