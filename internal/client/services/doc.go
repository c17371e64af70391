// Package services contains the application services behind the funnel
// steps: match reconciliation, payment returns, credits, and the step
// controller that ties them to navigation.
//
// Services depend on small interfaces (identity lookup, API groups, the
// notifier) so they can be driven by fakes in tests; the concrete values are
// wired in the cli package.
package services
