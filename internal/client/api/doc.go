// Package api is the HTTP JSON client for the ViQi backend.
//
// # Overview
//
// One Client is shared by every component. It resolves a bearer token per
// request from a TokenSource, tags requests with an X-Request-ID, and maps
// responses to sentinel errors:
//
//   - 401 → ErrUnauthorized, after the OnUnauthorized hook ran
//   - 402 → ErrPaymentRequired
//   - 404 → ErrNotFound
//   - 502/503/504 and transport failures → ErrUnavailable
//   - other 5xx → ErrServer
//
// The full status and the backend's "detail" message are available through
// errors.As with *HTTPError.
//
// Idempotent GET requests are retried on ErrUnavailable/ErrServer with
// exponential backoff; POSTs are sent once.
//
// Endpoint groups live in auth.go, matching.go, payments.go and users.go.
package api
