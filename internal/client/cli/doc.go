// Package cli provides the ViQi terminal client.
//
// It wires configuration, the local store, the API client and the funnel
// services, and exposes them through a cobra command tree: one-shot
// subcommands (match, reveal, return, plans, signin, signout, whoami,
// credits) and an interactive REPL that walks the funnel step by step
// (query, sign in, preview, paywall, reveal, dashboard).
//
// While the REPL runs, a background watcher polls the health endpoint and
// flips the prompt between online and offline mode.
package cli
