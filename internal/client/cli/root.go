package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

func (a *App) getStatus() string {
	parts := []string{string(a.nav.Current())}
	if id, err := a.identity.GetIdentity(context.Background()); err == nil {
		parts = append(parts, id.Email)
	}
	if b := a.badge.String(); b != "" {
		parts = append(parts, b)
	}
	if m := a.Mode(); m != "" {
		parts = append(parts, string(m))
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, " | "))
}

// Root runs the interactive session until the user exits or ctx is done.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to ViQi (type 'help' for commands)")

	watchCtx, stop := context.WithCancel(ctx)
	defer stop()
	go a.StartOnlineStatusWatcher(watchCtx, a.config.OnlineCheckInterval)

	if q, err := a.store.Query(ctx); err == nil && q != "" {
		fmt.Fprintf(a.out, "Resuming: %q\n", q)
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}
