package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/viqi/internal/client/services"
)

// StartOnlineStatusWatcher polls the health endpoint every interval and
// flips the app between online and offline mode. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	mode := ModeOnline
	if _, err := a.health.Health(pingCtx); err != nil {
		mode = ModeOffline
	}
	if a.setMode(ctx, mode) {
		a.notify.Notify(services.LevelInfo, "Switched to "+string(mode)+" mode")
	}
}
