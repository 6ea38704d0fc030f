package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/scoop/internal/flavor"
	"github.com/five82/scoop/internal/state"
)

// Loader is the part of the synchronizer the refresher drives.
type Loader interface {
	Load(ctx context.Context) ([]flavor.Item, error)
	State() state.State
}

// StartRefresher launches a background goroutine that reloads the collection
// at a fixed cadence while someone is signed in. It returns immediately.
func StartRefresher(ctx context.Context, l Loader, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		return
	}
	log := logger.With().Str("component", "refresher").Logger()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				refresh(ctx, l, log)
			}
		}
	}()
}

// refresh runs one load. It reports whether a load was attempted.
func refresh(ctx context.Context, l Loader, log zerolog.Logger) bool {
	if !l.State().SignedIn() {
		return false
	}
	_, err := l.Load(ctx)
	switch {
	case err == nil:
	case state.IsBusy(err), errors.Is(err, state.ErrStale):
		log.Debug().Err(err).Msg("refresh skipped")
	default:
		log.Warn().Err(err).Msg("refresh failed")
	}
	return true
}
