package gamemaster

import (
	"context"
	"time"
)

// RunJanitor calls Cleanup every interval until ctx is done. A panic in a cleanup
// pass is logged and the loop restarts.
func (gm *GameMaster) RunJanitor(ctx context.Context, interval, idle time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			gm.logger.Error().
				Interface("panic", r).
				Msg("Game janitor panicked - restarting")
			if ctx.Err() == nil {
				go gm.RunJanitor(ctx, interval, idle)
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			gm.logger.Debug().Msg("Game janitor stopped")
			return
		case <-ticker.C:
			gm.Cleanup(idle)
		}
	}
}
