package overlay

import (
	"context"
	"errors"
	"time"

	"github.com/spacehole-rogue/starview/internal/logging"
)

func (o *Overlay) startPollLocked() {
	if o.stopPoll != nil || o.cfg.PollInterval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(o.life)
	o.stopPoll = cancel
	o.wg.Add(1)
	go o.pollLoop(ctx, o.cfg.PollInterval)
}

func (o *Overlay) stopPollLocked() {
	if o.stopPoll == nil {
		return
	}
	o.stopPoll()
	o.stopPoll = nil
}

// pollLoop refreshes entities and paths every interval until ctx ends.
func (o *Overlay) pollLoop(ctx context.Context, interval time.Duration) {
	defer o.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.Refresh(ctx)
		}
	}
}

// Refresh reloads entities with the last owner filter, then their paths.
// It is what every poll tick runs.
func (o *Overlay) Refresh(ctx context.Context) {
	o.mu.Lock()
	filter := o.filter
	o.mu.Unlock()

	if err := o.LoadEntities(ctx, filter); err != nil {
		if !errors.Is(err, context.Canceled) {
			o.log.Debug("poll refresh failed", logging.Err(err))
		}
		return
	}
	if err := o.LoadMovementPaths(ctx); err != nil && !errors.Is(err, context.Canceled) {
		o.log.Debug("path refresh failed", logging.Err(err))
	}
}
