package refresh

import (
	"context"
	"time"

	"github.com/bencan1a/calendarlite/internal/logging"
)

// Run executes an immediate cycle, then one every interval until ctx is
// cancelled (spec §4.4 "periodic scheduling"). The inter-tick sleep is
// interrupted promptly by ctx.Done() rather than running to completion.
// onCycle, if non-nil, runs after every cycle (used to trigger a Dashboard
// Hub broadcast).
func Run(ctx context.Context, p *Pipeline, interval time.Duration, onCycle func()) {
	log := logging.For("refresh")
	p.RunOnce(ctx)
	if onCycle != nil {
		onCycle()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	// Between cycles the background-task heartbeat keeps ticking, so an
	// interval longer than the stale threshold does not read as a stall.
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("refresh scheduler stopping")
			return
		case <-heartbeat.C:
			p.health.Heartbeat()
		case <-ticker.C:
			p.RunOnce(ctx)
			if onCycle != nil {
				onCycle()
			}
		}
	}
}
