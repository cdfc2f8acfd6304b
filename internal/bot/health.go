package bot

import (
	"context"
	"time"

	"github.com/keshon/bridge-bot/internal/bridge"
	"github.com/keshon/bridge-bot/internal/metrics"
	"github.com/keshon/bridge-bot/pkg/jobmgr"

	"github.com/rs/zerolog"
)

const healthJob = "bridge-health"

// HealthPinger is the part of the bridge client checked in the background.
type HealthPinger interface {
	CheckHealth(ctx context.Context) (*bridge.Health, error)
}

// BridgeHealthCheck returns a check that publishes bridgebot_bridge_up and
// logs only when the bridge changes state.
func BridgeHealthCheck(p HealthPinger, timeout time.Duration, log zerolog.Logger) func(ctx context.Context) {
	var known, up bool
	return func(ctx context.Context) {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		h, err := p.CheckHealth(pctx)
		if ctx.Err() != nil {
			return
		}
		metrics.SetBridgeUp(err == nil)

		switch {
		case err != nil && (!known || up):
			log.Warn().Err(err).Msg("bridge is unreachable")
		case err == nil && (!known || !up):
			log.Info().Str("bridge_version", h.Versions.Bridge).Msg("bridge is reachable")
		}
		known, up = true, err == nil
	}
}

// StartBackground starts the periodic jobs of the bot. interval 0 starts none.
func StartBackground(ctx context.Context, p HealthPinger, interval time.Duration, log zerolog.Logger) (*jobmgr.Manager, error) {
	jm := jobmgr.NewManager(ctx, func(msg string) {
		log.Debug().Str("event", msg).Msg("background job")
	})
	if interval <= 0 {
		return jm, nil
	}
	timeout := min(interval, 10*time.Second)
	if err := jm.StartAsync(healthJob, jobmgr.Every(interval, BridgeHealthCheck(p, timeout, log))); err != nil {
		return nil, err
	}
	return jm, nil
}
