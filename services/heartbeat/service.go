package heartbeat

import (
	"context"
	"time"

	"radiobridge-go/bus"
	"radiobridge-go/services/logger"
	"radiobridge-go/types"
	"radiobridge-go/x/mathx"
)

var topicConfigHeartbeat = bus.T("config", "heartbeat")

const defaultInterval = 60 * time.Second

type Service struct {
	rec *logger.Recorder
}

func NewService(rec *logger.Recorder) *Service {
	return &Service{rec: rec}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	// loop until context is cancelled, respond to tick and config changes
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			s.rec.Record(logger.SourceSystem, "Heartbeat")
		case msg := <-cfgSub.Channel():
			if m, ok := msg.Payload.(map[string]any); ok {
				if cfg := types.DecodeHeartbeatConfig(m); cfg.Interval > 0 {
					secs := mathx.Clamp(cfg.Interval, 1, 3600)
					tick.Reset(time.Duration(secs) * time.Second)
				}
			}
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
