package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"valhalla/infra/kafka"
)

// StartDepthPublisher periodically publishes a top-N depth snapshot to
// the market-data topic. Intended to run for the life of the process.
func (s *EngineService) StartDepthPublisher(
	ctx context.Context,
	producer *kafka.Producer,
	levels int,
	interval time.Duration,
) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				snap, err := s.Snapshot(ctx, levels)
				if err != nil {
					return // context canceled
				}
				payload, err := json.Marshal(snap)
				if err != nil {
					s.log.Error("depth marshal failed", zap.Error(err))
					continue
				}
				if err := producer.Send(ctx, []byte("depth"), payload); err != nil {
					s.log.Warn("depth publish failed", zap.Error(err))
				}
			}
		}
	}()
}
