// Package broadcaster implements the background job that drains the
// trade outbox and publishes pending trades to Kafka. Delivery is
// at-least-once: entries are marked SENT before publish and ACKED only
// after the broker confirms, so a crash between the two replays the
// trade on the next tick.
package broadcaster

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	exitwal "valhalla/infra/wal/exit"
)

type Broadcaster struct {
	outbox   *exitwal.WAL
	producer sarama.SyncProducer
	topic    string
	period   time.Duration
	log      *zap.Logger
}

func New(
	outbox *exitwal.WAL,
	brokers []string,
	topic string,
	period time.Duration,
	log *zap.Logger,
) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		outbox:   outbox,
		producer: producer,
		topic:    topic,
		period:   period,
		log:      log,
	}, nil
}

// Run ticks until ctx is canceled.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started", zap.String("topic", b.topic))

	ticker := time.NewTicker(b.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.drainOnce()
		}
	}
}

func (b *Broadcaster) drainOnce() {
	err := b.outbox.ScanPending(func(rec exitwal.Record) error {
		if err := b.outbox.MarkSent(rec.Seq); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder("trade"),
			Value: sarama.ByteEncoder(rec.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			b.log.Warn("trade publish failed, will retry",
				zap.Uint64("trade_seq", rec.Seq),
				zap.Uint32("retries", rec.Retries),
				zap.Error(err))
			return nil // leave SENT; next tick retries
		}

		return b.outbox.MarkAcked(rec.Seq)
	})
	if err != nil {
		b.log.Error("outbox scan failed", zap.Error(err))
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
