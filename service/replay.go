package service

import (
	"errors"

	"go.uber.org/zap"

	"valhalla/domain/orderbook"
	"valhalla/infra/sequence"
	"valhalla/infra/wal/entry"
)

// ReplayFromWAL rebuilds in-memory state from the entry WAL. It MUST
// run before the dispatcher accepts traffic.
//
// Replay re-executes the original command stream against a fresh book;
// because the book is deterministic this reproduces the same order
// IDs, trades, and sequence numbers. Rejected commands (invalid
// orders, cancels of filled orders) are replayed and rejected again,
// which keeps the WAL stream and the counters aligned.
func ReplayFromWAL(
	walDir string,
	book *orderbook.Book,
	walSeq *sequence.Sequencer,
	log *zap.Logger,
) error {
	lastSeq, err := entry.Replay(walDir, func(rec *entry.Record) error {
		switch rec.Type {
		case entry.RecordPlace:
			side, kind, price, qty, err := decodePlace(rec.Data)
			if err != nil {
				return err
			}
			if _, _, _, err := book.Submit(side, kind, price, qty); err != nil {
				if errors.Is(err, orderbook.ErrInvalidOrder) {
					return nil
				}
				return err
			}

		case entry.RecordCancel:
			id, err := decodeCancel(rec.Data)
			if err != nil {
				return err
			}
			if _, err := book.Cancel(id); err != nil {
				if errors.Is(err, orderbook.ErrOrderNotFound) {
					return nil
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Resume WAL sequencing after replay.
	walSeq.Reset(lastSeq)

	log.Info("wal replay completed",
		zap.Uint64("last_seq", lastSeq),
		zap.Int("open_orders", book.OpenOrders()),
		zap.Int("trades", len(book.Trades())))
	return nil
}
