package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"valhalla/domain/orderbook"
	"valhalla/infra/wal/entry"
)

// command is one unit of work for the dispatcher loop.
type command interface {
	apply(s *EngineService)
}

type submitCmd struct {
	side  orderbook.Side
	kind  orderbook.Kind
	price int64
	qty   int64
	reply chan submitReply
}

type submitReply struct {
	res SubmitResult
	err error
}

type cancelCmd struct {
	id    uint64
	reply chan cancelReply
}

type cancelReply struct {
	remaining int64
	err       error
}

// queryCmd runs a read-only closure on the loop, between operations.
type queryCmd struct {
	fn   func(b *orderbook.Book)
	done chan struct{}
}

func (c *submitCmd) apply(s *EngineService) {
	// Durable intent first, then the deterministic domain mutation.
	rec := entry.NewRecord(entry.RecordPlace, s.walSeq.Next(),
		encodePlace(c.side, c.kind, c.price, c.qty))
	if err := s.wal.Append(rec); err != nil {
		s.log.Error("entry wal append failed", zap.Error(err))
	}

	id, trades, state, err := s.book.Submit(c.side, c.kind, c.price, c.qty)
	if err == nil {
		s.publish(trades)
	}
	c.reply <- submitReply{
		res: SubmitResult{OrderID: id, Trades: trades, State: state},
		err: err,
	}
}

func (c *cancelCmd) apply(s *EngineService) {
	rec := entry.NewRecord(entry.RecordCancel, s.walSeq.Next(), encodeCancel(c.id))
	if err := s.wal.Append(rec); err != nil {
		s.log.Error("entry wal append failed", zap.Error(err))
	}

	remaining, err := s.book.Cancel(c.id)
	c.reply <- cancelReply{remaining: remaining, err: err}
}

func (c *queryCmd) apply(s *EngineService) {
	c.fn(s.book)
	close(c.done)
}

// Run drains the command queue until ctx is canceled. It must be
// called exactly once; all engine state is confined to this goroutine.
func (s *EngineService) Run(ctx context.Context) {
	go s.drainOutbox(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.cmds:
			cmd.apply(s)
		}
	}
}

func (s *EngineService) send(ctx context.Context, cmd command) error {
	select {
	case s.cmds <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// publish hands finished trades to the outbox writer and the live
// feed. Both are fire-and-forget: a slow or failed sink never stalls
// the matching path.
func (s *EngineService) publish(trades []orderbook.Trade) {
	for _, t := range trades {
		select {
		case s.outboxCh <- t:
		default:
			s.log.Warn("outbox queue full, dropping trade durability",
				zap.Uint64("trade_seq", t.Seq))
		}
		select {
		case s.feed <- t:
		default:
			// feed is best-effort; REST /trades remains authoritative
		}
	}
}

// ---- WAL payload codec ----
//
// place:  side|kind|price|qty
// cancel: orderID

func encodePlace(side orderbook.Side, kind orderbook.Kind, price, qty int64) []byte {
	return fmt.Appendf(nil, "%d|%d|%d|%d", side, kind, price, qty)
}

func decodePlace(b []byte) (orderbook.Side, orderbook.Kind, int64, int64, error) {
	var side, kind int
	var price, qty int64
	if _, err := fmt.Sscanf(string(b), "%d|%d|%d|%d", &side, &kind, &price, &qty); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid place payload %q: %w", b, err)
	}
	return orderbook.Side(side), orderbook.Kind(kind), price, qty, nil
}

func encodeCancel(id uint64) []byte {
	return fmt.Appendf(nil, "%d", id)
}

func decodeCancel(b []byte) (uint64, error) {
	var id uint64
	if _, err := fmt.Sscanf(string(b), "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid cancel payload %q: %w", b, err)
	}
	return id, nil
}
