package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"valhalla/domain/orderbook"
	"valhalla/infra/sequence"
	"valhalla/infra/wal/entry"
	"valhalla/infra/wal/exit"
)

// SubmitResult is the outcome of one order submission.
type SubmitResult struct {
	OrderID uint64            `json:"order_id"`
	Trades  []orderbook.Trade `json:"trades"`
	State   orderbook.State   `json:"-"`
}

// EngineService wires the book to its durability and publication
// surroundings. No globals; one instance per instrument.
type EngineService struct {
	book   *orderbook.Book
	wal    *entry.WAL
	walSeq *sequence.Sequencer
	outbox *exit.WAL
	log    *zap.Logger

	cmds     chan command
	outboxCh chan orderbook.Trade
	feed     chan orderbook.Trade
}

type Options struct {
	CommandBuffer int
	FeedBuffer    int
}

func New(
	book *orderbook.Book,
	w *entry.WAL,
	walSeq *sequence.Sequencer,
	outbox *exit.WAL,
	log *zap.Logger,
	opts Options,
) *EngineService {
	if opts.CommandBuffer <= 0 {
		opts.CommandBuffer = 1024
	}
	if opts.FeedBuffer <= 0 {
		opts.FeedBuffer = 4096
	}
	return &EngineService{
		book:     book,
		wal:      w,
		walSeq:   walSeq,
		outbox:   outbox,
		log:      log,
		cmds:     make(chan command, opts.CommandBuffer),
		outboxCh: make(chan orderbook.Trade, opts.FeedBuffer),
		feed:     make(chan orderbook.Trade, opts.FeedBuffer),
	}
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// Submit places a new order. Safe for concurrent callers; requests are
// serialized into the dispatcher queue.
func (s *EngineService) Submit(
	ctx context.Context,
	side orderbook.Side,
	kind orderbook.Kind,
	price, qty int64,
) (SubmitResult, error) {
	cmd := &submitCmd{
		side:  side,
		kind:  kind,
		price: price,
		qty:   qty,
		reply: make(chan submitReply, 1),
	}
	if err := s.send(ctx, cmd); err != nil {
		return SubmitResult{}, err
	}
	select {
	case r := <-cmd.reply:
		return r.res, r.err
	case <-ctx.Done():
		return SubmitResult{}, ctx.Err()
	}
}

// Cancel removes a resting order, returning its remaining quantity.
func (s *EngineService) Cancel(ctx context.Context, id uint64) (int64, error) {
	cmd := &cancelCmd{id: id, reply: make(chan cancelReply, 1)}
	if err := s.send(ctx, cmd); err != nil {
		return 0, err
	}
	select {
	case r := <-cmd.reply:
		return r.remaining, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

func (s *EngineService) query(ctx context.Context, fn func(b *orderbook.Book)) error {
	cmd := &queryCmd{fn: fn, done: make(chan struct{})}
	if err := s.send(ctx, cmd); err != nil {
		return err
	}
	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *EngineService) BestBid(ctx context.Context) (price int64, ok bool, err error) {
	err = s.query(ctx, func(b *orderbook.Book) {
		price, ok = b.BestBid()
	})
	return
}

func (s *EngineService) BestAsk(ctx context.Context) (price int64, ok bool, err error) {
	err = s.query(ctx, func(b *orderbook.Book) {
		price, ok = b.BestAsk()
	})
	return
}

func (s *EngineService) Depth(ctx context.Context, side orderbook.Side, n int) (levels []orderbook.LevelDepth, err error) {
	err = s.query(ctx, func(b *orderbook.Book) {
		levels = b.Depth(side, n)
	})
	return
}

// Trades returns a copy of the trade log with Seq > sinceSeq.
func (s *EngineService) Trades(ctx context.Context, sinceSeq uint64) (trades []orderbook.Trade, err error) {
	err = s.query(ctx, func(b *orderbook.Book) {
		trades = append([]orderbook.Trade(nil), b.TradesSince(sinceSeq)...)
	})
	return
}

// DepthSnapshot is the market-data view published to Kafka and served
// over the REST orderbook endpoint.
type DepthSnapshot struct {
	Event uint64                 `json:"event"`
	Bids  []orderbook.LevelDepth `json:"bids"`
	Asks  []orderbook.LevelDepth `json:"asks"`
}

func (s *EngineService) Snapshot(ctx context.Context, levels int) (snap DepthSnapshot, err error) {
	err = s.query(ctx, func(b *orderbook.Book) {
		snap = DepthSnapshot{
			Event: b.LastEvent(),
			Bids:  b.Depth(orderbook.Bid, levels),
			Asks:  b.Depth(orderbook.Ask, levels),
		}
	})
	return
}

// Feed exposes the live trade stream. Best-effort: under backpressure
// trades are dropped from the feed, never from the log or outbox.
func (s *EngineService) Feed() <-chan orderbook.Trade {
	return s.feed
}

//
// ──────────────────────────────────────────────────────────
// Outbox
// ──────────────────────────────────────────────────────────
//

// drainOutbox persists emitted trades to the pebble outbox off the
// matching path.
func (s *EngineService) drainOutbox(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.outboxCh:
			payload, err := json.Marshal(t)
			if err != nil {
				s.log.Error("trade marshal failed", zap.Error(err))
				continue
			}
			if err := s.outbox.Append(t.Seq, payload); err != nil {
				s.log.Error("outbox append failed",
					zap.Uint64("trade_seq", t.Seq), zap.Error(err))
			}
		}
	}
}
