package orderbook

import (
	"fmt"

	"valhalla/infra/memory"
	"valhalla/infra/sequence"
)

// Book is the matching engine for one instrument. It owns both sides,
// the order index, the counters, and the trade log. All methods assume
// single-writer access; the service layer serializes callers.
type Book struct {
	Bids *BookSide
	Asks *BookSide

	index    *OrderIndex
	ids      *sequence.Sequencer // order IDs
	events   *sequence.Sequencer // total ordering across orders and trades
	tradeIDs *sequence.Sequencer
	pool     *memory.Pool[Order]

	trades []Trade

	// corrupted latches the first detected invariant violation; once
	// set every mutating call fails with it.
	corrupted error
}

func NewBook() *Book {
	return &Book{
		Bids:     NewBookSide(Bid),
		Asks:     NewBookSide(Ask),
		index:    NewOrderIndex(),
		ids:      sequence.New(0),
		events:   sequence.New(0),
		tradeIDs: sequence.New(0),
		pool: memory.NewPool(func() *Order {
			return &Order{}
		}),
	}
}

// Submit validates, matches, and rests or discards the remainder of an
// incoming order. It returns the assigned order ID, the trades emitted
// (possibly none), and the order's final state.
//
// Validation happens before any state mutation: an invalid order
// leaves the book, the counters, and the trade log untouched.
func (b *Book) Submit(side Side, kind Kind, price, qty int64) (uint64, []Trade, State, error) {
	if b.corrupted != nil {
		return 0, nil, New, b.corrupted
	}
	if qty <= 0 {
		return 0, nil, New, fmt.Errorf("%w: quantity %d must be positive", ErrInvalidOrder, qty)
	}
	if kind == Limit && price <= 0 {
		return 0, nil, New, fmt.Errorf("%w: limit price %d must be positive", ErrInvalidOrder, price)
	}
	if kind == Market {
		price = 0 // a market order carries no price constraint
	}

	o := b.pool.Get()
	*o = Order{
		ID:    b.ids.Next(),
		Seq:   b.events.Next(),
		Price: price,
		Qty:   qty,
		Side:  side,
		Kind:  kind,
		State: New,
	}

	var trades []Trade
	if o.Side == Bid {
		trades = b.matchBid(o)
	} else {
		trades = b.matchAsk(o)
	}
	b.trades = append(b.trades, trades...)

	id := o.ID
	state := b.settle(o, len(trades) > 0)

	if err := b.checkCrossing(); err != nil {
		b.corrupted = err
		return id, trades, state, err
	}
	return id, trades, state, nil
}

// settle decides what happens to the unmatched remainder and returns
// the order's final state as seen by the caller.
func (b *Book) settle(o *Order, traded bool) State {
	switch {
	case o.Remaining() == 0:
		b.recycle(o)
		return Filled
	case o.Kind == Market:
		// A market order never rests; unfilled quantity is dropped.
		b.recycle(o)
		return Discarded
	case traded:
		o.State = PartiallyFilled
		b.sideOf(o.Side).Insert(o)
		b.index.Insert(o)
		return PartiallyFilled
	default:
		o.State = Resting
		b.sideOf(o.Side).Insert(o)
		b.index.Insert(o)
		return Resting
	}
}

// Cancel removes a resting order and returns its remaining quantity at
// the time of cancellation. A miss mutates nothing.
func (b *Book) Cancel(id uint64) (int64, error) {
	if b.corrupted != nil {
		return 0, b.corrupted
	}
	o, ok := b.index.Lookup(id)
	if !ok {
		return 0, fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
	}
	if !b.sideOf(o.Side).Remove(o) {
		b.corrupted = fmt.Errorf("%w: indexed order %d has no level at price %d",
			ErrBookCorrupted, id, o.Price)
		return 0, b.corrupted
	}
	b.index.Remove(id)

	remaining := o.Remaining()
	b.recycle(o)
	return remaining, nil
}

// ---- matching ----

func (b *Book) matchBid(o *Order) []Trade {
	var out []Trade
	for o.Remaining() > 0 {
		best := b.Asks.Best()
		if best == nil {
			break
		}
		if o.Kind != Market && best.Price > o.Price {
			break
		}
		out = append(out, b.execute(o, best, b.Asks))
	}
	return out
}

func (b *Book) matchAsk(o *Order) []Trade {
	var out []Trade
	for o.Remaining() > 0 {
		best := b.Bids.Best()
		if best == nil {
			break
		}
		if o.Kind != Market && best.Price < o.Price {
			break
		}
		out = append(out, b.execute(o, best, b.Bids))
	}
	return out
}

// execute crosses the taker against the level head. The trade price is
// the maker's price, never the taker's.
func (b *Book) execute(taker *Order, lvl *PriceLevel, side *BookSide) Trade {
	maker := lvl.Head()
	qty := min(taker.Remaining(), maker.Remaining())

	taker.Filled += qty
	maker.Filled += qty
	lvl.reduce(qty)

	t := Trade{
		ID:    b.tradeIDs.Next(),
		Seq:   b.events.Next(),
		Price: lvl.Price,
		Qty:   qty,
	}
	if taker.Side == Bid {
		t.BuyOrderID = taker.ID
		t.SellOrderID = maker.ID
	} else {
		t.BuyOrderID = maker.ID
		t.SellOrderID = taker.ID
	}

	if maker.Remaining() == 0 {
		lvl.PopHead()
		b.index.Remove(maker.ID)
		b.recycle(maker)
		if lvl.Empty() {
			side.DropBest(lvl)
		}
	}
	return t
}

// ---- queries ----

func (b *Book) BestBid() (int64, bool) {
	if lvl := b.Bids.Best(); lvl != nil {
		return lvl.Price, true
	}
	return 0, false
}

func (b *Book) BestAsk() (int64, bool) {
	if lvl := b.Asks.Best(); lvl != nil {
		return lvl.Price, true
	}
	return 0, false
}

func (b *Book) Depth(side Side, n int) []LevelDepth {
	return b.sideOf(side).Depth(n)
}

// Trades exposes the engine-owned trade log in event-sequence order.
// Callers must treat the slice as read-only.
func (b *Book) Trades() []Trade {
	return b.trades
}

// TradesSince returns all trades with Seq strictly greater than seq.
func (b *Book) TradesSince(seq uint64) []Trade {
	for i := len(b.trades) - 1; i >= 0; i-- {
		if b.trades[i].Seq <= seq {
			return b.trades[i+1:]
		}
	}
	return b.trades
}

// OpenOrders reports how many orders currently rest on the book.
func (b *Book) OpenOrders() int {
	return b.index.Len()
}

// LastEvent returns the latest issued event sequence number.
func (b *Book) LastEvent() uint64 {
	return b.events.Current()
}

// Corrupted reports the latched invariant violation, if any.
func (b *Book) Corrupted() error {
	return b.corrupted
}

// ---- internals ----

// recycle returns a terminal order to the pool. Nothing may hold a
// reference to it past this point.
func (b *Book) recycle(o *Order) {
	o.Reset()
	b.pool.Put(o)
}

func (b *Book) sideOf(s Side) *BookSide {
	if s == Bid {
		return b.Bids
	}
	return b.Asks
}

// checkCrossing enforces the global non-crossing invariant after every
// completed operation: best_bid < best_ask, or one side is empty.
func (b *Book) checkCrossing() error {
	bid := b.Bids.Best()
	ask := b.Asks.Best()
	if bid != nil && ask != nil && bid.Price >= ask.Price {
		return fmt.Errorf("%w: crossed book, bid %d >= ask %d",
			ErrBookCorrupted, bid.Price, ask.Price)
	}
	return nil
}
