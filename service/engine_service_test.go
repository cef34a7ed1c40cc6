package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"valhalla/domain/orderbook"
	"valhalla/infra/sequence"
	"valhalla/infra/wal/entry"
	"valhalla/infra/wal/exit"
)

type testEnv struct {
	svc    *EngineService
	book   *orderbook.Book
	outbox *exit.WAL
	walDir string
	ctx    context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	walDir := t.TempDir()
	w, err := entry.Open(entry.Config{Dir: walDir})
	if err != nil {
		t.Fatalf("open entry wal: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	outbox, err := exit.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open outbox: %v", err)
	}
	t.Cleanup(func() { _ = outbox.Close() })

	book := orderbook.NewBook()
	svc := New(book, w, sequence.New(0), outbox, zap.NewNop(), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go svc.Run(ctx)

	return &testEnv{svc: svc, book: book, outbox: outbox, walDir: walDir, ctx: ctx}
}

func TestServiceSubmitAndQuery(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.Submit(env.ctx, orderbook.Bid, orderbook.Limit, 100, 10)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.OrderID == 0 || res.State != orderbook.Resting || len(res.Trades) != 0 {
		t.Fatalf("result = %+v; want resting order, no trades", res)
	}

	bid, ok, err := env.svc.BestBid(env.ctx)
	if err != nil || !ok || bid != 100 {
		t.Fatalf("best bid = %d,%v,%v; want 100", bid, ok, err)
	}
	if _, ok, _ := env.svc.BestAsk(env.ctx); ok {
		t.Fatal("ask side should be empty")
	}

	depth, err := env.svc.Depth(env.ctx, orderbook.Bid, 5)
	if err != nil || len(depth) != 1 || depth[0].Qty != 10 {
		t.Fatalf("depth = %+v, %v", depth, err)
	}

	snap, err := env.svc.Snapshot(env.ctx, 5)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Bids) != 1 || len(snap.Asks) != 0 || snap.Event == 0 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestServiceMatchProducesTrades(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.Submit(env.ctx, orderbook.Bid, orderbook.Limit, 100, 10); err != nil {
		t.Fatal(err)
	}
	res, err := env.svc.Submit(env.ctx, orderbook.Ask, orderbook.Limit, 100, 4)
	if err != nil {
		t.Fatalf("crossing submit: %v", err)
	}
	if len(res.Trades) != 1 || res.Trades[0].Price != 100 || res.Trades[0].Qty != 4 {
		t.Fatalf("trades = %+v; want one 4@100", res.Trades)
	}
	tradeSeq := res.Trades[0].Seq

	trades, err := env.svc.Trades(env.ctx, 0)
	if err != nil || len(trades) != 1 {
		t.Fatalf("trades query = %+v, %v", trades, err)
	}

	// The trade stream is live on the feed.
	select {
	case ft := <-env.svc.Feed():
		if ft.Seq != tradeSeq {
			t.Fatalf("feed trade seq = %d; want %d", ft.Seq, tradeSeq)
		}
	case <-time.After(time.Second):
		t.Fatal("no trade on the feed")
	}

	// The outbox writer runs off the matching path; poll for the record.
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec, err := env.outbox.Get(tradeSeq)
		if err == nil {
			if rec.State != exit.StateNew {
				t.Fatalf("outbox state = %v; want NEW", rec.State)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("trade never reached the outbox: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServiceCancel(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.Submit(env.ctx, orderbook.Bid, orderbook.Limit, 100, 10)
	if err != nil {
		t.Fatal(err)
	}

	remaining, err := env.svc.Cancel(env.ctx, res.OrderID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if remaining != 10 {
		t.Fatalf("remaining = %d; want 10", remaining)
	}

	if _, err := env.svc.Cancel(env.ctx, res.OrderID); !errors.Is(err, orderbook.ErrOrderNotFound) {
		t.Fatalf("repeat cancel err = %v; want ErrOrderNotFound", err)
	}
}

func TestServiceRejectsInvalidOrder(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Submit(env.ctx, orderbook.Bid, orderbook.Limit, 0, 10)
	if !errors.Is(err, orderbook.ErrInvalidOrder) {
		t.Fatalf("err = %v; want ErrInvalidOrder", err)
	}
}

func TestServiceCanceledContext(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithCancel(env.ctx)
	cancel()
	if _, err := env.svc.Submit(ctx, orderbook.Bid, orderbook.Limit, 100, 1); err == nil {
		t.Fatal("submit with canceled context should fail")
	}
}

func TestReplayRebuildsIdenticalBook(t *testing.T) {
	walDir := t.TempDir()

	// --- first life: run traffic through the service ---
	w, err := entry.Open(entry.Config{Dir: walDir})
	if err != nil {
		t.Fatal(err)
	}
	outbox, err := exit.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = outbox.Close() }()

	book := orderbook.NewBook()
	walSeq := sequence.New(0)
	svc := New(book, w, walSeq, outbox, zap.NewNop(), Options{})

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Run(ctx)

	var cancelID uint64
	ops := []struct {
		side  orderbook.Side
		price int64
		qty   int64
	}{
		{orderbook.Bid, 100, 10},
		{orderbook.Bid, 99, 5},
		{orderbook.Ask, 100, 4},
		{orderbook.Ask, 105, 7},
	}
	for i, op := range ops {
		res, err := svc.Submit(ctx, op.side, orderbook.Limit, op.price, op.qty)
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if i == 1 {
			cancelID = res.OrderID
		}
	}
	if _, err := svc.Cancel(ctx, cancelID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	wantTrades, err := svc.Trades(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	wantBid, _, _ := svc.BestBid(ctx)
	wantAsk, _, _ := svc.BestAsk(ctx)
	wantOpen := book.OpenOrders()
	wantSeq := walSeq.Current()

	cancel()
	if err := w.Close(); err != nil {
		t.Fatalf("close wal: %v", err)
	}

	// --- second life: rebuild from the WAL alone ---
	book2 := orderbook.NewBook()
	walSeq2 := sequence.New(0)
	if err := ReplayFromWAL(walDir, book2, walSeq2, zap.NewNop()); err != nil {
		t.Fatalf("replay: %v", err)
	}

	if walSeq2.Current() != wantSeq {
		t.Fatalf("wal seq after replay = %d; want %d", walSeq2.Current(), wantSeq)
	}
	if book2.OpenOrders() != wantOpen {
		t.Fatalf("open orders = %d; want %d", book2.OpenOrders(), wantOpen)
	}

	bid, _ := book2.BestBid()
	ask, _ := book2.BestAsk()
	if bid != wantBid || ask != wantAsk {
		t.Fatalf("top of book = %d/%d; want %d/%d", bid, ask, wantBid, wantAsk)
	}

	gotTrades := book2.Trades()
	if len(gotTrades) != len(wantTrades) {
		t.Fatalf("trades = %d; want %d", len(gotTrades), len(wantTrades))
	}
	for i := range wantTrades {
		if gotTrades[i] != wantTrades[i] {
			t.Fatalf("trade %d = %+v; want %+v", i, gotTrades[i], wantTrades[i])
		}
	}
}

func TestWALCodecRoundTrip(t *testing.T) {
	side, kind, price, qty, err := decodePlace(encodePlace(orderbook.Ask, orderbook.Market, 0, 25))
	if err != nil {
		t.Fatalf("decode place: %v", err)
	}
	if side != orderbook.Ask || kind != orderbook.Market || price != 0 || qty != 25 {
		t.Fatalf("decoded %v %v %d %d", side, kind, price, qty)
	}

	id, err := decodeCancel(encodeCancel(42))
	if err != nil || id != 42 {
		t.Fatalf("decode cancel = %d, %v", id, err)
	}

	if _, _, _, _, err := decodePlace([]byte("garbage")); err == nil {
		t.Fatal("garbage place payload should fail")
	}
}
