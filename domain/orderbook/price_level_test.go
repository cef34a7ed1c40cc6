package orderbook

import "testing"

func newLevelOrder(id uint64, qty int64) *Order {
	return &Order{ID: id, Price: 100, Qty: qty, State: Resting}
}

func TestPriceLevelFIFO(t *testing.T) {
	lvl := &PriceLevel{Price: 100}
	for i := uint64(1); i <= 3; i++ {
		lvl.Enqueue(newLevelOrder(i, 10))
	}
	if lvl.TotalQty != 30 || lvl.OrderCount != 3 {
		t.Fatalf("qty=%d count=%d; want 30/3", lvl.TotalQty, lvl.OrderCount)
	}

	for want := uint64(1); want <= 3; want++ {
		o := lvl.PopHead()
		if o == nil || o.ID != want {
			t.Fatalf("PopHead = %v; want id %d", o, want)
		}
	}
	if !lvl.Empty() || lvl.PopHead() != nil {
		t.Fatal("level should be empty")
	}
	if lvl.TotalQty != 0 || lvl.OrderCount != 0 {
		t.Fatalf("qty=%d count=%d after drain; want 0/0", lvl.TotalQty, lvl.OrderCount)
	}
}

func TestPriceLevelUnlink(t *testing.T) {
	lvl := &PriceLevel{Price: 100}
	a := newLevelOrder(1, 1)
	b := newLevelOrder(2, 2)
	c := newLevelOrder(3, 3)
	lvl.Enqueue(a)
	lvl.Enqueue(b)
	lvl.Enqueue(c)

	lvl.Unlink(b)
	if lvl.TotalQty != 4 || lvl.OrderCount != 2 {
		t.Fatalf("qty=%d count=%d after unlink; want 4/2", lvl.TotalQty, lvl.OrderCount)
	}
	if lvl.Head() != a {
		t.Fatal("head changed by middle unlink")
	}
	if a.Next() != c {
		t.Fatal("unlink did not splice neighbors")
	}

	lvl.Unlink(a)
	if lvl.Head() != c {
		t.Fatal("head unlink should promote next order")
	}
	lvl.Unlink(c)
	if !lvl.Empty() {
		t.Fatal("level should be empty")
	}
}

func TestPriceLevelUnlinkCountsRemaining(t *testing.T) {
	lvl := &PriceLevel{Price: 100}
	o := newLevelOrder(1, 10)
	o.Filled = 4
	lvl.Enqueue(o)
	if lvl.TotalQty != 6 {
		t.Fatalf("enqueue counted %d; want remaining 6", lvl.TotalQty)
	}
	lvl.Unlink(o)
	if lvl.TotalQty != 0 {
		t.Fatalf("qty=%d after unlink; want 0", lvl.TotalQty)
	}
}
