package orderbook

// LevelDepth is an aggregate view of one price level, used by depth
// queries and market-data snapshots.
type LevelDepth struct {
	Price  int64 `json:"price"`
	Qty    int64 `json:"qty"`
	Orders int   `json:"orders"`
}

// BookSide holds all resting orders for one direction. Bids are best
// at the maximum price, asks at the minimum. Empty levels never
// persist: they are deleted the moment their queue drains.
type BookSide struct {
	side Side
	tree *RBTree
}

func NewBookSide(side Side) *BookSide {
	return &BookSide{side: side, tree: NewRBTree()}
}

// Best returns the extremal level for this side, or nil when empty.
func (s *BookSide) Best() *PriceLevel {
	if s.side == Bid {
		return s.tree.MaxLevel()
	}
	return s.tree.MinLevel()
}

func (s *BookSide) Insert(o *Order) {
	s.tree.GetOrCreate(o.Price).Enqueue(o)
}

// Remove unlinks a resting order from its level and drops the level if
// it empties. Returns false when no level exists at the order's price.
func (s *BookSide) Remove(o *Order) bool {
	lvl := s.tree.FindLevel(o.Price)
	if lvl == nil {
		return false
	}
	lvl.Unlink(o)
	if lvl.Empty() {
		s.tree.DeleteLevel(lvl.Price)
	}
	return true
}

// DropBest deletes the current best level. Callers must have drained
// its queue first.
func (s *BookSide) DropBest(lvl *PriceLevel) {
	s.tree.DeleteLevel(lvl.Price)
}

func (s *BookSide) Empty() bool {
	return s.tree.Size() == 0
}

func (s *BookSide) Levels() int {
	return s.tree.Size()
}

// Walk visits levels from best to worst.
func (s *BookSide) Walk(fn func(*PriceLevel) bool) {
	if s.side == Bid {
		s.tree.ForEachDescending(fn)
	} else {
		s.tree.ForEachAscending(fn)
	}
}

// Depth returns up to n levels nearest the best price, most
// aggressive first.
func (s *BookSide) Depth(n int) []LevelDepth {
	if n <= 0 {
		return nil
	}
	out := make([]LevelDepth, 0, n)
	s.Walk(func(lvl *PriceLevel) bool {
		out = append(out, LevelDepth{
			Price:  lvl.Price,
			Qty:    lvl.TotalQty,
			Orders: lvl.OrderCount,
		})
		return len(out) < n
	})
	return out
}
