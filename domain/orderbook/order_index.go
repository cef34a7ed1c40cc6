package orderbook

// OrderIndex maps order IDs to their resting orders for O(1) average
// cancellation. An entry exists iff the order currently rests on a
// side with Remaining > 0; the index never owns the order.
type OrderIndex struct {
	byID map[uint64]*Order
}

func NewOrderIndex() *OrderIndex {
	return &OrderIndex{byID: make(map[uint64]*Order)}
}

func (ix *OrderIndex) Insert(o *Order) {
	ix.byID[o.ID] = o
}

func (ix *OrderIndex) Lookup(id uint64) (*Order, bool) {
	o, ok := ix.byID[id]
	return o, ok
}

func (ix *OrderIndex) Remove(id uint64) {
	delete(ix.byID, id)
}

func (ix *OrderIndex) Len() int {
	return len(ix.byID)
}
