package orderbook

// Trade records one execution. The price is always the resting order's
// price: when the incoming limit is more aggressive than necessary the
// incoming side receives the improvement.
//
// Trades are immutable once emitted and are appended to the book's
// trade log in Seq order.
type Trade struct {
	ID          uint64 `json:"id"`
	Seq         uint64 `json:"seq"` // engine-global event sequence
	Price       int64  `json:"price"`
	Qty         int64  `json:"qty"`
	BuyOrderID  uint64 `json:"buy_order_id"`
	SellOrderID uint64 `json:"sell_order_id"`
}
