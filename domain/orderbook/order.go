package orderbook

type Side int
type Kind int
type State int

const (
	Bid Side = iota
	Ask
)

const (
	Limit Kind = iota
	Market
)

const (
	New State = iota
	Resting
	PartiallyFilled
	Filled
	Canceled
	Discarded
)

func (s Side) String() string {
	if s == Ask {
		return "ask"
	}
	return "bid"
}

func (k Kind) String() string {
	if k == Market {
		return "market"
	}
	return "limit"
}

func (s State) String() string {
	switch s {
	case Resting:
		return "resting"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Canceled:
		return "canceled"
	case Discarded:
		return "discarded"
	default:
		return "new"
	}
}

// Order is a pure domain entity. While resting it is owned by exactly
// one PriceLevel; the OrderIndex holds a non-owning back-reference.
type Order struct {
	ID     uint64
	Price  int64
	Qty    int64 // original quantity
	Filled int64
	Seq    uint64 // arrival sequence, time-priority tiebreak

	Side  Side
	Kind  Kind
	State State

	next *Order
	prev *Order
}

func (o *Order) Remaining() int64 {
	return o.Qty - o.Filled
}

// Next supports read-only FIFO traversal within a level.
func (o *Order) Next() *Order {
	return o.next
}

func (o *Order) Reset() { *o = Order{} }
