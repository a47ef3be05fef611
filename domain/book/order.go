package book

// Side is the direction of an order.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// Kind is the execution style of an order.
type Kind uint8

const (
	// Limit orders rest at their price when not fully matched.
	Limit Kind = iota
	// Market orders consume liquidity; any remainder is discarded.
	Market
)

func (k Kind) String() string {
	if k == Market {
		return "market"
	}
	return "limit"
}

// Status describes where an order is in its lifecycle.
type Status uint8

const (
	// Resting orders are present in the book with Remaining > 0.
	Resting Status = iota
	// Filled orders matched completely and left the book.
	Filled
	// Cancelled orders were removed with Remaining > 0. A market
	// remainder that never rested is also reported as Cancelled.
	Cancelled
	// Rejected orders failed validation and never entered the book.
	Rejected
)

func (st Status) String() string {
	switch st {
	case Resting:
		return "resting"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	default:
		return "rejected"
	}
}

// Order is one submission and its mutable execution state.
// Price is in integer ticks; zero for market orders.
// Sequence is the arrival counter breaking ties within a price level.
type Order struct {
	ID        uint64
	Side      Side
	Kind      Kind
	Price     int64
	Quantity  int64
	Remaining int64
	Sequence  uint64
	Status    Status

	next *Order
	prev *Order
}

// Next returns the order behind this one in its price level queue.
func (o *Order) Next() *Order { return o.next }

// snapshot returns a detached copy safe to hand to callers.
func (o *Order) snapshot() Order {
	c := *o
	c.next = nil
	c.prev = nil
	return c
}
