package book

import (
	"time"

	"kestrel/infra/memory"
)

// OrderBook owns both sides, the live order index, and the matching
// algorithm. It is not safe for concurrent use; callers serialize access
// (see service.Engine).
type OrderBook struct {
	bids *BookSide
	asks *BookSide

	// orders indexes live resting orders for O(1) cancel/modify lookup.
	// It is kept consistent with level membership in the same mutation.
	orders map[uint64]*Order

	// terminal remembers retired ids so a later modify can distinguish
	// "already filled" from "never existed", and so ids are never reused.
	terminal map[uint64]Status

	log  *TradeLog
	pool *memory.Pool[Order]
	now  func() time.Time
}

// Option configures an OrderBook.
type Option func(*OrderBook)

// WithClock overrides the trade timestamp source. Tests use this for
// deterministic times.
func WithClock(now func() time.Time) Option {
	return func(b *OrderBook) { b.now = now }
}

func New(opts ...Option) *OrderBook {
	b := &OrderBook{
		bids:     newBookSide(Buy),
		asks:     newBookSide(Sell),
		orders:   make(map[uint64]*Order),
		terminal: make(map[uint64]Status),
		log:      NewTradeLog(),
		pool:     memory.NewPool(func() *Order { return &Order{} }),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SubmitResult is what one mutating operation produced: the trades in
// generation order and a snapshot of the incoming order's final state.
type SubmitResult struct {
	Order  Order
	Trades []Trade
}

// Submit validates the incoming order, matches it against the opposite
// side, and rests any limit remainder. seq is the arrival sequence
// assigned by the caller; it must be strictly greater than any sequence
// used before.
//
// Validation happens before any mutation: a rejected order leaves the
// book untouched.
func (b *OrderBook) Submit(req Order, seq uint64) (SubmitResult, error) {
	if err := b.validate(req); err != nil {
		req.Status = Rejected
		req.Remaining = req.Quantity
		return SubmitResult{Order: req}, err
	}

	o := b.pool.Get()
	*o = Order{
		ID:        req.ID,
		Side:      req.Side,
		Kind:      req.Kind,
		Price:     req.Price,
		Quantity:  req.Quantity,
		Remaining: req.Quantity,
		Sequence:  seq,
	}
	if o.Kind == Market {
		o.Price = 0
	}

	trades := b.match(o)
	b.log.Append(trades...)

	res := SubmitResult{Trades: trades}
	switch {
	case o.Remaining == 0:
		o.Status = Filled
		res.Order = o.snapshot()
		b.retire(o)
	case o.Kind == Limit:
		o.Status = Resting
		b.sideOf(o.Side).GetOrCreate(o.Price).Enqueue(o)
		b.orders[o.ID] = o
		res.Order = o.snapshot()
	default:
		// Market remainder never rests. This is policy, not an error:
		// the caller sees it in Remaining.
		o.Status = Cancelled
		res.Order = o.snapshot()
		b.retire(o)
	}
	return res, nil
}

// match runs the price-time priority loop: best opposite level first,
// earliest arrival first within it. Trades execute at the maker's price.
func (b *OrderBook) match(o *Order) []Trade {
	var trades []Trade
	opp := b.sideOf(o.Side.Opposite())

	for o.Remaining > 0 {
		best := opp.Best()
		if best == nil || !b.crosses(o, best.Price) {
			break
		}

		maker := best.Front()
		qty := min(o.Remaining, maker.Remaining)

		trades = append(trades, Trade{
			TakerID: o.ID,
			MakerID: maker.ID,
			Price:   best.Price,
			Qty:     qty,
			Seq:     o.Sequence,
			Time:    b.now(),
		})

		o.Remaining -= qty
		maker.Remaining -= qty
		best.Reduce(qty)

		if maker.Remaining == 0 {
			best.Unlink(maker)
			delete(b.orders, maker.ID)
			maker.Status = Filled
			b.retire(maker)
			if best.Empty() {
				opp.DropIfEmpty(best.Price)
			}
		}
	}
	return trades
}

func (b *OrderBook) crosses(o *Order, bestPrice int64) bool {
	if o.Kind == Market {
		return true
	}
	if o.Side == Buy {
		return o.Price >= bestPrice
	}
	return o.Price <= bestPrice
}

// Cancel removes a resting order. A second cancel of the same id fails
// with ErrOrderNotFound.
func (b *OrderBook) Cancel(id uint64) (Order, error) {
	o, ok := b.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}

	side := b.sideOf(o.Side)
	lvl := side.Level(o.Price)
	lvl.Unlink(o)
	side.DropIfEmpty(o.Price)
	delete(b.orders, id)

	o.Status = Cancelled
	snap := o.snapshot()
	b.retire(o)
	return snap, nil
}

// Modify applies cancel-then-resubmit semantics. A price change or a
// quantity increase loses time priority: the order is re-sequenced with
// seq and runs through matching again (it may trade immediately). A pure
// quantity decrease at the same price edits the order in place and keeps
// its position in the queue.
func (b *OrderBook) Modify(id uint64, newPrice, newQty *int64, seq uint64) (SubmitResult, error) {
	o, ok := b.orders[id]
	if !ok {
		if b.terminal[id] == Filled {
			return SubmitResult{}, ErrOrderAlreadyFilled
		}
		return SubmitResult{}, ErrOrderNotFound
	}

	price := o.Price
	if newPrice != nil {
		price = *newPrice
	}
	qty := o.Remaining
	if newQty != nil {
		qty = *newQty
	}
	if qty <= 0 || price <= 0 {
		return SubmitResult{}, ErrInvalidOrder
	}

	if price == o.Price && qty <= o.Remaining {
		delta := o.Remaining - qty
		o.Remaining = qty
		b.sideOf(o.Side).Level(o.Price).Reduce(delta)
		return SubmitResult{Order: o.snapshot()}, nil
	}

	// Remove the old incarnation without retiring the id: it lives on
	// in the resubmitted order.
	side := b.sideOf(o.Side)
	lvl := side.Level(o.Price)
	lvl.Unlink(o)
	side.DropIfEmpty(o.Price)
	delete(b.orders, id)
	fresh := Order{ID: id, Side: o.Side, Kind: Limit, Price: price, Quantity: qty}
	b.pool.Put(o)

	return b.Submit(fresh, seq)
}

// TopOfBook is the best price and aggregate quantity per side; a nil
// entry means no liquidity on that side.
type TopOfBook struct {
	Bid *Quote `json:"bid,omitempty"`
	Ask *Quote `json:"ask,omitempty"`
}

// Spread returns ask minus bid and whether both sides are quoted.
func (t TopOfBook) Spread() (int64, bool) {
	if t.Bid == nil || t.Ask == nil {
		return 0, false
	}
	return t.Ask.Price - t.Bid.Price, true
}

func (b *OrderBook) BestBidAsk() TopOfBook {
	var top TopOfBook
	if lvl := b.bids.Best(); lvl != nil {
		top.Bid = &Quote{Price: lvl.Price, Qty: lvl.TotalQty, Orders: lvl.OrderCount}
	}
	if lvl := b.asks.Best(); lvl != nil {
		top.Ask = &Quote{Price: lvl.Price, Qty: lvl.TotalQty, Orders: lvl.OrderCount}
	}
	return top
}

// Depth returns up to n levels of one side, best-first.
func (b *OrderBook) Depth(side Side, n int) []Quote {
	return b.sideOf(side).Depth(n)
}

// Trades returns the full trade history in generation order.
func (b *OrderBook) Trades() []Trade {
	return b.log.All()
}

// TradeCount returns the number of executed trades.
func (b *OrderBook) TradeCount() int { return b.log.Len() }

// RestingOrders returns snapshots of every resting order, bids best-first
// then asks best-first. Used by the snapshotter and the market-data feed.
func (b *OrderBook) RestingOrders() []Order {
	out := make([]Order, 0, len(b.orders))
	walk := func(lvl *PriceLevel) bool {
		for o := lvl.Front(); o != nil; o = o.Next() {
			out = append(out, o.snapshot())
		}
		return true
	}
	b.bids.Walk(walk)
	b.asks.Walk(walk)
	return out
}

// Restore places an order directly into its level without matching.
// Only for rebuilding from a snapshot; the snapshot is never crossed.
func (b *OrderBook) Restore(snap Order) {
	o := b.pool.Get()
	*o = snap
	o.next = nil
	o.prev = nil
	o.Status = Resting
	b.sideOf(o.Side).GetOrCreate(o.Price).Enqueue(o)
	b.orders[o.ID] = o
}

// Side returns the read-only view of one side.
func (b *OrderBook) Side(side Side) *BookSide {
	return b.sideOf(side)
}

func (b *OrderBook) sideOf(side Side) *BookSide {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

func (b *OrderBook) validate(req Order) error {
	if req.ID == 0 || req.Quantity <= 0 {
		return ErrInvalidOrder
	}
	if req.Kind == Limit && req.Price <= 0 {
		return ErrInvalidOrder
	}
	if _, live := b.orders[req.ID]; live {
		return ErrDuplicateOrderID
	}
	if _, seen := b.terminal[req.ID]; seen {
		return ErrDuplicateOrderID
	}
	return nil
}

// retire records the terminal status and recycles the order struct.
// Callers must have snapshotted o first.
func (b *OrderBook) retire(o *Order) {
	b.terminal[o.ID] = o.Status
	*o = Order{}
	b.pool.Put(o)
}
