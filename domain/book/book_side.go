package book

// Quote is the aggregate view of one price level.
type Quote struct {
	Price  int64 `json:"price"`
	Qty    int64 `json:"qty"`
	Orders int   `json:"orders"`
}

// BookSide holds the price-ordered levels of one side. Iteration order is
// best-first: descending prices for bids, ascending for asks.
type BookSide struct {
	side Side
	tree *levelTree
}

func newBookSide(side Side) *BookSide {
	return &BookSide{side: side, tree: newLevelTree()}
}

// Best returns the highest-priority level, or nil when the side is empty.
func (s *BookSide) Best() *PriceLevel {
	if s.side == Buy {
		return s.tree.Max()
	}
	return s.tree.Min()
}

// Level returns the level at the exact price, or nil.
func (s *BookSide) Level(price int64) *PriceLevel {
	return s.tree.Find(price)
}

// GetOrCreate returns the level at price, creating it when absent.
func (s *BookSide) GetOrCreate(price int64) *PriceLevel {
	return s.tree.Upsert(price)
}

// DropIfEmpty removes the level at price when it has no members.
// Empty levels never linger in a side.
func (s *BookSide) DropIfEmpty(price int64) {
	if lvl := s.tree.Find(price); lvl != nil && lvl.Empty() {
		s.tree.Delete(price)
	}
}

// Walk visits levels best-first until fn returns false.
func (s *BookSide) Walk(fn func(*PriceLevel) bool) {
	if s.side == Buy {
		s.tree.Descend(fn)
	} else {
		s.tree.Ascend(fn)
	}
}

// Depth returns the first n levels, best-first, as read-only aggregates.
// n <= 0 means all levels.
func (s *BookSide) Depth(n int) []Quote {
	if n <= 0 {
		n = s.tree.Size()
	}
	out := make([]Quote, 0, n)
	s.Walk(func(lvl *PriceLevel) bool {
		out = append(out, Quote{Price: lvl.Price, Qty: lvl.TotalQty, Orders: lvl.OrderCount})
		return len(out) < n
	})
	return out
}

// Levels returns the number of price levels on this side.
func (s *BookSide) Levels() int { return s.tree.Size() }
