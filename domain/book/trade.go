package book

import "time"

// Trade is an immutable execution record. Price is always the maker's
// (resting order's) price: price improvement goes to the taker.
type Trade struct {
	TakerID uint64
	MakerID uint64
	Price   int64
	Qty     int64
	// Seq is the taker's arrival sequence; trades inherit it so the
	// trade stream orders identically to the submission stream.
	Seq  uint64
	Time time.Time
}

// TradeLog is an append-only history of executed trades.
type TradeLog struct {
	trades []Trade
}

func NewTradeLog() *TradeLog {
	return &TradeLog{}
}

func (l *TradeLog) Append(trades ...Trade) {
	l.trades = append(l.trades, trades...)
}

// All returns the trades in generation order. The slice is a copy.
func (l *TradeLog) All() []Trade {
	out := make([]Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

func (l *TradeLog) Len() int { return len(l.trades) }
