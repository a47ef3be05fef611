// Package service wires the order book to its collaborators. Engine is
// the only write entry point: every mutation is sequenced, journaled,
// applied, and published from here, under one lock.
package service

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"kestrel/domain/book"
	"kestrel/infra/sequence"
	"kestrel/infra/tradestore"
	"kestrel/infra/wal"
)

// BookUpdate is the market-data event published after every mutation.
type BookUpdate struct {
	Top  book.TopOfBook `json:"top"`
	Bids []book.Quote   `json:"bids"`
	Asks []book.Quote   `json:"asks"`
}

// Spread returns ask minus bid and whether both sides are quoted.
func (u BookUpdate) Spread() (int64, bool) { return u.Top.Spread() }

// SubmitRequest is one incoming order. ID 0 asks the engine to assign
// one.
type SubmitRequest struct {
	ID       uint64
	Side     book.Side
	Kind     book.Kind
	Price    int64
	Quantity int64
}

type Engine struct {
	mu sync.RWMutex

	book *book.OrderBook
	seq  *sequence.Sequencer

	wal    *wal.WAL          // nil disables journaling
	trades *tradestore.Store // nil disables trade persistence

	log *zap.Logger

	depthLevels int

	tradeEvents chan book.Trade
	bookEvents  chan BookUpdate
}

// Config collects the engine's collaborators. WAL and Trades may be nil.
type Config struct {
	Book        *book.OrderBook
	Seq         *sequence.Sequencer
	WAL         *wal.WAL
	Trades      *tradestore.Store
	Logger      *zap.Logger
	DepthLevels int
}

func NewEngine(cfg Config) *Engine {
	if cfg.Book == nil {
		cfg.Book = book.New()
	}
	if cfg.Seq == nil {
		cfg.Seq = sequence.New(0)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.DepthLevels <= 0 {
		cfg.DepthLevels = 10
	}
	return &Engine{
		book:        cfg.Book,
		seq:         cfg.Seq,
		wal:         cfg.WAL,
		trades:      cfg.Trades,
		log:         cfg.Logger,
		depthLevels: cfg.DepthLevels,
		tradeEvents: make(chan book.Trade, 256),
		bookEvents:  make(chan BookUpdate, 64),
	}
}

// TradeEvents streams executed trades. Slow consumers lose events; the
// durable record lives in the trade store.
func (e *Engine) TradeEvents() <-chan book.Trade { return e.tradeEvents }

// BookUpdates streams the post-mutation book view.
func (e *Engine) BookUpdates() <-chan BookUpdate { return e.bookEvents }

// Submit sequences, journals, and matches one order.
func (e *Engine) Submit(req SubmitRequest) (book.SubmitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seq := e.seq.Next()
	if req.ID == 0 {
		req.ID = seq
	}

	if err := e.journal(wal.RecordSubmit, seq, encodeSubmit(req)); err != nil {
		return book.SubmitResult{}, err
	}

	res, err := e.book.Submit(book.Order{
		ID:       req.ID,
		Side:     req.Side,
		Kind:     req.Kind,
		Price:    req.Price,
		Quantity: req.Quantity,
	}, seq)
	if err != nil {
		e.log.Warn("order rejected",
			zap.Uint64("order_id", req.ID),
			zap.String("side", req.Side.String()),
			zap.Error(err))
		return res, err
	}

	e.persistTrades(res.Trades)
	e.publish(res.Trades)

	e.log.Info("order processed",
		zap.Uint64("order_id", res.Order.ID),
		zap.String("side", res.Order.Side.String()),
		zap.String("kind", res.Order.Kind.String()),
		zap.String("status", res.Order.Status.String()),
		zap.Int64("remaining", res.Order.Remaining),
		zap.Int("trades", len(res.Trades)))
	return res, nil
}

// Cancel removes a resting order.
func (e *Engine) Cancel(id uint64) (book.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seq := e.seq.Next()
	if err := e.journal(wal.RecordCancel, seq, encodeCancel(id)); err != nil {
		return book.Order{}, err
	}

	snap, err := e.book.Cancel(id)
	if err != nil {
		return book.Order{}, err
	}

	e.publish(nil)
	e.log.Info("order cancelled", zap.Uint64("order_id", id), zap.Int64("remaining", snap.Remaining))
	return snap, nil
}

// Modify changes price and/or quantity of a resting order with
// cancel-then-resubmit semantics (see book.OrderBook.Modify).
func (e *Engine) Modify(id uint64, newPrice, newQty *int64) (book.SubmitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seq := e.seq.Next()
	if err := e.journal(wal.RecordModify, seq, encodeModify(id, newPrice, newQty)); err != nil {
		return book.SubmitResult{}, err
	}

	res, err := e.book.Modify(id, newPrice, newQty, seq)
	if err != nil {
		return book.SubmitResult{}, err
	}

	e.persistTrades(res.Trades)
	e.publish(res.Trades)

	e.log.Info("order modified",
		zap.Uint64("order_id", id),
		zap.Int64("price", res.Order.Price),
		zap.Int64("remaining", res.Order.Remaining),
		zap.Int("trades", len(res.Trades)))
	return res, nil
}

// Top returns best bid/ask with aggregate quantities.
func (e *Engine) Top() book.TopOfBook {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.book.BestBidAsk()
}

// Depth returns up to n levels of one side, best-first.
func (e *Engine) Depth(side book.Side, n int) []book.Quote {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.book.Depth(side, n)
}

// TradeHistory returns all executed trades in order.
func (e *Engine) TradeHistory() []book.Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.book.Trades()
}

// RestingOrders snapshots every resting order, bids then asks,
// best-first.
func (e *Engine) RestingOrders() []book.Order {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.book.RestingOrders()
}

// snapshotState captures what the snapshot writer needs atomically.
func (e *Engine) snapshotState() (uint64, []book.Order) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.seq.Current(), e.book.RestingOrders()
}

func (e *Engine) journal(t wal.RecordType, seq uint64, payload []byte) error {
	if e.wal == nil {
		return nil
	}
	if err := e.wal.Append(wal.NewRecord(t, seq, payload)); err != nil {
		return fmt.Errorf("wal append: %w", err)
	}
	return nil
}

func (e *Engine) persistTrades(trades []book.Trade) {
	if e.trades == nil {
		return
	}
	for _, tr := range trades {
		if _, err := e.trades.Append(tr); err != nil {
			e.log.Error("trade persist failed",
				zap.Uint64("taker", tr.TakerID),
				zap.Uint64("maker", tr.MakerID),
				zap.Error(err))
		}
	}
}

// publish pushes events without blocking the matching path.
func (e *Engine) publish(trades []book.Trade) {
	for _, tr := range trades {
		select {
		case e.tradeEvents <- tr:
		default:
		}
	}

	update := BookUpdate{
		Top:  e.book.BestBidAsk(),
		Bids: e.book.Depth(book.Buy, e.depthLevels),
		Asks: e.book.Depth(book.Sell, e.depthLevels),
	}
	select {
	case e.bookEvents <- update:
	default:
	}
}
