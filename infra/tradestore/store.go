// Package tradestore persists executed trades in pebble and doubles as
// the publish outbox: each trade carries a publish state so the
// broadcaster can deliver at-least-once and resume after a crash.
package tradestore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"kestrel/domain/book"
)

// PublishState tracks outbox progress for one trade.
type PublishState uint8

const (
	StateNew PublishState = iota
	StateSent
	StateAcked
)

func (s PublishState) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	default:
		return "UNKNOWN"
	}
}

var ErrNotFound = errors.New("tradestore: trade not found")

// binary value: [state:1][taker:8][maker:8][price:8][qty:8][seq:8][time:8]
const recordLen = 1 + 8*6

func encodeRecord(tr book.Trade, state PublishState) []byte {
	buf := make([]byte, recordLen)
	buf[0] = byte(state)
	binary.BigEndian.PutUint64(buf[1:9], tr.TakerID)
	binary.BigEndian.PutUint64(buf[9:17], tr.MakerID)
	binary.BigEndian.PutUint64(buf[17:25], uint64(tr.Price))
	binary.BigEndian.PutUint64(buf[25:33], uint64(tr.Qty))
	binary.BigEndian.PutUint64(buf[33:41], tr.Seq)
	binary.BigEndian.PutUint64(buf[41:49], uint64(tr.Time.UnixNano()))
	return buf
}

func decodeRecord(b []byte) (book.Trade, PublishState, error) {
	if len(b) != recordLen {
		return book.Trade{}, 0, errors.New("tradestore: invalid record length")
	}
	tr := book.Trade{
		TakerID: binary.BigEndian.Uint64(b[1:9]),
		MakerID: binary.BigEndian.Uint64(b[9:17]),
		Price:   int64(binary.BigEndian.Uint64(b[17:25])),
		Qty:     int64(binary.BigEndian.Uint64(b[25:33])),
		Seq:     binary.BigEndian.Uint64(b[33:41]),
		Time:    time.Unix(0, int64(binary.BigEndian.Uint64(b[41:49]))),
	}
	return tr, PublishState(b[0]), nil
}

// Store is an append-only durable trade log. Keys are dense trade ids in
// big-endian so iteration order is generation order.
type Store struct {
	db     *pebble.DB
	nextID uint64
}

func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, nextID: 1}

	// Resume the id counter from the highest existing key.
	iter, err := db.NewIter(&pebble.IterOptions{
		LowerBound: keyFor(0),
		UpperBound: upperBound(),
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if iter.Last() && iter.Valid() {
		if id, err := parseKey(iter.Key()); err == nil {
			s.nextID = id + 1
		}
	}
	if err := iter.Close(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Append stores one trade in state New and returns its trade id.
func (s *Store) Append(tr book.Trade) (uint64, error) {
	id := s.nextID
	if err := s.db.Set(keyFor(id), encodeRecord(tr, StateNew), pebble.Sync); err != nil {
		return 0, err
	}
	s.nextID++
	return id, nil
}

func (s *Store) Get(id uint64) (book.Trade, PublishState, error) {
	val, closer, err := s.db.Get(keyFor(id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return book.Trade{}, 0, ErrNotFound
		}
		return book.Trade{}, 0, err
	}
	defer closer.Close()
	return decodeRecord(val)
}

// Scan visits every trade in generation order.
func (s *Store) Scan(fn func(id uint64, tr book.Trade, state PublishState) error) error {
	return s.scan(func(id uint64, tr book.Trade, state PublishState) error {
		return fn(id, tr, state)
	}, nil)
}

// ScanPending visits trades not yet acknowledged by the broker, in
// generation order. Sent-but-unacked trades are revisited: delivery is
// at-least-once.
func (s *Store) ScanPending(fn func(id uint64, tr book.Trade, state PublishState) error) error {
	filter := func(state PublishState) bool { return state != StateAcked }
	return s.scan(fn, filter)
}

func (s *Store) scan(fn func(uint64, book.Trade, PublishState) error, keep func(PublishState) bool) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: keyFor(0),
		UpperBound: upperBound(),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		tr, state, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		if keep != nil && !keep(state) {
			continue
		}
		id, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		if err := fn(id, tr, state); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (s *Store) MarkSent(id uint64) error {
	return s.setState(id, StateSent)
}

func (s *Store) MarkAcked(id uint64) error {
	return s.setState(id, StateAcked)
}

func (s *Store) setState(id uint64, state PublishState) error {
	tr, _, err := s.Get(id)
	if err != nil {
		return err
	}
	return s.db.Set(keyFor(id), encodeRecord(tr, state), pebble.Sync)
}

// Count returns the number of stored trades.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.Scan(func(uint64, book.Trade, PublishState) error {
		n++
		return nil
	})
	return n, err
}

func keyFor(id uint64) []byte {
	return []byte(fmt.Sprintf("trade/%020d", id))
}

func upperBound() []byte {
	return []byte("trade/~")
}

func parseKey(b []byte) (uint64, error) {
	var id uint64
	_, err := fmt.Sscanf(string(b), "trade/%d", &id)
	return id, err
}
