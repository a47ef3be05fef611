package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"kestrel/domain/book"
	"kestrel/infra/wal"
	"kestrel/snapshot"
)

// Recover rebuilds book state before the engine accepts traffic: load
// the latest snapshot, replay WAL commands newer than it, then resume
// the sequencer past everything replayed.
//
// Commands are applied directly to the book (not through Submit), so
// replay writes no WAL records and re-persists no trades. Matching is
// deterministic, so the rebuilt book is identical to the pre-crash one.
func (e *Engine) Recover(snapshotPath, walDir string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapSeq, err := snapshot.Load(snapshotPath, e.book)
	if err != nil {
		return fmt.Errorf("snapshot load: %w", err)
	}

	replayed := 0
	lastSeq, err := wal.Replay(walDir, func(rec *wal.Record) error {
		if rec.Seq <= snapSeq {
			return nil
		}
		if err := e.apply(rec); err != nil {
			return err
		}
		replayed++
		return nil
	})
	if err != nil {
		return fmt.Errorf("wal replay: %w", err)
	}

	if lastSeq < snapSeq {
		lastSeq = snapSeq
	}
	e.seq.Reset(lastSeq)

	e.log.Info("recovery complete",
		zap.Uint64("snapshot_seq", snapSeq),
		zap.Uint64("last_seq", lastSeq),
		zap.Int("replayed", replayed))
	return nil
}

// apply re-runs one journaled command. Domain rejections are expected:
// the original run rejected them identically, so they are skipped, not
// fatal.
func (e *Engine) apply(rec *wal.Record) error {
	var err error
	switch rec.Type {
	case wal.RecordSubmit:
		var req SubmitRequest
		if req, err = decodeSubmit(rec.Data); err == nil {
			_, err = e.book.Submit(book.Order{
				ID:       req.ID,
				Side:     req.Side,
				Kind:     req.Kind,
				Price:    req.Price,
				Quantity: req.Quantity,
			}, rec.Seq)
		}
	case wal.RecordCancel:
		var id uint64
		if id, err = decodeCancel(rec.Data); err == nil {
			_, err = e.book.Cancel(id)
		}
	case wal.RecordModify:
		var id uint64
		var newPrice, newQty *int64
		if id, newPrice, newQty, err = decodeModify(rec.Data); err == nil {
			_, err = e.book.Modify(id, newPrice, newQty, rec.Seq)
		}
	default:
		return fmt.Errorf("unknown wal record type %d", rec.Type)
	}

	if err != nil {
		if errors.Is(err, errBadPayload) {
			return err
		}
		e.log.Debug("replayed command rejected",
			zap.Uint64("seq", rec.Seq),
			zap.Error(err))
	}
	return nil
}
