package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"kestrel/snapshot"
)

// StartSnapshotJob periodically writes a book snapshot and truncates WAL
// segments the snapshot has made redundant. Blocks until ctx is done;
// run it in its own goroutine.
func (e *Engine) StartSnapshotJob(ctx context.Context, w *snapshot.Writer, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			seq, orders := e.snapshotState()

			if err := w.Write(seq, orders); err != nil {
				e.log.Error("snapshot write failed", zap.Error(err))
				continue
			}

			if e.wal != nil {
				if err := e.wal.TruncateBefore(seq); err != nil {
					e.log.Warn("wal truncate failed", zap.Error(err))
				}
			}

			e.log.Info("snapshot written",
				zap.Uint64("seq", seq),
				zap.Int("orders", len(orders)))
		}
	}
}
