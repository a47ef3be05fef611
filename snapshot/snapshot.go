// Package snapshot persists a point-in-time view of resting orders so
// recovery only replays WAL records newer than the snapshot sequence.
package snapshot

import (
	"time"

	"kestrel/domain/book"
)

type Snapshot struct {
	Seq     uint64
	Created time.Time
	Orders  []book.Order
}
