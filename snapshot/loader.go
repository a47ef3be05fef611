package snapshot

import (
	"encoding/gob"
	"errors"
	"io/fs"
	"os"

	"kestrel/domain/book"
)

// Load restores resting orders from the snapshot file into the book and
// returns the snapshot sequence. A missing snapshot is not an error: the
// book starts empty and replay covers the whole WAL.
func Load(path string, b *book.OrderBook) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	var s Snapshot
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return 0, err
	}

	for _, o := range s.Orders {
		b.Restore(o)
	}
	return s.Seq, nil
}
