package snapshot

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"time"

	"kestrel/domain/book"
)

type Writer struct {
	Dir string
}

// Path returns the snapshot file location inside the writer's directory.
func (w *Writer) Path() string {
	return filepath.Join(w.Dir, "snapshot.bin")
}

// Write atomically replaces the snapshot file: encode to a temp file,
// sync, rename. A crash mid-write leaves the previous snapshot intact.
func (w *Writer) Write(seq uint64, orders []book.Order) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return err
	}

	tmp := w.Path() + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	s := Snapshot{
		Seq:     seq,
		Created: time.Now(),
		Orders:  orders,
	}
	if err := gob.NewEncoder(f).Encode(&s); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, w.Path())
}
