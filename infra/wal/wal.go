// Package wal persists the engine's command stream as CRC-framed binary
// records in size-rotated segment files. Replaying the stream against an
// empty book reproduces the exact book state: matching is deterministic
// given the same commands in the same sequence order.
package wal

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
}

const (
	defaultSegmentSize     = 4 << 20
	defaultSegmentDuration = time.Hour
)

type WAL struct {
	dir        string
	segSize    int64
	segMaxAge  time.Duration
	current    *segment
	segIndex   int
	lastRotate time.Time
}

// Open creates the directory if needed and resumes appending to the
// highest existing segment.
func Open(cfg Config) (*WAL, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = defaultSegmentSize
	}
	if cfg.SegmentDuration <= 0 {
		cfg.SegmentDuration = defaultSegmentDuration
	}

	index := 0
	if files, err := segmentFiles(cfg.Dir); err == nil && len(files) > 0 {
		// Resume the highest segment; earlier indexes may be gone
		// after truncation.
		var n int
		if _, err := fmt.Sscanf(filepath.Base(files[len(files)-1]), "segment-%06d.wal", &n); err == nil {
			index = n
		}
	}

	seg, err := openSegment(cfg.Dir, index)
	if err != nil {
		return nil, err
	}

	return &WAL{
		dir:        cfg.Dir,
		segSize:    cfg.SegmentSize,
		segMaxAge:  cfg.SegmentDuration,
		current:    seg,
		segIndex:   index,
		lastRotate: time.Now(),
	}, nil
}

// Append writes one record and syncs it to disk.
//
// Frame: [type:1][seq:8][time:8][len:4][payload][crc:4]
// The CRC covers header+payload, so a torn tail is detectable on replay.
func (w *WAL) Append(r *Record) error {
	payloadLen := uint32(len(r.Data))
	buf := make([]byte, headerSize+payloadLen+4)

	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[headerSize:], r.Data)

	crc := CRC32(buf[:headerSize+payloadLen])
	binary.BigEndian.PutUint32(buf[headerSize+payloadLen:], crc)

	if err := w.current.append(buf); err != nil {
		return err
	}
	if err := w.current.sync(); err != nil {
		return err
	}

	if w.current.offset >= w.segSize || time.Since(w.lastRotate) >= w.segMaxAge {
		return w.rotate()
	}
	return nil
}

func (w *WAL) rotate() error {
	_ = w.current.close()
	w.segIndex++

	seg, err := openSegment(w.dir, w.segIndex)
	if err != nil {
		return err
	}

	w.current = seg
	w.lastRotate = time.Now()
	return nil
}

// TruncateBefore removes whole segments whose records all have sequence
// <= seq. Called after a snapshot covering seq has been written.
// The active segment is never removed.
func (w *WAL) TruncateBefore(seq uint64) error {
	files, err := segmentFiles(w.dir)
	if err != nil {
		return err
	}

	activePath := w.current.file.Name()
	for _, path := range files {
		if path == activePath {
			continue
		}
		maxSeq, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if maxSeq <= seq {
			_ = os.Remove(path)
		}
	}
	return nil
}

func (w *WAL) Close() error {
	if err := w.current.sync(); err != nil {
		return err
	}
	return w.current.close()
}

func segmentFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "segment-*.wal"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
