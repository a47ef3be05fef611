package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestWAL(t *testing.T, dir string, segSize int64) *WAL {
	t.Helper()
	w, err := Open(Config{Dir: dir, SegmentSize: segSize})
	require.NoError(t, err)
	return w
}

func TestAppendReplayRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 0)

	payloads := [][]byte{[]byte("alpha"), []byte("bravo"), {}, []byte("charlie")}
	for i, p := range payloads {
		require.NoError(t, w.Append(NewRecord(RecordSubmit, uint64(i+1), p)))
	}
	require.NoError(t, w.Close())

	var got []*Record
	lastSeq, err := Replay(dir, func(r *Record) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), lastSeq)
	require.Len(t, got, 4)
	for i, r := range got {
		assert.Equal(t, uint64(i+1), r.Seq)
		assert.Equal(t, payloads[i], r.Data)
		assert.Equal(t, RecordSubmit, r.Type)
	}
}

func TestReplayEmptyDir(t *testing.T) {
	dir := t.TempDir()
	lastSeq, err := Replay(dir, func(*Record) error {
		t.Fatal("no records expected")
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, lastSeq)
}

func TestSegmentRotationBySize(t *testing.T) {
	dir := t.TempDir()
	// Tiny segment cap forces a rotation on every append.
	w := openTestWAL(t, dir, 1)

	for seq := uint64(1); seq <= 3; seq++ {
		require.NoError(t, w.Append(NewRecord(RecordCancel, seq, []byte("x"))))
	}
	require.NoError(t, w.Close())

	files, err := segmentFiles(dir)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(files), 3)

	var seqs []uint64
	_, err = Replay(dir, func(r *Record) error {
		seqs = append(seqs, r.Seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
}

func TestReopenResumesHighestSegment(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 1) // rotate every append
	require.NoError(t, w.Append(NewRecord(RecordSubmit, 1, []byte("a"))))
	require.NoError(t, w.Append(NewRecord(RecordSubmit, 2, []byte("b"))))
	require.NoError(t, w.Close())

	w2 := openTestWAL(t, dir, 1<<20)
	require.NoError(t, w2.Append(NewRecord(RecordSubmit, 3, []byte("c"))))
	require.NoError(t, w2.Close())

	var seqs []uint64
	lastSeq, err := Replay(dir, func(r *Record) error {
		seqs = append(seqs, r.Seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), lastSeq)
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
}

func TestReplayStopsAtTornTail(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 0)
	require.NoError(t, w.Append(NewRecord(RecordSubmit, 1, []byte("intact"))))
	require.NoError(t, w.Append(NewRecord(RecordSubmit, 2, []byte("torn"))))
	require.NoError(t, w.Close())

	// Chop a few bytes off the tail, as a crash mid-write would.
	path := filepath.Join(dir, fmt.Sprintf("segment-%06d.wal", 0))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-3))

	var seqs []uint64
	lastSeq, err := Replay(dir, func(r *Record) error {
		seqs = append(seqs, r.Seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), lastSeq)
	assert.Equal(t, []uint64{1}, seqs)
}

func TestReplayStopsAtCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 0)
	require.NoError(t, w.Append(NewRecord(RecordSubmit, 1, []byte("good"))))
	require.NoError(t, w.Append(NewRecord(RecordSubmit, 2, []byte("flip"))))
	require.NoError(t, w.Close())

	// Flip a payload byte in the second record; its CRC no longer matches.
	path := filepath.Join(dir, fmt.Sprintf("segment-%06d.wal", 0))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	recLen := headerSize + 4 + 4 // 4-byte payload
	data[recLen+headerSize] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	var seqs []uint64
	_, err = Replay(dir, func(r *Record) error {
		seqs = append(seqs, r.Seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, seqs)
}

func TestTruncateBeforeRemovesCoveredSegments(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 1) // one record per segment
	for seq := uint64(1); seq <= 4; seq++ {
		require.NoError(t, w.Append(NewRecord(RecordSubmit, seq, []byte("r"))))
	}

	require.NoError(t, w.TruncateBefore(2))

	var seqs []uint64
	_, err := Replay(dir, func(r *Record) error {
		seqs = append(seqs, r.Seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 4}, seqs)
	require.NoError(t, w.Close())
}

func TestTruncateBeforeKeepsActiveSegment(t *testing.T) {
	dir := t.TempDir()
	w := openTestWAL(t, dir, 1<<20) // everything in one segment
	for seq := uint64(1); seq <= 3; seq++ {
		require.NoError(t, w.Append(NewRecord(RecordSubmit, seq, []byte("r"))))
	}

	require.NoError(t, w.TruncateBefore(3))

	var seqs []uint64
	_, err := Replay(dir, func(r *Record) error {
		seqs = append(seqs, r.Seq)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, seqs, "active segment is never truncated")
	require.NoError(t, w.Close())
}
