package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kestrel/domain/book"
)

func TestWriteLoadRoundTrip(t *testing.T) {
	w := &Writer{Dir: t.TempDir()}

	orders := []book.Order{
		{ID: 1, Side: book.Buy, Kind: book.Limit, Price: 100, Quantity: 10, Remaining: 7, Sequence: 1, Status: book.Resting},
		{ID: 2, Side: book.Buy, Kind: book.Limit, Price: 99, Quantity: 5, Remaining: 5, Sequence: 2, Status: book.Resting},
		{ID: 3, Side: book.Sell, Kind: book.Limit, Price: 101, Quantity: 4, Remaining: 4, Sequence: 3, Status: book.Resting},
	}
	require.NoError(t, w.Write(42, orders))

	b := book.New()
	seq, err := Load(w.Path(), b)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), seq)

	top := b.BestBidAsk()
	require.NotNil(t, top.Bid)
	require.NotNil(t, top.Ask)
	assert.Equal(t, int64(100), top.Bid.Price)
	assert.Equal(t, int64(7), top.Bid.Qty)
	assert.Equal(t, int64(101), top.Ask.Price)

	restored := b.RestingOrders()
	require.Len(t, restored, 3)
	assert.Equal(t, uint64(1), restored[0].Sequence)
}

func TestLoadMissingSnapshot(t *testing.T) {
	b := book.New()
	seq, err := Load(filepath.Join(t.TempDir(), "snapshot.bin"), b)
	require.NoError(t, err)
	assert.Zero(t, seq)
	assert.Empty(t, b.RestingOrders())
}

func TestWriteReplacesAtomically(t *testing.T) {
	w := &Writer{Dir: t.TempDir()}

	require.NoError(t, w.Write(1, []book.Order{
		{ID: 1, Side: book.Buy, Kind: book.Limit, Price: 100, Quantity: 1, Remaining: 1, Sequence: 1, Status: book.Resting},
	}))
	require.NoError(t, w.Write(2, []book.Order{
		{ID: 2, Side: book.Sell, Kind: book.Limit, Price: 200, Quantity: 2, Remaining: 2, Sequence: 2, Status: book.Resting},
	}))

	// Only the final snapshot remains; no temp file lingers.
	entries, err := os.ReadDir(w.Dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "snapshot.bin", entries[0].Name())

	b := book.New()
	seq, err := Load(w.Path(), b)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), seq)
	require.Len(t, b.RestingOrders(), 1)
	assert.Equal(t, uint64(2), b.RestingOrders()[0].ID)
}
