package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLevelOrder(id uint64, remaining int64) *Order {
	return &Order{ID: id, Quantity: remaining, Remaining: remaining}
}

func TestPriceLevelEnqueuePreservesArrivalOrder(t *testing.T) {
	lvl := &PriceLevel{Price: 100}
	lvl.Enqueue(newLevelOrder(1, 5))
	lvl.Enqueue(newLevelOrder(2, 3))
	lvl.Enqueue(newLevelOrder(3, 7))

	require.NotNil(t, lvl.Front())
	assert.Equal(t, uint64(1), lvl.Front().ID)
	assert.Equal(t, int64(15), lvl.TotalQty)
	assert.Equal(t, 3, lvl.OrderCount)

	ids := []uint64{}
	for o := lvl.Front(); o != nil; o = o.Next() {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []uint64{1, 2, 3}, ids)
}

func TestPriceLevelUnlinkMiddle(t *testing.T) {
	lvl := &PriceLevel{Price: 100}
	a := newLevelOrder(1, 5)
	b := newLevelOrder(2, 3)
	c := newLevelOrder(3, 7)
	lvl.Enqueue(a)
	lvl.Enqueue(b)
	lvl.Enqueue(c)

	lvl.Unlink(b)

	assert.Equal(t, int64(12), lvl.TotalQty)
	assert.Equal(t, 2, lvl.OrderCount)
	assert.Equal(t, uint64(1), lvl.Front().ID)
	assert.Equal(t, uint64(3), lvl.Front().Next().ID)
}

func TestPriceLevelUnlinkHeadAndTail(t *testing.T) {
	lvl := &PriceLevel{Price: 100}
	a := newLevelOrder(1, 5)
	b := newLevelOrder(2, 3)
	lvl.Enqueue(a)
	lvl.Enqueue(b)

	lvl.Unlink(a)
	assert.Equal(t, uint64(2), lvl.Front().ID)
	assert.Equal(t, int64(3), lvl.TotalQty)

	lvl.Unlink(b)
	assert.True(t, lvl.Empty())
	assert.Zero(t, lvl.TotalQty)
	assert.Zero(t, lvl.OrderCount)
}

func TestPriceLevelReduceTracksPartialFills(t *testing.T) {
	lvl := &PriceLevel{Price: 100}
	a := newLevelOrder(1, 10)
	lvl.Enqueue(a)

	a.Remaining -= 4
	lvl.Reduce(4)

	assert.Equal(t, int64(6), lvl.TotalQty)

	// Unlinking after a partial fill removes only what is left.
	lvl.Unlink(a)
	assert.Zero(t, lvl.TotalQty)
}
