package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillSide(s *BookSide, prices ...int64) {
	for i, p := range prices {
		lvl := s.GetOrCreate(p)
		lvl.Enqueue(newLevelOrder(uint64(i+1), 10))
	}
}

func TestBidSideIteratesDescending(t *testing.T) {
	s := newBookSide(Buy)
	fillSide(s, 100, 103, 99, 101)

	require.NotNil(t, s.Best())
	assert.Equal(t, int64(103), s.Best().Price)

	var prices []int64
	s.Walk(func(lvl *PriceLevel) bool {
		prices = append(prices, lvl.Price)
		return true
	})
	assert.Equal(t, []int64{103, 101, 100, 99}, prices)
}

func TestAskSideIteratesAscending(t *testing.T) {
	s := newBookSide(Sell)
	fillSide(s, 105, 102, 108)

	require.NotNil(t, s.Best())
	assert.Equal(t, int64(102), s.Best().Price)

	var prices []int64
	s.Walk(func(lvl *PriceLevel) bool {
		prices = append(prices, lvl.Price)
		return true
	})
	assert.Equal(t, []int64{102, 105, 108}, prices)
}

func TestGetOrCreateReturnsSameLevel(t *testing.T) {
	s := newBookSide(Buy)
	a := s.GetOrCreate(100)
	b := s.GetOrCreate(100)
	assert.Same(t, a, b)
	assert.Equal(t, 1, s.Levels())
}

func TestDropIfEmptyOnlyRemovesEmptyLevels(t *testing.T) {
	s := newBookSide(Sell)
	lvl := s.GetOrCreate(100)
	o := newLevelOrder(1, 5)
	lvl.Enqueue(o)

	s.DropIfEmpty(100)
	assert.NotNil(t, s.Level(100), "populated level survives")

	lvl.Unlink(o)
	s.DropIfEmpty(100)
	assert.Nil(t, s.Level(100))
	assert.Zero(t, s.Levels())
}

func TestDepthLimitsLevels(t *testing.T) {
	s := newBookSide(Buy)
	fillSide(s, 100, 101, 102, 103, 104)

	depth := s.Depth(3)
	require.Len(t, depth, 3)
	assert.Equal(t, int64(104), depth[0].Price)
	assert.Equal(t, int64(102), depth[2].Price)
	assert.Equal(t, int64(10), depth[0].Qty)
	assert.Equal(t, 1, depth[0].Orders)

	assert.Len(t, s.Depth(0), 5, "n <= 0 returns all levels")
	assert.Len(t, s.Depth(99), 5)
}

func TestEmptySide(t *testing.T) {
	s := newBookSide(Buy)
	assert.Nil(t, s.Best())
	assert.Empty(t, s.Depth(5))
	assert.Zero(t, s.Levels())
}
