package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kestrel/domain/book"
)

func TestSubmitCodec(t *testing.T) {
	want := SubmitRequest{ID: 7, Side: book.Sell, Kind: book.Market, Price: 0, Quantity: 25}

	got, err := decodeSubmit(encodeSubmit(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = decodeSubmit([]byte{1, 2, 3})
	assert.ErrorIs(t, err, errBadPayload)
}

func TestCancelCodec(t *testing.T) {
	got, err := decodeCancel(encodeCancel(99))
	require.NoError(t, err)
	assert.Equal(t, uint64(99), got)

	_, err = decodeCancel(nil)
	assert.ErrorIs(t, err, errBadPayload)
}

func TestModifyCodecFlags(t *testing.T) {
	price := int64(105)
	qty := int64(3)

	cases := []struct {
		name     string
		newPrice *int64
		newQty   *int64
	}{
		{"price only", &price, nil},
		{"qty only", nil, &qty},
		{"both", &price, &qty},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, gotPrice, gotQty, err := decodeModify(encodeModify(12, tc.newPrice, tc.newQty))
			require.NoError(t, err)
			assert.Equal(t, uint64(12), id)
			assert.Equal(t, tc.newPrice, gotPrice)
			assert.Equal(t, tc.newQty, gotQty)
		})
	}

	_, _, _, err := decodeModify([]byte{0})
	assert.ErrorIs(t, err, errBadPayload)
}
