package service

import (
	"encoding/binary"
	"errors"

	"kestrel/domain/book"
)

// WAL payload codecs. Fixed binary layouts; the surrounding record frame
// (type, seq, time, crc) belongs to the wal package.

var errBadPayload = errors.New("service: malformed wal payload")

// submit: [id:8][side:1][kind:1][price:8][qty:8]
const submitLen = 8 + 1 + 1 + 8 + 8

func encodeSubmit(req SubmitRequest) []byte {
	buf := make([]byte, submitLen)
	binary.BigEndian.PutUint64(buf[0:8], req.ID)
	buf[8] = byte(req.Side)
	buf[9] = byte(req.Kind)
	binary.BigEndian.PutUint64(buf[10:18], uint64(req.Price))
	binary.BigEndian.PutUint64(buf[18:26], uint64(req.Quantity))
	return buf
}

func decodeSubmit(b []byte) (SubmitRequest, error) {
	if len(b) != submitLen {
		return SubmitRequest{}, errBadPayload
	}
	return SubmitRequest{
		ID:       binary.BigEndian.Uint64(b[0:8]),
		Side:     book.Side(b[8]),
		Kind:     book.Kind(b[9]),
		Price:    int64(binary.BigEndian.Uint64(b[10:18])),
		Quantity: int64(binary.BigEndian.Uint64(b[18:26])),
	}, nil
}

// cancel: [id:8]
func encodeCancel(id uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, id)
	return buf
}

func decodeCancel(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, errBadPayload
	}
	return binary.BigEndian.Uint64(b), nil
}

// modify: [id:8][flags:1][price:8][qty:8]
const (
	modifyLen    = 8 + 1 + 8 + 8
	flagHasPrice = 1 << 0
	flagHasQty   = 1 << 1
)

func encodeModify(id uint64, newPrice, newQty *int64) []byte {
	buf := make([]byte, modifyLen)
	binary.BigEndian.PutUint64(buf[0:8], id)
	if newPrice != nil {
		buf[8] |= flagHasPrice
		binary.BigEndian.PutUint64(buf[9:17], uint64(*newPrice))
	}
	if newQty != nil {
		buf[8] |= flagHasQty
		binary.BigEndian.PutUint64(buf[17:25], uint64(*newQty))
	}
	return buf
}

func decodeModify(b []byte) (id uint64, newPrice, newQty *int64, err error) {
	if len(b) != modifyLen {
		return 0, nil, nil, errBadPayload
	}
	id = binary.BigEndian.Uint64(b[0:8])
	if b[8]&flagHasPrice != 0 {
		p := int64(binary.BigEndian.Uint64(b[9:17]))
		newPrice = &p
	}
	if b[8]&flagHasQty != 0 {
		q := int64(binary.BigEndian.Uint64(b[17:25]))
		newQty = &q
	}
	return id, newPrice, newQty, nil
}
