package wal

import "time"

// RecordType is the command kind a WAL record carries.
type RecordType uint8

const (
	RecordSubmit RecordType = iota
	RecordCancel
	RecordModify
)

// Record is an immutable WAL entry. Seq is the engine sequence assigned
// to the command; replay relies on it being strictly monotonic.
type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}
