// Package book implements a single-instrument limit order book with
// price-time priority matching.
//
// The package is pure: no I/O, no logging, no locking. Serialization of
// access and all side effects (WAL, persistence, broadcast) belong to the
// service layer. All results returned to callers are value snapshots;
// pointers into book state never escape.
package book
