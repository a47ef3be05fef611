package book

import "errors"

var (
	// ErrInvalidOrder rejects non-positive quantities and missing or
	// non-positive limit prices.
	ErrInvalidOrder = errors.New("book: invalid order")

	// ErrDuplicateOrderID rejects an id already live in the book or
	// already retired. Ids are never reused.
	ErrDuplicateOrderID = errors.New("book: duplicate order id")

	// ErrOrderNotFound is returned by cancel/modify on an unknown or
	// already-removed id.
	ErrOrderNotFound = errors.New("book: order not found")

	// ErrOrderAlreadyFilled is returned by modify when the order fully
	// matched since the caller last saw it.
	ErrOrderAlreadyFilled = errors.New("book: order already filled")
)
