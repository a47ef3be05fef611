package book

import "fmt"

// PriceLevel is the FIFO queue of resting orders at one exact price.
// TotalQty always equals the sum of members' Remaining: every mutation
// that touches membership or remaining quantity adjusts it in the same
// call.
type PriceLevel struct {
	Price      int64
	head       *Order
	tail       *Order
	TotalQty   int64
	OrderCount int
}

// Enqueue appends o to the back of the queue, preserving arrival order.
func (p *PriceLevel) Enqueue(o *Order) {
	if p.head == nil {
		p.head = o
		p.tail = o
	} else {
		p.tail.next = o
		o.prev = p.tail
		p.tail = o
	}
	p.TotalQty += o.Remaining
	p.OrderCount++
}

// Front returns the earliest arrival, or nil when the level is empty.
func (p *PriceLevel) Front() *Order {
	return p.head
}

// Reduce records a partial fill of a member order: the member's Remaining
// was decremented by qty and the aggregate follows.
func (p *PriceLevel) Reduce(qty int64) {
	p.TotalQty -= qty
}

// Unlink removes o from the queue and subtracts its remaining quantity
// from the aggregate. o must be a member.
func (p *PriceLevel) Unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		p.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		p.tail = o.prev
	}
	o.next = nil
	o.prev = nil
	p.TotalQty -= o.Remaining
	p.OrderCount--
}

func (p *PriceLevel) Empty() bool {
	return p.head == nil
}

func (p *PriceLevel) String() string {
	return fmt.Sprintf("level{price=%d qty=%d orders=%d}", p.Price, p.TotalQty, p.OrderCount)
}
