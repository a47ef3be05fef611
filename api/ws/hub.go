// Package ws fans engine events out to websocket subscribers.
package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Subscription receives broadcast values on a buffered channel. Values
// are dropped rather than block the broadcaster when the buffer is full.
type Subscription[T any] struct {
	ch chan T
}

func (s *Subscription[T]) C() <-chan T { return s.ch }

type Hub[T any] struct {
	mu   sync.RWMutex
	subs map[*Subscription[T]]struct{}
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[*Subscription[T]]struct{})}
}

func (h *Hub[T]) Subscribe(buffer int) *Subscription[T] {
	sub := &Subscription[T]{ch: make(chan T, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub[T]) Unsubscribe(sub *Subscription[T]) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	close(sub.ch)
}

func (h *Hub[T]) Broadcast(value T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- value:
		default:
		}
	}
}

// Message is the outbound websocket envelope.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Stream upgrades the request and forwards hub values as JSON messages
// until the client goes away.
func Stream[T any](w http.ResponseWriter, r *http.Request, up websocket.Upgrader, hub *Hub[T], event string) {
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := hub.Subscribe(32)
	defer hub.Unsubscribe(sub)

	for value := range sub.C() {
		if err := conn.WriteJSON(Message{Type: event, Data: value}); err != nil {
			return
		}
	}
}
