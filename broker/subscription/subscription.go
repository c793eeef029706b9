// Package subscription provides the receiving end of a broker channel.
package subscription

import (
	"errors"
	"sync"
)

// queueSize bounds how many undelivered messages a subscriber may lag
// behind before sends fail.
const queueSize = 32

var (
	// ErrClosed is returned when sending to a closed subscription.
	ErrClosed = errors.New("subscription closed")

	// ErrQueueFull is returned when the subscriber queue is full.
	ErrQueueFull = errors.New("subscription queue full")
)

// Subscription is a bounded queue of messages for a single subscriber.
type Subscription struct {
	mu     sync.Mutex
	closed bool
	queue  chan any
}

// New creates a new Subscription instance.
func New() *Subscription {
	return &Subscription{
		queue: make(chan any, queueSize),
	}
}

// Send enqueues a message without blocking.
func (s *Subscription) Send(message any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- message:
		return nil
	default:
		return ErrQueueFull
	}
}

// Receive returns the channel messages are delivered on. The channel is
// closed when the subscription is closed.
func (s *Subscription) Receive() <-chan any {
	return s.queue
}

// Close closes the subscription. Pending messages remain readable.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.queue)
}
