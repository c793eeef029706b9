// Package channel provides the implementation of message channels.
package channel

import (
	"sync"

	"groupcall/broker/subscription"
)

// Channel represents a message channel that can have multiple subscribers.
type Channel struct {
	mu   sync.RWMutex
	subs []*subscription.Subscription
}

// New creates and initializes a new Channel instance.
func New() *Channel {
	return &Channel{
		subs: make([]*subscription.Subscription, 0),
	}
}

// SendAll sends a message to every subscription in order. The first send
// failure is returned after all subscriptions have been attempted.
func (c *Channel) SendAll(message any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var firstErr error
	for _, sub := range c.subs {
		if err := sub.Send(message); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// AddSubscription adds a new Subscription to the Channel.
func (c *Channel) AddSubscription(sub *subscription.Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.subs = append(c.subs, sub)
}

// RemoveSubscription removes a Subscription from the Channel and closes
// it. It reports whether the subscription was present.
func (c *Channel) RemoveSubscription(sub *subscription.Subscription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, s := range c.subs {
		if s == sub {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			sub.Close()
			return true
		}
	}
	return false
}

// Empty reports whether the channel has no subscriptions left.
func (c *Channel) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs) == 0
}
