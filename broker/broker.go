// Package broker provides topic-based message routing between the
// coordinator and the per-connection socket writers. Outbound traffic for
// a connection is published to the ClientSocket topic under that
// connection's detail, so replies and asynchronous candidate events are
// serialized through a single subscriber.
package broker

import (
	"errors"
	"fmt"
	"sync"

	"groupcall/broker/channel"
	"groupcall/broker/subscription"
)

// Topic groups message channels by consumer kind.
type Topic int

// ClientSocket carries outbound messages for a single client connection.
// The detail is the connection ID.
const (
	ClientSocket Topic = iota
)

// Detail identifies one channel within a topic.
type Detail string

var (
	// ErrNoSubscribers is returned when publishing to a detail nobody is
	// subscribed to, such as a connection that has already closed.
	ErrNoSubscribers = errors.New("no subscribers")

	// ErrSubscriptionNotFound is returned when unsubscribing an unknown
	// subscription.
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// Broker routes published messages to subscriptions.
type Broker struct {
	mu       sync.RWMutex
	channels map[Topic]map[Detail]*channel.Channel
}

// New creates a new Broker instance.
func New() *Broker {
	return &Broker{
		channels: make(map[Topic]map[Detail]*channel.Channel),
	}
}

// Subscribe registers a new subscription for the given topic and detail.
func (b *Broker) Subscribe(topic Topic, detail Detail) *subscription.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	details, ok := b.channels[topic]
	if !ok {
		details = make(map[Detail]*channel.Channel)
		b.channels[topic] = details
	}
	ch, ok := details[detail]
	if !ok {
		ch = channel.New()
		details[detail] = ch
	}

	sub := subscription.New()
	ch.AddSubscription(sub)
	return sub
}

// Unsubscribe removes and closes the subscription. The channel is dropped
// once its last subscription is gone, so later publishes fail fast.
func (b *Broker) Unsubscribe(topic Topic, detail Detail, sub *subscription.Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.channels[topic][detail]
	if !ok {
		return fmt.Errorf("%s: %w", detail, ErrSubscriptionNotFound)
	}
	if !ch.RemoveSubscription(sub) {
		return fmt.Errorf("%s: %w", detail, ErrSubscriptionNotFound)
	}
	if ch.Empty() {
		delete(b.channels[topic], detail)
	}
	return nil
}

// Publish sends a message to every subscription of the topic and detail.
func (b *Broker) Publish(topic Topic, detail Detail, message any) error {
	b.mu.RLock()
	ch, ok := b.channels[topic][detail]
	b.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w", detail, ErrNoSubscribers)
	}
	return ch.SendAll(message)
}
