// Package realtime delivers events to a subscriber's live connections.
// Delivery is addressed by user identity to a logical channel, never to a
// local socket handle: the Broker interface has an in-process
// implementation for single-process deployments and a Redis pub/sub
// implementation for multi-process ones, selected by configuration.
package realtime

import "context"

// Event is one message pushed to a live connection.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

// Broker publishes subscriber-addressed events and hands live connections a
// subscription to their own channel.
type Broker interface {
	// Publish sends an event to every live connection of userID, across
	// all processes. Publishing to an offline user is not an error.
	Publish(ctx context.Context, userID, event string, payload any) error

	// Subscribe returns a channel of events addressed to userID and a
	// cancel func releasing the subscription.
	Subscribe(ctx context.Context, userID string) (<-chan Event, func(), error)
}
