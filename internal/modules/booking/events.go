// README: Booking lifecycle event publishing.
package booking

import "context"

// Publisher sends an event to the message bus under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }
