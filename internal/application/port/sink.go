package port

import (
	"context"

	"warrantfeed/internal/domain"
)

// QuoteSink receives every normalized batch, in cycle order.
type QuoteSink interface {
	Publish(ctx context.Context, quotes []domain.Quote) error
}

// Client is one connected push-channel consumer.
type Client interface {
	ID() string
	// Send queues one encoded update for delivery without blocking. An error
	// means the client is gone or cannot keep up.
	Send(payload []byte) error
	Close() error
}

// Broadcaster fans a batch out to every registered client. Broadcast returns
// the number of clients the batch was handed to; failed clients are
// unregistered and never reported as an error.
type Broadcaster interface {
	Register(c Client)
	Unregister(c Client)
	Broadcast(ctx context.Context, quotes []domain.Quote) int
	Len() int
}
