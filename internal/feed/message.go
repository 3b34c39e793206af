package feed

import (
	"context"
	"time"
)

// Message is one chat message as received from the feed, before any signal
// extraction has been attempted.
type Message struct {
	ID         string
	ChatID     int64
	Sender     string
	Text       string
	ReceivedAt time.Time
}

// Handler consumes one message. Returned errors are logged by the source;
// they never stop the feed.
type Handler func(ctx context.Context, msg Message) error

// Source is a stream of chat messages. Run blocks until ctx is cancelled,
// reconnecting internally on transport failures.
type Source interface {
	Run(ctx context.Context, handle Handler) error
}
