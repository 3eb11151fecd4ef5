package messaging

import (
	"context"

	"github.com/feral-file/nft-registry/internal/domain"
)

// EventHandler is called for every received registry event.
// Returning an error asks for redelivery.
type EventHandler func(ctx context.Context, event *domain.Event) error

// Subscriber defines the interface for following the registry event stream
//
//go:generate mockgen -source=subscriber.go -destination=../mocks/subscriber.go -package=mocks -mock_names=Subscriber=MockSubscriber
type Subscriber interface {
	// Subscribe delivers events to handler until ctx is cancelled
	Subscribe(ctx context.Context, handler EventHandler) error

	// Close closes the connection and cleans up resources
	Close()
}
