package agent

import (
	"context"
	"slices"

	"github.com/feral-file/nft-registry/internal/domain"
	"github.com/feral-file/nft-registry/internal/messaging"
)

// Watch follows the registry event stream and passes to handler the events
// that involve addr. An empty addr passes every event.
func Watch(ctx context.Context, sub messaging.Subscriber, addr domain.Address, handler messaging.EventHandler) error {
	return sub.Subscribe(ctx, func(ctx context.Context, event *domain.Event) error {
		if !Involves(event, addr) {
			return nil
		}
		return handler(ctx, event)
	})
}

// Involves reports whether addr is a participant of event
func Involves(event *domain.Event, addr domain.Address) bool {
	if addr == "" {
		return true
	}
	return slices.Contains(event.Participants, addr)
}
