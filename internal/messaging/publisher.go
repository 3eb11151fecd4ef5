package messaging

import (
	"context"
	"errors"

	"github.com/feral-file/nft-registry/internal/domain"
)

// Publisher defines the interface for delivering registry events to off-chain observers
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a committed registry event
	PublishEvent(ctx context.Context, event *domain.Event) error
	// Close releases the publisher resources
	Close()
}

// fanout delivers every event to all publishers
type fanout struct {
	publishers []Publisher
}

// NewFanout creates a publisher that forwards to every given publisher.
// A failing publisher does not stop delivery to the others.
func NewFanout(publishers ...Publisher) Publisher {
	ps := make([]Publisher, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return &fanout{publishers: ps}
}

func (f *fanout) PublishEvent(ctx context.Context, event *domain.Event) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.PublishEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) Close() {
	for _, p := range f.publishers {
		p.Close()
	}
}

// Nop returns a publisher that drops every event
func Nop() Publisher {
	return nop{}
}

type nop struct{}

func (nop) PublishEvent(context.Context, *domain.Event) error { return nil }

func (nop) Close() {}
