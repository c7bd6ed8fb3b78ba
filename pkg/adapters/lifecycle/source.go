// Package lifecycle exposes store events as a lifecycle.Source so they can
// drive a lifecycle event loop.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notestate/pkg/core"
)

// Subscriber is the part of core.Store the source needs.
type Subscriber interface {
	Subscribe(ctx context.Context) <-chan core.Event
}

type storeSource struct {
	store Subscriber
	out   chan lifecycle.Event
}

// NewSource creates a lifecycle.Source emitting one event per applied
// transition of store. The subscription is taken in Start and released
// when its context ends, which also closes Events.
func NewSource(store Subscriber) lifecycle.Source {
	return &storeSource{
		store: store,
		out:   make(chan lifecycle.Event),
	}
}

func (s *storeSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *storeSource) Start(ctx context.Context) error {
	events := s.store.Subscribe(ctx)

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				// core.Event implements lifecycle.Event through String.
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
