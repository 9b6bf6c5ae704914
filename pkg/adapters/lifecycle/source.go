// Package lifecycle exposes store change events as a lifecycle.Source so
// applications can route them through a lifecycle router.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/shelter/pkg/core"
)

type tableSource struct {
	watcher core.Watchable
	pattern string
	out     chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that watches tables matching pattern
// once started. core.Event satisfies lifecycle.Event through its String method.
func NewSource(watcher core.Watchable, pattern string) lifecycle.Source {
	return &tableSource{
		watcher: watcher,
		pattern: pattern,
		out:     make(chan lifecycle.Event),
	}
}

func (s *tableSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start begins watching. The events channel closes when ctx ends or the
// underlying watch stops.
func (s *tableSource) Start(ctx context.Context) error {
	events, err := s.watcher.Watch(ctx, s.pattern)
	if err != nil {
		return err
	}

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
