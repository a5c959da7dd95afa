package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

type entry struct {
	name     string
	enricher Enricher
	priority int
}

// Chain consults registered enrichers from highest to lowest priority and
// merges their answers. Chain is itself an Enricher.
type Chain struct {
	mu      sync.RWMutex
	entries []entry
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// Register adds an enricher under name.
func (c *Chain) Register(name string, enricher Enricher, priority int) error {
	if enricher == nil {
		return fmt.Errorf("provider %s is nil", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if e.name == name {
			return fmt.Errorf("provider %s already registered", name)
		}
	}
	c.entries = append(c.entries, entry{name: name, enricher: enricher, priority: priority})
	sort.SliceStable(c.entries, func(i, j int) bool {
		return c.entries[i].priority > c.entries[j].priority
	})
	return nil
}

// List returns the registered provider names in priority order.
func (c *Chain) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.name)
	}
	return names
}

// Len returns the number of registered providers.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Chain) Movie(ctx context.Context, req Request) (*Metadata, error) {
	return c.run(ctx, func(e Enricher) (*Metadata, error) { return e.Movie(ctx, req) })
}

func (c *Chain) Show(ctx context.Context, req Request) (*Metadata, error) {
	return c.run(ctx, func(e Enricher) (*Metadata, error) { return e.Show(ctx, req) })
}

func (c *Chain) Episode(ctx context.Context, req EpisodeRequest) (*Metadata, error) {
	return c.run(ctx, func(e Enricher) (*Metadata, error) { return e.Episode(ctx, req) })
}

// run merges results until one is complete. Errors are reported only when no
// provider returned anything.
func (c *Chain) run(ctx context.Context, call func(Enricher) (*Metadata, error)) (*Metadata, error) {
	c.mu.RLock()
	entries := append([]entry(nil), c.entries...)
	c.mu.RUnlock()

	var (
		merged *Metadata
		errs   []error
	)
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return merged, err
		}
		meta, err := call(e.enricher)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.name, err))
			continue
		}
		merged = Merge(merged, meta)
		if merged.Complete() {
			break
		}
	}

	if merged == nil {
		if len(errs) == 0 {
			return nil, &ProviderError{Code: CodeNotFound, Message: "no metadata providers configured"}
		}
		return nil, errors.Join(errs...)
	}
	return merged, nil
}
