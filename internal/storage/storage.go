// Package storage provides the key/value repository that backs per-browser
// engine state (wishlist membership, recently viewed products).
//
// The contract mirrors browser persistent storage: string keys, string values,
// last write wins, no transactions. Implementations publish every change so
// dependents (renderers, other sessions) can react without polling.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage closed")

// Store is the repository abstraction for persisted engine state.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set writes value under key and publishes a Change.
	Set(ctx context.Context, key, value string) error

	// Delete removes key and publishes a Change with Deleted set.
	// Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Subscribe streams changes until ctx is cancelled, then closes the channel.
	// Slow subscribers may miss changes; the channel never blocks writers.
	Subscribe(ctx context.Context) (<-chan Change, error)

	// Close releases backend resources.
	Close() error
}

// Change describes one mutation of the store.
type Change struct {
	Key     string `json:"key"`
	Value   string `json:"value,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// subscriberBuffer is the per-subscriber channel capacity.
const subscriberBuffer = 64

// Prefixed scopes a shared store to a key namespace.
// Keys passed in are relative; changes outside the namespace are filtered
// out of subscriptions and the prefix is stripped from the rest.
type Prefixed struct {
	inner  Store
	prefix string
}

// WithPrefix returns a view of inner restricted to keys starting with prefix.
func WithPrefix(inner Store, prefix string) *Prefixed {
	return &Prefixed{inner: inner, prefix: prefix}
}

// ClientPrefix returns the namespace used for one browser client.
func ClientPrefix(clientID string) string {
	return "client:" + clientID + ":"
}

func (p *Prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *Prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *Prefixed) Delete(ctx context.Context, key string) error {
	return p.inner.Delete(ctx, p.prefix+key)
}

func (p *Prefixed) Subscribe(ctx context.Context) (<-chan Change, error) {
	src, err := p.inner.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan Change, subscriberBuffer)
	go func() {
		defer close(out)
		for c := range src {
			if !strings.HasPrefix(c.Key, p.prefix) {
				continue
			}
			c.Key = strings.TrimPrefix(c.Key, p.prefix)
			select {
			case out <- c:
			default:
			}
		}
	}()
	return out, nil
}

// Close is a no-op; the shared store is owned by its creator.
func (p *Prefixed) Close() error {
	return nil
}

var _ Store = (*Prefixed)(nil)
