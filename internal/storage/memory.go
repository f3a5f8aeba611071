package storage

import (
	"context"
	"sync"
)

// Memory is an in-process Store. It is the default backend for development
// and the reference implementation used by engine tests.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]string
	hub    hub
	closed bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// NewMemoryFrom seeds a store with initial values. Useful for tests.
func NewMemoryFrom(seed map[string]string) *Memory {
	m := NewMemory()
	for k, v := range seed {
		m.data[k] = v
	}
	return m
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.data[key] = value
	m.mu.Unlock()

	m.hub.publish(Change{Key: key, Value: value})
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	delete(m.data, key)
	m.mu.Unlock()

	m.hub.publish(Change{Key: key, Deleted: true})
	return nil
}

func (m *Memory) Subscribe(ctx context.Context) (<-chan Change, error) {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	return m.hub.subscribe(ctx), nil
}

// Snapshot returns a copy of every key/value pair.
func (m *Memory) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.hub.closeAll()
	return nil
}

var _ Store = (*Memory)(nil)

// hub fans changes out to subscribers without blocking publishers.
type hub struct {
	mu   sync.Mutex
	subs map[chan Change]struct{}
}

func (h *hub) subscribe(ctx context.Context) <-chan Change {
	ch := make(chan Change, subscriberBuffer)
	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[chan Change]struct{})
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.remove(ch)
	}()
	return ch
}

func (h *hub) remove(ch chan Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

func (h *hub) publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}
