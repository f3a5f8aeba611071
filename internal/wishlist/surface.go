package wishlist

import (
	"io"
	"sync"
)

// Surface receives rendered wishlist markup. Each Replace fully replaces
// what the surface showed before.
type Surface interface {
	Replace(html string)
}

// BufferSurface keeps the latest render in memory.
// Concurrent renders serialize on the mutex; the last Replace wins.
type BufferSurface struct {
	mu      sync.Mutex
	html    string
	renders int
}

func (b *BufferSurface) Replace(html string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.html = html
	b.renders++
}

// HTML returns the current content.
func (b *BufferSurface) HTML() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.html
}

// Renders counts how many times the surface was replaced.
func (b *BufferSurface) Renders() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.renders
}

// WriterSurface writes every render to w, one render per write.
type WriterSurface struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSurface wraps w.
func NewWriterSurface(w io.Writer) *WriterSurface {
	return &WriterSurface{w: w}
}

func (s *WriterSurface) Replace(html string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.w, html+"\n")
}

type discardSurface struct{}

func (discardSurface) Replace(string) {}
