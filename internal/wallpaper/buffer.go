package wallpaper

import (
	"errors"
	"fmt"
	"sync"

	"github.com/matjam/wlpaper/internal/types"
)

var ErrSizeMismatch = errors.New("image size does not match the output buffer")

// Buffer is a tightly packed RGB pixel buffer. The surface that owns it
// and any producer streaming frames into it write under the same lock;
// the renderer only ever reads.
type Buffer struct {
	mu  sync.RWMutex
	pix []byte
}

func NewBuffer(size int) *Buffer {
	return &Buffer{pix: make([]byte, size)}
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.pix)
}

// Reset replaces the contents with size zero bytes.
func (b *Buffer) Reset(size int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pix = make([]byte, size)
}

func (b *Buffer) Fill(c types.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := 0; i+2 < len(b.pix); i += 3 {
		b.pix[i] = c[0]
		b.pix[i+1] = c[1]
		b.pix[i+2] = c[2]
	}
}

// CopyFrom overwrites the buffer with src. The buffer is left untouched
// unless src has exactly the buffer's length.
func (b *Buffer) CopyFrom(src []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(src) != len(b.pix) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(src), len(b.pix))
	}
	copy(b.pix, src)
	return nil
}

// Read calls fn with the pixels under the read lock. fn must not retain
// the slice.
func (b *Buffer) Read(fn func(pix []byte)) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn(b.pix)
}

// Write calls fn with the pixels under the write lock, for producers
// that update frames in place.
func (b *Buffer) Write(fn func(pix []byte)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.pix)
}
