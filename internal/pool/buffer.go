// Package pool recycles byte buffers between writer flushes and compression
// passes to cut down on large allocations.
package pool

import (
	"bytes"
	"sync"
)

const (
	// InitialBufferSize is the capacity of a freshly allocated buffer (64KB)
	InitialBufferSize = 64 * 1024

	// MaxRetainedSize is the largest buffer capacity kept in the pool (64MB).
	// Bigger buffers are left to the garbage collector.
	MaxRetainedSize = 64 * 1024 * 1024
)

// BufferPool hands out reset *bytes.Buffer values.
type BufferPool struct {
	pool      sync.Pool
	maxRetain int
}

// NewBufferPool creates a pool that drops buffers whose capacity exceeds
// maxRetain. A non-positive maxRetain uses MaxRetainedSize.
func NewBufferPool(maxRetain int) *BufferPool {
	if maxRetain <= 0 {
		maxRetain = MaxRetainedSize
	}
	return &BufferPool{
		pool: sync.Pool{
			New: func() any {
				return bytes.NewBuffer(make([]byte, 0, InitialBufferSize))
			},
		},
		maxRetain: maxRetain,
	}
}

// Get returns an empty buffer. The caller should hand it back with Put.
func (bp *BufferPool) Get() *bytes.Buffer {
	buf := bp.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Put returns buf to the pool. The buffer must not be used afterwards.
func (bp *BufferPool) Put(buf *bytes.Buffer) {
	if buf == nil || buf.Cap() > bp.maxRetain {
		return
	}
	buf.Reset()
	bp.pool.Put(buf)
}

// Global buffer pool instance shared by the writer and compressors.
var globalBufferPool = NewBufferPool(MaxRetainedSize)

// Get returns a buffer from the global pool.
func Get() *bytes.Buffer {
	return globalBufferPool.Get()
}

// Put returns a buffer to the global pool.
func Put(buf *bytes.Buffer) {
	globalBufferPool.Put(buf)
}
