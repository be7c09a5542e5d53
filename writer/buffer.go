package writer

import (
	"bytes"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/dataeng/internal/pool"
)

// BufferKind selects how a Writer accumulates records between flushes.
type BufferKind int

const (
	// AutoBuffer picks BinaryBuffer for compressed output and TextBuffer otherwise.
	AutoBuffer BufferKind = iota

	// TextBuffer accumulates into a strings.Builder.
	TextBuffer

	// BinaryBuffer accumulates into a pooled bytes.Buffer.
	BinaryBuffer
)

// String returns the name of the buffer kind.
func (k BufferKind) String() string {
	switch k {
	case TextBuffer:
		return "text"
	case BinaryBuffer:
		return "binary"
	default:
		return "auto"
	}
}

type buffer interface {
	Write(p []byte) (int, error)
	WriteString(s string) (int, error)
	WriteByte(c byte) error
	Len() int
	Bytes() []byte
	Reset()
	release()
}

func newBuffer(kind BufferKind) buffer {
	if kind == TextBuffer {
		return &textBuffer{}
	}
	return &binaryBuffer{Buffer: pool.Get()}
}

type textBuffer struct {
	strings.Builder
}

func (b *textBuffer) Bytes() []byte {
	return []byte(b.String())
}

func (b *textBuffer) release() {
	b.Reset()
}

type binaryBuffer struct {
	*bytes.Buffer
}

func (b *binaryBuffer) release() {
	pool.Put(b.Buffer)
	b.Buffer = &bytes.Buffer{}
}
