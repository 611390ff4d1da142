package parser

// DefaultBufferSize bounds how many bytes of a request head are ever examined.
const DefaultBufferSize = 8192

// Buffer is a bounded byte buffer holding a peeked request head.
//
// Filling it is the job of whoever owns the connection; Parse only reads it.
type Buffer struct {
	data []byte
}

// NewBuffer returns an empty buffer that holds at most capacity bytes.
// A non-positive capacity falls back to DefaultBufferSize.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &Buffer{data: make([]byte, 0, capacity)}
}

// Fill appends as much of p as still fits and returns the number of bytes copied.
func (b *Buffer) Fill(p []byte) int {
	room := cap(b.data) - len(b.data)
	if len(p) > room {
		p = p[:room]
	}
	b.data = append(b.data, p...)
	return len(p)
}

func (b *Buffer) Bytes() []byte { return b.data }
func (b *Buffer) Len() int      { return len(b.data) }
func (b *Buffer) Cap() int      { return cap(b.data) }

// Full reports whether the capacity bound has been reached.
func (b *Buffer) Full() bool { return len(b.data) == cap(b.data) }

func (b *Buffer) Reset() { b.data = b.data[:0] }
