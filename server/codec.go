package server

import (
	"github.com/panjf2000/gnet"

	"github.com/leslie2050/gpeek/parser"
)

// headCodec frames a connection's first request head. Decode only peeks at
// the inbound buffer until the head is complete or the session buffer would
// be full; until then the bytes stay in gnet's buffer and more are awaited.
type headCodec struct{}

// Encode ...
func (hc *headCodec) Encode(c gnet.Conn, buf []byte) ([]byte, error) {
	return buf, nil
}

// Decode ...
func (hc *headCodec) Decode(c gnet.Conn) ([]byte, error) {
	data := c.Read()
	if len(data) == 0 {
		return nil, nil
	}

	sess, ok := c.Context().(*Session)
	if !ok || sess.isDispatched() {
		// one head per connection, anything after it is ignored
		c.ResetBuffer()
		return nil, nil
	}

	if !headReady(data, sess.head.Cap()) {
		return nil, nil
	}

	sess.head.Reset()
	sess.head.Fill(data)
	c.ResetBuffer()
	return sess.head.Bytes(), nil
}

// headReady reports whether data holds a whole head or already reaches the
// buffer bound.
func headReady(data []byte, capacity int) bool {
	return len(data) >= capacity || parser.HeadLen(data) >= 0
}
