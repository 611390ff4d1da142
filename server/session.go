package server

import (
	"sync/atomic"
	"time"

	"github.com/kjk/betterguid"
	"github.com/panjf2000/gnet"

	"github.com/leslie2050/gpeek/parser"
)

// Session is the per-connection state kept in the gnet connection context.
// A session is dispatched to the worker pool exactly once, either when its
// head is ready or when its read timeout fires.
type Session struct {
	ID       string // globally unique connection id
	GnetConn gnet.Conn
	OpenedAt time.Time

	head       *parser.Buffer
	dispatched int32
}

func newSession(c gnet.Conn, bufferSize int) *Session {
	return &Session{
		ID:       betterguid.New(),
		GnetConn: c,
		OpenedAt: time.Now(),
		head:     parser.NewBuffer(bufferSize),
	}
}

// claim marks the session dispatched, reporting whether the caller won.
func (s *Session) claim() bool {
	return atomic.CompareAndSwapInt32(&s.dispatched, 0, 1)
}

func (s *Session) isDispatched() bool {
	return atomic.LoadInt32(&s.dispatched) == 1
}

// Head is the peeked request head. It is only filled on the event loop
// before dispatch, and only read afterwards.
func (s *Session) Head() *parser.Buffer {
	return s.head
}

// Write queues b on the connection. b must not be reused by the caller.
func (s *Session) Write(b []byte) (n int, err error) {
	if err := s.GnetConn.AsyncWrite(b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Close closes the connection after every queued write.
func (s *Session) Close() error {
	return s.GnetConn.Close()
}

func (s *Session) RemoteAddr() string {
	if addr := s.GnetConn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
