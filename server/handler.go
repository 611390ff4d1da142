package server

import (
	"errors"
	"io"

	"github.com/leslie2050/gpeek/parser"
)

// ErrReadTimeout is passed to the handler when a connection did not deliver a
// complete head before the read timeout.
var ErrReadTimeout = errors.New("server: read timeout before request head completed")

// HandlerParam is what a Handler gets for one connection. Exactly one of
// Request and Err is set.
type HandlerParam struct {
	Request *parser.Request
	Err     error

	Writer  io.Writer
	Session *Session
	Server  *Server
}

// Handler answers one connection. It runs on a pool worker; the connection is
// closed after it returns.
type Handler func(param *HandlerParam)
