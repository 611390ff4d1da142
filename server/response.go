package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/net/http/httpguts"

	"github.com/leslie2050/gpeek/parser"
)

const echoPreamble = "hello! You wrote:\r\n"

// StatusFor maps the outcome of reading a head to a response status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrReadTimeout):
		return http.StatusRequestTimeout
	case errors.Is(err, parser.ErrTruncated):
		return http.StatusRequestHeaderFieldsTooLarge
	default:
		return http.StatusBadRequest
	}
}

// WriteResponse writes a complete HTTP/1.1 response with a plain text body.
// Connections are never kept alive, so it always announces close.
func WriteResponse(w io.Writer, status int, body []byte) error {
	var b bytes.Buffer
	b.Grow(128 + len(body))
	b.WriteString("HTTP/1.1 ")
	b.WriteString(strconv.Itoa(status))
	b.WriteByte(' ')
	b.WriteString(http.StatusText(status))
	b.WriteString("\r\nContent-Type: text/plain; charset=utf-8\r\nContent-Length: ")
	b.WriteString(strconv.Itoa(len(body)))
	b.WriteString("\r\nConnection: close\r\n\r\n")
	b.Write(body)
	_, err := w.Write(b.Bytes())
	return err
}

// EchoBody renders the request back as the request line followed by one line
// per header.
func EchoBody(req *parser.Request) []byte {
	var b bytes.Buffer
	b.WriteString(echoPreamble)
	b.WriteString(req.Method)
	b.WriteByte(' ')
	b.WriteString(req.Path)
	if q := req.Query.Encode(); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	b.WriteByte(' ')
	b.WriteString(req.Protocol)
	b.WriteString("\r\n")
	for _, name := range req.Header.Names() {
		b.WriteString(name)
		b.WriteString(": ")
		b.Write(req.Header.Get(name))
		b.WriteString("\r\n")
	}
	return b.Bytes()
}

// invalidHeader returns the first header whose name or value is not a legal
// HTTP field, or "" when all are.
func invalidHeader(h parser.Header) string {
	for _, name := range h.Names() {
		if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(h.GetString(name)) {
			return name
		}
	}
	return ""
}

// NewEchoHandler answers parsed heads with an echo of what was received and
// failures with a bare status. With strict set, heads carrying header fields
// that are not valid HTTP tokens are refused with 400.
func NewEchoHandler(strict bool) Handler {
	return func(param *HandlerParam) {
		status := StatusFor(param.Err)
		var body []byte
		switch {
		case param.Err != nil:
			body = []byte(http.StatusText(status) + "\r\n")
		case strict && invalidHeader(param.Request.Header) != "":
			status = http.StatusBadRequest
			body = []byte("invalid header field " + strconv.Quote(invalidHeader(param.Request.Header)) + "\r\n")
		default:
			body = EchoBody(param.Request)
		}
		_ = WriteResponse(param.Writer, status, body)
	}
}
