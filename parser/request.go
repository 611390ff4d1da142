// Package parser turns a peeked HTTP/1.x request head (request line plus
// header block) into a Request.
//
// Parsing is all or nothing: callers get either a complete *Request or a
// *ParseError, never both. The parser keeps no state between calls and does
// no I/O.
package parser

import "bytes"

var headEnd = []byte("\r\n\r\n")

// Request is a parsed request head. It is not modified after Parse returns.
type Request struct {
	Method   string
	Path     string
	Query    Query
	Protocol string
	Header   Header
}

// Parse parses the head held in buf.
func Parse(buf *Buffer) (*Request, error) {
	return parse(buf.Bytes(), buf.Full())
}

// ParseBytes parses p as if it had been peeked into a buffer of the given
// capacity. Bytes past capacity are ignored.
func ParseBytes(p []byte, capacity int) (*Request, error) {
	buf := NewBuffer(capacity)
	buf.Fill(p)
	return Parse(buf)
}

func parse(data []byte, full bool) (*Request, error) {
	c := &cursor{data: data, full: full}

	line, err := parseRequestLine(c)
	if err != nil {
		return nil, err
	}

	path, rawQuery := splitTarget(line.target)
	// the query starts after METHOD SP PATH '?'
	query, err := parseQuery(rawQuery, len(line.method)+1+len(path)+1)
	if err != nil {
		return nil, err
	}

	header, err := parseHeaders(c)
	if err != nil {
		return nil, err
	}

	return &Request{
		Method:   line.method,
		Path:     path,
		Query:    query,
		Protocol: line.protocol,
		Header:   header,
	}, nil
}

// HeadLen reports how many bytes of p make up the request head, including
// the empty line that ends it, or -1 when p holds no complete head.
func HeadLen(p []byte) int {
	if i := bytes.Index(p, headEnd); i >= 0 {
		return i + len(headEnd)
	}
	return -1
}
