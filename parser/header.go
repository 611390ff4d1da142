package parser

import (
	"bytes"
	"unicode/utf8"
)

// HeaderJoin separates the values of a header name that occurs more than once.
const HeaderJoin = ", "

// Header maps header names, exactly as received, to their values. Names keep
// their first-appearance order.
type Header struct {
	names  []string
	values map[string][]byte
}

// merge is the only way a Header is written: the first value of a name is
// stored as is, every later one is appended after HeaderJoin.
func (h *Header) merge(name string, value []byte) {
	if h.values == nil {
		h.values = make(map[string][]byte)
	}
	prev, ok := h.values[name]
	if !ok {
		h.names = append(h.names, name)
		h.values[name] = append([]byte(nil), value...)
		return
	}
	merged := make([]byte, 0, len(prev)+len(HeaderJoin)+len(value))
	merged = append(merged, prev...)
	merged = append(merged, HeaderJoin...)
	h.values[name] = append(merged, value...)
}

// Get returns the value stored under name. The slice must not be modified.
func (h Header) Get(name string) []byte { return h.values[name] }

// GetString is Get converted to a string.
func (h Header) GetString(name string) string { return string(h.values[name]) }

func (h Header) Has(name string) bool {
	_, ok := h.values[name]
	return ok
}

// Names returns header names in first-appearance order. The slice must not be modified.
func (h Header) Names() []string { return h.names }

func (h Header) Len() int { return len(h.names) }

type headerState uint8

const (
	readingName headerState = iota
	readingValue
	headersDone
)

// parseHeaders consumes header lines up to and including the first line that
// ends before a ':'. Normally that is the empty line closing the block; any
// bytes on it are dropped.
func parseHeaders(c *cursor) (Header, error) {
	var (
		h     Header
		name  string
		state = readingName
	)
	for state != headersDone {
		start := c.pos
		switch state {
		case readingName:
			tok, n, res := scanUntilEither(c.rest(), colon, cr)
			switch res {
			case exhausted:
				return Header{}, c.fail(KindMalformedHeader, "header name", start)
			case foundTerminator:
				// a line ending before any ':' closes the block
				c.pos += n
				if err := c.skipLF(KindMalformedHeader, "header block end"); err != nil {
					return Header{}, err
				}
				state = headersDone
				continue
			}
			if len(tok) == 0 {
				return Header{}, newError(KindMalformedHeader, "header name", start, nil)
			}
			if !utf8.Valid(tok) {
				return Header{}, newError(KindEncoding, "header name", start, nil)
			}
			name = string(tok)
			c.pos += n
			state = readingValue

		case readingValue:
			tok, n, ok := scanUntil(c.rest(), cr)
			if !ok {
				return Header{}, c.fail(KindMalformedHeader, "header value", start)
			}
			if !utf8.Valid(tok) {
				return Header{}, newError(KindEncoding, "header value", start, nil)
			}
			c.pos += n
			if err := c.skipLF(KindMalformedHeader, "header value"); err != nil {
				return Header{}, err
			}
			h.merge(name, bytes.Trim(tok, " \t"))
			state = readingName
		}
	}
	return h, nil
}
