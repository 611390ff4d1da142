package parser

import (
	"strings"
	"unicode/utf8"
)

type requestLine struct {
	method   string
	target   string
	protocol string
}

// parseRequestLine reads METHOD SP TARGET SP PROTOCOL CRLF from the cursor.
func parseRequestLine(c *cursor) (line requestLine, err error) {
	if line.method, err = c.lineToken("method", sp); err != nil {
		return line, err
	}
	if line.target, err = c.lineToken("target", sp); err != nil {
		return line, err
	}
	if line.protocol, err = c.lineToken("protocol", cr); err != nil {
		return line, err
	}
	if perr := c.skipLF(KindMalformedRequestLine, "protocol"); perr != nil {
		return line, perr
	}
	return line, nil
}

// lineToken reads one non-empty request-line token ending at delim. A CR met
// before delim means the token would spill into the next line.
func (c *cursor) lineToken(field string, delim byte) (string, error) {
	start := c.pos
	tok, n, res := scanUntilEither(c.rest(), delim, cr)
	switch {
	case res == exhausted:
		return "", c.fail(KindMalformedRequestLine, field, start)
	case res == foundTerminator && delim != cr:
		return "", newError(KindMalformedRequestLine, field, start, nil)
	case len(tok) == 0:
		return "", newError(KindMalformedRequestLine, field, start, nil)
	}
	if !utf8.Valid(tok) {
		return "", newError(KindMalformedRequestLine, field, start, ErrEncoding)
	}
	c.pos += n
	return string(tok), nil
}

// splitTarget separates the path from the query on the first '?'.
func splitTarget(target string) (path, query string) {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i], target[i+1:]
	}
	return target, ""
}
