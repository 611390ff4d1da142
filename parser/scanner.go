package parser

const (
	cr    = '\r'
	lf    = '\n'
	sp    = ' '
	colon = ':'
)

type scanResult uint8

const (
	exhausted scanResult = iota
	foundField
	foundTerminator
)

// scanUntil returns the bytes of buf before the first delim and the number of
// bytes consumed including delim. ok is false when delim never occurs.
func scanUntil(buf []byte, delim byte) (tok []byte, n int, ok bool) {
	for i, c := range buf {
		if c == delim {
			return buf[:i], i + 1, true
		}
	}
	return nil, 0, false
}

// scanUntilEither stops at whichever of field or term comes first. The result
// tells the caller which one was hit, or that buf ran out before either.
func scanUntilEither(buf []byte, field, term byte) (tok []byte, n int, res scanResult) {
	for i, c := range buf {
		switch c {
		case field:
			return buf[:i], i + 1, foundField
		case term:
			return buf[:i], i + 1, foundTerminator
		}
	}
	return nil, 0, exhausted
}

// cursor walks a request head, tracking how much of it has been consumed.
type cursor struct {
	data []byte
	pos  int
	full bool // data reached the buffer capacity
}

func (c *cursor) rest() []byte {
	return c.data[c.pos:]
}

// fail builds the error for a scan that ran out of bytes. Running out of a
// buffer that hit its capacity means the head did not fit.
func (c *cursor) fail(kind Kind, field string, start int) *ParseError {
	if c.full {
		return newError(KindTruncated, field, start, nil)
	}
	return newError(kind, field, start, nil)
}

// skipLF consumes the LF that must follow a CR which was just consumed.
func (c *cursor) skipLF(kind Kind, field string) *ParseError {
	if c.pos >= len(c.data) {
		return c.fail(kind, field, c.pos)
	}
	if c.data[c.pos] != lf {
		return newError(kind, field, c.pos, nil)
	}
	c.pos++
	return nil
}
