package parser

import (
	"errors"
	"fmt"
)

// Kind classifies a parse failure.
type Kind uint8

const (
	KindMalformedRequestLine Kind = iota + 1
	KindMalformedQuery
	KindMalformedHeader
	KindTruncated
	KindEncoding
)

func (k Kind) String() string {
	switch k {
	case KindMalformedRequestLine:
		return "malformed request line"
	case KindMalformedQuery:
		return "malformed query"
	case KindMalformedHeader:
		return "malformed header"
	case KindTruncated:
		return "truncated"
	case KindEncoding:
		return "encoding error"
	default:
		return "unknown"
	}
}

// ParseError is the only error type Parse returns.
//
// Two ParseErrors match under errors.Is when their kinds are equal, so the
// sentinels below can be used to branch on the kind:
//
//	if errors.Is(err, parser.ErrTruncated) { ... }
type ParseError struct {
	Kind   Kind
	Field  string // token being read, e.g. "method" or "header value"
	Offset int    // buffer offset where the token started
	Err    error  // underlying cause, may be nil
}

var (
	ErrMalformedRequestLine = &ParseError{Kind: KindMalformedRequestLine}
	ErrMalformedQuery       = &ParseError{Kind: KindMalformedQuery}
	ErrMalformedHeader      = &ParseError{Kind: KindMalformedHeader}
	ErrTruncated            = &ParseError{Kind: KindTruncated}
	ErrEncoding             = &ParseError{Kind: KindEncoding}
)

func (e *ParseError) Error() string {
	msg := "parser: " + e.Kind.String()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s at offset %d", msg, e.Field, e.Offset)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Kind == e.Kind
}

// KindOf reports the kind of err, or 0 when err is not a ParseError.
func KindOf(err error) Kind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

func newError(kind Kind, field string, offset int, cause error) *ParseError {
	return &ParseError{Kind: kind, Field: field, Offset: offset, Err: cause}
}
