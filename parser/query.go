package parser

import "strings"

// Query is an ordered multi-valued mapping of query parameters. Keys keep the
// order in which they first appeared; values keep encounter order.
type Query struct {
	keys   []string
	values map[string][]string
}

// add appends value to key, registering key on first sight.
func (q *Query) add(key, value string) {
	if q.values == nil {
		q.values = make(map[string][]string)
	}
	vs, ok := q.values[key]
	if !ok {
		q.keys = append(q.keys, key)
	}
	q.values[key] = append(vs, value)
}

// Get returns the first value of key, or "" when absent.
func (q Query) Get(key string) string {
	if vs := q.values[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Values returns every value of key in encounter order. The slice must not be modified.
func (q Query) Values(key string) []string { return q.values[key] }

func (q Query) Has(key string) bool {
	_, ok := q.values[key]
	return ok
}

// Keys returns the keys in first-appearance order. The slice must not be modified.
func (q Query) Keys() []string { return q.keys }

func (q Query) Len() int { return len(q.keys) }

// parseQuery splits raw on '&' and every pair on its first '='. Values are
// kept verbatim; nothing is percent-decoded. offset locates raw in the buffer
// for error reporting.
func parseQuery(raw string, offset int) (Query, error) {
	var q Query
	if raw == "" {
		return q, nil
	}
	pos := offset
	for _, pair := range strings.Split(raw, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return Query{}, newError(KindMalformedQuery, "query pair", pos, nil)
		}
		q.add(key, value)
		pos += len(pair) + 1
	}
	return q, nil
}

// Encode joins the pairs back into key=value&... form, keys in first-appearance
// order and each key's values in encounter order.
func (q Query) Encode() string {
	var b strings.Builder
	for _, k := range q.keys {
		for _, v := range q.values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
		}
	}
	return b.String()
}
