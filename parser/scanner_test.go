package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScanUntil(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		tok, n, ok := scanUntil([]byte("GET /"), ' ')
		require.True(t, ok)
		require.Equal(t, "GET", string(tok))
		require.Equal(t, 4, n)
	})

	t.Run("delimiter first", func(t *testing.T) {
		tok, n, ok := scanUntil([]byte(" x"), ' ')
		require.True(t, ok)
		require.Empty(t, tok)
		require.Equal(t, 1, n)
	})

	t.Run("exhausted is not an empty match", func(t *testing.T) {
		tok, n, ok := scanUntil([]byte("GET"), ' ')
		require.False(t, ok)
		require.Nil(t, tok)
		require.Zero(t, n)

		_, _, ok = scanUntil(nil, ' ')
		require.False(t, ok)
	})
}

func TestScanUntilEither(t *testing.T) {
	t.Run("field first", func(t *testing.T) {
		tok, n, res := scanUntilEither([]byte("Host: x\r\n"), ':', '\r')
		require.Equal(t, foundField, res)
		require.Equal(t, "Host", string(tok))
		require.Equal(t, 5, n)
	})

	t.Run("terminator first", func(t *testing.T) {
		tok, n, res := scanUntilEither([]byte("\r\nHost: x"), ':', '\r')
		require.Equal(t, foundTerminator, res)
		require.Empty(t, tok)
		require.Equal(t, 1, n)
	})

	t.Run("exhausted", func(t *testing.T) {
		_, n, res := scanUntilEither([]byte("Host"), ':', '\r')
		require.Equal(t, exhausted, res)
		require.Zero(t, n)
	})
}

func TestBuffer(t *testing.T) {
	buf := NewBuffer(4)
	require.Equal(t, 4, buf.Cap())
	require.False(t, buf.Full())

	require.Equal(t, 3, buf.Fill([]byte("abc")))
	require.Equal(t, 1, buf.Fill([]byte("def")))
	require.True(t, buf.Full())
	require.Equal(t, "abcd", string(buf.Bytes()))
	require.Zero(t, buf.Fill([]byte("g")))

	buf.Reset()
	require.Zero(t, buf.Len())
	require.Equal(t, 4, buf.Cap())

	require.Equal(t, DefaultBufferSize, NewBuffer(0).Cap())
}
