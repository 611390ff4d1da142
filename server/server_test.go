package server

import (
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leslie2050/gpeek/stats"
)

func TestConnManager(t *testing.T) {
	cm := NewConnManager(zap.NewNop())
	cm.Start()

	cm.Add("a")
	cm.Add("b")
	cm.Add("a")
	cm.Free("a")
	cm.Free("missing")

	require.Eventually(t, func() bool { return cm.Established() == 1 }, time.Second, time.Millisecond)

	cm.Stop()
	cm.Stop()
	cm.Free("b")
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func startServer(t *testing.T, opts Options) (*Server, *stats.Memory) {
	t.Helper()
	rec := stats.NewMemory()
	srv, err := NewServer(opts, zap.NewNop(), rec)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Start(nil) }()

	select {
	case <-srv.Ready():
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server never became ready")
	}

	t.Cleanup(func() {
		srv.Stop()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})
	return srv, rec
}

func roundTrip(t *testing.T, addr string, chunks ...string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	for _, chunk := range chunks {
		_, err := conn.Write([]byte(chunk))
		require.NoError(t, err)
		time.Sleep(10 * time.Millisecond)
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	out, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(out)
}

func TestServerRoundTrip(t *testing.T) {
	opts := Options{
		Addr:        freeAddr(t),
		ReadTimeout: 200 * time.Millisecond,
		Tick:        10 * time.Millisecond,
		PoolSize:    2,
		BufferSize:  256,
	}
	srv, rec := startServer(t, opts)

	t.Run("head split across writes", func(t *testing.T) {
		out := roundTrip(t, srv.Addr, "GET /hi?name=gpeek HTTP/1.1\r\n", "Host: local\r\n", "\r\n")
		require.True(t, strings.HasPrefix(out, "HTTP/1.1 200 OK\r\n"), out)
		require.Contains(t, out, "hello! You wrote:\r\nGET /hi?name=gpeek HTTP/1.1\r\nHost: local\r\n")
	})

	t.Run("malformed", func(t *testing.T) {
		out := roundTrip(t, srv.Addr, "GET /hi?name HTTP/1.1\r\n\r\n")
		require.True(t, strings.HasPrefix(out, "HTTP/1.1 400 Bad Request\r\n"), out)
	})

	t.Run("head larger than the buffer", func(t *testing.T) {
		out := roundTrip(t, srv.Addr, "GET /"+strings.Repeat("x", 300)+" HTTP/1.1\r\n\r\n")
		require.True(t, strings.HasPrefix(out, "HTTP/1.1 431 "), out)
	})

	t.Run("incomplete head times out", func(t *testing.T) {
		out := roundTrip(t, srv.Addr, "GET / HTTP/1.1\r\nHost: slow")
		require.True(t, strings.HasPrefix(out, "HTTP/1.1 408 Request Timeout\r\n"), out)
	})

	require.EqualValues(t, 1, rec.Count(stats.OutcomeOK))
	require.EqualValues(t, 1, rec.Count("malformed query"))
	require.EqualValues(t, 1, rec.Count("truncated"))
	require.EqualValues(t, 1, rec.Count(stats.OutcomeTimeout))
}

func TestNewServerValidatesOptions(t *testing.T) {
	_, err := NewServer(Options{Addr: ":0", PoolSize: 1}, nil, nil)
	require.Error(t, err)

	_, err = NewServer(Options{Addr: ":0", ReadTimeout: time.Second, Tick: time.Second}, nil, nil)
	require.Error(t, err)
}
