package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"time"
)

type headerFlags []string

func (h *headerFlags) String() string     { return strings.Join(*h, ", ") }
func (h *headerFlags) Set(v string) error { *h = append(*h, v); return nil }

func main() {
	addr := flag.String("addr", "127.0.0.1:7001", "server address")
	method := flag.String("method", "GET", "request method")
	path := flag.String("path", "/", "request target, query included")
	timeout := flag.Duration("timeout", 10*time.Second, "dial and read timeout")
	var headers headerFlags
	flag.Var(&headers, "H", "header line \"Name: value\", repeatable")
	flag.Parse()

	if err := request(os.Stdout, *addr, *method, *path, headers, *timeout); err != nil {
		log.Fatal(err)
	}
}

// request sends one request head to addr and copies the reply to w until the
// server closes the connection.
func request(w io.Writer, addr, method, path string, headers []string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\nHost: %s\r\n", method, path, addr)
	for _, h := range headers {
		b.WriteString(h)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")

	if _, err := io.WriteString(conn, b.String()); err != nil {
		return err
	}
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	_, err = io.Copy(w, conn)
	return err
}
