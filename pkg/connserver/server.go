// Package connserver implements the raw-TCP connection server: a fixed
// pool of worker goroutines pulling accepted connections off a shared
// channel, each doing its own incremental HTTP/1.0 read, parse, dispatch
// and scatter-gather write. Grounded on original_source's ConnServ/
// ConnHand (a boost::asio thread pool sharing one acceptor and
// io_service); the Go translation replaces the shared io_service with T
// persistent goroutines draining one chan net.Conn, per spec.md §9's
// guidance to replace callback-driven async I/O with cooperative tasks.
package connserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/therealutkarshpriyadarshi/geoknn/pkg/httpserver"
	"github.com/therealutkarshpriyadarshi/geoknn/pkg/observability"
)

// readChunk is the fixed read size used for every incremental socket
// read, matching the original's 8 KiB boost::array buffer.
const readChunk = 8192

// maxHeaderBytes bounds how much header data a single connection may send
// before the server gives up and closes it, guarding against a client
// that never sends the header terminator.
const maxHeaderBytes = 1 << 20

// Handler processes one parsed request and returns the response to write
// back. It must not block on anything but the query itself: Server's
// worker pool has no separate I/O thread to hand work back to.
type Handler func(*httpserver.Request) *httpserver.Response

// Server is the raw kNN query server: T workers accepting connections off
// one listener and handling each to completion before accepting another.
type Server struct {
	addr    string
	workers int
	handler Handler
	log     *observability.Logger

	ln net.Listener
}

// New returns a Server that will listen on addr with the given number of
// worker goroutines, each request handled by handler.
func New(addr string, workers int, handler Handler, log *observability.Logger) *Server {
	if workers < 1 {
		workers = 1
	}
	return &Server{addr: addr, workers: workers, handler: handler, log: log}
}

// Serve opens the listener and blocks, distributing accepted connections
// across the worker pool, until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("connserver: listen %s: %w", s.addr, err)
	}
	s.ln = ln

	conns := make(chan net.Conn)
	for i := 0; i < s.workers; i++ {
		go s.worker(ctx, conns)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				close(conns)
				return nil
			}
			s.log.Warnf("connserver: accept error: %v", err)
			continue
		}
		select {
		case conns <- conn:
		case <-ctx.Done():
			conn.Close()
			close(conns)
			return nil
		}
	}
}

// Addr returns the listener's actual address, valid once Serve has
// started listening. Mainly useful in tests that bind to port 0.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) worker(ctx context.Context, conns <-chan net.Conn) {
	for conn := range conns {
		s.handleConn(conn)
	}
	_ = ctx
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(30 * time.Second))

	raw, body, err := readRequest(conn)
	if err != nil {
		s.log.Debugf("connserver: read error: %v", err)
		return
	}

	req, err := httpserver.ParseHeaders(raw)
	if err != nil {
		s.log.Debugf("connserver: parse error: %v", err)
		writeResponse(conn, httpserver.NotFound())
		return
	}
	req.Body = body

	resp := s.handler(req)
	if resp == nil {
		resp = httpserver.NotFound()
	}
	writeResponse(conn, resp)
}

// readRequest performs the incremental header-then-body read described in
// spec.md §4.6: read in readChunk-sized increments until the header
// terminator is seen, determine the body length from Content-Length (if
// present), and keep reading until that many body bytes have arrived.
func readRequest(conn net.Conn) (headerAndBody []byte, body []byte, err error) {
	buf := make([]byte, 0, readChunk)
	chunk := make([]byte, readChunk)

	headerEnd := -1
	for headerEnd < 0 {
		if len(buf) > maxHeaderBytes {
			return nil, nil, fmt.Errorf("connserver: headers exceeded %d bytes", maxHeaderBytes)
		}
		n, rerr := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if rerr != nil {
			return nil, nil, rerr
		}
		headerEnd = httpserver.HeaderEnd(buf)
	}

	contentLength := httpserver.ContentLength(buf[:headerEnd])
	want := headerEnd + contentLength
	for len(buf) < want {
		n, rerr := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if rerr != nil {
			return nil, nil, rerr
		}
	}

	return buf[:headerEnd], buf[headerEnd:want], nil
}

func writeResponse(conn net.Conn, resp *httpserver.Response) {
	bufs := resp.Buffers()
	if _, err := bufs.WriteTo(conn); err != nil {
		return
	}
}
