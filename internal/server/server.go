package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/creedthoughtstrivia/OfficeTrivia-enhanced/internal/config"
	"github.com/creedthoughtstrivia/OfficeTrivia-enhanced/internal/handlers"
)

// ErrPortInUse is returned by Listen when another process already holds the port.
var ErrPortInUse = errors.New("port already in use")

// shutdownGrace bounds how long in-flight requests may run after an interrupt.
const shutdownGrace = 5 * time.Second

// Server serves the trivia game's files on a single listener.
type Server struct {
	addr       string
	httpServer *http.Server
	listener   net.Listener
}

// New builds a Server for cfg. Nothing is bound until Listen.
func New(cfg config.Config) (*Server, error) {
	handler, err := handlers.StaticFiles(cfg.Root)
	if err != nil {
		return nil, err
	}

	return &Server{
		addr: cfg.Addr(),
		httpServer: &http.Server{
			Handler: handler,
			// Requests are never logged, and neither are broken connections.
			ErrorLog: log.New(io.Discard, "", 0),
		},
	}, nil
}

// Listen binds the TCP socket.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		// Another instance (or anything else) owns the port: say so plainly.
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("%w: %s", ErrPortInUse, s.addr)
		}
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Port returns the bound TCP port, or 0 before Listen.
func (s *Server) Port() int {
	if tcp, ok := s.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Serve accepts connections until ctx is cancelled, then stops accepting,
// closes the listener and waits briefly for in-flight requests.
// It binds first if Listen has not been called. A clean shutdown returns nil.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	// net/http runs the accept loop and gives each connection its own goroutine.
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(s.listener)
	}()

	// Wait for either the accept loop to die on its own or an interrupt.
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	// Shutdown closes the listener right away, so no new connections are
	// accepted, then waits for active requests to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		// Grace period over; drop whatever is still running.
		s.httpServer.Close()
	}
	// Serve has returned ErrServerClosed by now; that is the clean exit.
	<-errCh
	return nil
}
