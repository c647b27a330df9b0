package staticd

import (
	"bufio"
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"dqx0.com/go/staticd/internal/obs"
	"dqx0.com/go/staticd/staticd/internal/docroot"
)

// Server accepts connections on one listener and serves each of them on a
// fixed pool of workers.
type Server struct {
	cfg     Config
	content *docroot.Content

	mu sync.Mutex
	ln net.Listener
}

// NewServer fills in defaults and validates cfg.
func NewServer(cfg Config) (*Server, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Server{
		cfg: cfg,
		content: &docroot.Content{
			Root:            cfg.Root,
			ContentType:     cfg.ContentType,
			ListDirectories: cfg.ListDirectories,
		},
	}, nil
}

// Config returns the effective configuration.
func (s *Server) Config() Config {
	return s.cfg
}

// Addr returns the listener address, or nil before Serve is called.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ListenAndServe listens on the configured host and port and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on l until ctx is cancelled or accepting fails
// for good. Connections already queued are still served before Serve
// returns. After cancellation the error is ErrServerClosed.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.mu.Lock()
	if s.ln != nil {
		s.mu.Unlock()
		if l != nil {
			l.Close()
		}
		return errors.New("staticd: Serve called more than once")
	}
	s.ln = l
	s.mu.Unlock()
	defer l.Close()

	s.logf(ctx, obs.Info, "Serving %s on %s with %d workers", s.cfg.Root, l.Addr(), s.cfg.Workers)

	queue := make(chan net.Conn, s.cfg.Backlog)
	var wg sync.WaitGroup
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, queue)
		}()
	}

	stop := context.AfterFunc(ctx, func() { l.Close() })
	err := s.acceptLoop(ctx, l, queue)
	stop()
	close(queue)
	wg.Wait()
	s.logf(ctx, obs.Info, "Stopped serving on %s", l.Addr())
	return err
}

// acceptLoop only accepts and enqueues; request handling happens on the
// workers. A full queue blocks it, which bounds in-flight connections.
func (s *Server) acceptLoop(ctx context.Context, l net.Listener, queue chan<- net.Conn) error {
	var delay time.Duration
	for {
		rwc, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ErrServerClosed
			}
			if isTemporary(err) {
				if delay == 0 {
					delay = 5 * time.Millisecond
				} else {
					delay *= 2
				}
				if delay > time.Second {
					delay = time.Second
				}
				s.logf(ctx, obs.Warn, "accept error: %v; retrying in %v", err, delay)
				t := time.NewTimer(delay)
				select {
				case <-t.C:
				case <-ctx.Done():
					t.Stop()
					return ErrServerClosed
				}
				continue
			}
			return err
		}
		delay = 0
		select {
		case queue <- rwc:
		case <-ctx.Done():
			rwc.Close()
			return ErrServerClosed
		}
	}
}

func (s *Server) worker(ctx context.Context, queue <-chan net.Conn) {
	for rwc := range queue {
		s.serveConn(ctx, rwc)
	}
}

// serveConn runs one connection to completion on the calling goroutine.
func (s *Server) serveConn(ctx context.Context, rwc net.Conn) {
	remote := "-"
	if a := rwc.RemoteAddr(); a != nil {
		remote = a.String()
	}
	ctx = WithRemoteAddr(WithConnID(ctx, genConnID()), remote)
	c := &conn{
		srv:   s,
		rwc:   rwc,
		br:    bufio.NewReader(rwc),
		bw:    bufio.NewWriter(rwc),
		ctx:   ctx,
		start: time.Now(),
	}
	c.serve()
}

func (s *Server) logf(ctx context.Context, level obs.Level, format string, args ...interface{}) {
	if id, ok := ConnIDFrom(ctx); ok {
		format = "[%s] " + format
		args = append([]interface{}{id}, args...)
	}
	s.cfg.Logger.Logf(level, format, args...)
}

func isTemporary(err error) bool {
	var te interface{ Temporary() bool }
	return errors.As(err, &te) && te.Temporary()
}
