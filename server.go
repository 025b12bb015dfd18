// Package drawfs implements a userspace display server speaking the
// length-prefixed framed protocol described in internal/wire, over a
// concrete net.Listener transport standing in for the character-device
// node a real implementation would register in devfs.
package drawfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/pgsdf/drawfs/internal/iface"
	"github.com/pgsdf/drawfs/internal/logging"
	"github.com/pgsdf/drawfs/internal/memobj"
	"github.com/pgsdf/drawfs/internal/protocol"
	"github.com/pgsdf/drawfs/internal/queue"
)

// Logger is the logging surface the server accepts from callers. It is
// satisfied by *logging.Logger; nil selects logging.Default().
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Observer receives protocol-engine events for metrics collection. It is
// the public mirror of internal/iface.Observer so callers outside this
// module can implement one without importing an internal package.
type Observer = iface.Observer

// ServerConfig configures a Server.
type ServerConfig struct {
	// MaxSessions bounds concurrently open sessions. Zero means unbounded.
	MaxSessions int64

	// Logger receives structured log lines. Nil uses logging.Default().
	Logger Logger

	// Observer receives per-event metrics callbacks. Nil uses a no-op.
	Observer Observer

	// Allocator backs surface memory objects. Nil selects the platform
	// default (memfd+mmap on Linux, heap-backed elsewhere).
	Allocator memobj.Allocator
}

// Server accepts connections on a listener and runs one protocol Session
// per accepted connection until the listener closes or its context is
// canceled.
type Server struct {
	cfg      ServerConfig
	sem      *semaphore.Weighted
	log      iface.Logger
	obs      iface.Observer
	alloc    memobj.Allocator
	nextID   uint64
	mu       sync.Mutex
	sessions map[uint64]*protocol.Session
}

// NewServer constructs a Server from cfg, filling in defaults for any
// unset field.
func NewServer(cfg ServerConfig) *Server {
	var sem *semaphore.Weighted
	if cfg.MaxSessions > 0 {
		sem = semaphore.NewWeighted(cfg.MaxSessions)
	}

	obs := cfg.Observer
	if obs == nil {
		obs = iface.NoOpObserver{}
	}

	alloc := cfg.Allocator
	if alloc == nil {
		alloc = memobj.NewAllocator()
	}

	var log iface.Logger
	if cfg.Logger != nil {
		log = loggerAdapter{cfg.Logger}
	} else {
		log = loggerAdapter{logging.Default()}
	}

	return &Server{
		cfg:      cfg,
		sem:      sem,
		log:      log,
		obs:      obs,
		alloc:    alloc,
		sessions: make(map[uint64]*protocol.Session),
	}
}

// loggerAdapter satisfies internal/iface.Logger from the public Logger
// interface; the two are structurally identical but kept distinct so
// internal/protocol never imports the public package.
type loggerAdapter struct{ Logger }

// Serve accepts connections from ln until ctx is canceled or ln.Accept
// fails. Each connection runs its own Session in an errgroup-managed
// goroutine pair (reader, writer); Serve returns once every connection's
// goroutines have exited.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("drawfs: accept: %w", err)
		}

		if s.sem != nil {
			if err := s.sem.Acquire(ctx, 1); err != nil {
				conn.Close()
				break
			}
		}

		g.Go(func() error {
			if s.sem != nil {
				defer s.sem.Release(1)
			}
			s.serveConn(ctx, conn)
			return nil
		})
	}

	return g.Wait()
}

// serveConn runs one session to completion: a reader goroutine copies
// inbound bytes into the session, the current goroutine drains outbound
// frames until the connection or context closes.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	id := atomic.AddUint64(&s.nextID, 1)
	sess := protocol.NewSession(id, s.alloc, s.obs, s.log)

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		sess.Close()
	}()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		buf := make([]byte, 64<<10)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				if _, werr := sess.Write(buf[:n]); werr != nil {
					s.log.Warn("session write failed", "session", id, "error", werr)
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.log.Debug("connection read ended", "session", id, "error", err)
				}
				return
			}
		}
	}()

	for {
		frame, err := sess.Read(connCtx, true)
		if err != nil {
			break
		}
		_, werr := conn.Write(frame)
		queue.PutBuffer(frame)
		if werr != nil {
			s.log.Warn("connection write failed", "session", id, "error", werr)
			break
		}
	}

	cancel()
	wg.Wait()
}

// SessionCount returns the number of currently open sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Session looks up a currently open session by id, for callers (e.g. a
// stats exporter) that need direct access to its counters.
func (s *Server) Session(id uint64) (*protocol.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Sessions returns a snapshot slice of every currently open session.
func (s *Server) Sessions() []*protocol.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*protocol.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}
