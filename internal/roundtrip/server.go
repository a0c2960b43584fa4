package roundtrip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/julienstroheker/ttcp/internal/logging"
	"github.com/julienstroheker/ttcp/internal/transport"
)

// ServerOptions contains configuration for the Server
type ServerOptions struct {
	Listener transport.Listener
	Logger   *logging.Logger
}

// Server stamps and echoes every frame it receives
type Server struct {
	listener transport.Listener
	logger   *logging.Logger
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewServer creates a new round trip server
func NewServer(opts *ServerOptions) *Server {
	if opts == nil {
		opts = &ServerOptions{}
	}
	return &Server{
		listener: opts.Listener,
		logger:   opts.Logger,
		now:      time.Now,
	}
}

// Serve accepts clients until ctx is cancelled, each on its own goroutine
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("Listening", logging.String("addr", s.listener.Addr()))

	for {
		conn, err := s.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				_ = s.listener.Close()
				s.wg.Wait()
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		s.wg.Add(1)
		go s.handleClient(ctx, conn)
	}
}

func (s *Server) handleClient(ctx context.Context, conn transport.Connection) {
	defer s.wg.Done()
	defer func() {
		_ = conn.Close()
	}()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	logger := s.logger.With(logging.String("peer", conn.RemoteAddr()))
	logger.Info("Handling client")

	frames := 0
	for {
		f, err := ReadFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				logger.Info("Client disconnected", logging.Int("frames", frames))
			} else {
				logger.Warn("Client dropped", logging.Int("frames", frames), logging.Error(err))
			}
			return
		}

		f.T2 = s.now().UnixMicro()
		if err := WriteFrame(conn, f); err != nil {
			logger.Warn("Failed to echo frame", logging.Error(err))
			return
		}
		frames++
	}
}
