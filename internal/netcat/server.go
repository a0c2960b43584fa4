package netcat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/julienstroheker/ttcp/internal/logging"
	"github.com/julienstroheker/ttcp/internal/relay"
	"github.com/julienstroheker/ttcp/internal/transport"
)

// StreamsFunc returns the local streams for the connection with the given id
type StreamsFunc func(connID string) relay.Streams

// ServerOptions contains configuration for the Server
type ServerOptions struct {
	// Listener is where connections are accepted from
	Listener transport.Listener

	// Streams picks each connection's local streams. Defaults to the process
	// stdout plus a Broadcaster over stdin, so every connection sees all input.
	Streams StreamsFunc

	// Relay holds the per-connection tunables. Its Logger is replaced by a
	// connection-scoped one.
	Relay relay.Options

	Logger *logging.Logger
}

// Server accepts connections and relays each one independently
type Server struct {
	listener  transport.Listener
	streams   StreamsFunc
	relayOpts relay.Options
	logger    *logging.Logger

	active atomic.Int64
	wg     sync.WaitGroup
}

// NewServer creates a new netcat server
func NewServer(opts *ServerOptions) *Server {
	if opts == nil {
		opts = &ServerOptions{}
	}

	streams := opts.Streams
	if streams == nil {
		stdio := relay.Stdio()
		streams = NewBroadcaster(stdio.In, opts.Relay.BufferSize).Streams(stdio.Out)
	}

	return &Server{
		listener:  opts.Listener,
		streams:   streams,
		relayOpts: opts.Relay,
		logger:    opts.Logger,
	}
}

// Serve accepts connections until ctx is cancelled or Accept fails. Every
// connection gets its own relay goroutine, whose outcome is only logged.
// Serve returns nil on cancellation and the accept error otherwise.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("Listening", logging.String("addr", s.listener.Addr()))

	for {
		conn, err := s.listener.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("Listener loop stopped")
				_ = s.Close()
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection relays one accepted connection until both directions finish
func (s *Server) handleConnection(conn transport.Connection) {
	defer s.wg.Done()

	id := uuid.NewString()
	logger := s.logger.With(
		logging.String("conn_id", id),
		logging.String("peer", conn.RemoteAddr()))

	logger.Info("Accepted connection", logging.Int64("active", s.active.Inc()))

	opts := s.relayOpts
	opts.Logger = logger
	res, err := relay.New(conn, s.streams(id), &opts).Run()

	fields := []logging.Field{
		logging.Int64("bytes_in", res.Inbound.Bytes),
		logging.Int64("bytes_out", res.Outbound.Bytes),
		logging.Duration("duration", res.Duration.Round(time.Millisecond)),
		logging.Int64("active", s.active.Dec()),
	}
	if err != nil {
		logger.Warn("Connection closed with error", append(fields, logging.Error(err))...)
		return
	}
	logger.Info("Connection closed", fields...)
}

// Active returns how many connections are being relayed right now
func (s *Server) Active() int64 {
	return s.active.Load()
}

// Wait blocks until every in-flight connection has finished. Call it only
// after Serve has returned, since Serve keeps adding connections until then.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Close closes the listener. Connections already accepted keep running.
func (s *Server) Close() error {
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
