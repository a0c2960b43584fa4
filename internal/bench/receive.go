package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/julienstroheker/ttcp/internal/logging"
	"github.com/julienstroheker/ttcp/internal/transport"
)

// ReceiveOptions contains configuration for Receive
type ReceiveOptions struct {
	Listener transport.Listener
	Logger   *logging.Logger
}

// Receive accepts a single transmitter, reads its session and acks every
// payload. The timing starts once the session header has been read.
func Receive(ctx context.Context, opts *ReceiveOptions) (Report, error) {
	opts.Logger.Info("Waiting for transmitter", logging.String("addr", opts.Listener.Addr()))

	conn, err := opts.Listener.Accept(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to accept connection: %w", err)
	}
	defer func() {
		_ = conn.Close()
	}()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	logger := opts.Logger.With(logging.String("peer", conn.RemoteAddr()))
	logger.Info("Accepted connection")

	session, err := ReadSession(conn)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read session: %w", err)
	}
	logger.Debug("Session started",
		logging.Int64("count", int64(session.Count)),
		logging.Int64("length", int64(session.Length)))

	buf := make([]byte, session.Length)
	report := Report{}
	start := time.Now()
	for i := uint32(0); i < session.Count; i++ {
		n, err := ReadPayload(conn, buf)
		if err != nil {
			return report, fmt.Errorf("payload %d: %w", i, err)
		}
		if err := WriteAck(conn, n); err != nil {
			return report, fmt.Errorf("failed to ack payload %d: %w", i, err)
		}
		report.Packets++
		report.Bytes += int64(n)
	}
	report.Elapsed = time.Since(start)
	return report, nil
}
