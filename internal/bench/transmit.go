package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/julienstroheker/ttcp/internal/logging"
	"github.com/julienstroheker/ttcp/internal/transport"
)

// TransmitOptions contains configuration for Transmit
type TransmitOptions struct {
	Dialer  transport.Dialer
	Address string
	Session Session
	Logger  *logging.Logger
}

// Transmit dials the receiver, announces the session and sends every
// payload, waiting for its ack before sending the next.
func Transmit(ctx context.Context, opts *TransmitOptions) (Report, error) {
	session := opts.Session
	if err := session.Validate(); err != nil {
		return Report{}, err
	}

	conn, err := opts.Dialer.Dial(ctx, opts.Address)
	if err != nil {
		return Report{}, err
	}
	defer func() {
		_ = conn.Close()
	}()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	logger := opts.Logger.With(logging.String("peer", conn.RemoteAddr()))
	logger.Info("Connected",
		logging.Int64("count", int64(session.Count)),
		logging.Int64("length", int64(session.Length)))

	if err := WriteSession(conn, session); err != nil {
		return Report{}, fmt.Errorf("failed to send session: %w", err)
	}

	payload := make([]byte, session.Length)
	report := Report{}
	start := time.Now()
	for i := uint32(0); i < session.Count; i++ {
		if err := WritePayload(conn, payload); err != nil {
			return report, fmt.Errorf("failed to send payload %d: %w", i, err)
		}
		if err := ReadAck(conn, session.Length); err != nil {
			return report, fmt.Errorf("payload %d: %w", i, err)
		}
		report.Packets++
		report.Bytes += int64(session.Length)
	}
	report.Elapsed = time.Since(start)

	logger.Info("Transmit finished", logging.String("report", report.String()))
	return report, nil
}
