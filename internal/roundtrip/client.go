package roundtrip

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/julienstroheker/ttcp/internal/logging"
	"github.com/julienstroheker/ttcp/internal/transport"
)

// ClientOptions contains configuration for the Client
type ClientOptions struct {
	Dialer  transport.Dialer
	Address string

	// Count is how many probes to send; 0 probes until ctx is cancelled
	Count int

	// Interval paces the probes; 0 sends them back to back
	Interval time.Duration

	Logger *logging.Logger
}

// Summary aggregates the samples of one run
type Summary struct {
	Probes int
	Min    time.Duration
	Max    time.Duration
	Total  time.Duration
}

// Mean returns the average round trip time
func (s Summary) Mean() time.Duration {
	if s.Probes == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Probes)
}

func (s *Summary) add(rtt time.Duration) {
	if s.Probes == 0 || rtt < s.Min {
		s.Min = rtt
	}
	if rtt > s.Max {
		s.Max = rtt
	}
	s.Total += rtt
	s.Probes++
}

// Client sends timestamped frames and measures their round trip
type Client struct {
	dialer   transport.Dialer
	address  string
	count    int
	interval time.Duration
	logger   *logging.Logger
	now      func() time.Time
}

// NewClient creates a new round trip client
func NewClient(opts *ClientOptions) *Client {
	if opts == nil {
		opts = &ClientOptions{}
	}
	return &Client{
		dialer:   opts.Dialer,
		address:  opts.Address,
		count:    opts.Count,
		interval: opts.Interval,
		logger:   opts.Logger,
		now:      time.Now,
	}
}

// Run dials the server and probes it. Cancelling ctx ends an unbounded run
// without error.
func (c *Client) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	conn, err := c.dialer.Dial(ctx, c.address)
	if err != nil {
		return summary, err
	}
	defer func() {
		_ = conn.Close()
	}()
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer stop()

	logger := c.logger.With(
		logging.String("session_id", uuid.NewString()),
		logging.String("peer", conn.RemoteAddr()))
	logger.Info("Connected to server")

	limiter := rate.NewLimiter(rate.Inf, 1)
	if c.interval > 0 {
		limiter = rate.NewLimiter(rate.Every(c.interval), 1)
	}

	for c.count == 0 || summary.Probes < c.count {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		sample, err := c.probe(conn)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return summary, fmt.Errorf("probe %d: %w", summary.Probes, err)
		}
		summary.add(sample.RTT)

		logger.Info(fmt.Sprintf("RTT: %d us, diff: %d us", sample.RTT.Microseconds(), sample.Offset.Microseconds()))
	}

	logger.Info("Round trip finished",
		logging.Int("probes", summary.Probes),
		logging.Duration("min", summary.Min),
		logging.Duration("mean", summary.Mean()),
		logging.Duration("max", summary.Max))
	return summary, nil
}

func (c *Client) probe(conn transport.Connection) (Sample, error) {
	f := Frame{T1: c.now().UnixMicro()}
	if err := WriteFrame(conn, f); err != nil {
		return Sample{}, err
	}
	echo, err := ReadFrame(conn)
	if err != nil {
		return Sample{}, err
	}
	return Measure(echo, c.now().UnixMicro()), nil
}
