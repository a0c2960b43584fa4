package relay

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/julienstroheker/ttcp/internal/logging"
	"github.com/julienstroheker/ttcp/internal/transport"
)

// DefaultReportInterval is how often inbound throughput is logged
const DefaultReportInterval = time.Second

// Streams are the local ends a relay pipes its connection against
type Streams struct {
	In  io.Reader
	Out io.Writer
}

// Stdio returns the process standard input and output
func Stdio() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout}
}

// Options configures a Relay
type Options struct {
	BufferSize     int
	QueueDepth     int
	ReportInterval time.Duration
	Logger         *logging.Logger
}

// Result summarises a finished relay
type Result struct {
	Inbound  Stats
	Outbound Stats
	Duration time.Duration
}

// Relay owns one connection and the two pipelines running over it:
// inbound (connection to Streams.Out) and outbound (Streams.In to connection).
type Relay struct {
	conn    transport.Connection
	streams Streams
	opts    Options
	logger  *logging.Logger
}

// New creates a relay for conn. The relay takes ownership of conn and
// closes it when Run returns.
func New(conn transport.Connection, streams Streams, opts *Options) *Relay {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.ReportInterval <= 0 {
		o.ReportInterval = DefaultReportInterval
	}

	return &Relay{
		conn:    conn,
		streams: streams,
		opts:    o,
		logger:  o.Logger,
	}
}

// Run relays in both directions until both pipelines have settled. One
// direction finishing never stops the other. The returned error combines
// the failures of both pipelines.
func (r *Relay) Run() (Result, error) {
	start := time.Now()
	rd, wr := transport.Split(r.conn)

	meter := NewMeter(r.opts.ReportInterval, r.reportThroughput)
	inbound := NewPipeline(&PipelineOptions{
		Name:       "inbound",
		Source:     rd,
		Sink:       r.streams.Out,
		BufferSize: r.opts.BufferSize,
		QueueDepth: r.opts.QueueDepth,
		Meter:      meter,
		Logger:     r.logger,
	})
	outbound := NewPipeline(&PipelineOptions{
		Name:       "outbound",
		Source:     r.streams.In,
		Sink:       wr,
		BufferSize: r.opts.BufferSize,
		QueueDepth: r.opts.QueueDepth,
		Logger:     r.logger,
	})

	var wg sync.WaitGroup
	var res Result
	var inErr, outErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.Inbound, inErr = inbound.Run()
		r.logger.Debug("Inbound pipeline finished",
			logging.Int64("bytes", res.Inbound.Bytes),
			logging.Error(inErr))
	}()
	go func() {
		defer wg.Done()
		res.Outbound, outErr = outbound.Run()
		r.logger.Debug("Outbound pipeline finished",
			logging.Int64("bytes", res.Outbound.Bytes),
			logging.Error(outErr))
	}()
	wg.Wait()

	if tail := meter.Flush(); tail.Bytes > 0 {
		r.logger.Debug("Final throughput window",
			logging.Int64("bytes", tail.Bytes),
			logging.Duration("elapsed", tail.Elapsed))
	}

	if err := r.conn.Close(); err != nil {
		r.logger.Debug("Failed to close connection", logging.Error(err))
	}

	res.Duration = time.Since(start)
	return res, multierr.Combine(inErr, outErr)
}

func (r *Relay) reportThroughput(s Sample) {
	r.logger.Info(fmt.Sprintf("throughput = %.2f MB/s", s.MBps()),
		logging.Int64("bytes", s.Bytes),
		logging.Duration("elapsed", s.Elapsed))
}
