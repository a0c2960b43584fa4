package relay

import (
	"errors"
	"io"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/julienstroheker/ttcp/internal/logging"
)

const (
	// DefaultBufferSize is the most bytes a single read may produce
	DefaultBufferSize = 1024
	// DefaultQueueDepth is how many chunks may wait between reader and writer
	DefaultQueueDepth = 1024
)

type closeReader interface {
	CloseRead() error
}

type closeWriter interface {
	CloseWrite() error
}

// Stats is what a pipeline delivered to its sink
type Stats struct {
	Bytes  int64
	Chunks int64
}

// PipelineOptions configures a Pipeline
type PipelineOptions struct {
	// Name tags errors and log lines (inbound, outbound)
	Name string
	// Source is read until io.EOF. If it has CloseRead, the pipeline calls it
	// when the sink fails so a pending read returns.
	Source io.Reader
	// Sink receives every chunk in order. If it has CloseWrite, the pipeline
	// calls it once the source is exhausted and the queue drained.
	Sink io.Writer

	BufferSize int
	QueueDepth int

	// Meter, when set, sees every byte the reader produces
	Meter *Meter

	Logger *logging.Logger
}

// Pipeline moves bytes one way: a reader goroutine fills a bounded queue
// and a writer goroutine drains it.
type Pipeline struct {
	name    string
	src     io.Reader
	dst     io.Writer
	bufSize int
	queue   *Queue
	meter   *Meter
	logger  *logging.Logger

	aborted atomic.Bool
}

// NewPipeline creates a pipeline; zero sizes fall back to the defaults
func NewPipeline(opts *PipelineOptions) *Pipeline {
	bufSize := opts.BufferSize
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	depth := opts.QueueDepth
	if depth <= 0 {
		depth = DefaultQueueDepth
	}

	return &Pipeline{
		name:    opts.Name,
		src:     opts.Source,
		dst:     opts.Sink,
		bufSize: bufSize,
		queue:   NewQueue(depth),
		meter:   opts.Meter,
		logger:  opts.Logger,
	}
}

// Run blocks until the source is exhausted and everything read has been
// written, or until either side fails. It returns the first *IOError.
func (p *Pipeline) Run() (Stats, error) {
	var stats Stats
	var g errgroup.Group

	g.Go(p.produce)
	g.Go(func() error {
		return p.consume(&stats)
	})

	err := g.Wait()
	return stats, err
}

func (p *Pipeline) produce() error {
	// The writer must never wait forever, whatever ends this loop
	defer p.queue.Close()

	if p.meter != nil {
		p.meter.Start()
	}

	buf := make([]byte, p.bufSize)
	for {
		n, err := p.src.Read(buf)
		if n > 0 {
			chunk := make(Chunk, n)
			copy(chunk, buf[:n])

			if p.meter != nil {
				p.meter.Add(n)
			}

			if pushErr := p.queue.Push(chunk); pushErr != nil {
				// The writer gave up and reports its own error
				return nil
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) || p.aborted.Load() {
				return nil
			}
			return &IOError{Pipeline: p.name, Op: "read", Err: err}
		}
	}
}

func (p *Pipeline) consume(stats *Stats) error {
	for {
		chunk, err := p.queue.Pop()
		if err != nil {
			break
		}

		// io.Writer must return an error on a short write
		if _, err := p.dst.Write(chunk); err != nil {
			p.abort()
			return &IOError{Pipeline: p.name, Op: "write", Err: err}
		}
		stats.Bytes += int64(len(chunk))
		stats.Chunks++
	}

	if cw, ok := p.dst.(closeWriter); ok {
		if err := cw.CloseWrite(); err != nil {
			p.logger.Debug("Half-close failed",
				logging.String("pipeline", p.name),
				logging.Error(err))
		}
	}
	return nil
}

func (p *Pipeline) abort() {
	p.aborted.Store(true)
	p.queue.Abandon()

	if cr, ok := p.src.(closeReader); ok {
		if err := cr.CloseRead(); err != nil {
			p.logger.Debug("Failed to interrupt source",
				logging.String("pipeline", p.name),
				logging.Error(err))
		}
	}
}
