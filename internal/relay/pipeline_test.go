package relay

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// failingWriter accepts ok writes and then fails every write
type failingWriter struct {
	ok  int
	err error
	buf bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.ok <= 0 {
		return 0, w.err
	}
	w.ok--
	return w.buf.Write(p)
}

// halfCloseWriter records whether CloseWrite was called
type halfCloseWriter struct {
	bytes.Buffer
	closed bool
}

func (w *halfCloseWriter) CloseWrite() error {
	w.closed = true
	return nil
}

// stuckSource returns first once and then blocks until CloseRead
type stuckSource struct {
	first   []byte
	sent    bool
	stopped chan struct{}
	once    sync.Once
}

func newStuckSource(first string) *stuckSource {
	return &stuckSource{first: []byte(first), stopped: make(chan struct{})}
}

func (s *stuckSource) Read(p []byte) (int, error) {
	if !s.sent {
		s.sent = true
		return copy(p, s.first), nil
	}
	<-s.stopped
	return 0, errors.New("read interrupted")
}

func (s *stuckSource) CloseRead() error {
	s.once.Do(func() { close(s.stopped) })
	return nil
}

// countingSource yields n single bytes 0, 1, 2, ... then io.EOF
type countingSource struct {
	n     int
	reads atomic.Int64
}

func (s *countingSource) Read(p []byte) (int, error) {
	i := int(s.reads.Load())
	if i >= s.n {
		return 0, io.EOF
	}
	s.reads.Inc()
	p[0] = byte(i)
	return 1, nil
}

// gatedWriter blocks every write until the gate is opened
type gatedWriter struct {
	gate chan struct{}
	buf  bytes.Buffer
}

func (w *gatedWriter) Write(p []byte) (int, error) {
	<-w.gate
	return w.buf.Write(p)
}

// errReader returns data followed by err
type errReader struct {
	data []byte
	err  error
}

func (r *errReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestPipeline_PreservesOrder(t *testing.T) {
	var want []byte
	for i := 0; i < 100000; i++ {
		want = append(want, byte(i*7))
	}

	var sink bytes.Buffer
	p := NewPipeline(&PipelineOptions{
		Name:       "test",
		Source:     bytes.NewReader(want),
		Sink:       &sink,
		BufferSize: 7,
		QueueDepth: 3,
	})

	stats, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, want, sink.Bytes())
	assert.Equal(t, int64(len(want)), stats.Bytes)
	assert.Equal(t, int64((len(want)+6)/7), stats.Chunks)
}

func TestPipeline_EmptySource(t *testing.T) {
	sink := &halfCloseWriter{}
	p := NewPipeline(&PipelineOptions{
		Name:   "outbound",
		Source: strings.NewReader(""),
		Sink:   sink,
	})

	stats, err := p.Run()
	require.NoError(t, err)
	assert.Zero(t, stats.Bytes)
	assert.True(t, sink.closed)
}

func TestPipeline_HalfClosesSinkAfterDrain(t *testing.T) {
	sink := &halfCloseWriter{}
	p := NewPipeline(&PipelineOptions{
		Name:   "outbound",
		Source: strings.NewReader("goodbye"),
		Sink:   sink,
	})

	_, err := p.Run()
	require.NoError(t, err)
	assert.Equal(t, "goodbye", sink.String())
	assert.True(t, sink.closed)
}

func TestPipeline_ReadError(t *testing.T) {
	boom := errors.New("boom")
	var sink bytes.Buffer
	p := NewPipeline(&PipelineOptions{
		Name:   "inbound",
		Source: &errReader{data: []byte("partial"), err: boom},
		Sink:   &sink,
	})

	_, err := p.Run()

	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "inbound", ioErr.Pipeline)
	assert.Equal(t, "read", ioErr.Op)
	assert.ErrorIs(t, err, boom)

	// what was read before the failure still reaches the sink
	assert.Equal(t, "partial", sink.String())
}

func TestPipeline_WriteErrorInterruptsSource(t *testing.T) {
	broken := errors.New("broken pipe")
	src := newStuckSource("data")
	p := NewPipeline(&PipelineOptions{
		Name:   "inbound",
		Source: src,
		Sink:   &failingWriter{err: broken},
	})

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	select {
	case err := <-done:
		var ioErr *IOError
		require.ErrorAs(t, err, &ioErr)
		assert.Equal(t, "write", ioErr.Op)
		assert.ErrorIs(t, err, broken)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not settle after the sink failed")
	}
}

func TestPipeline_WriteErrorReleasesBlockedReader(t *testing.T) {
	// the source cannot be interrupted, the reader is stuck on a full queue
	broken := errors.New("broken pipe")
	sink := &failingWriter{ok: 1, err: broken}
	p := NewPipeline(&PipelineOptions{
		Name:       "outbound",
		Source:     strings.NewReader(strings.Repeat("x", 4096)),
		Sink:       sink,
		BufferSize: 1,
		QueueDepth: 1,
	})

	stats, err := p.Run()
	assert.ErrorIs(t, err, broken)
	assert.Equal(t, int64(1), stats.Bytes)
	assert.Equal(t, "x", sink.buf.String())
}

func TestPipeline_Backpressure(t *testing.T) {
	const depth = 4
	src := &countingSource{n: 1000}
	sink := &gatedWriter{gate: make(chan struct{})}
	p := NewPipeline(&PipelineOptions{
		Name:       "inbound",
		Source:     src,
		Sink:       sink,
		BufferSize: 1,
		QueueDepth: depth,
	})

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	// the queue fills up and the reader stops reading
	require.Eventually(t, func() bool {
		return p.queue.Len() == depth
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	// one chunk held by the stalled writer, one waiting to be pushed
	assert.LessOrEqual(t, src.reads.Load(), int64(depth+2))

	close(sink.gate)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not drain after the sink resumed")
	}

	got := sink.buf.Bytes()
	require.Len(t, got, 1000)
	for i, b := range got {
		require.Equal(t, byte(i), b, "byte %d out of order", i)
	}
}

func TestPipeline_FeedsMeter(t *testing.T) {
	var samples []Sample
	meter := NewMeter(time.Hour, func(s Sample) {
		samples = append(samples, s)
	})

	p := NewPipeline(&PipelineOptions{
		Name:   "inbound",
		Source: strings.NewReader(strings.Repeat("m", 5000)),
		Sink:   io.Discard,
		Meter:  meter,
	})

	_, err := p.Run()
	require.NoError(t, err)
	assert.Empty(t, samples)
	assert.Equal(t, int64(5000), meter.Total())
}
