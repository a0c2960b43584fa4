package roundtrip

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julienstroheker/ttcp/internal/transport"
)

func TestFrame_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, Frame{T1: 1, T2: -1}))
	assert.Equal(t, []byte{
		0, 0, 0, 0, 0, 0, 0, 1,
		0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	}, buf.Bytes())

	f, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, Frame{T1: 1, T2: -1}, f)
}

func TestMeasure(t *testing.T) {
	tests := []struct {
		name       string
		frame      Frame
		t3         int64
		wantRTT    time.Duration
		wantOffset time.Duration
	}{
		{"synchronised clocks", Frame{T1: 1000, T2: 1050}, 1100, 100 * time.Microsecond, 0},
		{"server ahead", Frame{T1: 1000, T2: 1550}, 1100, 100 * time.Microsecond, 500 * time.Microsecond},
		{"server behind", Frame{T1: 1000, T2: 50}, 1100, 100 * time.Microsecond, -1000 * time.Microsecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Measure(tt.frame, tt.t3)
			assert.Equal(t, tt.wantRTT, s.RTT)
			assert.Equal(t, tt.wantOffset, s.Offset)
		})
	}
}

func TestServer_StampsAndEchoes(t *testing.T) {
	ln := transport.NewMemoryListener("rtt")
	srv := NewServer(&ServerOptions{Listener: ln})
	srv.now = func() time.Time { return time.UnixMicro(424242) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()

	conn, err := (&transport.MemoryDialer{Listener: ln}).Dial(ctx, ln.Addr())
	require.NoError(t, err)

	require.NoError(t, WriteFrame(conn, Frame{T1: 7}))
	f, err := ReadFrame(conn)
	require.NoError(t, err)
	assert.Equal(t, Frame{T1: 7, T2: 424242}, f)

	// a clean disconnect ends the session without touching the loop
	require.NoError(t, conn.Close())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestClient_CountedRun(t *testing.T) {
	ln, err := transport.ListenTCP("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = NewServer(&ServerOptions{Listener: ln}).Serve(ctx)
	}()

	client := NewClient(&ClientOptions{
		Dialer:   &transport.TCPDialer{Timeout: time.Second},
		Address:  ln.Addr(),
		Count:    5,
		Interval: time.Millisecond,
	})
	summary, err := client.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Probes)
	assert.LessOrEqual(t, summary.Min, summary.Mean())
	assert.LessOrEqual(t, summary.Mean(), summary.Max)
}

func TestClient_UnboundedRunStopsOnCancel(t *testing.T) {
	ln := transport.NewMemoryListener("rtt")

	srvCtx, srvCancel := context.WithCancel(context.Background())
	defer srvCancel()
	go func() {
		_ = NewServer(&ServerOptions{Listener: ln}).Serve(srvCtx)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	client := NewClient(&ClientOptions{
		Dialer:   &transport.MemoryDialer{Listener: ln},
		Address:  ln.Addr(),
		Interval: 10 * time.Millisecond,
	})
	summary, err := client.Run(ctx)
	require.NoError(t, err)
	assert.Positive(t, summary.Probes)
}

func TestClient_ConnectError(t *testing.T) {
	ln, err := transport.ListenTCP("127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr()
	require.NoError(t, ln.Close())

	_, err = NewClient(&ClientOptions{
		Dialer:  &transport.TCPDialer{Timeout: time.Second},
		Address: addr,
		Count:   1,
	}).Run(context.Background())

	var connectErr *transport.ConnectError
	assert.ErrorAs(t, err, &connectErr)
}

func TestSummary_Mean(t *testing.T) {
	var s Summary
	assert.Zero(t, s.Mean())

	for _, d := range []time.Duration{3, 1, 2} {
		s.add(d * time.Millisecond)
	}
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 3*time.Millisecond, s.Max)
	assert.Equal(t, 2*time.Millisecond, s.Mean())
}
