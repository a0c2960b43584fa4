package cmd

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julienstroheker/ttcp/internal/roundtrip"
	"github.com/julienstroheker/ttcp/internal/transport"
)

func TestRoundtripCommandClient(t *testing.T) {
	ln, err := transport.ListenTCP("127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := splitHostPort(ln.Addr())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = roundtrip.NewServer(&roundtrip.ServerOptions{Listener: ln}).Serve(ctx)
	}()

	e, err := runCommand(t, "roundtrip", "-a", "127.0.0.1", "-p", strconv.Itoa(port), "-c", "3")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(e.stderr.String(), "RTT: "))
}

func TestRoundtripCommandServer(t *testing.T) {
	port := freePort(t)
	e := startCommand(t, "", "roundtrip", "-s", "-a", "127.0.0.1", "-p", strconv.Itoa(port))

	var summary roundtrip.Summary
	require.Eventually(t, func() bool {
		s, err := roundtrip.NewClient(&roundtrip.ClientOptions{
			Dialer:  &transport.TCPDialer{Timeout: time.Second},
			Address: "127.0.0.1:" + strconv.Itoa(port),
			Count:   2,
		}).Run(context.Background())
		if err != nil {
			return false
		}
		summary = s
		return true
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, 2, summary.Probes)

	e.cancel()
	require.NoError(t, e.wait(t))
	assert.Contains(t, e.stderr.String(), "Handling client")
}

func TestRoundtripCommandConnectError(t *testing.T) {
	port := freePort(t)

	_, err := runCommand(t, "roundtrip", "-p", strconv.Itoa(port), "-c", "1")

	var connectErr *transport.ConnectError
	assert.ErrorAs(t, err, &connectErr)
}
