package netcat

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/julienstroheker/ttcp/internal/logging"
	"github.com/julienstroheker/ttcp/internal/relay"
	"github.com/julienstroheker/ttcp/internal/transport"
)

// ClientOptions contains configuration for the Client
type ClientOptions struct {
	// Dialer opens the connection
	Dialer transport.Dialer

	// Address is the host:port to dial
	Address string

	// Streams defaults to the process stdin/stdout
	Streams relay.Streams

	Relay relay.Options

	Logger *logging.Logger
}

// Client dials one connection and relays it
type Client struct {
	dialer    transport.Dialer
	address   string
	streams   relay.Streams
	relayOpts relay.Options
	logger    *logging.Logger
}

// NewClient creates a new netcat client
func NewClient(opts *ClientOptions) *Client {
	if opts == nil {
		opts = &ClientOptions{}
	}

	streams := opts.Streams
	if streams.In == nil {
		streams.In = os.Stdin
	}
	if streams.Out == nil {
		streams.Out = os.Stdout
	}

	return &Client{
		dialer:    opts.Dialer,
		address:   opts.Address,
		streams:   streams,
		relayOpts: opts.Relay,
		logger:    opts.Logger,
	}
}

// Run dials and relays until both directions have finished. A dial failure
// is returned as *transport.ConnectError and nothing is retried.
func (c *Client) Run(ctx context.Context) (relay.Result, error) {
	c.logger.Debug("Dialing", logging.String("addr", c.address))

	conn, err := c.dialer.Dial(ctx, c.address)
	if err != nil {
		return relay.Result{}, err
	}

	logger := c.logger.With(
		logging.String("conn_id", uuid.NewString()),
		logging.String("peer", conn.RemoteAddr()))
	logger.Info("Connected")

	opts := c.relayOpts
	opts.Logger = logger
	res, err := relay.New(conn, c.streams, &opts).Run()

	logger.Info("Connection closed",
		logging.Int64("bytes_in", res.Inbound.Bytes),
		logging.Int64("bytes_out", res.Outbound.Bytes),
		logging.Duration("duration", res.Duration.Round(time.Millisecond)))
	return res, err
}
