package transport

import (
	"context"
	"io"
)

// Connection is one full-duplex byte stream between two peers
type Connection interface {
	// Read reads data sent by the peer; io.EOF once the peer half-closed
	io.Reader

	// Write writes data to the peer
	io.Writer

	// Close releases the connection; safe to call more than once
	io.Closer

	// CloseRead stops the read side and unblocks a pending Read
	CloseRead() error

	// CloseWrite signals end of data to the peer; reads keep working
	CloseWrite() error

	// RemoteAddr returns the peer address for logging
	RemoteAddr() string
}

// Listener accepts incoming connections
type Listener interface {
	// Accept waits for and returns the next connection to the listener
	Accept(ctx context.Context) (Connection, error)

	// Close closes the listener
	// Any blocked Accept operations will be unblocked and return errors
	Close() error

	// Addr returns the listener's network address
	Addr() string
}

// Dialer establishes outbound connections
type Dialer interface {
	// Dial connects to address, a host:port pair
	Dial(ctx context.Context, address string) (Connection, error)
}
