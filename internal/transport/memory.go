package transport

import (
	"context"
	"io"
	"sync"
)

// memoryConnection is one end of an in-memory full-duplex pipe
type memoryConnection struct {
	reader    *io.PipeReader
	writer    *io.PipeWriter
	addr      string
	closeOnce sync.Once
}

// Read reads data written by the other end
func (c *memoryConnection) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	if err == io.ErrClosedPipe {
		return n, ErrConnectionClosed
	}
	return n, err
}

// Write writes data for the other end to read
func (c *memoryConnection) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	if err == io.ErrClosedPipe {
		return n, ErrConnectionClosed
	}
	return n, err
}

// CloseRead makes pending and future reads fail
func (c *memoryConnection) CloseRead() error {
	return c.reader.Close()
}

// CloseWrite makes the other end read io.EOF
func (c *memoryConnection) CloseWrite() error {
	return c.writer.Close()
}

// Close closes both directions
func (c *memoryConnection) Close() error {
	c.closeOnce.Do(func() {
		_ = c.reader.Close()
		_ = c.writer.Close()
	})
	return nil
}

// RemoteAddr returns a synthetic peer address
func (c *memoryConnection) RemoteAddr() string {
	return c.addr
}

// MemoryPipe returns two connected in-memory connections
func MemoryPipe() (Connection, Connection) {
	// a writes -> b reads
	bReader, aWriter := io.Pipe()
	// b writes -> a reads
	aReader, bWriter := io.Pipe()

	a := &memoryConnection{reader: aReader, writer: aWriter, addr: "memory:b"}
	b := &memoryConnection{reader: bReader, writer: bWriter, addr: "memory:a"}
	return a, b
}

// MemoryListener is an in-memory implementation of Listener for testing
type MemoryListener struct {
	addr        string
	connections chan Connection
	done        chan struct{}
	closeOnce   sync.Once
}

// NewMemoryListener creates a new in-memory listener
func NewMemoryListener(addr string) *MemoryListener {
	return &MemoryListener{
		addr:        addr,
		connections: make(chan Connection),
		done:        make(chan struct{}),
	}
}

// Accept waits for and returns the next connection
func (l *MemoryListener) Accept(ctx context.Context) (Connection, error) {
	select {
	case <-l.done:
		return nil, ErrListenerClosed
	default:
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.done:
		return nil, ErrListenerClosed
	case conn := <-l.connections:
		return conn, nil
	}
}

// Close closes the listener
func (l *MemoryListener) Close() error {
	l.closeOnce.Do(func() {
		close(l.done)
	})
	return nil
}

// Addr returns the name the listener was created with
func (l *MemoryListener) Addr() string {
	return l.addr
}

// MemoryDialer connects to a MemoryListener
type MemoryDialer struct {
	Listener *MemoryListener
}

// Dial hands one end of a new pipe to the listener and returns the other.
// It blocks until the listener accepts.
func (d *MemoryDialer) Dial(ctx context.Context, address string) (Connection, error) {
	local, remote := MemoryPipe()

	select {
	case <-ctx.Done():
		return nil, &ConnectError{Addr: address, Err: ctx.Err()}
	case <-d.Listener.done:
		return nil, &ConnectError{Addr: address, Err: ErrListenerClosed}
	case d.Listener.connections <- remote:
		return local, nil
	}
}

var _ Connection = (*memoryConnection)(nil)
var _ Listener = (*MemoryListener)(nil)
var _ Dialer = (*MemoryDialer)(nil)
