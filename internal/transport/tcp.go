package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"
)

// TCPListener accepts plain TCP connections
type TCPListener struct {
	ln *net.TCPListener
}

// ListenTCP binds addr; ":port" binds every local interface
func ListenTCP(addr string) (*TCPListener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}
	return &TCPListener{ln: ln}, nil
}

// Accept waits for the next connection or for ctx to end
func (l *TCPListener) Accept(ctx context.Context) (Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Clear a deadline left behind by an earlier cancelled Accept, then
	// wake a blocked AcceptTCP when this context ends
	_ = l.ln.SetDeadline(time.Time{})
	stop := context.AfterFunc(ctx, func() {
		_ = l.ln.SetDeadline(time.Now())
	})
	defer stop()

	conn, err := l.ln.AcceptTCP()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, ErrListenerClosed
		}
		return nil, err
	}
	return newTCPConnection(conn), nil
}

// Close closes the listener
func (l *TCPListener) Close() error {
	return l.ln.Close()
}

// Addr returns the bound address, useful after binding port 0
func (l *TCPListener) Addr() string {
	return l.ln.Addr().String()
}

// TCPDialer connects over plain TCP
type TCPDialer struct {
	// Timeout bounds connection establishment; zero means no limit
	Timeout time.Duration
}

// Dial connects to address
func (d *TCPDialer) Dial(ctx context.Context, address string) (Connection, error) {
	dialer := net.Dialer{Timeout: d.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, &ConnectError{Addr: address, Err: err}
	}
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		_ = conn.Close()
		return nil, &ConnectError{Addr: address, Err: errors.New("not a TCP connection")}
	}
	return newTCPConnection(tcpConn), nil
}

// tcpConnection adds idempotent Close to a *net.TCPConn
type tcpConnection struct {
	*net.TCPConn
	closeOnce sync.Once
	closeErr  error
}

func newTCPConnection(conn *net.TCPConn) *tcpConnection {
	return &tcpConnection{TCPConn: conn}
}

// Close closes the socket once; later calls return the first result
func (c *tcpConnection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.TCPConn.Close()
	})
	return c.closeErr
}

// RemoteAddr returns the peer address as a string
func (c *tcpConnection) RemoteAddr() string {
	return c.TCPConn.RemoteAddr().String()
}

var _ Connection = (*tcpConnection)(nil)
var _ Listener = (*TCPListener)(nil)
var _ Dialer = (*TCPDialer)(nil)
