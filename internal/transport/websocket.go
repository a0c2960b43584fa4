package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeFrameTimeout = time.Second

// WebSocketListener upgrades every HTTP request on its address into a Connection
type WebSocketListener struct {
	ln          net.Listener
	server      *http.Server
	upgrader    websocket.Upgrader
	acceptQueue chan Connection
	done        chan struct{}
	closeOnce   sync.Once
}

// ListenWebSocket binds addr and starts serving upgrades
func ListenWebSocket(addr string) (*WebSocketListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &BindError{Addr: addr, Err: err}
	}

	l := &WebSocketListener{
		ln: ln,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		acceptQueue: make(chan Connection),
		done:        make(chan struct{}),
	}
	l.server = &http.Server{
		Handler:           http.HandlerFunc(l.handleUpgrade),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		_ = l.server.Serve(ln)
	}()

	return l, nil
}

// handleUpgrade hands the upgraded connection to Accept, waiting until
// someone takes it or the listener closes
func (l *WebSocketListener) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		return
	}

	wsConn := newWebSocketConnection(conn)
	select {
	case l.acceptQueue <- wsConn:
	case <-l.done:
		_ = wsConn.Close()
	}
}

// Accept waits for and returns the next connection to the listener
func (l *WebSocketListener) Accept(ctx context.Context) (Connection, error) {
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
	case conn := <-l.acceptQueue:
		return conn, nil
	}
}

// Close stops serving; established connections are left alone
func (l *WebSocketListener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.done)
		err = l.server.Close()
	})
	return err
}

// Addr returns the bound address
func (l *WebSocketListener) Addr() string {
	return l.ln.Addr().String()
}

// WebSocketDialer connects to a WebSocketListener
type WebSocketDialer struct {
	// HandshakeTimeout bounds the opening handshake; zero means no limit
	HandshakeTimeout time.Duration
}

// Dial connects to ws://address/
func (d *WebSocketDialer) Dial(ctx context.Context, address string) (Connection, error) {
	u := url.URL{Scheme: "ws", Host: address, Path: "/"}

	dialer := websocket.Dialer{
		HandshakeTimeout: d.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return nil, &ConnectError{Addr: address, Err: fmt.Errorf("handshake failed (status %d): %w", resp.StatusCode, err)}
		}
		return nil, &ConnectError{Addr: address, Err: err}
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	return newWebSocketConnection(conn), nil
}

// webSocketConnection maps a byte stream onto binary messages.
// A normal-closure close frame marks end of data in one direction.
type webSocketConnection struct {
	conn      *websocket.Conn
	buffer    []byte
	readErr   error
	closeOnce sync.Once
	closeErr  error
}

func newWebSocketConnection(conn *websocket.Conn) *webSocketConnection {
	// Do not echo the peer's close frame: it only ends the peer's direction
	conn.SetCloseHandler(func(int, string) error { return nil })
	return &webSocketConnection{conn: conn}
}

// Read returns buffered bytes from the last message before reading the next
func (c *webSocketConnection) Read(p []byte) (int, error) {
	for len(c.buffer) == 0 {
		if c.readErr != nil {
			return 0, c.readErr
		}

		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = io.EOF
			}
			c.readErr = err
			return 0, err
		}

		if messageType != websocket.BinaryMessage {
			c.readErr = fmt.Errorf("unexpected message type: %d", messageType)
			return 0, c.readErr
		}
		c.buffer = data
	}

	n := copy(p, c.buffer)
	c.buffer = c.buffer[n:]
	return n, nil
}

// Write sends p as one binary message
func (c *webSocketConnection) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// CloseRead unblocks a pending Read with a deadline error
func (c *webSocketConnection) CloseRead() error {
	return c.conn.SetReadDeadline(time.Now())
}

// CloseWrite sends a normal-closure close frame
func (c *webSocketConnection) CloseWrite() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	return c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeFrameTimeout))
}

// Close closes the underlying network connection
func (c *webSocketConnection) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// RemoteAddr returns the peer address
func (c *webSocketConnection) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

var _ Connection = (*webSocketConnection)(nil)
var _ Listener = (*WebSocketListener)(nil)
var _ Dialer = (*WebSocketDialer)(nil)
