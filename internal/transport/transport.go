package transport

import (
	"fmt"
	"time"

	"github.com/julienstroheker/ttcp/internal/config"
)

// Listen opens a listener of the given kind on addr
func Listen(kind config.Transport, addr string) (Listener, error) {
	switch kind {
	case config.TransportTCP:
		ln, err := ListenTCP(addr)
		if err != nil {
			return nil, err
		}
		return ln, nil
	case config.TransportWebSocket:
		ln, err := ListenWebSocket(addr)
		if err != nil {
			return nil, err
		}
		return ln, nil
	default:
		return nil, &BindError{Addr: addr, Err: fmt.Errorf("unsupported transport %q", kind)}
	}
}

// NewDialer returns a dialer of the given kind
func NewDialer(kind config.Transport, timeout time.Duration) (Dialer, error) {
	switch kind {
	case config.TransportTCP:
		return &TCPDialer{Timeout: timeout}, nil
	case config.TransportWebSocket:
		return &WebSocketDialer{HandshakeTimeout: timeout}, nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", kind)
	}
}
