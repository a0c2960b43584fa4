package config

import "strings"

// Transport names the byte-stream carrier a connection runs over
type Transport string

const (
	// TransportTCP is a plain TCP connection
	TransportTCP Transport = "tcp"

	// TransportWebSocket carries the stream as binary WebSocket messages
	TransportWebSocket Transport = "ws"
)

// ParseTransport normalizes a user supplied transport name
func ParseTransport(s string) Transport {
	return Transport(strings.ToLower(strings.TrimSpace(s)))
}

// IsValid checks if the transport is known
func (t Transport) IsValid() bool {
	return t == TransportTCP || t == TransportWebSocket
}

// String returns the string representation
func (t Transport) String() string {
	return string(t)
}
