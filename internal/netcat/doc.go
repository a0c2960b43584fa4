// Package netcat wires the relay to a transport in either role.
//
// A Server accepts connections for as long as its context lives and runs an
// independent relay per connection; one connection failing never touches
// the loop or its siblings. Connections sharing one input read it through a
// Broadcaster, so each of them sees every chunk. A Client dials once and
// relays that single connection, returning when both directions are done.
package netcat
