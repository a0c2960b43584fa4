// Package bench implements the packet throughput benchmark.
//
// The transmitter opens with a session header of two big-endian uint32s,
// count and length. It then sends count payloads, each a big-endian uint32
// length followed by that many bytes, and waits for the receiver to echo
// the 4-byte length back before sending the next one.
package bench
