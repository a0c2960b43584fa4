// Package roundtrip measures round trip time and clock offset against an
// echo server using fixed 16-byte frames of two big-endian int64 timestamps.
package roundtrip
