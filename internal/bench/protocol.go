package bench

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxPayloadLength is the largest payload either side will allocate
const MaxPayloadLength = 1 << 30

var (
	// ErrLengthMismatch means a payload's length prefix differs from the session length
	ErrLengthMismatch = errors.New("payload length does not match session")
	// ErrAckMismatch means the receiver acknowledged a different length than was sent
	ErrAckMismatch = errors.New("ack does not match payload length")
	// ErrPayloadTooLarge means a length exceeds MaxPayloadLength
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Session is the header opening a benchmark: Count payloads of Length bytes follow
type Session struct {
	Count  uint32
	Length uint32
}

// Bytes is the total payload volume of the session
func (s Session) Bytes() int64 {
	return int64(s.Count) * int64(s.Length)
}

// Validate rejects sessions that would need an oversized buffer
func (s Session) Validate() error {
	if s.Length > MaxPayloadLength {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, s.Length)
	}
	return nil
}

// WriteSession writes the 8-byte session header
func WriteSession(w io.Writer, s Session) error {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:4], s.Count)
	binary.BigEndian.PutUint32(hdr[4:8], s.Length)
	_, err := w.Write(hdr[:])
	return err
}

// ReadSession reads and validates a session header
func ReadSession(r io.Reader) (Session, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Session{}, err
	}
	s := Session{
		Count:  binary.BigEndian.Uint32(hdr[0:4]),
		Length: binary.BigEndian.Uint32(hdr[4:8]),
	}
	return s, s.Validate()
}

// WritePayload writes the length prefix followed by payload
func WritePayload(w io.Writer, payload []byte) error {
	if err := writeUint32(w, uint32(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadPayload reads one payload into buf, whose size must equal the
// length prefix. It returns the length read.
func ReadPayload(r io.Reader, buf []byte) (uint32, error) {
	n, err := readUint32(r)
	if err != nil {
		return 0, err
	}
	if int64(n) != int64(len(buf)) {
		return n, fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, n, len(buf))
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		return n, err
	}
	return n, nil
}

// WriteAck acknowledges a payload by echoing its length
func WriteAck(w io.Writer, length uint32) error {
	return writeUint32(w, length)
}

// ReadAck reads an ack and checks it against the length sent
func ReadAck(r io.Reader, want uint32) error {
	got, err := readUint32(r)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: got %d, want %d", ErrAckMismatch, got, want)
	}
	return nil
}

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}
