package roundtrip

import (
	"encoding/binary"
	"io"
	"time"
)

// FrameSize is the encoded size of a Frame
const FrameSize = 16

// Frame carries the client's send time T1 and the server's echo time T2,
// both in Unix microseconds.
type Frame struct {
	T1 int64
	T2 int64
}

// WriteFrame writes f as two big-endian int64s
func WriteFrame(w io.Writer, f Frame) error {
	var b [FrameSize]byte
	binary.BigEndian.PutUint64(b[0:8], uint64(f.T1))
	binary.BigEndian.PutUint64(b[8:16], uint64(f.T2))
	_, err := w.Write(b[:])
	return err
}

// ReadFrame reads one frame
func ReadFrame(r io.Reader) (Frame, error) {
	var b [FrameSize]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return Frame{}, err
	}
	return Frame{
		T1: int64(binary.BigEndian.Uint64(b[0:8])),
		T2: int64(binary.BigEndian.Uint64(b[8:16])),
	}, nil
}

// Sample is one measured round trip
type Sample struct {
	// RTT is t3 - t1
	RTT time.Duration
	// Offset estimates the server clock minus the client clock: t2 - (t1+t3)/2
	Offset time.Duration
}

// Measure derives a Sample from an echoed frame and its arrival time t3
func Measure(f Frame, t3 int64) Sample {
	return Sample{
		RTT:    time.Duration(t3-f.T1) * time.Microsecond,
		Offset: time.Duration(f.T2-(t3+f.T1)/2) * time.Microsecond,
	}
}
