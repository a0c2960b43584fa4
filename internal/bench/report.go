package bench

import (
	"fmt"
	"time"
)

// Report is the outcome of a finished session
type Report struct {
	Packets uint32
	Bytes   int64
	Elapsed time.Duration
}

// Gbps returns the payload rate in gigabits per second
func (r Report) Gbps() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Bytes) * 8 / 1e9 / r.Elapsed.Seconds()
}

func (r Report) String() string {
	return fmt.Sprintf("%d packets (%d bytes) in %s (%.2f Gbps)",
		r.Packets, r.Bytes, r.Elapsed.Round(10*time.Microsecond), r.Gbps())
}
