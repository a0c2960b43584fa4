package relay

import "time"

const bytesPerMB = 1024 * 1024

// Sample is the traffic seen over one reporting window
type Sample struct {
	Bytes   int64
	Elapsed time.Duration
}

// MBps returns the sample's rate in MB/s (1 MB = 2^20 bytes)
func (s Sample) MBps() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Bytes) / bytesPerMB / s.Elapsed.Seconds()
}

// Meter accumulates bytes for one reader and hands a Sample to report
// each time a window of at least interval has elapsed. The check runs
// inline on Add, so a Meter must only be used from a single goroutine.
type Meter struct {
	interval time.Duration
	report   func(Sample)
	now      func() time.Time

	start time.Time
	bytes int64
	total int64
}

// NewMeter creates a Meter; a non-positive interval falls back to one second
func NewMeter(interval time.Duration, report func(Sample)) *Meter {
	if interval <= 0 {
		interval = time.Second
	}
	return &Meter{
		interval: interval,
		report:   report,
		now:      time.Now,
	}
}

// Start opens a window now, discarding anything not yet reported
func (m *Meter) Start() {
	m.start = m.now()
	m.bytes = 0
}

// Add records n bytes. A window opens on the first call if Start was not
// called.
func (m *Meter) Add(n int) {
	now := m.now()
	if m.start.IsZero() {
		m.start = now
	}

	m.bytes += int64(n)
	m.total += int64(n)

	// time.Time carries a monotonic reading, so Sub is immune to wall clock steps
	if elapsed := now.Sub(m.start); elapsed >= m.interval {
		if m.report != nil {
			m.report(Sample{Bytes: m.bytes, Elapsed: elapsed})
		}
		m.bytes = 0
		m.start = now
	}
}

// Flush returns whatever the current window holds and starts a new one
func (m *Meter) Flush() Sample {
	var s Sample
	if !m.start.IsZero() {
		s = Sample{Bytes: m.bytes, Elapsed: m.now().Sub(m.start)}
	}
	m.bytes = 0
	m.start = time.Time{}
	return s
}

// Total returns every byte ever added
func (m *Meter) Total() int64 {
	return m.total
}
