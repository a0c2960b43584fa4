package netcat

import (
	"errors"
	"io"
	"sync"

	"go.uber.org/atomic"

	"github.com/julienstroheker/ttcp/internal/relay"
)

// ErrSubscriptionClosed is returned by reads on a closed Subscription
var ErrSubscriptionClosed = errors.New("subscription closed")

// Broadcaster reads one source and hands every chunk to all current
// subscribers, so connections sharing a server's stdin each see the full
// stream instead of racing for pieces of it. A subscriber with a full
// queue holds back all of them.
type Broadcaster struct {
	src     io.Reader
	bufSize int
	depth   int

	mu   sync.Mutex
	subs map[*Subscription]struct{}
	done bool
	err  error

	startOnce sync.Once
}

// NewBroadcaster creates a Broadcaster over src. Reading starts with the
// first subscription; chunks read while nobody is subscribed are dropped.
func NewBroadcaster(src io.Reader, bufSize int) *Broadcaster {
	if bufSize <= 0 {
		bufSize = relay.DefaultBufferSize
	}
	return &Broadcaster{
		src:     src,
		bufSize: bufSize,
		depth:   relay.DefaultQueueDepth,
		subs:    make(map[*Subscription]struct{}),
	}
}

// Subscribe returns a reader that sees every chunk from now on. Once the
// source has ended it returns a subscription that is already at its end.
func (b *Broadcaster) Subscribe() *Subscription {
	sub := &Subscription{b: b, queue: relay.NewQueue(b.depth)}

	b.mu.Lock()
	if b.done {
		b.mu.Unlock()
		sub.queue.Close()
		return sub
	}
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	b.startOnce.Do(func() {
		go b.run()
	})
	return sub
}

// Streams returns a StreamsFunc pairing a fresh subscription with out
func (b *Broadcaster) Streams(out io.Writer) StreamsFunc {
	return func(string) relay.Streams {
		return relay.Streams{In: b.Subscribe(), Out: out}
	}
}

func (b *Broadcaster) run() {
	buf := make([]byte, b.bufSize)
	for {
		n, err := b.src.Read(buf)
		if n > 0 {
			chunk := make(relay.Chunk, n)
			copy(chunk, buf[:n])

			for _, sub := range b.snapshot() {
				if pushErr := sub.queue.Push(chunk); pushErr != nil {
					b.remove(sub)
				}
			}
		}

		if err != nil {
			b.finish(err)
			return
		}
	}
}

func (b *Broadcaster) snapshot() []*Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := make([]*Subscription, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	return subs
}

func (b *Broadcaster) remove(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

// finish records why the source ended and drains every subscriber
func (b *Broadcaster) finish(err error) {
	b.mu.Lock()
	b.done = true
	if !errors.Is(err, io.EOF) {
		b.err = err
	}
	subs := b.subs
	b.subs = make(map[*Subscription]struct{})
	b.mu.Unlock()

	for sub := range subs {
		sub.queue.Close()
	}
}

func (b *Broadcaster) sourceErr() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return b.err
	}
	return io.EOF
}

// Subscription is one reader's view of a Broadcaster
type Subscription struct {
	b       *Broadcaster
	queue   *relay.Queue
	pending relay.Chunk
	closed  atomic.Bool
}

// Read returns the next broadcast bytes. It reports io.EOF, or the source's
// read error, once the source has ended and every chunk has been read.
func (s *Subscription) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrSubscriptionClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	if len(s.pending) == 0 {
		chunk, err := s.queue.Pop()
		if err != nil {
			if s.closed.Load() {
				return 0, ErrSubscriptionClosed
			}
			return 0, s.b.sourceErr()
		}
		s.pending = chunk
	}

	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// CloseRead unblocks a pending Read and unsubscribes
func (s *Subscription) CloseRead() error {
	return s.Close()
}

// Close unsubscribes. Chunks not yet read are discarded.
func (s *Subscription) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.queue.Abandon()
		s.b.remove(s)
	}
	return nil
}
