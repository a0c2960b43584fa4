package relay

import "sync"

// Chunk is the bytes produced by one read. It is never aliased with the
// read buffer and is written exactly once downstream.
type Chunk []byte

// Queue is a bounded FIFO of chunks with one producer and one consumer.
// Push suspends while the queue is full and Pop while it is empty.
type Queue struct {
	ch          chan Chunk
	abandoned   chan struct{}
	closeOnce   sync.Once
	abandonOnce sync.Once
}

// NewQueue creates a queue holding at most depth chunks
func NewQueue(depth int) *Queue {
	if depth < 1 {
		depth = 1
	}
	return &Queue{
		ch:        make(chan Chunk, depth),
		abandoned: make(chan struct{}),
	}
}

// Push appends c, waiting for room. It returns ErrQueueClosed once the
// consumer has abandoned the queue. Push must not be called after Close.
func (q *Queue) Push(c Chunk) error {
	select {
	case <-q.abandoned:
		return ErrQueueClosed
	default:
	}

	select {
	case q.ch <- c:
		return nil
	case <-q.abandoned:
		return ErrQueueClosed
	}
}

// Pop removes the oldest chunk, waiting for one to arrive. It returns
// ErrQueueClosed after Close once every pushed chunk has been popped, and
// straight away once the queue has been abandoned.
func (q *Queue) Pop() (Chunk, error) {
	select {
	case <-q.abandoned:
		return nil, ErrQueueClosed
	default:
	}

	select {
	case c, ok := <-q.ch:
		if !ok {
			return nil, ErrQueueClosed
		}
		return c, nil
	case <-q.abandoned:
		return nil, ErrQueueClosed
	}
}

// Close marks the end of data. Called by the producer; only the first call
// has any effect.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.ch)
	})
}

// Abandon tells the producer nobody will pop again. Called by the consumer.
func (q *Queue) Abandon() {
	q.abandonOnce.Do(func() {
		close(q.abandoned)
	})
}

// Len reports how many chunks are waiting
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap reports the queue capacity
func (q *Queue) Cap() int {
	return cap(q.ch)
}
