package protocol

import (
	"errors"

	"github.com/pgsdf/drawfs/internal/constants"
)

// ErrEventTooLarge is returned when a producer tries to enqueue a frame
// larger than MaxEventBytes.
var ErrEventTooLarge = errors.New("drawfs: event too large")

// ErrQueueClosed is returned when enqueue is attempted after the session
// has entered its closing state.
var ErrQueueClosed = errors.New("drawfs: event queue closed")

// EventQueue is the bounded FIFO of owned outbound frame buffers. It is
// not itself safe for concurrent use; callers serialize access through
// the owning session's lock, matching the reference's single coarse lock
// over everything but the read sleep itself.
type EventQueue struct {
	items   [][]byte
	closing bool
	dropped uint64
}

// NewEventQueue returns an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Enqueue appends buf to the tail of the queue. MaxEVQBytes is advertised
// but deliberately not enforced here: the reference never blocks enqueue
// on it either, only exposing the configured limit via stats.
func (q *EventQueue) Enqueue(buf []byte) error {
	if len(buf) > constants.MaxEventBytes {
		return ErrEventTooLarge
	}
	if q.closing {
		q.dropped++
		return ErrQueueClosed
	}
	q.items = append(q.items, buf)
	return nil
}

// Dequeue removes and returns the head frame, if any.
func (q *EventQueue) Dequeue() ([]byte, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

// Depth reports the number of queued frames (evq_depth).
func (q *EventQueue) Depth() int { return len(q.items) }

// Dropped reports how many enqueues have been rejected since close.
func (q *EventQueue) Dropped() uint64 { return q.dropped }

// Close marks the queue as closing: subsequent Enqueue calls fail and
// bump the dropped counter instead of appending.
func (q *EventQueue) Close() {
	q.closing = true
}

// Drain empties the queue, releasing all buffered frames. Called once at
// session teardown.
func (q *EventQueue) Drain() {
	q.items = nil
}
