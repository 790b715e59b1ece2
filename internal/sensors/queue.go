package sensors

import (
	"errors"
	"time"
)

var (
	// ErrEmpty means the queue held no sample within the allowed wait.
	ErrEmpty = errors.New("sensors: queue empty")
	// ErrNoSource means no driver feeds this sensor kind at all.
	ErrNoSource = errors.New("sensors: no source configured")
)

// Queue is a bounded driver-side sample queue. Drivers push with Offer, the
// acquisition loop pulls with Receive. When full, the oldest sample is
// evicted so the consumer always sees the freshest data.
type Queue struct {
	ch chan RawSample
}

func NewQueue(depth int) *Queue {
	if depth <= 0 {
		depth = 1
	}
	return &Queue{ch: make(chan RawSample, depth)}
}

// Offer inserts a sample, evicting the oldest one if the queue is full.
func (q *Queue) Offer(s RawSample) {
	for {
		select {
		case q.ch <- s:
			return
		default:
		}
		select {
		case <-q.ch:
		default:
		}
	}
}

// Receive returns the next sample, waiting up to timeout for one to arrive.
// A zero or negative timeout is a non-blocking poll.
func (q *Queue) Receive(timeout time.Duration) (RawSample, error) {
	if timeout <= 0 {
		select {
		case s := <-q.ch:
			return s, nil
		default:
			return RawSample{}, ErrEmpty
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case s := <-q.ch:
		return s, nil
	case <-t.C:
		return RawSample{}, ErrEmpty
	}
}

// Registry hands out the per-kind sample queues. A kind without a registered
// queue reports ErrNoSource on receive, which callers treat like an empty
// queue rather than a fatal condition.
type Registry struct {
	queues [numKinds]*Queue
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register creates the queue for a sensor kind, replacing any previous one.
func (r *Registry) Register(k Kind, depth int) *Queue {
	q := NewQueue(depth)
	r.queues[k] = q
	return q
}

// Receive pulls the next sample of the given kind.
func (r *Registry) Receive(k Kind, timeout time.Duration) (RawSample, error) {
	q := r.queues[k]
	if q == nil {
		return RawSample{}, ErrNoSource
	}
	return q.Receive(timeout)
}
