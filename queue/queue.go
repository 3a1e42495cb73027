// Package queue provides a bounded FIFO handoff queue between
// exactly one producer task and one consumer task.
package queue

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FerroO2000/filo/internal/rb"
)

var maxSpins = runtime.NumCPU() * 32

// Forever makes a blocking operation wait with no timeout.
const Forever time.Duration = -1

var (
	// ErrClosed is returned when the queue is closed.
	ErrClosed = errors.New("queue: queue is closed")

	// ErrInvalidCapacity is returned when the requested capacity is not positive.
	ErrInvalidCapacity = errors.New("queue: capacity must be positive")
)

// Queue is a bounded FIFO queue with timeout-bounded blocking operations.
// The capacity is exact: a queue created with capacity C holds at most C items.
// It supports a single producer and a single consumer.
type Queue[T any] struct {
	buffer *rb.SPSC[T]

	isClosed atomic.Bool
	isFull   atomic.Bool
	isEmpty  atomic.Bool

	// notEmpty and notFull are used to signal that the queue is not empty or full
	notEmpty *sync.Cond
	notFull  *sync.Cond
	mux      *sync.Mutex
}

// New returns a new queue with the given capacity.
func New[T any](capacity int) (*Queue[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	mux := &sync.Mutex{}

	return &Queue[T]{
		buffer: rb.NewSPSC[T](uint64(capacity)),

		mux:      mux,
		notEmpty: sync.NewCond(mux),
		notFull:  sync.NewCond(mux),
	}, nil
}

// wait blocks on the condition until it is signaled or the context expires.
func (q *Queue[T]) wait(ctx context.Context, cond *sync.Cond) error {
	done := make(chan struct{})

	go func() {
		defer close(done)
		cond.Wait()
	}()

	select {
	case <-done:
		return nil

	case <-ctx.Done():
		// The helper goroutine may not have parked on the condition
		// yet, in which case a single broadcast is lost. Keep waking
		// it until it returns.
		for {
			cond.Broadcast()

			select {
			case <-done:
				return ctx.Err()
			default:
				runtime.Gosched()
			}
		}
	}
}

func (q *Queue[T]) signalNotEmpty() {
	if q.isEmpty.CompareAndSwap(true, false) {
		q.mux.Lock()
		q.notEmpty.Broadcast()
		q.mux.Unlock()
	}
}

func (q *Queue[T]) signalNotFull() {
	if q.isFull.CompareAndSwap(true, false) {
		q.mux.Lock()
		q.notFull.Broadcast()
		q.mux.Unlock()
	}
}

// SendContext adds the item to the queue, blocking while the queue is full.
// It returns ErrClosed if the queue is closed, or the context error
// if the context expires while waiting.
func (q *Queue[T]) SendContext(ctx context.Context, item T) error {
	if q.isClosed.Load() {
		return ErrClosed
	}

	for range maxSpins {
		if q.buffer.Push(item) {
			q.signalNotEmpty()
			return nil
		}

		// The queue is full, yield to other goroutines
		runtime.Gosched()
	}

	for {
		if q.buffer.Push(item) {
			break
		}

		q.mux.Lock()

		// Set queue as full
		q.isFull.Store(true)

		// Re-check under the lock, the consumer may have
		// popped before the full flag was visible
		if q.buffer.Push(item) {
			q.mux.Unlock()
			break
		}

		if q.isClosed.Load() {
			q.mux.Unlock()
			return ErrClosed
		}

		// Wait for space
		if err := q.wait(ctx, q.notFull); err != nil {
			q.mux.Unlock()
			return err
		}

		q.mux.Unlock()
	}

	q.signalNotEmpty()

	return nil
}

// ReceiveContext removes and returns the oldest item in the queue,
// blocking while the queue is empty. It returns ErrClosed if the queue
// is closed, or the context error if the context expires while waiting.
func (q *Queue[T]) ReceiveContext(ctx context.Context) (T, error) {
	var item T
	var popOk bool

	for range maxSpins {
		item, popOk = q.buffer.Pop()
		if popOk {
			q.signalNotFull()
			return item, nil
		}

		// The queue is empty, yield to other goroutines
		runtime.Gosched()
	}

	for {
		item, popOk = q.buffer.Pop()
		if popOk {
			break
		}

		q.mux.Lock()

		// Set queue as empty
		q.isEmpty.Store(true)

		// Re-check under the lock, the producer may have
		// pushed before the empty flag was visible
		item, popOk = q.buffer.Pop()
		if popOk {
			q.mux.Unlock()
			break
		}

		if q.isClosed.Load() {
			q.mux.Unlock()
			return item, ErrClosed
		}

		// Wait for data
		if err := q.wait(ctx, q.notEmpty); err != nil {
			q.mux.Unlock()
			return item, err
		}

		q.mux.Unlock()
	}

	q.signalNotFull()

	return item, nil
}

// PeekContext returns the oldest item in the queue without removing it,
// blocking while the queue is empty.
func (q *Queue[T]) PeekContext(ctx context.Context) (T, error) {
	var item T
	var peekOk bool

	for {
		if q.isClosed.Load() {
			return item, ErrClosed
		}

		item, peekOk = q.buffer.Peek()
		if peekOk {
			return item, nil
		}

		q.mux.Lock()

		q.isEmpty.Store(true)

		item, peekOk = q.buffer.Peek()
		if peekOk {
			q.mux.Unlock()
			return item, nil
		}

		if err := q.wait(ctx, q.notEmpty); err != nil {
			q.mux.Unlock()
			return item, err
		}

		q.mux.Unlock()
	}
}

func (q *Queue[T]) opContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout < 0 {
		return context.Background(), func() {}
	}

	return context.WithTimeout(context.Background(), timeout)
}

// Send adds the item to the queue, waiting up to the given timeout for space.
// A timeout of 0 performs a single non-blocking attempt, Forever waits
// with no timeout. Timeout expiry is an outcome, not an error: it is
// reported as false.
func (q *Queue[T]) Send(item T, timeout time.Duration) bool {
	if timeout == 0 {
		if q.isClosed.Load() || !q.buffer.Push(item) {
			return false
		}

		q.signalNotEmpty()
		return true
	}

	ctx, cancel := q.opContext(timeout)
	defer cancel()

	return q.SendContext(ctx, item) == nil
}

// Receive removes and returns the oldest item in the queue, waiting up to
// the given timeout for data. A timeout of 0 performs a single non-blocking
// attempt, Forever waits with no timeout.
func (q *Queue[T]) Receive(timeout time.Duration) (T, bool) {
	if timeout == 0 {
		var zero T

		if q.isClosed.Load() {
			return zero, false
		}

		item, ok := q.buffer.Pop()
		if !ok {
			return zero, false
		}

		q.signalNotFull()
		return item, true
	}

	ctx, cancel := q.opContext(timeout)
	defer cancel()

	item, err := q.ReceiveContext(ctx)
	return item, err == nil
}

// Peek returns the oldest item in the queue without removing it,
// waiting up to the given timeout for data.
func (q *Queue[T]) Peek(timeout time.Duration) (T, bool) {
	if timeout == 0 {
		var zero T

		if q.isClosed.Load() {
			return zero, false
		}

		return q.buffer.Peek()
	}

	ctx, cancel := q.opContext(timeout)
	defer cancel()

	item, err := q.PeekContext(ctx)
	return item, err == nil
}

// Len returns the number of items in the queue.
// The value is advisory: it may be stale as soon as it is read.
func (q *Queue[T]) Len() int {
	return int(q.buffer.Len())
}

// Cap returns the capacity of the queue.
func (q *Queue[T]) Cap() int {
	return int(q.buffer.Cap())
}

// SpacesAvailable returns the current free slot count.
// The value is advisory: it may be stale as soon as it is read.
func (q *Queue[T]) SpacesAvailable() int {
	return q.Cap() - q.Len()
}

// Close closes the queue and unblocks the waiters.
// Further sends and receives fail with ErrClosed.
func (q *Queue[T]) Close() {
	if !q.isClosed.CompareAndSwap(false, true) {
		return
	}

	q.mux.Lock()
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
	q.mux.Unlock()
}
