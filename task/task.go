// Package task provides the scheduling capability consumed by the
// pipeline stages: task creation, tick delays and cooperative suspension
// on top of goroutines.
package task

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/xid"
)

// Entry is the main function of a task. It should loop until the
// context is done.
type Entry func(ctx context.Context)

// Options carries the task creation parameters. Priority and StackSize
// are advisory on the goroutine substrate: the runtime schedules and
// grows stacks on its own.
type Options struct {
	Priority  int
	StackSize int
}

// Delayer is the narrow interface for tick delays,
// consumed by polling loops.
type Delayer interface {
	// Delay suspends the calling task for the given number of ticks,
	// yielding to the other tasks. It returns early when the context
	// is done.
	Delay(ctx context.Context, ticks uint32)
}

// Substrate is the task capability interface.
type Substrate interface {
	Delayer

	// Create spawns a task running entry. It returns an invalid (nil)
	// handle when entry is nil.
	Create(name string, entry Entry, opts Options) *Handle

	// Tick returns the duration of one scheduler tick.
	Tick() time.Duration
}

// Handle identifies a running task.
type Handle struct {
	id   xid.ID
	name string

	running atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}

	// gate holds the channel a suspended task blocks on at its next
	// delay point; nil while the task is not suspended.
	gate atomic.Pointer[chan struct{}]
}

func newHandle(name string, cancel context.CancelFunc) *Handle {
	return &Handle{
		id:   xid.New(),
		name: name,

		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Valid reports whether the handle refers to a created task.
func (h *Handle) Valid() bool {
	return h != nil
}

// ID returns the task id.
func (h *Handle) ID() xid.ID {
	return h.id
}

// Name returns the task name.
func (h *Handle) Name() string {
	return h.name
}

// Running reports whether the task entry is currently executing.
func (h *Handle) Running() bool {
	if h == nil {
		return false
	}

	return h.running.Load()
}

// Suspend marks the task as suspended. Suspension is cooperative:
// it takes effect at the task's next delay point.
func (h *Handle) Suspend() {
	if h == nil {
		return
	}

	gate := make(chan struct{})
	h.gate.CompareAndSwap(nil, &gate)
}

// Resume releases a suspended task.
func (h *Handle) Resume() {
	if h == nil {
		return
	}

	if gate := h.gate.Swap(nil); gate != nil {
		close(*gate)
	}
}

// Stop cancels the task context and releases it if suspended.
func (h *Handle) Stop() {
	if h == nil {
		return
	}

	h.cancel()
	h.Resume()
}

// Wait blocks until the task entry returns.
func (h *Handle) Wait() {
	if h == nil {
		return
	}

	<-h.done
}

func (h *Handle) waitResumed(ctx context.Context) {
	gate := h.gate.Load()
	if gate == nil {
		return
	}

	select {
	case <-*gate:
	case <-ctx.Done():
	}
}

type handleCtxKey struct{}

func handleFromContext(ctx context.Context) *Handle {
	h, _ := ctx.Value(handleCtxKey{}).(*Handle)
	return h
}
