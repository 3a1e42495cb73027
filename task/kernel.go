package task

import (
	"context"
	"sync"
	"time"
)

// DefaultTick is the default duration of one scheduler tick.
const DefaultTick = time.Millisecond

var _ Substrate = (*Kernel)(nil)

// Kernel is the goroutine-backed task substrate.
type Kernel struct {
	tick time.Duration

	mux     sync.Mutex
	handles []*Handle
}

// NewKernel returns a kernel with the given tick duration.
// A non-positive tick falls back to DefaultTick.
func NewKernel(tick time.Duration) *Kernel {
	if tick <= 0 {
		tick = DefaultTick
	}

	return &Kernel{
		tick: tick,
	}
}

// Tick returns the duration of one scheduler tick.
func (k *Kernel) Tick() time.Duration {
	return k.tick
}

// Create spawns a goroutine running entry and returns its handle.
// It returns an invalid (nil) handle when entry is nil.
func (k *Kernel) Create(name string, entry Entry, opts Options) *Handle {
	_ = opts // advisory on the goroutine substrate

	if entry == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	handle := newHandle(name, cancel)
	ctx = context.WithValue(ctx, handleCtxKey{}, handle)

	k.mux.Lock()
	k.handles = append(k.handles, handle)
	k.mux.Unlock()

	go func() {
		defer close(handle.done)

		handle.running.Store(true)
		entry(ctx)
		handle.running.Store(false)
	}()

	return handle
}

// Delay suspends the calling task for the given number of ticks.
// A suspended task stays blocked here until it is resumed.
// It returns early when the context is done.
func (k *Kernel) Delay(ctx context.Context, ticks uint32) {
	if handle := handleFromContext(ctx); handle != nil {
		handle.waitResumed(ctx)
	}

	if ticks == 0 {
		return
	}

	timer := time.NewTimer(time.Duration(ticks) * k.tick)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Shutdown stops every task created by the kernel and waits for
// their entries to return.
func (k *Kernel) Shutdown() {
	k.mux.Lock()
	handles := k.handles
	k.handles = nil
	k.mux.Unlock()

	for _, handle := range handles {
		handle.Stop()
	}

	for _, handle := range handles {
		handle.Wait()
	}
}

var (
	defaultKernel     *Kernel
	defaultKernelOnce sync.Once
)

// Default returns the process-wide kernel with the default tick.
func Default() *Kernel {
	defaultKernelOnce.Do(func() {
		defaultKernel = NewKernel(DefaultTick)
	})

	return defaultKernel
}
