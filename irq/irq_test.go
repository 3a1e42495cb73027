package irq

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSubstrate struct {
	enabled map[uint32]Mode
	err     error
}

func newFakeSubstrate() *fakeSubstrate {
	return &fakeSubstrate{
		enabled: map[uint32]Mode{},
	}
}

func (s *fakeSubstrate) EnableInterrupt(pin uint32, trampoline func(), mode Mode) error {
	if s.err != nil {
		return s.err
	}

	s.enabled[pin] = mode
	return nil
}

func Test_Table_attachDetach(t *testing.T) {
	assert := assert.New(t)

	substrate := newFakeSubstrate()
	table := NewTable(substrate)

	h1 := HandlerFunc(func(uint32) {})
	h2 := HandlerFunc(func(uint32) {})

	assert.True(table.Attach(5, h1, ModeRising))
	assert.True(table.IsAttached(5))
	assert.Equal(ModeRising, substrate.enabled[5])

	// Slot occupied
	assert.False(table.Attach(5, h2, ModeFalling))

	mode, ok := table.Mode(5)
	assert.True(ok)
	assert.Equal(ModeRising, mode)

	assert.True(table.Detach(5))
	assert.False(table.IsAttached(5))

	// Detach on an empty slot fails
	assert.False(table.Detach(5))

	assert.True(table.Attach(5, h2, ModeFalling))
	mode, _ = table.Mode(5)
	assert.Equal(ModeFalling, mode)
}

func Test_Table_pinRange(t *testing.T) {
	assert := assert.New(t)

	table := NewTable(nil)
	handler := HandlerFunc(func(uint32) {})

	assert.False(table.Attach(99, handler, ModeRising))
	assert.False(table.Attach(PinMax, handler, ModeRising))
	assert.False(table.Detach(99))
	assert.False(table.IsAttached(99))
	assert.Nil(table.Trampoline(99))

	// Must not panic
	table.Fire(99)
}

func Test_Table_substrateFailureRollsBack(t *testing.T) {
	assert := assert.New(t)

	substrate := newFakeSubstrate()
	substrate.err = errors.New("pin not wired")

	table := NewTable(substrate)

	assert.False(table.Attach(3, HandlerFunc(func(uint32) {}), ModeChange))
	assert.False(table.IsAttached(3))
}

func Test_Table_trampolineDispatch(t *testing.T) {
	assert := assert.New(t)

	table := NewTable(nil)

	var firedPin atomic.Uint32
	var fired atomic.Int32

	handler := HandlerFunc(func(pin uint32) {
		firedPin.Store(pin)
		fired.Add(1)
	})

	// Firing an empty slot is a no-op, never a fault
	table.Fire(7)
	assert.Equal(int32(0), fired.Load())

	assert.True(table.Attach(7, handler, ModeLow))

	trampoline := table.Trampoline(7)
	assert.NotNil(trampoline)
	trampoline()

	assert.Equal(uint32(7), firedPin.Load())
	assert.Equal(int32(1), fired.Load())

	// Each slot has its own entry point
	assert.True(table.Attach(8, handler, ModeHigh))
	table.Fire(8)
	assert.Equal(uint32(8), firedPin.Load())

	table.Detach(7)
	trampoline()
	assert.Equal(int32(2), fired.Load())
}

func Test_Table_attachRace(t *testing.T) {
	assert := assert.New(t)

	table := NewTable(nil)
	handler := HandlerFunc(func(uint32) {})

	const attempts = 32

	var wins atomic.Int32
	wg := &sync.WaitGroup{}
	wg.Add(attempts)

	for range attempts {
		go func() {
			defer wg.Done()

			if table.Attach(1, handler, ModeRising) {
				wins.Add(1)
			}
		}()
	}

	wg.Wait()

	// Exactly one attacher can win the slot
	assert.Equal(int32(1), wins.Load())
	assert.True(table.IsAttached(1))
}

func Test_Mode_string(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("rising", ModeRising.String())
	assert.Equal("unknown", Mode(200).String())
}
