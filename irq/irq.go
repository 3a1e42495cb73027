// Package irq provides a fixed-slot interrupt dispatch table
// mapping pin numbers to handlers.
package irq

import "sync/atomic"

// PinMax is the number of pin slots covered by a table.
const PinMax uint32 = 24

// Mode is the trigger mode of a pin interrupt.
type Mode uint8

const (
	// ModeLow triggers while the pin level is low.
	ModeLow Mode = iota
	// ModeChange triggers on any pin change.
	ModeChange
	// ModeRising triggers on a rising edge.
	ModeRising
	// ModeFalling triggers on a falling edge.
	ModeFalling
	// ModeHigh triggers while the pin level is high.
	ModeHigh
)

func (m Mode) String() string {
	switch m {
	case ModeLow:
		return "low"
	case ModeChange:
		return "change"
	case ModeRising:
		return "rising"
	case ModeFalling:
		return "falling"
	case ModeHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Handler is the interface implemented by pin interrupt handlers.
type Handler interface {
	// ISR is invoked with the pin number when the interrupt fires.
	ISR(pin uint32)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(pin uint32)

// ISR invokes the function.
func (f HandlerFunc) ISR(pin uint32) {
	f(pin)
}

// Substrate is the platform collaborator that arms a pin interrupt.
// The trampoline passed to EnableInterrupt is the fixed entry point
// the platform must invoke when the interrupt fires.
type Substrate interface {
	EnableInterrupt(pin uint32, trampoline func(), mode Mode) error
}

type registration struct {
	handler Handler
	mode    Mode
}

// Table is a fixed-size dispatch table mapping pin numbers to handlers.
// Each slot holds at most one handler, installed and cleared with an
// atomic compare-and-swap so that mutation is safe against a concurrently
// firing trampoline. Attach and Detach on the same slot must not race
// each other.
type Table struct {
	substrate Substrate

	slots [PinMax]atomic.Pointer[registration]

	// One fixed zero-argument entry point per slot, built once at
	// construction so the address handed to the substrate never changes.
	trampolines [PinMax]func()
}

// NewTable returns a new dispatch table. The substrate may be nil when
// the table is not wired to hardware (tests, simulation); in that case
// Attach skips the interrupt-enable call.
func NewTable(substrate Substrate) *Table {
	t := &Table{
		substrate: substrate,
	}

	for pin := range PinMax {
		t.trampolines[pin] = func() {
			t.dispatch(pin)
		}
	}

	return t
}

func (t *Table) dispatch(pin uint32) {
	reg := t.slots[pin].Load()

	// Empty slot, the trampoline is a no-op
	if reg == nil {
		return
	}

	reg.handler.ISR(pin)
}

// Attach installs the handler on the pin slot and arms the interrupt
// through the substrate. It returns false when the pin is out of range,
// the slot is already occupied, or the substrate refuses to arm.
func (t *Table) Attach(pin uint32, handler Handler, mode Mode) bool {
	if pin >= PinMax || handler == nil {
		return false
	}

	reg := &registration{
		handler: handler,
		mode:    mode,
	}

	if !t.slots[pin].CompareAndSwap(nil, reg) {
		// Slot occupied
		return false
	}

	if t.substrate != nil {
		if err := t.substrate.EnableInterrupt(pin, t.trampolines[pin], mode); err != nil {
			t.slots[pin].Store(nil)
			return false
		}
	}

	return true
}

// Detach clears the pin slot. It returns false when the pin is
// out of range or no handler is installed.
func (t *Table) Detach(pin uint32) bool {
	if pin >= PinMax {
		return false
	}

	reg := t.slots[pin].Load()
	if reg == nil {
		return false
	}

	return t.slots[pin].CompareAndSwap(reg, nil)
}

// IsAttached reports whether a handler is installed on the pin slot.
func (t *Table) IsAttached(pin uint32) bool {
	if pin >= PinMax {
		return false
	}

	return t.slots[pin].Load() != nil
}

// Mode returns the trigger mode installed on the pin slot.
func (t *Table) Mode(pin uint32) (Mode, bool) {
	if pin >= PinMax {
		return 0, false
	}

	reg := t.slots[pin].Load()
	if reg == nil {
		return 0, false
	}

	return reg.mode, true
}

// Trampoline returns the fixed entry point of the pin slot,
// or nil when the pin is out of range.
func (t *Table) Trampoline(pin uint32) func() {
	if pin >= PinMax {
		return nil
	}

	return t.trampolines[pin]
}

// Fire invokes the pin's trampoline. Debug aid.
func (t *Table) Fire(pin uint32) {
	if pin >= PinMax {
		return
	}

	t.trampolines[pin]()
}
