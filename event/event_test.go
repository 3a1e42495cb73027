package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Source_shortCircuit(t *testing.T) {
	assert := assert.New(t)

	src := NewSource(7)

	var calls []string

	listener := func(name string, accept bool) Listener {
		return ListenerFunc(func(s *Source) bool {
			assert.Same(src, s)
			assert.Equal(uint32(7), s.Event())

			calls = append(calls, name)
			return accept
		})
	}

	assert.NoError(src.Attach(listener("L1", false)))
	assert.NoError(src.Attach(listener("L2", true)))
	assert.NoError(src.Attach(listener("L3", true)))

	src.Notify()

	// L1 passes the notification on, L2 accepts it, L3 is never reached
	assert.Equal([]string{"L1", "L2"}, calls)
}

func Test_Source_notifyOrderIsRegistrationOrder(t *testing.T) {
	assert := assert.New(t)

	src := NewSource(0)

	var calls []int
	for idx := range 3 {
		assert.NoError(src.Attach(ListenerFunc(func(*Source) bool {
			calls = append(calls, idx)
			return false
		})))
	}

	src.Notify()
	src.Notify()

	assert.Equal([]int{0, 1, 2, 0, 1, 2}, calls)
}

func Test_Source_attachPastCapacity(t *testing.T) {
	assert := assert.New(t)

	src := NewSourceSized(0, 2)

	nop := ListenerFunc(func(*Source) bool { return false })

	assert.NoError(src.Attach(nop))
	assert.NoError(src.Attach(nop))
	assert.ErrorIs(src.Attach(nop), ErrChainFull)

	assert.Equal(2, src.ListenerCount())
	assert.Equal(2, src.ListenerMax())
}

func Test_Source_defaultCapacity(t *testing.T) {
	assert := assert.New(t)

	src := NewSource(0)
	assert.Equal(DefaultListenerMax, src.ListenerMax())

	nop := ListenerFunc(func(*Source) bool { return false })
	for range DefaultListenerMax {
		assert.NoError(src.Attach(nop))
	}

	assert.ErrorIs(src.Attach(nop), ErrChainFull)
}

func Test_Source_notifyWithoutListeners(t *testing.T) {
	src := NewSource(1)

	// Must not panic
	src.Notify()
}
