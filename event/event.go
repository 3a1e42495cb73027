// Package event provides a bounded, ordered listener chain
// attached to a notifying source.
package event

import "errors"

// DefaultListenerMax is the default listener capacity of a source.
const DefaultListenerMax = 6

// ErrChainFull is returned when attaching past the listener capacity.
var ErrChainFull = errors.New("event: listener chain is full")

// Listener is the interface implemented by the observers of a source.
type Listener interface {
	// Update is invoked by the notifying source. Returning true accepts
	// the notification and stops the chain walk; returning false passes
	// it on to the next listener.
	Update(src *Source) bool
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(src *Source) bool

// Update invokes the function.
func (f ListenerFunc) Update(src *Source) bool {
	return f(src)
}

// Source is a notifying source holding an ordered, bounded listener chain.
// The event tag is assigned at construction and immutable, letting a
// listener attached to multiple sources tell them apart.
//
// Attach and Notify are not synchronized against each other: attach the
// listeners before the source starts notifying.
type Source struct {
	event uint32

	listeners []Listener
}

// NewSource returns a source with the given event tag
// and the default listener capacity.
func NewSource(event uint32) *Source {
	return NewSourceSized(event, DefaultListenerMax)
}

// NewSourceSized returns a source with the given event tag
// and listener capacity.
func NewSourceSized(event uint32, listenerMax int) *Source {
	if listenerMax <= 0 {
		listenerMax = DefaultListenerMax
	}

	return &Source{
		event: event,

		listeners: make([]Listener, 0, listenerMax),
	}
}

// Attach appends the listener to the chain. Registration order is the
// notification order. Duplicates are not detected. It returns ErrChainFull
// once the capacity is reached.
func (s *Source) Attach(listener Listener) error {
	if len(s.listeners) == cap(s.listeners) {
		return ErrChainFull
	}

	s.listeners = append(s.listeners, listener)

	return nil
}

// Notify invokes each listener in registration order, stopping at the
// first one that accepts the notification.
func (s *Source) Notify() {
	for _, listener := range s.listeners {
		if listener == nil {
			continue
		}

		if listener.Update(s) {
			break
		}
	}
}

// Event returns the numeric tag identifying this source.
func (s *Source) Event() uint32 {
	return s.event
}

// ListenerCount returns the number of attached listeners.
func (s *Source) ListenerCount() int {
	return len(s.listeners)
}

// ListenerMax returns the listener capacity of the chain.
func (s *Source) ListenerMax() int {
	return cap(s.listeners)
}
