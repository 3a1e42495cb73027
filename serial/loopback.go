package serial

import (
	"sync/atomic"

	"github.com/FerroO2000/filo/internal/rb"
)

// DefaultLoopbackCapacity is the default per-direction buffer
// size of a loopback pair.
const DefaultLoopbackCapacity = 256

var _ Port = (*Loopback)(nil)

// Loopback is one endpoint of an in-memory full-duplex port pair.
// Bytes written to one endpoint become readable at the other.
// Each direction supports one writer and one reader.
type Loopback struct {
	rx *rb.SPSC[byte]
	tx *rb.SPSC[byte]

	closed *atomic.Bool
}

// NewLoopback returns the two endpoints of a loopback pair with the
// given per-direction buffer capacity. A non-positive capacity falls
// back to DefaultLoopbackCapacity.
func NewLoopback(capacity int) (*Loopback, *Loopback) {
	if capacity <= 0 {
		capacity = DefaultLoopbackCapacity
	}

	aToB := rb.NewSPSC[byte](uint64(capacity))
	bToA := rb.NewSPSC[byte](uint64(capacity))

	closed := &atomic.Bool{}

	a := &Loopback{rx: bToA, tx: aToB, closed: closed}
	b := &Loopback{rx: aToB, tx: bToA, closed: closed}

	return a, b
}

// Available reports whether at least one byte can be read.
func (l *Loopback) Available() bool {
	return !l.closed.Load() && l.rx.Len() > 0
}

// ReadByte reads one byte from the peer endpoint.
func (l *Loopback) ReadByte() (byte, error) {
	if l.closed.Load() {
		return 0, ErrClosed
	}

	b, ok := l.rx.Pop()
	if !ok {
		return 0, ErrNoData
	}

	return b, nil
}

// WriteByte makes one byte readable at the peer endpoint.
func (l *Loopback) WriteByte(b byte) error {
	if l.closed.Load() {
		return ErrClosed
	}

	if !l.tx.Push(b) {
		return ErrBufferFull
	}

	return nil
}

// Close closes both endpoints of the pair.
func (l *Loopback) Close() error {
	l.closed.Store(true)
	return nil
}
