// Package serial contains the byte source/sink interfaces consumed by the
// pipeline stages and their implementations: a Linux termios port, an
// in-memory loopback pair and a device hotplug watcher.
package serial

import "errors"

var (
	// ErrClosed is returned when the port is closed.
	ErrClosed = errors.New("serial: port is closed")

	// ErrNoData is returned by ReadByte when no byte is available.
	ErrNoData = errors.New("serial: no byte available")

	// ErrBufferFull is returned by WriteByte when the outgoing buffer is full.
	ErrBufferFull = errors.New("serial: buffer is full")
)

// Source is a pollable byte source.
type Source interface {
	// Available reports whether at least one byte can be read.
	Available() bool

	// ReadByte reads one byte. It returns ErrNoData when none is
	// available: poll Available first.
	ReadByte() (byte, error)
}

// Sink is a byte sink. It matches io.ByteWriter.
type Sink interface {
	WriteByte(b byte) error
}

// Port is a full-duplex byte port.
type Port interface {
	Source
	Sink

	Close() error
}
