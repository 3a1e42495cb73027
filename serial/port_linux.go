//go:build linux

package serial

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// DefaultBaudRate is the baud rate used when the config does not set one.
const DefaultBaudRate = 115_200

// TTYConfig holds the parameters for opening a serial device.
type TTYConfig struct {
	// Device is the device node path, e.g. /dev/ttyUSB0.
	Device string

	// BaudRate is the line speed. Unsupported rates fall back
	// to DefaultBaudRate.
	BaudRate int
}

var _ Port = (*TTY)(nil)

// TTY is a Linux serial device configured for raw, non-blocking,
// byte-at-a-time operation.
type TTY struct {
	fd   int
	file *os.File
}

// Open opens the serial device described by cfg as a raw port.
func Open(cfg TTYConfig) (*TTY, error) {
	fd, err := syscall.Open(cfg.Device, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0666)
	if err != nil {
		return nil, fmt.Errorf("open failed: %w", err)
	}

	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("get termios: %w", err)
	}

	// Raw mode
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB
	termios.Cflag |= unix.CS8

	baud := baudToUnix(cfg.BaudRate)
	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= baud

	// Non-blocking reads: the receiver polls Available
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("set termios: %w", err)
	}

	return &TTY{
		fd:   fd,
		file: os.NewFile(uintptr(fd), cfg.Device),
	}, nil
}

// Available reports whether at least one byte is waiting
// in the input buffer.
func (t *TTY) Available() bool {
	pending, err := unix.IoctlGetInt(t.fd, unix.TIOCINQ)
	if err != nil {
		return false
	}

	return pending > 0
}

// ReadByte reads one byte from the device.
// It returns ErrNoData when none is waiting.
func (t *TTY) ReadByte() (byte, error) {
	buf := [1]byte{}

	n, err := t.file.Read(buf[:])
	if err != nil || n == 0 {
		return 0, ErrNoData
	}

	return buf[0], nil
}

// WriteByte writes one byte to the device.
func (t *TTY) WriteByte(b byte) error {
	buf := [1]byte{b}

	_, err := t.file.Write(buf[:])
	return err
}

// Close closes the device.
func (t *TTY) Close() error {
	return t.file.Close()
}

func baudToUnix(baud int) uint32 {
	switch baud {
	case 9600:
		return unix.B9600
	case 19200:
		return unix.B19200
	case 38400:
		return unix.B38400
	case 57600:
		return unix.B57600
	case 115200:
		return unix.B115200
	case 230400:
		return unix.B230400
	default:
		return unix.B115200
	}
}
