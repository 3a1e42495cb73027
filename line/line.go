// Package line contains the bounded text line type and the framer
// that assembles lines from a byte stream.
package line

// DefaultCapacity is the default line capacity in bytes,
// including the trailing NUL.
const DefaultCapacity = 80

// Terminator bytes of a complete line.
const (
	CR byte = 0x0D
	LF byte = 0x0A
)

// Line is a byte buffer of fixed capacity holding a single text line.
// The content may include control characters such as the CR LF terminator.
// A NUL byte always follows the content for presentation purposes;
// it is not counted in the length.
type Line struct {
	buf    []byte
	length int
}

// New returns an empty line with the given capacity.
// A non-positive capacity falls back to DefaultCapacity.
func New(capacity int) Line {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return Line{
		buf: make([]byte, capacity),
	}
}

// FromBytes returns a line with the given capacity holding a copy of data.
// Data longer than capacity-1 bytes is truncated.
func FromBytes(capacity int, data []byte) Line {
	l := New(capacity)
	l.Set(data)

	return l
}

// FromString returns a line with the given capacity holding a copy of s.
// Content longer than capacity-1 bytes is truncated.
func FromString(capacity int, s string) Line {
	return FromBytes(capacity, []byte(s))
}

// Set replaces the line content with a copy of data,
// truncating it to capacity-1 bytes. The trailing NUL is re-installed.
func (l *Line) Set(data []byte) {
	length := len(data)
	if length > len(l.buf)-1 {
		length = len(l.buf) - 1
	}

	copy(l.buf, data[:length])
	l.buf[length] = 0x00
	l.length = length
}

// Bytes returns the line content without the trailing NUL.
// The returned slice aliases the internal buffer.
func (l *Line) Bytes() []byte {
	return l.buf[:l.length]
}

// String returns the line content as a string.
func (l *Line) String() string {
	return string(l.buf[:l.length])
}

// Length returns the content length in bytes. It includes control
// characters such as CR LF, but not the trailing NUL.
func (l *Line) Length() int {
	return l.length
}

// Capacity returns the line capacity in bytes, including the trailing NUL.
func (l *Line) Capacity() int {
	return len(l.buf)
}
