package line

// Framer accumulates bytes into a terminated line.
// A line is complete when the CR LF terminator is detected and
// at least 2 bytes have been accumulated.
//
// Bytes past capacity-1 are dropped rather than wrapping over the start
// of the buffer; the truncation is reported by Overflowed.
type Framer struct {
	buf   []byte
	index int

	last byte

	complete   bool
	overflowed bool
}

// NewFramer returns a new framer for lines with the given capacity.
// A non-positive capacity falls back to DefaultCapacity.
func NewFramer(capacity int) *Framer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Framer{
		buf: make([]byte, capacity),
	}
}

// Reset clears the accumulated content and the terminator lookback.
func (f *Framer) Reset() {
	f.index = 0
	f.last = 0
	f.complete = false
	f.overflowed = false
}

// Feed appends the byte to the line under accumulation and reports
// whether the line is complete. Feeding after completion starts
// a new line.
func (f *Framer) Feed(b byte) bool {
	if f.complete {
		f.Reset()
	}

	if f.index < len(f.buf)-1 {
		f.buf[f.index] = b
		f.index++
	} else {
		f.overflowed = true
	}

	if b == LF && f.last == CR && f.index >= 2 {
		f.complete = true
		f.buf[f.index] = 0x00
	}

	f.last = b

	return f.complete
}

// Complete reports whether a completed line is waiting to be taken.
func (f *Framer) Complete() bool {
	return f.complete
}

// Overflowed reports whether content of the line under accumulation
// was dropped because the buffer filled up before the terminator.
func (f *Framer) Overflowed() bool {
	return f.overflowed
}

// Length returns the number of bytes accumulated so far.
func (f *Framer) Length() int {
	return f.index
}

// Capacity returns the framer's line capacity, including the trailing NUL.
func (f *Framer) Capacity() int {
	return len(f.buf)
}

// TakeLine returns a copy of the accumulated line and resets the framer
// for the next one.
func (f *Framer) TakeLine() Line {
	l := FromBytes(len(f.buf), f.buf[:f.index])
	f.Reset()

	return l
}
