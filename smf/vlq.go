package smf

import (
	"errors"
)

var (
	ErrTruncatedVLQ = errors.New("variable-length quantity is missing its terminating byte")
	ErrVLQOverflow  = errors.New("variable-length quantity overflows 64 bits")
)

// Longest encoding of a uint64: ceil(64/7) groups.
const maxVLQLen = 10

// VLQLen returns the number of bytes EncodeVLQ(n) produces.
func VLQLen(n uint64) int {
	size := 1
	for n >>= 7; n != 0; n >>= 7 {
		size++
	}
	return size
}

// AppendVLQ appends the minimal big endian base-128 encoding of n to dst.
// Every byte except the last has its high bit set.
func AppendVLQ(dst []byte, n uint64) []byte {
	var groups [maxVLQLen]byte

	// Collect the 7-bit groups least significant first. Only the first group
	// collected (the final byte on the wire) keeps its high bit clear.
	i := len(groups)
	for first := true; first || n > 0; first = false {
		i--
		groups[i] = byte(n & 0x7f)
		if !first {
			groups[i] |= 0x80
		}
		n >>= 7
	}
	return append(dst, groups[i:]...)
}

// EncodeVLQ returns the minimal variable-length encoding of n. EncodeVLQ(0) is [0x00].
func EncodeVLQ(n uint64) []byte {
	return AppendVLQ(make([]byte, 0, VLQLen(n)), n)
}

// DecodeVLQ decodes a single quantity from the start of b and reports how many bytes it used.
func DecodeVLQ(b []byte) (n uint64, size int, err error) {
	c := NewCursor(b)
	n, err = c.ReadVLQ()
	return n, c.Offset(), err
}

// Cursor reads from an immutable byte slice by advancing an offset.
// The underlying slice is never modified, so it can be read again from the start with a new Cursor.
type Cursor struct {
	buf []byte
	off int
}

func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b}
}

// Offset returns the number of bytes consumed so far.
func (c *Cursor) Offset() int {
	return c.off
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// ReadVLQ reads one variable-length quantity. On error the offset is left unchanged.
func (c *Cursor) ReadVLQ() (uint64, error) {
	var n uint64
	off := c.off
	for {
		if off >= len(c.buf) {
			return 0, ErrTruncatedVLQ
		}
		b := c.buf[off]
		off++

		// Shifting out any of the top 7 bits would lose data.
		if n>>57 != 0 {
			return 0, ErrVLQOverflow
		}
		n = n<<7 | uint64(b&0x7f)

		if b&0x80 == 0 {
			break
		}
	}
	c.off = off
	return n, nil
}

