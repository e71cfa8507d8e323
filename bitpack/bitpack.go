// Package bitpack packs bit sequences into byte-aligned storage.
//
// Bits are written most significant bit first. The final byte is right-padded
// with zero bits and the number of padding bits is returned to the caller, who
// must persist it: a packed buffer cannot tell trailing padding from data.
package bitpack

import (
	"errors"
	"fmt"
)

// MaxPadding is the largest padding count a packed buffer can carry.
const MaxPadding = 7

var (
	// ErrPadding is returned when a padding count is outside [0, MaxPadding]
	// or larger than the buffer it describes.
	ErrPadding = errors.New("padding out of range")

	// ErrTruncated is returned when a read runs past the last data bit.
	ErrTruncated = errors.New("bit stream truncated")

	// ErrInvalidCode is returned when a code string contains a character
	// other than '0' or '1'.
	ErrInvalidCode = errors.New("invalid code string")
)

// Writer accumulates bits into bytes.
type Writer struct {
	buf  []byte
	bits int // number of data bits written
}

// NewWriter creates a writer with room for sizeHint bits.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, (sizeHint+7)/8)}
}

// WriteBit appends a single bit. Any non-zero value is a one bit.
func (w *Writer) WriteBit(b byte) {
	if w.bits%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if b != 0 {
		w.buf[len(w.buf)-1] |= 0x80 >> (w.bits % 8)
	}
	w.bits++
}

// WriteBits appends the low n bits of v, most significant first.
func (w *Writer) WriteBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.WriteBit(byte(v>>i) & 1)
	}
}

// WriteCode appends a code given as a string of '0' and '1' characters.
func (w *Writer) WriteCode(code string) error {
	for i := 0; i < len(code); i++ {
		switch code[i] {
		case '0':
			w.WriteBit(0)
		case '1':
			w.WriteBit(1)
		default:
			return fmt.Errorf("%w: %q", ErrInvalidCode, code)
		}
	}
	return nil
}

// Len returns the number of data bits written so far.
func (w *Writer) Len() int {
	return w.bits
}

// Bytes returns the packed buffer and the number of zero bits used to pad
// the final byte. The padding is always in [0, MaxPadding].
func (w *Writer) Bytes() ([]byte, int) {
	return w.buf, (8 - w.bits%8) % 8
}

// Pack concatenates codes in order and packs them into bytes.
func Pack(codes []string) ([]byte, int, error) {
	total := 0
	for _, c := range codes {
		total += len(c)
	}
	w := NewWriter(total)
	for _, c := range codes {
		if err := w.WriteCode(c); err != nil {
			return nil, 0, err
		}
	}
	data, padding := w.Bytes()
	return data, padding, nil
}

// Reader reads bits back from a packed buffer, stopping before the padding.
type Reader struct {
	data []byte
	bits int // number of data bits
	pos  int
}

// Unpack validates padding against data and returns a reader over the data bits.
func Unpack(data []byte, padding int) (*Reader, error) {
	if padding < 0 || padding > MaxPadding {
		return nil, fmt.Errorf("%w: %d", ErrPadding, padding)
	}
	if len(data) == 0 && padding != 0 {
		return nil, fmt.Errorf("%w: %d bits of padding on an empty buffer", ErrPadding, padding)
	}
	return &Reader{data: data, bits: len(data)*8 - padding}, nil
}

// ReadBit returns the next bit. ok is false once all data bits are consumed.
func (r *Reader) ReadBit() (bit byte, ok bool) {
	if r.pos >= r.bits {
		return 0, false
	}
	bit = (r.data[r.pos/8] >> (7 - r.pos%8)) & 1
	r.pos++
	return bit, true
}

// ReadBits reads n bits as an unsigned integer, most significant bit first.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if n > r.Remaining() {
		return 0, fmt.Errorf("%w: need %d bits, have %d", ErrTruncated, n, r.Remaining())
	}
	var v uint64
	for i := 0; i < n; i++ {
		bit, _ := r.ReadBit()
		v = v<<1 | uint64(bit)
	}
	return v, nil
}

// ReadByte reads eight bits. It satisfies io.ByteReader so that varints can
// be decoded directly from the bit stream.
func (r *Reader) ReadByte() (byte, error) {
	v, err := r.ReadBits(8)
	return byte(v), err
}

// Remaining returns the number of unread data bits.
func (r *Reader) Remaining() int {
	return r.bits - r.pos
}

// Len returns the number of data bits in the stream.
func (r *Reader) Len() int {
	return r.bits
}
