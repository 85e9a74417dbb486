package persistence

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encoder appends little-endian primitives to an in-memory payload.
type Encoder struct {
	buf []byte
}

// NewEncoder creates an encoder with capacity hint n.
func NewEncoder(n int) *Encoder {
	return &Encoder{buf: make([]byte, 0, n)}
}

// Data returns the encoded bytes.
func (e *Encoder) Data() []byte { return e.buf }

// Len returns the number of bytes encoded so far.
func (e *Encoder) Len() int { return len(e.buf) }

func (e *Encoder) Uvarint(v uint64) { e.buf = binary.AppendUvarint(e.buf, v) }

func (e *Encoder) Uint8(v uint8) { e.buf = append(e.buf, v) }

func (e *Encoder) Bool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
		return
	}
	e.buf = append(e.buf, 0)
}

func (e *Encoder) Uint32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }

func (e *Encoder) Uint64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }

func (e *Encoder) Float64(v float64) { e.Uint64(math.Float64bits(v)) }

// Float32s writes the values without a length prefix.
func (e *Encoder) Float32s(vs []float32) {
	for _, v := range vs {
		e.Uint32(math.Float32bits(v))
	}
}

// Uint32s writes a length-prefixed uint32 slice.
func (e *Encoder) Uint32s(vs []uint32) {
	e.Uvarint(uint64(len(vs)))
	for _, v := range vs {
		e.Uint32(v)
	}
}

// Bytes writes a length-prefixed byte slice.
func (e *Encoder) Bytes(b []byte) {
	e.Uvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *Encoder) String(s string) { e.Bytes([]byte(s)) }

// Decoder reads what Encoder wrote. The first failure is sticky: later
// reads return zero values and Err reports the failure.
type Decoder struct {
	buf []byte
	off int
	err error
}

// NewDecoder creates a decoder over b.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Err returns the first decoding error.
func (d *Decoder) Err() error { return d.err }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

// Fail records err unless an earlier error is already set.
func (d *Decoder) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Decoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if n < 0 || d.Remaining() < n {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, d.off, d.Remaining())
		return false
	}
	return true
}

func (d *Decoder) Uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.buf[d.off:])
	if n <= 0 {
		d.err = fmt.Errorf("%w: bad varint at offset %d", ErrCorrupt, d.off)
		return 0
	}
	d.off += n
	return v
}

// Len reads a uvarint count and checks that at least count*elemSize bytes
// remain, so corrupt counts cannot drive huge allocations.
func (d *Decoder) Len(elemSize int) int {
	v := d.Uvarint()
	if d.err != nil {
		return 0
	}
	if elemSize < 1 {
		elemSize = 1
	}
	if v > uint64(d.Remaining()/elemSize) {
		d.err = fmt.Errorf("%w: count %d exceeds remaining data", ErrCorrupt, v)
		return 0
	}
	return int(v)
}

func (d *Decoder) Uint8() uint8 {
	if !d.need(1) {
		return 0
	}
	v := d.buf[d.off]
	d.off++
	return v
}

func (d *Decoder) Bool() bool {
	switch d.Uint8() {
	case 0:
		return false
	case 1:
		return true
	default:
		d.Fail(fmt.Errorf("%w: bad bool at offset %d", ErrCorrupt, d.off-1))
		return false
	}
}

func (d *Decoder) Uint32() uint32 {
	if !d.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v
}

func (d *Decoder) Uint64() uint64 {
	if !d.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(d.buf[d.off:])
	d.off += 8
	return v
}

func (d *Decoder) Float64() float64 { return math.Float64frombits(d.Uint64()) }

// Float32s reads n values written by Encoder.Float32s.
func (d *Decoder) Float32s(n int) []float32 {
	if !d.need(n * 4) {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(d.buf[d.off:]))
		d.off += 4
	}
	return out
}

func (d *Decoder) Uint32s() []uint32 {
	n := d.Len(4)
	if d.err != nil {
		return nil
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = d.Uint32()
	}
	return out
}

func (d *Decoder) Bytes() []byte {
	n := d.Len(1)
	if !d.need(n) {
		return nil
	}
	out := make([]byte, n)
	copy(out, d.buf[d.off:d.off+n])
	d.off += n
	return out
}

func (d *Decoder) String() string { return string(d.Bytes()) }

// Finish reports an error if decoding failed or bytes are left over.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if r := d.Remaining(); r != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, r)
	}
	return nil
}
