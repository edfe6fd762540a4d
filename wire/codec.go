package wire

import (
	"encoding/binary"
	"math"
)

// Writer appends fields to a payload in wire order.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with room for size bytes.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

func (w *Writer) Uint8(v uint8) { w.buf = append(w.buf, v) }

func (w *Writer) Int8(v int8) { w.buf = append(w.buf, byte(v)) }

func (w *Writer) Uint16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *Writer) Int16(v int16) { w.Uint16(uint16(v)) }

func (w *Writer) Uint32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *Writer) Int32(v int32) { w.Uint32(uint32(v)) }

func (w *Writer) Uint64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *Writer) Int64(v int64) { w.Uint64(uint64(v)) }

func (w *Writer) Float32(v float32) { w.Uint32(math.Float32bits(v)) }

func (w *Writer) Float64(v float64) { w.Uint64(math.Float64bits(v)) }

// Bytes appends a character array verbatim, without a terminator.
func (w *Writer) Bytes(p []byte) { w.buf = append(w.buf, p...) }

// Payload returns the bytes written so far.
func (w *Writer) Payload() []byte { return w.buf }

// Reader consumes a payload field by field.
//
// Reading past the end of the payload reads zero bytes, as if the payload
// had been padded with zeros to its full length. MAVLink 2 senders cut
// trailing zero bytes, so a field may arrive with only its low bytes.
type Reader struct {
	p []byte
}

// NewReader returns a Reader over payload.
func NewReader(payload []byte) *Reader {
	return &Reader{p: payload}
}

// Take consumes the next n bytes. When fewer than n remain, the bytes that
// are left are returned followed by zeros.
func (r *Reader) Take(n int) []byte {
	if n <= len(r.p) {
		b := r.p[:n:n]
		r.p = r.p[n:]
		return b
	}
	b := make([]byte, n)
	copy(b, r.p)
	r.p = nil
	return b
}

// Sub consumes an n-byte array field and returns a Reader over it.
func (r *Reader) Sub(n int) *Reader {
	return &Reader{p: r.Take(n)}
}

func (r *Reader) Uint8() uint8 { return r.Take(1)[0] }

func (r *Reader) Int8() int8 { return int8(r.Uint8()) }

func (r *Reader) Uint16() uint16 { return binary.LittleEndian.Uint16(r.Take(2)) }

func (r *Reader) Int16() int16 { return int16(r.Uint16()) }

func (r *Reader) Uint32() uint32 { return binary.LittleEndian.Uint32(r.Take(4)) }

func (r *Reader) Int32() int32 { return int32(r.Uint32()) }

func (r *Reader) Uint64() uint64 { return binary.LittleEndian.Uint64(r.Take(8)) }

func (r *Reader) Int64() int64 { return int64(r.Uint64()) }

func (r *Reader) Float32() float32 { return math.Float32frombits(r.Uint32()) }

func (r *Reader) Float64() float64 { return math.Float64frombits(r.Uint64()) }

// Bytes fills dst from the next len(dst) bytes.
func (r *Reader) Bytes(dst []byte) { copy(dst, r.Take(len(dst))) }
