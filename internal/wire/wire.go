// Package wire holds the little-endian record primitives shared by the entity,
// factor and snapshot encoders. Writer and Reader latch the first error so
// callers check once at the end.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/worldmodel/internal/conv"
)

// MaxString bounds decoded string lengths.
const MaxString = 1 << 20

// ErrCorrupt is returned when a record cannot be decoded.
var ErrCorrupt = errors.New("wire: corrupt record")

// Writer encodes primitives to an io.Writer.
type Writer struct {
	w   io.Writer
	buf [8]byte
	n   int64
	err error
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) write(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	w.err = err
}

// U8 writes a byte.
func (w *Writer) U8(v uint8) {
	w.buf[0] = v
	w.write(w.buf[:1])
}

// U32 writes a uint32.
func (w *Writer) U32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.write(w.buf[:4])
}

// U64 writes a uint64.
func (w *Writer) U64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	w.write(w.buf[:8])
}

// I64 writes an int64.
func (w *Writer) I64(v int64) {
	w.U64(uint64(v))
}

// Time writes t as [seconds i64][nanoseconds u32]. Every time.Time value,
// including the zero value, is representable.
func (w *Writer) Time(t time.Time) {
	w.I64(t.Unix())
	w.U32(uint32(t.Nanosecond())) //nolint:gosec // Nanosecond is in [0, 1e9).
}

// Len writes n as a u32 length or count. Values that do not fit latch an
// error.
func (w *Writer) Len(n int) {
	v, err := conv.IntToUint32(n)
	if err != nil {
		if w.err == nil {
			w.err = err
		}
		return
	}
	w.U32(v)
}

// String writes a u32 length followed by the bytes of s.
func (w *Writer) String(s string) {
	w.Len(len(s))
	if len(s) > 0 {
		w.write([]byte(s))
	}
}

// Raw writes p verbatim.
func (w *Writer) Raw(p []byte) {
	w.write(p)
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 { return w.n }

// Err returns the first write error.
func (w *Writer) Err() error { return w.err }

// Reader decodes primitives from an io.Reader.
type Reader struct {
	r   io.Reader
	buf [8]byte
	err error
}

// NewReader returns a Reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (r *Reader) read(p []byte) bool {
	if r.err != nil {
		return false
	}
	if _, err := io.ReadFull(r.r, p); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			err = fmt.Errorf("%w: truncated", ErrCorrupt)
		}
		r.err = err
		return false
	}
	return true
}

// U8 reads a byte.
func (r *Reader) U8() uint8 {
	if !r.read(r.buf[:1]) {
		return 0
	}
	return r.buf[0]
}

// U32 reads a uint32.
func (r *Reader) U32() uint32 {
	if !r.read(r.buf[:4]) {
		return 0
	}
	return binary.LittleEndian.Uint32(r.buf[:4])
}

// U64 reads a uint64.
func (r *Reader) U64() uint64 {
	if !r.read(r.buf[:8]) {
		return 0
	}
	return binary.LittleEndian.Uint64(r.buf[:8])
}

// I64 reads an int64.
func (r *Reader) I64() int64 {
	return int64(r.U64())
}

// Time reads a time written by Writer.Time.
func (r *Reader) Time() time.Time {
	sec := r.I64()
	nsec := r.U32()
	if r.err != nil {
		return time.Time{}
	}
	if nsec >= uint32(time.Second) {
		r.err = fmt.Errorf("%w: nanoseconds %d out of range", ErrCorrupt, nsec)
		return time.Time{}
	}
	return time.Unix(sec, int64(nsec))
}

// String reads a length-prefixed string.
func (r *Reader) String() string {
	n := r.U32()
	if r.err != nil || n == 0 {
		return ""
	}
	if n > MaxString {
		r.err = fmt.Errorf("%w: string length %d exceeds %d", ErrCorrupt, n, MaxString)
		return ""
	}
	p := make([]byte, n)
	if !r.read(p) {
		return ""
	}
	return string(p)
}

// Count reads a u32 element count and rejects values above limit.
func (r *Reader) Count(limit uint32) int {
	n := r.U32()
	if r.err != nil {
		return 0
	}
	if n > limit {
		r.err = fmt.Errorf("%w: count %d exceeds %d", ErrCorrupt, n, limit)
		return 0
	}
	c, err := conv.Uint32ToInt(n)
	if err != nil {
		r.err = fmt.Errorf("%w: %w", ErrCorrupt, err)
		return 0
	}
	return c
}

// Raw fills p.
func (r *Reader) Raw(p []byte) {
	r.read(p)
}

// Fail latches err unless an error is already set.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// Err returns the first read error.
func (r *Reader) Err() error { return r.err }
