package core

// streaming.go provides the reader chain an import file passes through
// before CSV parsing:
//
//   - sizeLimitReader: fails with ErrFileTooLarge past the configured size
//   - SkipBOM: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF) from Excel exports
//   - UTF8ValidatingReader: fails with ErrInvalidEncoding on the first
//     invalid sequence instead of repairing it
//   - CountingReader: tracks bytes read for logging and metrics
//
// Use WrapForImport to apply them in order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// UTF8ValidatingReader passes bytes through unchanged as long as they form
// valid UTF-8. A multi-byte sequence split across reads is held back until
// it is complete.
type UTF8ValidatingReader struct {
	reader io.Reader
	buf    []byte

	// Validated bytes not yet returned to the caller
	out []byte
	// Leftover bytes from previous read that may form a multi-byte sequence
	pending []byte
	err     error
}

func NewUTF8ValidatingReader(r io.Reader) *UTF8ValidatingReader {
	return &UTF8ValidatingReader{
		reader:  r,
		buf:     make([]byte, 4096),
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader. Once invalid input is seen every call returns
// ErrInvalidEncoding. It never returns 0, nil: fills that only hold back a
// partial rune are retried.
func (v *UTF8ValidatingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(v.out) == 0 {
		if v.err != nil {
			return 0, v.err
		}
		v.fill()
	}
	n := copy(p, v.out)
	v.out = v.out[n:]
	return n, nil
}

func (v *UTF8ValidatingReader) fill() {
	n := copy(v.buf, v.pending)
	v.pending = v.pending[:0]

	m, err := v.reader.Read(v.buf[n:])
	n += m
	data := v.buf[:n]

	if err == nil {
		if trailing := incompleteTrailingBytes(data); trailing > 0 {
			v.pending = append(v.pending, data[n-trailing:]...)
			data = data[:n-trailing]
		}
	}

	if !isAllASCII(data) && !utf8.Valid(data) {
		v.err = ErrInvalidEncoding
		return
	}
	v.out = data
	v.err = err
}

// isAllASCII is the fast path; most member files are plain ASCII.
func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// incompleteTrailingBytes returns the number of bytes at the end of data
// that could be the start of an incomplete multi-byte UTF-8 sequence.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= 3 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		// Anything but a continuation byte ends the search.
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen returns the expected length of a UTF-8 sequence starting with byte b,
// or 0 when b cannot start one.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC2:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	case b < 0xF5:
		return 4
	}
	return 0
}

// SkipBOM returns a reader that omits a leading UTF-8 BOM.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

type sizeLimitReader struct {
	reader    io.Reader
	remaining int64
}

func (l *sizeLimitReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	// Read one byte past the limit so an exact-size file still succeeds.
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.reader.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	return n, err
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// WrapForImport chains the import readers. maxSize <= 0 disables the size
// check. The counter sees raw bytes, BOM included.
func WrapForImport(r io.Reader, maxSize int64) (io.Reader, *CountingReader) {
	if maxSize > 0 {
		r = &sizeLimitReader{reader: r, remaining: maxSize}
	}
	counter := &CountingReader{reader: r}
	return NewUTF8ValidatingReader(SkipBOM(counter)), counter
}
