package core

// streaming.go prepares an uploaded file for the CSV reader without loading
// it into memory:
//
//   - UTF8Validator: fails the stream at the first invalid UTF-8 sequence
//   - BOM stripping: a leading byte order mark is dropped (x/text)
//   - CountingReader: tracks bytes consumed for logging
//
// Use WrapForStreaming to apply all three in the correct order.

import (
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// EncodingError reports the byte offset of the first invalid UTF-8 sequence.
type EncodingError struct {
	Offset int64
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding error: invalid UTF-8 at byte %d", e.Offset)
}

// UTF8Validator passes bytes through unchanged until it meets an invalid
// UTF-8 sequence, then returns an *EncodingError for that and every later
// read. Sequences split across reads are held back until complete.
type UTF8Validator struct {
	reader  io.Reader
	buf     []byte
	out     []byte // validated bytes not yet returned, a window into buf
	pending []byte // incomplete trailing sequence from the last fill
	offset  int64  // bytes validated so far
	err     error  // returned once out is drained
}

// NewUTF8Validator creates a validator reading from r.
func NewUTF8Validator(r io.Reader) *UTF8Validator {
	return &UTF8Validator{
		reader:  r,
		buf:     make([]byte, 4096),
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (v *UTF8Validator) Read(p []byte) (int, error) {
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

func (v *UTF8Validator) fill() {
	n := copy(v.buf, v.pending)
	v.pending = v.pending[:0]

	m, err := v.reader.Read(v.buf[n:])
	n += m

	good, bad := scanUTF8(v.buf[:n], err == io.EOF)
	v.out = v.buf[:good]
	v.offset += int64(good)
	if bad {
		v.err = &EncodingError{Offset: v.offset}
		return
	}

	// Hold back a partial rune for the next fill.
	v.pending = append(v.pending, v.buf[good:n]...)
	if err != nil {
		v.err = err
	}
}

// scanUTF8 returns the length of the longest prefix of b made of complete,
// valid runes, and whether the byte after it starts an invalid sequence.
// Unless atEOF, a truncated rune at the end is not treated as invalid.
func scanUTF8(b []byte, atEOF bool) (int, bool) {
	i := 0
	for i < len(b) {
		if b[i] < utf8.RuneSelf {
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(b[i:]) {
			return i, false
		}
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i, true
		}
		i += size
	}
	return i, false
}

// NewBOMStrippingReader drops a leading UTF-8 byte order mark.
// Input must already be valid UTF-8.
func NewBOMStrippingReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(transform.Nop))
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// WrapForStreaming validates, strips the BOM, and counts bytes.
//
// The order matters:
// 1. Raw bytes are validated first so offsets refer to the file
// 2. The BOM is stripped from known-good UTF-8
// 3. Counting sees what the CSV reader consumes
func WrapForStreaming(r io.Reader) *CountingReader {
	return NewCountingReader(NewBOMStrippingReader(NewUTF8Validator(r)))
}
