package core

// streaming.go reads uploaded CSV files.
//
// Uploads pass through two readers before parsing:
//
//   - UTF8Sanitizer replaces invalid UTF-8 bytes with '?' so files saved in a
//     legacy encoding still parse instead of corrupting cells
//   - LimitedReader counts bytes and fails with ErrFileTooLarge past the limit
//
// The BOM is left in place; the CSV parser strips it.

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// UTF8Sanitizer replaces invalid UTF-8 bytes on the fly. Multi-byte
// sequences split across reads are carried over to the next read.
type UTF8Sanitizer struct {
	reader  io.Reader
	pending []byte
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.reader.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if isASCII(p[:n]) {
		return n, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place and returns the number of bytes to hand
// out. Unless atEOF, a trailing partial rune is held back in pending.
func (s *UTF8Sanitizer) sanitize(data []byte, atEOF bool) int {
	end := len(data)
	if !atEOF {
		if tail := partialTail(data); tail > 0 {
			s.pending = append(s.pending, data[end-tail:]...)
			end -= tail
		}
	}

	write := 0
	for read := 0; read < end; {
		r, size := utf8.DecodeRune(data[read:end])
		if r == utf8.RuneError && size == 1 {
			// '?' keeps the output no longer than the input.
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// partialTail returns how many trailing bytes begin a rune that is not yet
// complete.
func partialTail(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b < utf8.RuneSelf {
			return 0
		}
		if utf8.RuneStart(b) {
			if want := runeLen(b); want > i {
				return i
			}
			return 0
		}
	}
	return 0
}

func runeLen(b byte) int {
	switch {
	case b < 0xC0:
		return 1
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

// LimitedReader counts bytes read and fails once more than Limit bytes have
// been seen. A Limit <= 0 disables the check.
type LimitedReader struct {
	reader    io.Reader
	Limit     int64
	BytesRead int64
}

// NewLimitedReader wraps r.
func NewLimitedReader(r io.Reader, limit int64) *LimitedReader {
	return &LimitedReader{reader: r, Limit: limit}
}

func (r *LimitedReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.Limit > 0 && r.BytesRead > r.Limit {
		return n, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, r.Limit)
	}
	return n, err
}

// ReadUpload reads an uploaded file into a string, sanitizing invalid UTF-8
// and enforcing maxBytes.
func ReadUpload(r io.Reader, maxBytes int64) (string, error) {
	var sb strings.Builder
	if _, err := io.Copy(&sb, NewUTF8Sanitizer(NewLimitedReader(r, maxBytes))); err != nil {
		return "", err
	}
	return sb.String(), nil
}
