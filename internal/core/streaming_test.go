package core

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "valid ASCII",
			input:    []byte("Name,Brand"),
			expected: "Name,Brand",
		},
		{
			name:     "valid multibyte",
			input:    []byte("Eau de Cèdre,Hermès"),
			expected: "Eau de Cèdre,Hermès",
		},
		{
			name:     "invalid single byte replaced",
			input:    []byte{'h', 'e', 0x80, 'l', 'o'},
			expected: "he?lo",
		},
		{
			name:     "latin-1 byte replaced",
			input:    []byte{'C', 0xE8, 'd', 'r', 'e'},
			expected: "C?dre",
		},
		{
			name:     "truncated rune at EOF replaced",
			input:    []byte{'a', 0xC3},
			expected: "a?",
		},
		{
			name:     "empty input",
			input:    []byte{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer_SplitRunes(t *testing.T) {
	input := strings.Repeat("Hermès,", 50)

	// OneByteReader splits every multi-byte rune across reads.
	result, err := io.ReadAll(NewUTF8Sanitizer(iotest.OneByteReader(strings.NewReader(input))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != input {
		t.Errorf("split runes were corrupted: got %q", string(result)[:40])
	}
}

func TestLimitedReader(t *testing.T) {
	input := strings.Repeat("x", 1000)

	reader := NewLimitedReader(strings.NewReader(input), 1000)
	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error at limit: %v", err)
	}
	if len(data) != 1000 || reader.BytesRead != 1000 {
		t.Errorf("read %d bytes, counted %d", len(data), reader.BytesRead)
	}

	_, err = io.ReadAll(NewLimitedReader(strings.NewReader(input), 999))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}

	if _, err := io.ReadAll(NewLimitedReader(strings.NewReader(input), 0)); err != nil {
		t.Errorf("zero limit should disable the check, got %v", err)
	}
}

func TestReadUpload(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte{'h', 'e', 0x80, 'l', 'o'}...)

	got, err := ReadUpload(bytes.NewReader(input), 1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// BOM is kept for the parser; invalid byte replaced.
	if got != "\xEF\xBB\xBFhe?lo" {
		t.Errorf("got %q", got)
	}

	if _, err := ReadUpload(bytes.NewReader(input), 4); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
}
