package jsonl

import (
	"io"
	"strings"
	"testing"
)

func TestNextReadsLines(t *testing.T) {
	r := NewReader(strings.NewReader("{\"a\":1}\n{\"b\":2}\n"), 0)

	first, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if string(first.Data) != `{"a":1}` {
		t.Fatalf("first line = %q, want {\"a\":1}", first.Data)
	}
	if first.BytesRead != 8 {
		t.Fatalf("BytesRead = %d, want 8", first.BytesRead)
	}

	second, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if string(second.Data) != `{"b":2}` {
		t.Fatalf("second line = %q, want {\"b\":2}", second.Data)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("Next() error = %v, want io.EOF", err)
	}
}

func TestNextHandlesMissingTrailingNewline(t *testing.T) {
	r := NewReader(strings.NewReader(`{"a":1}`), 0)

	line, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if string(line.Data) != `{"a":1}` {
		t.Fatalf("line = %q, want {\"a\":1}", line.Data)
	}
}

func TestNextTrimsCRLF(t *testing.T) {
	r := NewReader(strings.NewReader("{\"a\":1}\r\n"), 0)

	line, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if string(line.Data) != `{"a":1}` {
		t.Fatalf("line = %q, want CRLF stripped", line.Data)
	}
}

func TestNextFlagsOversizedLines(t *testing.T) {
	long := strings.Repeat("x", 64)
	r := NewReader(strings.NewReader(long+"\n{\"ok\":true}\n"), 16)

	line, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if !line.TooLong {
		t.Fatal("TooLong = false, want true")
	}
	if line.Data != nil {
		t.Fatalf("Data = %q, want nil for oversized line", line.Data)
	}
	if line.BytesRead != len(long)+1 {
		t.Fatalf("BytesRead = %d, want %d", line.BytesRead, len(long)+1)
	}

	next, err := r.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if string(next.Data) != `{"ok":true}` {
		t.Fatalf("line after oversized = %q, want {\"ok\":true}", next.Data)
	}
}

func TestForEachSkipsOversizedAndStopsEarly(t *testing.T) {
	input := "one\n" + strings.Repeat("x", 64) + "\ntwo\nthree\n"

	var seen []string
	err := ForEach(strings.NewReader(input), 16, func(data []byte) bool {
		seen = append(seen, string(data))
		return len(seen) < 2
	})
	if err != nil {
		t.Fatalf("ForEach() error = %v", err)
	}

	if len(seen) != 2 || seen[0] != "one" || seen[1] != "two" {
		t.Fatalf("seen = %v, want [one two]", seen)
	}
}
