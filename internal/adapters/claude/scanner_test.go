package claude

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cui-project/cui/internal/domain"
)

// writeSessionFile writes lines as a JSONL session file and returns its path.
func writeSessionFile(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

const (
	userLine      = `{"type":"user","uuid":"u1","timestamp":"2024-01-01T00:00:00Z","cwd":"/p","message":{"role":"user","content":"hi"},"durationMs":100}`
	assistantLine = `{"type":"assistant","uuid":"a1","parentUuid":"u1","timestamp":"2024-01-01T00:00:01Z","message":{"role":"assistant","model":"m-1","content":"ok"},"durationMs":200}`
)

func TestScanSessionFile_FreshSession(t *testing.T) {
	path := writeSessionFile(t, t.TempDir(), "abc123.jsonl", userLine, assistantLine)

	meta, err := ScanSessionFile(path, 4200)
	if err != nil {
		t.Fatalf("ScanSessionFile() error = %v", err)
	}
	if meta == nil {
		t.Fatal("ScanSessionFile() returned nil metadata")
	}

	if meta.SessionID != "abc123" {
		t.Errorf("SessionID = %q, want %q", meta.SessionID, "abc123")
	}
	if meta.FilePath != path {
		t.Errorf("FilePath = %q, want %q", meta.FilePath, path)
	}
	if meta.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", meta.MessageCount)
	}
	if meta.TotalDurationMs != 300 {
		t.Errorf("TotalDurationMs = %d, want 300", meta.TotalDurationMs)
	}
	if meta.Model != "m-1" {
		t.Errorf("Model = %q, want %q", meta.Model, "m-1")
	}
	if meta.ProjectPath != "/p" {
		t.Errorf("ProjectPath = %q, want %q", meta.ProjectPath, "/p")
	}
	if meta.Summary != "hi" {
		t.Errorf("Summary = %q, want %q", meta.Summary, "hi")
	}
	if meta.FirstTimestamp != "2024-01-01T00:00:00Z" {
		t.Errorf("FirstTimestamp = %q, want %q", meta.FirstTimestamp, "2024-01-01T00:00:00Z")
	}
	if meta.LastTimestamp != "2024-01-01T00:00:01Z" {
		t.Errorf("LastTimestamp = %q, want %q", meta.LastTimestamp, "2024-01-01T00:00:01Z")
	}
	if meta.LastScannedAtMs != 4200 {
		t.Errorf("LastScannedAtMs = %d, want 4200", meta.LastScannedAtMs)
	}
}

func TestScanSessionFile_SidechainIgnored(t *testing.T) {
	sidechain := `{"type":"assistant","uuid":"sc1","isSidechain":true,"timestamp":"2024-01-01T00:00:09Z","cwd":"/other","message":{"model":"m-9","content":"internal"},"durationMs":999}`
	path := writeSessionFile(t, t.TempDir(), "s2.jsonl", userLine, assistantLine, sidechain)

	meta, err := ScanSessionFile(path, 1)
	if err != nil {
		t.Fatalf("ScanSessionFile() error = %v", err)
	}
	if meta == nil {
		t.Fatal("ScanSessionFile() returned nil metadata")
	}

	if meta.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", meta.MessageCount)
	}
	if meta.TotalDurationMs != 300 {
		t.Errorf("TotalDurationMs = %d, want 300", meta.TotalDurationMs)
	}
	if meta.Model != "m-1" {
		t.Errorf("Model = %q, want %q", meta.Model, "m-1")
	}
	if meta.ProjectPath != "/p" {
		t.Errorf("ProjectPath = %q, want %q", meta.ProjectPath, "/p")
	}
	if meta.LastTimestamp != "2024-01-01T00:00:01Z" {
		t.Errorf("LastTimestamp = %q, want %q", meta.LastTimestamp, "2024-01-01T00:00:01Z")
	}
}

func TestScanSessionFile_SummaryOverridesFallback(t *testing.T) {
	summaryLine := `{"type":"summary","summary":"S"}`
	path := writeSessionFile(t, t.TempDir(), "s3.jsonl", userLine, assistantLine, summaryLine)

	meta, err := ScanSessionFile(path, 1)
	if err != nil {
		t.Fatalf("ScanSessionFile() error = %v", err)
	}
	if meta.Summary != "S" {
		t.Errorf("Summary = %q, want %q", meta.Summary, "S")
	}
}

func TestScanSessionFile_SidechainOnlyReturnsNil(t *testing.T) {
	lines := []string{
		`{"type":"user","isSidechain":true,"timestamp":"2024-01-01T00:00:00Z","message":{"content":"x"}}`,
		`{"type":"assistant","isSidechain":true,"timestamp":"2024-01-01T00:00:01Z","message":{"content":"y"}}`,
	}
	path := writeSessionFile(t, t.TempDir(), "sc.jsonl", lines...)

	meta, err := ScanSessionFile(path, 1)
	if err != nil {
		t.Fatalf("ScanSessionFile() error = %v", err)
	}
	if meta != nil {
		t.Errorf("ScanSessionFile() = %+v, want nil", meta)
	}
}

func TestScanSessionFile_EmptyFileReturnsNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.jsonl")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	meta, err := ScanSessionFile(path, 1)
	if err != nil {
		t.Fatalf("ScanSessionFile() error = %v", err)
	}
	if meta != nil {
		t.Errorf("ScanSessionFile() = %+v, want nil", meta)
	}
}

func TestScanSessionFile_SummaryOnlyStillIndexed(t *testing.T) {
	path := writeSessionFile(t, t.TempDir(), "so.jsonl", `{"type":"summary","summary":"kept"}`)

	meta, err := ScanSessionFile(path, 1)
	if err != nil {
		t.Fatalf("ScanSessionFile() error = %v", err)
	}
	if meta == nil {
		t.Fatal("ScanSessionFile() returned nil for summary-only file")
	}
	if meta.Summary != "kept" {
		t.Errorf("Summary = %q, want %q", meta.Summary, "kept")
	}
	if meta.MessageCount != 0 {
		t.Errorf("MessageCount = %d, want 0", meta.MessageCount)
	}
}

func TestScanSessionFile_MalformedLinesTolerated(t *testing.T) {
	lines := []string{
		`not json at all`,
		userLine,
		`{"type":"user","broken`,
		assistantLine,
		`{"truncated tail`,
	}
	path := writeSessionFile(t, t.TempDir(), "m.jsonl", lines...)

	meta, err := ScanSessionFile(path, 1)
	if err != nil {
		t.Fatalf("ScanSessionFile() error = %v", err)
	}
	if meta.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", meta.MessageCount)
	}
}

func TestScanSessionFile_ContentBlocksFallbackSummary(t *testing.T) {
	blocksUser := `{"type":"user","uuid":"u1","timestamp":"2024-01-01T00:00:00Z","message":{"content":[{"type":"tool_result","content":"raw"},{"type":"text","text":"first"},{"type":"text","text":"second"}]}}`
	path := writeSessionFile(t, t.TempDir(), "b.jsonl", blocksUser)

	meta, err := ScanSessionFile(path, 1)
	if err != nil {
		t.Fatalf("ScanSessionFile() error = %v", err)
	}
	if meta.Summary != "first second" {
		t.Errorf("Summary = %q, want %q", meta.Summary, "first second")
	}
}

func TestScanSessionFile_SkipsEmptyUserContentForSummary(t *testing.T) {
	toolOnly := `{"type":"user","uuid":"u1","timestamp":"2024-01-01T00:00:00Z","message":{"content":[{"type":"tool_result","content":"x"}]}}`
	realUser := `{"type":"user","uuid":"u2","timestamp":"2024-01-01T00:00:01Z","message":{"content":"actual question"}}`
	path := writeSessionFile(t, t.TempDir(), "e.jsonl", toolOnly, realUser)

	meta, err := ScanSessionFile(path, 1)
	if err != nil {
		t.Fatalf("ScanSessionFile() error = %v", err)
	}
	if meta.Summary != "actual question" {
		t.Errorf("Summary = %q, want %q", meta.Summary, "actual question")
	}
	if meta.MessageCount != 2 {
		t.Errorf("MessageCount = %d, want 2", meta.MessageCount)
	}
}

func TestScanSessionFile_ModelDefaultsToUnknown(t *testing.T) {
	noModel := `{"type":"user","uuid":"u1","timestamp":"2024-01-01T00:00:00Z","message":{"content":"hi"}}`
	path := writeSessionFile(t, t.TempDir(), "nm.jsonl", noModel)

	meta, err := ScanSessionFile(path, 1)
	if err != nil {
		t.Fatalf("ScanSessionFile() error = %v", err)
	}
	if meta.Model != domain.DefaultModel {
		t.Errorf("Model = %q, want %q", meta.Model, domain.DefaultModel)
	}
}

func TestTruncateSummary(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short unchanged", "hello", "hello"},
		{"newlines flattened", "a\nb\nc", "a b c"},
		{"trimmed", "  padded  ", "padded"},
		{"exactly max", strings.Repeat("x", 100), strings.Repeat("x", 100)},
		{"truncated with ellipsis", strings.Repeat("x", 150), strings.Repeat("x", 100) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateSummary(tt.in, 100)
			if got != tt.want {
				t.Errorf("truncateSummary(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if len(got) > 103 {
				t.Errorf("len = %d, want <= 103", len(got))
			}
		})
	}
}
