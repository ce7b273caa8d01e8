package claude

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/cui-project/cui/internal/adapters/jsonl"
	"github.com/cui-project/cui/internal/domain"
)

// summaryMaxLen caps the extracted summary length in bytes.
const summaryMaxLen = 100

// sessionEntry is the subset of a session log line the scanner looks at.
// Lines that do not decode into this shape are skipped.
type sessionEntry struct {
	Type        string `json:"type"`
	IsSidechain bool   `json:"isSidechain"`
	Timestamp   string `json:"timestamp"`
	Cwd         string `json:"cwd"`
	DurationMs  int64  `json:"durationMs"`
	Summary     string `json:"summary"`
	Message     struct {
		Model   string          `json:"model"`
		Content json.RawMessage `json:"content"` // string or array of blocks
	} `json:"message"`
}

// extractContent returns the textual content of the entry's message.
// Claude's content is either a string or an array of typed blocks; for
// arrays only type=="text" blocks contribute.
func (e *sessionEntry) extractContent() string {
	if e.Message.Content == nil {
		return ""
	}

	var contentStr string
	if err := json.Unmarshal(e.Message.Content, &contentStr); err == nil {
		return contentStr
	}

	var contentBlocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(e.Message.Content, &contentBlocks); err == nil {
		var texts []string
		for _, block := range contentBlocks {
			if block.Type == "text" && block.Text != "" {
				texts = append(texts, block.Text)
			}
		}
		return strings.Join(texts, "\n")
	}

	return ""
}

// ScanSessionFile streams one session file and derives its indexable
// metadata. mtimeMs is the file's modification time at the moment the caller
// decided to scan; it is recorded as LastScannedAtMs so re-scans can be
// skipped by mtime comparison.
//
// Per-line rules:
//   - sidechain entries contribute nothing,
//   - user and assistant entries count toward MessageCount and sum DurationMs,
//   - a summary entry sets the session summary, overriding the fallback taken
//     from the first user entry with textual content,
//   - the first timestamp, cwd and message.model seen populate the
//     corresponding fields.
//
// Malformed lines are tolerated silently; the writer may be mid-append.
// Returns nil when the file yields no user/assistant messages and no summary.
func ScanSessionFile(path string, mtimeMs int64) (*domain.IndexedMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	meta := &domain.IndexedMetadata{
		SessionID:       SessionIDFromFile(path),
		FilePath:        path,
		Model:           domain.DefaultModel,
		LastScannedAtMs: mtimeMs,
	}

	var (
		summary         string
		fallbackSummary string
		haveSummary     bool
		haveFallback    bool
		haveModel       bool
	)

	err = jsonl.ForEach(file, jsonl.DefaultMaxLineBytes, func(data []byte) bool {
		var entry sessionEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return true
		}
		if entry.IsSidechain {
			return true
		}

		if entry.Timestamp != "" {
			if meta.FirstTimestamp == "" {
				meta.FirstTimestamp = entry.Timestamp
			}
			meta.LastTimestamp = entry.Timestamp
		}
		if meta.ProjectPath == "" && entry.Cwd != "" {
			meta.ProjectPath = entry.Cwd
		}

		switch entry.Type {
		case "user", "assistant":
			meta.MessageCount++
			meta.TotalDurationMs += entry.DurationMs

			if !haveModel && entry.Message.Model != "" {
				meta.Model = entry.Message.Model
				haveModel = true
			}
			if !haveFallback && entry.Type == "user" {
				if content := entry.extractContent(); content != "" {
					fallbackSummary = truncateSummary(content, summaryMaxLen)
					haveFallback = true
				}
			}
		case "summary":
			if entry.Summary != "" {
				summary = entry.Summary
				haveSummary = true
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	if meta.MessageCount == 0 && !haveSummary {
		return nil, nil
	}

	if haveSummary {
		meta.Summary = summary
	} else {
		meta.Summary = fallbackSummary
	}
	return meta, nil
}

// truncateSummary flattens a string for display: newlines become spaces and
// anything over maxLen bytes is cut with a trailing ellipsis.
func truncateSummary(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.TrimSpace(s)

	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
