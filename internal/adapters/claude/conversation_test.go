package claude

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cui-project/cui/internal/domain"
)

// fakeLookup implements SessionLookup with canned responses.
type fakeLookup struct {
	record *domain.SessionRecord
	err    error
}

func (f *fakeLookup) Lookup(sessionID string) (*domain.SessionRecord, error) {
	return f.record, f.err
}

func msg(uuid, parent, msgType, ts string) domain.ConversationMessage {
	return domain.ConversationMessage{
		UUID:       uuid,
		ParentUUID: parent,
		Type:       msgType,
		Timestamp:  ts,
	}
}

func uuids(messages []domain.ConversationMessage) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		out[i] = m.UUID
	}
	return out
}

func assertOrder(t *testing.T, got []domain.ConversationMessage, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("message count = %d (%v), want %d (%v)", len(got), uuids(got), len(want), want)
	}
	for i, id := range want {
		if got[i].UUID != id {
			t.Fatalf("order = %v, want %v", uuids(got), want)
		}
	}
}

func TestChainMessages_BranchesOrderedByTimestamp(t *testing.T) {
	// u1 has two children; a2 is earlier than a1 so it comes out first,
	// then a1 together with its own subtree.
	input := []domain.ConversationMessage{
		msg("u1", "", "user", "2024-01-01T00:00:00Z"),
		msg("a1", "u1", "assistant", "2024-01-01T00:00:02Z"),
		msg("a2", "u1", "assistant", "2024-01-01T00:00:01Z"),
		msg("u2", "a1", "user", "2024-01-01T00:00:03Z"),
	}

	assertOrder(t, ChainMessages(input), []string{"u1", "a2", "a1", "u2"})
}

func TestChainMessages_InputOrderIrrelevant(t *testing.T) {
	input := []domain.ConversationMessage{
		msg("u2", "a1", "user", "2024-01-01T00:00:03Z"),
		msg("a2", "u1", "assistant", "2024-01-01T00:00:01Z"),
		msg("u1", "", "user", "2024-01-01T00:00:00Z"),
		msg("a1", "u1", "assistant", "2024-01-01T00:00:02Z"),
	}

	assertOrder(t, ChainMessages(input), []string{"u1", "a2", "a1", "u2"})
}

func TestChainMessages_IsPermutation(t *testing.T) {
	input := []domain.ConversationMessage{
		msg("r2", "", "user", "2024-01-01T00:00:05Z"),
		msg("c1", "r1", "assistant", "2024-01-01T00:00:01Z"),
		msg("orphan", "missing-parent", "user", "2024-01-01T00:00:02Z"),
		msg("r1", "", "user", "2024-01-01T00:00:00Z"),
		msg("c2", "c1", "user", "2024-01-01T00:00:03Z"),
		msg("c3", "r2", "assistant", "2024-01-01T00:00:06Z"),
	}

	got := ChainMessages(input)
	if len(got) != len(input) {
		t.Fatalf("output length = %d, want %d", len(got), len(input))
	}

	seen := make(map[string]int)
	position := make(map[string]int)
	for i, m := range got {
		seen[m.UUID]++
		position[m.UUID] = i
	}
	for _, m := range input {
		if seen[m.UUID] != 1 {
			t.Errorf("uuid %q appears %d times, want 1", m.UUID, seen[m.UUID])
		}
	}

	// Every reachable child must come after its parent.
	for _, m := range input {
		if m.ParentUUID == "" {
			continue
		}
		parentPos, ok := position[m.ParentUUID]
		if !ok {
			continue
		}
		if position[m.UUID] <= parentPos {
			t.Errorf("child %q at %d not after parent %q at %d", m.UUID, position[m.UUID], m.ParentUUID, parentPos)
		}
	}
}

func TestChainMessages_OrphansAppendedByTimestamp(t *testing.T) {
	input := []domain.ConversationMessage{
		msg("o2", "gone-2", "user", "2024-01-01T00:00:09Z"),
		msg("u1", "", "user", "2024-01-01T00:00:00Z"),
		msg("o1", "gone-1", "user", "2024-01-01T00:00:08Z"),
	}

	got := ChainMessages(input)
	// Orphans still have no parent in the set, so they become roots and the
	// whole output is timestamp ordered.
	assertOrder(t, got, []string{"u1", "o1", "o2"})
}

func TestChainMessages_CycleDoesNotLoop(t *testing.T) {
	input := []domain.ConversationMessage{
		msg("u1", "", "user", "2024-01-01T00:00:00Z"),
		msg("x", "y", "user", "2024-01-01T00:00:02Z"),
		msg("y", "x", "assistant", "2024-01-01T00:00:01Z"),
	}

	got := ChainMessages(input)
	if len(got) != 3 {
		t.Fatalf("output length = %d, want 3", len(got))
	}
	// Cycle members are unreachable from the root and land at the end,
	// sorted by timestamp.
	assertOrder(t, got, []string{"u1", "y", "x"})
}

func TestChainMessages_SingleMessage(t *testing.T) {
	input := []domain.ConversationMessage{msg("u1", "", "user", "2024-01-01T00:00:00Z")}
	assertOrder(t, ChainMessages(input), []string{"u1"})
}

func TestFetchConversation_UsesIndexedPath(t *testing.T) {
	// The file lives outside the projects dir; only the indexed path can
	// reach it.
	path := writeSessionFile(t, t.TempDir(), "sess-1.jsonl", userLine, assistantLine)
	store := &fakeLookup{record: &domain.SessionRecord{SessionID: "sess-1", FilePath: path}}
	reader := NewReader(store, filepath.Join(t.TempDir(), "projects"))

	messages, err := reader.FetchConversation("sess-1")
	if err != nil {
		t.Fatalf("FetchConversation() error = %v", err)
	}
	assertOrder(t, messages, []string{"u1", "a1"})
}

func TestFetchConversation_IndexedFileVanished(t *testing.T) {
	gone := filepath.Join(t.TempDir(), "vanished.jsonl")
	store := &fakeLookup{record: &domain.SessionRecord{SessionID: "sess-2", FilePath: gone}}
	reader := NewReader(store, t.TempDir())

	_, err := reader.FetchConversation("sess-2")
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *domain.APIError", err)
	}
	if apiErr.Code != domain.ErrCodeFileNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, domain.ErrCodeFileNotFound)
	}
	if apiErr.Status != 404 {
		t.Errorf("Status = %d, want 404", apiErr.Status)
	}
}

func TestFetchConversation_FallsBackToDirectoryScan(t *testing.T) {
	projectsDir := t.TempDir()
	projectDir := filepath.Join(projectsDir, "-home-user-proj")
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	writeSessionFile(t, projectDir, "sess-3.jsonl", userLine, assistantLine)

	reader := NewReader(&fakeLookup{}, projectsDir)

	messages, err := reader.FetchConversation("sess-3")
	if err != nil {
		t.Fatalf("FetchConversation() error = %v", err)
	}
	if len(messages) != 2 {
		t.Errorf("message count = %d, want 2", len(messages))
	}
}

func TestFetchConversation_NotFound(t *testing.T) {
	reader := NewReader(&fakeLookup{}, t.TempDir())

	_, err := reader.FetchConversation("nope")
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *domain.APIError", err)
	}
	if apiErr.Code != domain.ErrCodeConversationNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, domain.ErrCodeConversationNotFound)
	}
	if apiErr.Status != 404 {
		t.Errorf("Status = %d, want 404", apiErr.Status)
	}
}

func TestFetchConversation_StoreErrorSurfacesAsHistoryRead(t *testing.T) {
	store := &fakeLookup{err: errors.New("db locked")}
	reader := NewReader(store, t.TempDir())

	_, err := reader.FetchConversation("sess-4")
	var apiErr *domain.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *domain.APIError", err)
	}
	if apiErr.Code != domain.ErrCodeHistoryReadFailed {
		t.Errorf("Code = %q, want %q", apiErr.Code, domain.ErrCodeHistoryReadFailed)
	}
}

func TestFetchConversation_DropsToolResultOnlyUserMessages(t *testing.T) {
	toolResult := `{"type":"user","uuid":"t1","parentUuid":"a1","timestamp":"2024-01-01T00:00:02Z","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"x","content":"ok"}]}}`
	path := writeSessionFile(t, t.TempDir(), "sess-5.jsonl", userLine, assistantLine, toolResult)
	store := &fakeLookup{record: &domain.SessionRecord{SessionID: "sess-5", FilePath: path}}
	reader := NewReader(store, t.TempDir())

	messages, err := reader.FetchConversation("sess-5")
	if err != nil {
		t.Fatalf("FetchConversation() error = %v", err)
	}
	assertOrder(t, messages, []string{"u1", "a1"})
}

func TestFetchConversation_SkipsNonMessageEntries(t *testing.T) {
	lines := []string{
		`{"type":"summary","summary":"S"}`,
		userLine,
		`{"type":"file-history-snapshot","uuid":"f1"}`,
		assistantLine,
	}
	path := writeSessionFile(t, t.TempDir(), "sess-6.jsonl", lines...)
	store := &fakeLookup{record: &domain.SessionRecord{SessionID: "sess-6", FilePath: path}}
	reader := NewReader(store, t.TempDir())

	messages, err := reader.FetchConversation("sess-6")
	if err != nil {
		t.Fatalf("FetchConversation() error = %v", err)
	}
	assertOrder(t, messages, []string{"u1", "a1"})
}
