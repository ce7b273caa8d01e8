package claude

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cui-project/cui/internal/adapters/jsonl"
	"github.com/cui-project/cui/internal/domain"
)

// SessionLookup is the read-only index surface the Reader needs: a record
// by id, or nil when the session was never indexed.
type SessionLookup interface {
	Lookup(sessionID string) (*domain.SessionRecord, error)
}

// Reader serves conversation detail reads. It resolves the session file
// through the index (falling back to a directory scan), parses it with the
// same line discipline as the scanner, and reconstructs the message chain.
// Nothing is cached across calls.
type Reader struct {
	store        SessionLookup
	projectsDir  string
	filter       *MessageFilter
	maxLineBytes int
}

// NewReader returns a Reader over the given projects directory.
func NewReader(store SessionLookup, projectsDir string) *Reader {
	return &Reader{
		store:        store,
		projectsDir:  projectsDir,
		filter:       NewMessageFilter(),
		maxLineBytes: jsonl.DefaultMaxLineBytes,
	}
}

// FetchConversation returns the session's user/assistant messages in
// conversation order. Failures carry the API error taxonomy: the session id
// resolving to no file at all is CONVERSATION_NOT_FOUND, an indexed file
// that vanished from disk is FILE_NOT_FOUND, and read failures surface as
// CONVERSATION_READ_FAILED.
func (r *Reader) FetchConversation(sessionID string) ([]domain.ConversationMessage, error) {
	start := time.Now()

	path, err := r.resolvePath(sessionID)
	if err != nil {
		return nil, err
	}

	messages, err := readMessages(path, r.maxLineBytes)
	if err != nil {
		return nil, domain.NewConversationReadFailed(err)
	}

	chained := r.filter.Apply(ChainMessages(messages))

	log.Debug().
		Str("session_id", sessionID).
		Str("file", path).
		Int("messages", len(chained)).
		Dur("elapsed", time.Since(start)).
		Msg("fetched conversation")

	return chained, nil
}

// resolvePath locates the session's JSONL file. An indexed file path is
// trusted when it still stats; an indexed path whose file is gone is an
// error rather than a rescan trigger, so deleted logs surface to the caller.
func (r *Reader) resolvePath(sessionID string) (string, error) {
	record, err := r.store.Lookup(sessionID)
	if err != nil {
		return "", domain.NewHistoryReadFailed(err)
	}

	if record != nil && record.FilePath != "" {
		if info, statErr := os.Stat(record.FilePath); statErr == nil && !info.IsDir() {
			return record.FilePath, nil
		}
		return "", domain.NewFileNotFound(record.FilePath)
	}

	path, findErr := FindSessionFile(r.projectsDir, sessionID)
	if findErr != nil {
		if errors.Is(findErr, fs.ErrNotExist) {
			return "", domain.NewConversationNotFound(sessionID)
		}
		return "", domain.NewHistoryReadFailed(findErr)
	}
	return path, nil
}

// readMessages parses the file line by line, keeping user and assistant
// entries. Malformed lines are skipped; only I/O failures abort the read.
func readMessages(path string, maxLineBytes int) ([]domain.ConversationMessage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var messages []domain.ConversationMessage
	err = jsonl.ForEach(file, maxLineBytes, func(data []byte) bool {
		var msg domain.ConversationMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return true
		}
		if msg.Type != "user" && msg.Type != "assistant" {
			return true
		}
		messages = append(messages, msg)
		return true
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// ChainMessages orders a flat entry log into conversation order. Roots are
// messages without a parentUuid or whose parent is not present; traversal is
// depth-first from the roots in ascending timestamp order, with each node's
// children also sorted by timestamp. Messages never reached that way
// (orphans, or members of a parent cycle) are appended at the end sorted by
// timestamp. Every input message appears in the output exactly once.
func ChainMessages(messages []domain.ConversationMessage) []domain.ConversationMessage {
	if len(messages) <= 1 {
		return messages
	}

	times := make([]time.Time, len(messages))
	for i, m := range messages {
		if t, err := time.Parse(time.RFC3339Nano, m.Timestamp); err == nil {
			times[i] = t
		}
	}
	byTimestamp := func(idxs []int) {
		sort.SliceStable(idxs, func(a, b int) bool {
			i, j := idxs[a], idxs[b]
			if times[i].Equal(times[j]) {
				return messages[i].Timestamp < messages[j].Timestamp
			}
			return times[i].Before(times[j])
		})
	}

	byUUID := make(map[string]int, len(messages))
	for i, m := range messages {
		if m.UUID == "" {
			continue
		}
		if _, ok := byUUID[m.UUID]; !ok {
			byUUID[m.UUID] = i
		}
	}

	children := make(map[string][]int)
	var roots []int
	for i, m := range messages {
		if m.ParentUUID != "" {
			if idx, ok := byUUID[m.ParentUUID]; ok && idx != i {
				children[m.ParentUUID] = append(children[m.ParentUUID], i)
				continue
			}
		}
		roots = append(roots, i)
	}
	byTimestamp(roots)
	for _, c := range children {
		byTimestamp(c)
	}

	ordered := make([]domain.ConversationMessage, 0, len(messages))
	visited := make([]bool, len(messages))

	var walk func(idx int)
	walk = func(idx int) {
		if visited[idx] {
			return
		}
		visited[idx] = true
		ordered = append(ordered, messages[idx])
		if uuid := messages[idx].UUID; uuid != "" {
			for _, child := range children[uuid] {
				walk(child)
			}
		}
	}
	for _, root := range roots {
		walk(root)
	}

	if len(ordered) < len(messages) {
		var rest []int
		for i := range messages {
			if !visited[i] {
				rest = append(rest, i)
			}
		}
		byTimestamp(rest)
		for _, idx := range rest {
			ordered = append(ordered, messages[idx])
		}
	}

	return ordered
}
