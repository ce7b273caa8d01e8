package indexer

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/cui-project/cui/internal/adapters/jsonl"
	"github.com/cui-project/cui/internal/domain"
	"github.com/cui-project/cui/internal/domain/events"
	"github.com/cui-project/cui/internal/domain/ports"
)

// ContentStreamer tails session files and pushes newly appended messages to
// subscribers of the per-session channel. It keeps one byte offset per
// session and only reads forward; a file that shrank is treated as rewritten
// and replayed from the start.
type ContentStreamer struct {
	hub          ports.Publisher
	maxLineBytes int

	// mu spans the whole read so two settles of the same file cannot
	// publish overlapping windows.
	mu      sync.Mutex
	offsets map[string]int64
}

// NewContentStreamer creates a streamer publishing through hub.
func NewContentStreamer(hub ports.Publisher) *ContentStreamer {
	return &ContentStreamer{
		hub:          hub,
		maxLineBytes: jsonl.DefaultMaxLineBytes,
		offsets:      make(map[string]int64),
	}
}

// FileChanged is invoked after a session file settled and was re-indexed.
// With no subscribers on the session channel the offset just advances to the
// current size, so a later subscriber only receives content appended after
// it attached.
func (cs *ContentStreamer) FileChanged(sessionID, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	size := info.Size()

	cs.mu.Lock()
	defer cs.mu.Unlock()

	offset := cs.offsets[sessionID]
	if size < offset {
		offset = 0
	}

	if cs.hub.ClientCount(events.SessionChannel(sessionID)) == 0 {
		cs.offsets[sessionID] = size
		return
	}

	messages, advanced := cs.readNewMessages(path, offset, size)
	cs.offsets[sessionID] = offset + advanced

	if len(messages) == 0 {
		return
	}

	cs.hub.Publish(events.SessionChannel(sessionID), events.NewSessionContentUpdateEvent(messages))

	log.Debug().
		Str("session_id", sessionID).
		Int("messages", len(messages)).
		Int64("offset", offset+advanced).
		Msg("streamed session content")
}

// readNewMessages parses the user and assistant entries appended between
// offset and size. Only complete lines advance the returned byte count; a
// partial tail still being written is re-read on the next change.
func (cs *ContentStreamer) readNewMessages(path string, offset, size int64) ([]domain.ConversationMessage, int64) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		log.Warn().Err(err).Str("file", path).Msg("failed to seek session file")
		return nil, 0
	}

	data, err := io.ReadAll(io.LimitReader(f, size-offset))
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("failed to read session file")
		return nil, 0
	}

	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil, 0
	}
	window := data[:end+1]

	var messages []domain.ConversationMessage
	_ = jsonl.ForEach(bytes.NewReader(window), cs.maxLineBytes, func(line []byte) bool {
		if len(line) == 0 {
			return true
		}
		var msg domain.ConversationMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return true
		}
		if msg.Type != "user" && msg.Type != "assistant" {
			return true
		}
		messages = append(messages, msg)
		return true
	})

	return messages, int64(end + 1)
}
