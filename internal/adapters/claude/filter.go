package claude

import (
	"encoding/json"

	"github.com/cui-project/cui/internal/domain"
)

// MessageFilter trims conversation views down to entries a user should see.
type MessageFilter struct{}

// NewMessageFilter returns the default filter.
func NewMessageFilter() *MessageFilter {
	return &MessageFilter{}
}

// Apply drops user messages whose content is exclusively tool_result blocks
// (tool output echoed back to the model, not something the user typed).
// Everything else passes through unchanged.
func (f *MessageFilter) Apply(messages []domain.ConversationMessage) []domain.ConversationMessage {
	filtered := make([]domain.ConversationMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Type == "user" && isToolResultOnly(msg.Message) {
			continue
		}
		filtered = append(filtered, msg)
	}
	return filtered
}

// isToolResultOnly reports whether a message payload is an object whose
// content is a non-empty block array holding nothing but tool_result blocks.
// String payloads and string content are always user text.
func isToolResultOnly(payload json.RawMessage) bool {
	if payload == nil {
		return false
	}

	var wrapper struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(payload, &wrapper); err != nil || wrapper.Content == nil {
		return false
	}

	var blocks []struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(wrapper.Content, &blocks); err != nil {
		return false
	}
	if len(blocks) == 0 {
		return false
	}
	for _, block := range blocks {
		if block.Type != "tool_result" {
			return false
		}
	}
	return true
}
