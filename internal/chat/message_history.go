package chat

import "programs-assistant/internal/llm"

// MaxHistory is the number of most recent messages kept per session.
const MaxHistory = 10

type History struct {
	messages []llm.Message
	limit    int
}

func NewHistory(limit int) *History {
	return &History{limit: limit}
}

func (h *History) Append(messages ...llm.Message) {
	h.messages = append(h.messages, messages...)
	h.Truncate()
}

// Truncate drops the oldest messages beyond the limit.
func (h *History) Truncate() {
	if h.limit > 0 && len(h.messages) > h.limit {
		kept := make([]llm.Message, h.limit)
		copy(kept, h.messages[len(h.messages)-h.limit:])
		h.messages = kept
	}
}

func (h *History) Reset() {
	h.messages = nil
}

func (h *History) Len() int {
	return len(h.messages)
}

// Messages returns a copy of the retained messages, oldest first.
func (h *History) Messages() []llm.Message {
	out := make([]llm.Message, len(h.messages))
	copy(out, h.messages)
	return out
}
