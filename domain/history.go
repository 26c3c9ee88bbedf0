package domain

// DefaultHistoryCapacity bounds the rolling chat window kept for replay.
const DefaultHistoryCapacity = 50

// History is an ordered, size-bounded sequence of messages, oldest first.
// Append adds at the tail and evicts from the head, so survivors are always
// a contiguous suffix of the full append order.
//
// History performs pure in-memory transforms and holds no lock: the owning
// component must serialize access. ChatService is the single writer of the
// shared window in this deployment.
type History struct {
	capacity int
	messages []Message
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity}
}

// RestoreHistory rebuilds a window from a persisted snapshot. A snapshot
// larger than the capacity (written under a bigger configured window) is
// trimmed from the head.
func RestoreHistory(capacity int, messages []Message) *History {
	h := NewHistory(capacity)
	h.messages = append(h.messages, messages...)
	h.evict()
	return h
}

func (h *History) Append(message Message) {
	h.messages = append(h.messages, message)
	h.evict()
}

func (h *History) evict() {
	if over := len(h.messages) - h.capacity; over > 0 {
		h.messages = h.messages[over:]
	}
}

// All returns the full window oldest to newest, as a defensive copy.
func (h *History) All() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

func (h *History) Len() int {
	return len(h.messages)
}
