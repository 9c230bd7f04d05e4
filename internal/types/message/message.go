package message

import (
	"strings"
	"time"
)

// Message is immutable once persisted. Ordering key is (Timestamp, Seq):
// timestamps are server-assigned and globally monotonic, Seq breaks ties
// between messages stamped in the same instant.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Body       string    `json:"body,omitempty"`
	IsMedia    bool      `json:"isMedia"`
	MediaType  string    `json:"mediaType,omitempty"`
	MediaRef   string    `json:"mediaRef,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	Seq        uint64    `json:"-"`
}

// ConversationKey derives the storage partition for a two-party thread.
// IDs are sorted so both directions land in the same partition.
func ConversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// SendMessageRequest is the inbound payload for a direct message, either
// over the websocket or via POST. MediaRef is an opaque URL produced by the
// upload endpoint; the core never inspects it.
type SendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Body       string `json:"body,omitempty"`
	IsMedia    bool   `json:"isMedia"`
	MediaType  string `json:"mediaType,omitempty"`
	MediaRef   string `json:"mediaRef,omitempty"`
}

// HasContent reports whether the request carries anything deliverable.
func (r *SendMessageRequest) HasContent() bool {
	return strings.TrimSpace(r.Body) != "" || (r.IsMedia && r.MediaRef != "")
}
