package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, ConversationKey("alice", "bob"), ConversationKey("bob", "alice"))
	assert.Equal(t, "alice_bob", ConversationKey("bob", "alice"))
}

func TestHasContent(t *testing.T) {
	assert.False(t, (&SendMessageRequest{}).HasContent())
	assert.False(t, (&SendMessageRequest{Body: "  \t"}).HasContent())
	assert.False(t, (&SendMessageRequest{IsMedia: true}).HasContent())
	assert.True(t, (&SendMessageRequest{Body: "hi"}).HasContent())
	assert.True(t, (&SendMessageRequest{IsMedia: true, MediaRef: "/uploads/x.png"}).HasContent())
}
