package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholderAvatarIsDeterministic(t *testing.T) {
	a := PlaceholderAvatar("alice")
	b := PlaceholderAvatar("alice")
	assert.Equal(t, a, b)
	assert.Contains(t, a, "text=A")
	assert.True(t, strings.HasPrefix(a, "https://placehold.co/"))
}

func TestPlaceholderAvatarHandlesOddUsernames(t *testing.T) {
	assert.Contains(t, PlaceholderAvatar(""), "text=%3F")

	// Multi-byte first rune must not be split.
	got := PlaceholderAvatar("ünal")
	assert.NotContains(t, got, "�")
	assert.Contains(t, got, "text=%C3%9C")
}
