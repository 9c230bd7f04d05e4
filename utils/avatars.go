package utils

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"
)

// Palette for generated placeholder avatars.
var avatarColors = []string{
	"3F51B5", "5C70D0", "4CAF50", "F44336", "FF9800", "9C27B0", "009688",
}

// PlaceholderAvatar builds a deterministic placeholder avatar URL for a
// user who has not uploaded one yet.
func PlaceholderAvatar(username string) string {
	initial := "?"
	if runes := []rune(username); len(runes) > 0 {
		initial = strings.ToUpper(string(runes[0]))
	}

	h := fnv.New32a()
	h.Write([]byte(username))
	color := avatarColors[h.Sum32()%uint32(len(avatarColors))]

	return fmt.Sprintf("https://placehold.co/512x512/%s/FFFFFF/png?text=%s", color, url.QueryEscape(initial))
}
