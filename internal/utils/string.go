package utils

import (
	"strings"
)

// IsBlank reports whether s is empty or holds only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func NormalizeMessageID(messageID string) string {
	messageID = strings.TrimSpace(messageID)
	messageID = strings.TrimPrefix(messageID, "<")
	messageID = strings.TrimSuffix(messageID, ">")
	return messageID
}
