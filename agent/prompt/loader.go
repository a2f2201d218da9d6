package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/concierge.txt
var conciergeRaw string

// Concierge returns the trimmed system prompt for the chat agent. Safe to
// call concurrently; the embed is compile-time.
func Concierge() string {
	return strings.TrimSpace(conciergeRaw)
}
