package content

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.UGCPolicy()

// SanitizeMessage removes unsafe HTML from a chat message before it is
// persisted and broadcast. Clients render messages as-is, so anything that
// survives here ends up in every room member's DOM.
func SanitizeMessage(input string) string {
	return strings.TrimSpace(policy.Sanitize(input))
}
