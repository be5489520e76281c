package generation

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\s*```$")

// Normalize strips a wrapping markdown code fence from provider output and
// sanitises the remaining HTML.
func Normalize(policy *bluemonday.Policy, raw string) string {
	text := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if policy != nil {
		text = policy.Sanitize(text)
	}
	return strings.TrimSpace(text)
}
