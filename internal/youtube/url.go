package youtube

import (
	"regexp"
	"strings"
)

// Kind classifies the identifier found in a channel URL.
type Kind string

const (
	KindChannelID Kind = "channel_id"
	KindHandle    Kind = "handle"
	KindUsername  Kind = "username"
	KindCustom    Kind = "custom"
	KindSimple    Kind = "simple"
)

var urlPatterns = []struct {
	re   *regexp.Regexp
	kind Kind
}{
	{regexp.MustCompile(`(?i)youtube\.com/channel/(UC[a-zA-Z0-9_-]{22})`), KindChannelID},
	{regexp.MustCompile(`(?i)youtube\.com/@([a-zA-Z0-9_.-]+)`), KindHandle},
	{regexp.MustCompile(`(?i)youtube\.com/user/([a-zA-Z0-9_.-]+)`), KindUsername},
	{regexp.MustCompile(`(?i)youtube\.com/c/([a-zA-Z0-9_.-]+)`), KindCustom},
	{regexp.MustCompile(`(?i)youtube\.com/([a-zA-Z0-9_.-]+)$`), KindSimple},
}

// CleanURL trims whitespace, trailing slashes and the query string.
func CleanURL(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, "/")
}

// ParseChannelURL extracts the channel identifier and its kind from a
// YouTube channel URL. ok is false when no known form matches.
func ParseChannelURL(raw string) (identifier string, kind Kind, ok bool) {
	clean := CleanURL(raw)
	for _, p := range urlPatterns {
		if m := p.re.FindStringSubmatch(clean); m != nil {
			return m[1], p.kind, true
		}
	}
	return "", "", false
}
