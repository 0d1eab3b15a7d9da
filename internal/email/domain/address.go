package domain

import (
	"regexp"
	"strings"
)

var addressRe = regexp.MustCompile(`^"?([^"<]*)"?\s*<([^>]+)>`)

// ParseAddress parses a raw header value like `"Jane Doe" <jane@example.com>`
// into a name + address pair. Bare addresses come back with an empty name.
// Deliberately more permissive than net/mail: real-world From headers are
// frequently malformed and must still normalize.
func ParseAddress(raw string) EmailAddress {
	if m := addressRe.FindStringSubmatch(raw); m != nil {
		return EmailAddress{Name: strings.TrimSpace(m[1]), Email: strings.TrimSpace(m[2])}
	}
	return EmailAddress{Email: strings.TrimSpace(raw)}
}

// ParseAddressList parses a comma-separated recipient header
func ParseAddressList(raw string) []EmailAddress {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]EmailAddress, 0, len(parts))
	for _, p := range parts {
		out = append(out, ParseAddress(strings.TrimSpace(p)))
	}
	return out
}
