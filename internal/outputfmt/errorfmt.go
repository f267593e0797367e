package outputfmt

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	absoluteURLInTextRE = regexp.MustCompile(`https?://[^\s"'<>]+`)
	botTokenPathRE      = regexp.MustCompile(`/bot[0-9]+:[A-Za-z0-9_-]+`)
)

// FormatErrorForDisplay sanitizes error text sent to chat users, such as
// operator notices. URL hosts are dropped and credentials redacted.
func FormatErrorForDisplay(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeErrorText(err.Error())
}

// SanitizeErrorText removes URL hosts from arbitrary text while keeping
// path/query/fragment details.
func SanitizeErrorText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return absoluteURLInTextRE.ReplaceAllStringFunc(raw, func(s string) string {
		return sanitizeURL(s, false)
	})
}

// RedactErrorText keeps URL hosts, for logs, but masks bot tokens in Bot API
// paths and sensitive query values.
func RedactErrorText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return absoluteURLInTextRE.ReplaceAllStringFunc(raw, func(s string) string {
		return sanitizeURL(s, true)
	})
}

func sanitizeURL(raw string, keepHost bool) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || strings.TrimSpace(u.Scheme) == "" || strings.TrimSpace(u.Host) == "" {
		return botTokenPathRE.ReplaceAllString(raw, "/bot[redacted]")
	}
	path := botTokenPathRE.ReplaceAllString(u.EscapedPath(), "/bot[redacted]")
	if path == "" {
		path = "/"
	}
	if q := redactSensitiveQuery(u.Query()); q != "" {
		path += "?" + q
	}
	if frag := strings.TrimSpace(u.EscapedFragment()); frag != "" {
		path += "#" + frag
	}
	if keepHost {
		return u.Scheme + "://" + u.Host + path
	}
	return path
}

func redactSensitiveQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	for k := range q {
		if isSensitiveQueryKey(k) {
			q.Set(k, "[redacted]")
		}
	}
	return q.Encode()
}

func isSensitiveQueryKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return false
	}
	n := strings.ReplaceAll(strings.ReplaceAll(k, "-", ""), "_", "")
	if n == "key" {
		return true
	}
	for _, marker := range []string{"apikey", "authorization", "token", "secret", "password"} {
		if strings.Contains(n, marker) {
			return true
		}
	}
	return false
}

// redactedError masks its cause's text but keeps it reachable for errors.Is.
type redactedError struct {
	cause error
	text  string
}

func (e *redactedError) Error() string { return e.text }
func (e *redactedError) Unwrap() error { return e.cause }

// RedactError wraps err so its message goes through RedactErrorText.
func RedactError(err error) error {
	if err == nil {
		return nil
	}
	return &redactedError{cause: err, text: RedactErrorText(err.Error())}
}
