package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorKind string

const (
	// KindRateLimited covers over-quota and credential rejection (429, 401).
	KindRateLimited ErrorKind = "rate_limited"
	// KindProvider is any other provider-reported status.
	KindProvider ErrorKind = "provider"
	// KindUnclassified is a failure without a provider status (transport, decode).
	KindUnclassified ErrorKind = "unclassified"
)

type Error struct {
	Provider string
	Kind     ErrorKind
	Status   int
	Detail   string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return "llm request failed"
	}
	provider := strings.TrimSpace(e.Provider)
	if provider == "" {
		provider = "llm"
	}
	detail := strings.TrimSpace(e.Detail)
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	if e.Status > 0 {
		if detail == "" {
			return fmt.Sprintf("%s http %d", provider, e.Status)
		}
		return fmt.Sprintf("%s http %d: %s", provider, e.Status, detail)
	}
	if detail == "" {
		return provider + ": request failed"
	}
	return provider + ": " + detail
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// StatusError classifies an HTTP status reported by a provider.
func StatusError(provider string, status int, detail string) *Error {
	kind := KindProvider
	if status == http.StatusTooManyRequests || status == http.StatusUnauthorized {
		kind = KindRateLimited
	}
	return &Error{Provider: provider, Kind: kind, Status: status, Detail: detail}
}

// Unclassified wraps err as a failure without a provider status.
func Unclassified(provider string, err error) *Error {
	return &Error{Provider: provider, Kind: KindUnclassified, Err: err}
}

// KindOf reports the kind of err, or KindUnclassified when err carries no *Error.
func KindOf(err error) ErrorKind {
	var llmErr *Error
	if errors.As(err, &llmErr) && llmErr != nil && llmErr.Kind != "" {
		return llmErr.Kind
	}
	return KindUnclassified
}

// StatusOf returns the provider status carried by err, or 0.
func StatusOf(err error) int {
	var llmErr *Error
	if errors.As(err, &llmErr) && llmErr != nil {
		return llmErr.Status
	}
	return 0
}

func IsRateLimited(err error) bool {
	return KindOf(err) == KindRateLimited
}

// HasStatus reports whether err is a provider failure with an HTTP status.
func HasStatus(err error) bool {
	return StatusOf(err) > 0
}
