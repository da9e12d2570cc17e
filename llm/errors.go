package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"unicode/utf8"
)

// ErrorKind classifies a failed LLM call.
type ErrorKind string

// Error kinds. Only KindAuth is fatal; every other kind is retried.
const (
	KindRateLimit ErrorKind = "rate_limit"
	KindAuth      ErrorKind = "auth"
	KindNetwork   ErrorKind = "network"
	KindUnknown   ErrorKind = "unknown"
)

// Retryable reports whether a call that failed with this kind may be retried.
func (k ErrorKind) Retryable() bool {
	return k != KindAuth
}

// Error is a classified LLM transport failure.
type Error struct {
	Kind       ErrorKind
	Provider   ProviderName
	StatusCode int

	// Attempts is the number of calls made before giving up. Set by the Client.
	Attempts int

	err error
}

func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s (%s): %v", e.Provider, e.Kind, e.err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// NewError wraps err with an explicit kind.
func NewError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, err: err}
}

// KindOf returns the kind of a classified error, classifying it first if needed.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Classify(err)
}

// IsFatal returns true if the error should not be retried.
func IsFatal(err error) bool {
	return err != nil && !KindOf(err).Retryable()
}

// IsTransient returns true if the error may succeed on retry.
func IsTransient(err error) bool {
	return err != nil && KindOf(err).Retryable()
}

var (
	rateLimitMarkers = []string{"rate limit", "rate_limit", "ratelimit", "too many requests", "429", "quota"}
	authMarkers      = []string{"unauthorized", "forbidden", "invalid api key", "invalid_api_key", "incorrect api key", "authentication", "401", "403"}
	networkMarkers   = []string{"network", "timeout", "timed out", "connection refused", "connection reset", "econnreset", "econnrefused", "no such host", "eof", "fetch failed"}
)

// Classify assigns a kind to an arbitrary error by inspecting its type and
// message. Providers surface errors differently, so this is a heuristic;
// status codes are preferred via classifyHTTPError when available.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, rateLimitMarkers):
		return KindRateLimit
	case containsAny(msg, authMarkers):
		return KindAuth
	case containsAny(msg, networkMarkers):
		return KindNetwork
	default:
		return KindUnknown
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// maxErrorBody is the number of runes of a response body kept in an error.
const maxErrorBody = 200

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// classifyHTTPError maps an HTTP status to an error kind.
func classifyHTTPError(provider ProviderName, statusCode int, body []byte) *Error {
	bodyStr := truncate(string(body), maxErrorBody)

	e := &Error{
		Provider:   provider,
		StatusCode: statusCode,
		err:        fmt.Errorf("LLM API error (status %d): %s", statusCode, bodyStr),
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		e.Kind = KindRateLimit
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden:
		e.Kind = KindAuth
	case statusCode == http.StatusRequestTimeout,
		statusCode == http.StatusBadGateway,
		statusCode == http.StatusServiceUnavailable,
		statusCode == http.StatusGatewayTimeout:
		e.Kind = KindNetwork
	default:
		// Some providers report quota or key problems with a 400 body.
		e.Kind = Classify(e.err)
	}
	return e
}
