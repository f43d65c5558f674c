package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
)

// ErrEmptyCompletion is returned when the provider answers without any content.
var ErrEmptyCompletion = errors.New("provider returned an empty completion")

// CallError is a failed call to the text-generation provider.
// StatusCode is 0 when no HTTP response was received.
type CallError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s call failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s call failed: %v", e.Provider, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether a failed call is worth one more attempt:
// network failures, 5xx, 408 and 429. Authentication failures, other 4xx
// and cancellation by the caller are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var callErr *CallError
	if errors.As(err, &callErr) && callErr.StatusCode != 0 {
		return isTransientStatus(callErr.StatusCode)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func isTransientStatus(code int) bool {
	switch {
	case code >= http.StatusInternalServerError:
		return true
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

var statusCodePattern = regexp.MustCompile(`status code:? (\d{3})`)

// statusFromMessage recovers the HTTP status from clients that only report it in
// the error text ("API returned unexpected status code: 503: ...").
func statusFromMessage(err error) int {
	m := statusCodePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	code, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return 0
	}
	return code
}
