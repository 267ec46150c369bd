package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultMessageKeys is the order ExtractMessage tries when no keys are given.
var DefaultMessageKeys = []string{"error", "message", "detail", "non_field_errors"}

// APIError is a non-2xx response from the remote API.
type APIError struct {
	Method string
	Path   string
	Status int
	// Body is the raw response body.
	Body []byte
	// Message is the server's human-readable message, when one could be found.
	Message string
}

func newAPIError(method, path string, resp *Response) *APIError {
	return &APIError{
		Method:  method,
		Path:    path,
		Status:  resp.Status,
		Body:    resp.Body,
		Message: ExtractMessage(resp.Body),
	}
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("gateway: %s %s: %d: %s", e.Method, e.Path, e.Status, msg)
}

// MessageOr returns the first message found in the body under keys, else fallback.
func (e *APIError) MessageOr(fallback string, keys ...string) string {
	if msg := ExtractMessage(e.Body, keys...); msg != "" {
		return msg
	}
	return fallback
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an *APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsRetryable reports whether err is a transport failure or a 5xx response.
// Cancellation, 4xx responses and undecodable bodies are never retryable.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return false
	}
	if status := StatusOf(err); status != 0 {
		return status >= 500
	}
	return true
}

// ExtractMessage finds a human-readable message in a JSON error body. Each key is a gjson
// path; an array value yields its first element. With no keys it tries DefaultMessageKeys
// and then the first field error of a validation body such as {"title":["required"]}.
// Non-JSON bodies yield "".
func ExtractMessage(body []byte, keys ...string) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return firstString(root)
	}
	fieldFallback := len(keys) == 0
	if fieldFallback {
		keys = DefaultMessageKeys
	}
	for _, k := range keys {
		if msg := firstString(root.Get(k)); msg != "" {
			return msg
		}
	}
	if !fieldFallback {
		return ""
	}
	var msg string
	root.ForEach(func(_, value gjson.Result) bool {
		msg = firstString(value)
		return msg == ""
	})
	return msg
}

func firstString(r gjson.Result) string {
	switch {
	case r.IsArray():
		for _, el := range r.Array() {
			if msg := firstString(el); msg != "" {
				return msg
			}
		}
		return ""
	case r.Type == gjson.String:
		return strings.TrimSpace(r.Str)
	default:
		return ""
	}
}
