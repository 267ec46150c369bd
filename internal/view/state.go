package view

import (
	"context"
	"errors"
	"net/http"

	"event-management/client/internal/events/domain"
	"event-management/client/internal/gateway"
	"event-management/client/internal/session"
)

// ErrPermissionDenied is returned when policy refuses an action before any request is sent.
var ErrPermissionDenied = errors.New("view: permission denied")

// State is what a page shows for a read.
type State int

// The zero State is Loading.
const (
	StateLoading State = iota
	StateEmpty
	StateError
	StatePopulated
	StateNotFound
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StateError:
		return "error"
	case StatePopulated:
		return "populated"
	case StateNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// ErrorKind groups failures by how a page reacts to them.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindAuth
	KindValidation
	KindPermission
	KindNotFound
	KindConflict
	KindNetwork
	KindUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindNetwork:
		return "network"
	default:
		return "unexpected"
	}
}

// Classify maps err to an ErrorKind.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, session.ErrNotAuthenticated):
		return KindAuth
	case errors.Is(err, ErrPermissionDenied):
		return KindPermission
	case errors.Is(err, domain.ErrValidation):
		return KindValidation
	case errors.Is(err, context.Canceled):
		return KindUnexpected
	}
	switch status := gateway.StatusOf(err); {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusForbidden:
		return KindPermission
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status >= 500:
		return KindNetwork
	case status != 0:
		return KindUnexpected
	}
	if gateway.IsRetryable(err) {
		return KindNetwork
	}
	return KindUnexpected
}

// Result is a read as a page renders it.
type Result[T any] struct {
	Data    T
	State   State
	Kind    ErrorKind
	Err     error
	Message string
}

func resultOf[T any](v T, err error, empty func(T) bool) Result[T] {
	if err != nil {
		r := Result[T]{State: StateError, Kind: Classify(err), Err: err, Message: messageOf(err, MsgUnexpected)}
		if r.Kind == KindNotFound {
			r.State = StateNotFound
		}
		return r
	}
	if empty != nil && empty(v) {
		return Result[T]{Data: v, State: StateEmpty}
	}
	return Result[T]{Data: v, State: StatePopulated}
}

func isEmpty[E any](s []E) bool { return len(s) == 0 }

// messageOf is the message to show for err: a local validation message, then the server's
// message, then fallback.
func messageOf(err error, fallback string) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		return apiErr.MessageOr(fallback)
	}
	return fallback
}
