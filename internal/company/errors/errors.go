package errors

import (
	"fmt"
	"net/http"
)

var (
	ErrNotFound     = fmt.Errorf("not found")
	ErrConflict     = fmt.Errorf("conflict")
	ErrInvalidInput = fmt.Errorf("invalid input")
	ErrInternal     = fmt.Errorf("internal error")
)

// Kind is the domain-facing classification of a failure.
type Kind string

const (
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindBadRequest Kind = "BAD_REQUEST"
	KindInternal   Kind = "INTERNAL"
)

// HTTPStatus returns the HTTP status equivalent of k.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindBadRequest:
		return ErrInvalidInput
	default:
		return ErrInternal
	}
}

// Error is a classified failure. Message is safe to show to callers,
// Detail keeps the low-level diagnostic text for logs.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel matching Kind and the underlying cause,
// so errors.Is(err, ErrConflict) and errors.As(err, &pgErr) both work.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// NotFound builds a NOT_FOUND error for the entity with the given id.
func NotFound(entity string, id int64) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s with ID %d not found", entity, id),
	}
}
