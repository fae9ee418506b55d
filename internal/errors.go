package internal

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

type ErrorKind string

const (
	KindInput       ErrorKind = "input"
	KindNotFound    ErrorKind = "not_found"
	KindForbidden   ErrorKind = "forbidden"
	KindUnavailable ErrorKind = "unavailable"
	KindInternal    ErrorKind = "internal"
)

// Error is what every failure on the caption path is reduced to before it reaches a client.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error

	// stack is Err (or Msg) annotated with the call stack at creation.
	stack error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, err error, format string, args ...any) *Error {
	e := &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
	if err != nil {
		e.stack = errors.WithStack(err)
	} else {
		e.stack = errors.New(e.Msg)
	}
	return e
}

func InputError(format string, args ...any) *Error {
	return newError(KindInput, nil, format, args...)
}

func NotFoundError(err error, format string, args ...any) *Error {
	return newError(KindNotFound, err, format, args...)
}

func ForbiddenError(format string, args ...any) *Error {
	return newError(KindForbidden, nil, format, args...)
}

func UnavailableError(err error, format string, args ...any) *Error {
	return newError(KindUnavailable, err, format, args...)
}

func InternalError(err error, format string, args ...any) *Error {
	return newError(KindInternal, err, format, args...)
}

// AsError classifies any error. Context expiry counts as unavailable, anything unknown as internal.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindUnavailable, Msg: err.Error(), stack: errors.WithStack(err)}
	}
	return &Error{Kind: KindInternal, Msg: err.Error(), stack: errors.WithStack(err)}
}

func (k ErrorKind) Status() int {
	switch k {
	case KindInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Trace renders the error chain with the stack recorded where it was created.
func (e *Error) Trace() []string {
	if e.stack == nil {
		return []string{e.Msg}
	}
	return TraceLines(fmt.Sprintf("%+v", e.stack))
}

func TraceLines(s string) []string {
	s = strings.ReplaceAll(s, "\"", "'")
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i := range lines {
		lines[i] = strings.ReplaceAll(lines[i], "\t", "   ")
	}
	return lines
}

func (e *Error) Body() ErrorBody {
	return ErrorBody{
		Msg:   e.Error(),
		Kind:  string(e.Kind),
		Trace: e.Trace(),
	}
}
