package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/exgt/exgt/internal"
)

// Kind classifies request failures.
type Kind int

const (
	// KindConfiguration means the environment lacks something required.
	KindConfiguration Kind = iota + 1

	// KindResolution means the addressed object does not exist or cannot be
	// shown.
	KindResolution

	// KindPipeline means a stage could not run or its output could not be
	// read.
	KindPipeline

	// KindAllocation means the request arena could not hold more.
	KindAllocation

	// KindNegotiation means the client accepts nothing exgt produces.
	KindNegotiation
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindResolution:
		return "resolution"
	case KindPipeline:
		return "pipeline"
	case KindAllocation:
		return "allocation"
	case KindNegotiation:
		return "negotiation"
	default:
		return "unknown"
	}
}

// Status returns the HTTP status reported for the kind.
func (k Kind) Status() int {
	switch k {
	case KindResolution:
		return http.StatusNotFound
	case KindNegotiation:
		return http.StatusNotAcceptable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified request failure. Message is shown to the client;
// Err is only logged.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func newError(kind Kind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Status:  kind.Status(),
		Message: message,
		Err:     err,
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// classify wraps an unclassified failure of a view.
func classify(message string, err error) *Error {
	var routeErr *Error
	if errors.As(err, &routeErr) {
		return routeErr
	}

	if errors.Is(err, internal.ErrArenaExhausted) || errors.Is(err, internal.ErrArenaDestroyed) {
		return newError(KindAllocation, "out of memory", err)
	}

	return newError(KindPipeline, message, err)
}
