package api

import (
	"errors"
	"fmt"
	"net/http"

	repository "github.com/okian/skillrate/internal/adapters/repository"
	service "github.com/okian/skillrate/internal/app"
	"github.com/okian/skillrate/internal/domain/rating"
	"github.com/okian/skillrate/internal/domain/roster"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrBackpressure = errors.New("backpressure")
	ErrComputation  = errors.New("computation failed")
	ErrUnavailable  = errors.New("unavailable")
	ErrInternal     = errors.New("internal error")
)

// Error tags a failure with the handler operation and its kind.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewKind returns an error of kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind tags err with an explicit kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap tags err with the kind implied by its cause.
func Wrap(op string, err error) error {
	return &Error{Op: op, Kind: classify(err), Err: err}
}

func classify(err error) error {
	var ve *roster.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, roster.ErrNoTeams),
		errors.Is(err, roster.ErrTooFewTeams),
		errors.Is(err, roster.ErrTooManyTeams),
		errors.Is(err, service.ErrInvalidConfig),
		errors.Is(err, service.ErrInvalidMatch),
		errors.Is(err, repository.ErrInvalidLimit),
		errors.Is(err, repository.ErrInvalidRating):
		return ErrBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, service.ErrBackpressure):
		return ErrBackpressure
	case errors.Is(err, rating.ErrComputation):
		return ErrComputation
	case errors.Is(err, service.ErrNotStarted):
		return ErrUnavailable
	}
	return ErrInternal
}

// statusOf maps an error to its HTTP status and wire code.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrComputation):
		return http.StatusUnprocessableEntity, "computation_failed"
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}
