package errs

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Application & Phase Review Workflow Errors
var (
	ErrValidation            = errors.New("validation error")
	ErrInvalidState          = errors.New("invalid state")
	ErrAlreadyApplied        = errors.New("already applied")
	ErrRegistrationClosed    = errors.New("registration closed")
	ErrResultsClosed         = errors.New("results already published")
	ErrReuploadLimitExceeded = errors.New("re-upload limit exceeded")
	ErrApplicationRejected   = errors.New("application rejected")
)

// NewValidationError reports a field-level payload violation.
func NewValidationError(field, reason string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrValidation,
		Details:    reason,
		Field:      field,
	}
}

func NewInvalidStateError(details string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrInvalidState,
		Details:    details,
	}
}

func NewAlreadyAppliedError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrAlreadyApplied,
		Details:    "An application for this hackathon already exists",
	}
}

func NewRegistrationClosedError(deadline time.Time) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusForbidden,
		err:        ErrRegistrationClosed,
		Details:    fmt.Sprintf("Registration closed at %s", deadline.UTC().Format(time.RFC3339)),
	}
}

func NewResultsClosedError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrResultsClosed,
		Details:    "Results have been published for this hackathon",
	}
}

func NewReuploadLimitExceededError(limit int) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrReuploadLimitExceeded,
		Details:    fmt.Sprintf("A phase submission may be sent back for re-upload at most %d times", limit),
		Field:      "reuploadCount",
	}
}

func NewApplicationRejectedError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrApplicationRejected,
		Details:    "The application has been rejected",
	}
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidStateError(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

func IsAlreadyAppliedError(err error) bool {
	return errors.Is(err, ErrAlreadyApplied)
}

func IsRegistrationClosedError(err error) bool {
	return errors.Is(err, ErrRegistrationClosed)
}

func IsResultsClosedError(err error) bool {
	return errors.Is(err, ErrResultsClosed)
}

func IsReuploadLimitExceededError(err error) bool {
	return errors.Is(err, ErrReuploadLimitExceeded)
}

func IsApplicationRejectedError(err error) bool {
	return errors.Is(err, ErrApplicationRejected)
}
