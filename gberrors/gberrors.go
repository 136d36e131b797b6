package gberrors

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// IException provides interface for
//   - user facing error message with status code
//   - raw error for tracking them
type IException interface {
	ExceptionBody() map[string]interface{}
	ExceptionStatusCode() int
	RawException() error
}

type Error struct {
	Code       int
	Message    string
	StatusCode int
	RawError   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v (Code = %v)", e.Message, e.Code)
}

func (e *Error) ExceptionBody() map[string]interface{} {
	return map[string]interface{}{"code": e.Code, "message": e.Message}
}

func (e *Error) ExceptionStatusCode() int {
	return e.StatusCode
}

func (e *Error) RawException() error {
	return e.RawError
}

// WithMsg modify user visible message
func (e Error) WithMsg(msg string) *Error {
	e.Message = msg
	return &e
}

// WithMsgf is WithMsg with formatting
func (e Error) WithMsgf(format string, args ...interface{}) *Error {
	e.Message = fmt.Sprintf(format, args...)
	return &e
}

// WithError returns raw error struct which is not exposed to user.
// It is used for internal error tracking.
func (e Error) WithError(err error) *Error {
	e.RawError = err
	return &e
}

func New(code int, message string, statusCode int) *Error {
	return &Error{Code: code, Message: message, StatusCode: statusCode}
}

func NewInternalServerError(code int, message string) *Error {
	return New(code, message, http.StatusInternalServerError)
}

func NewUnprocessableEntity(code int, message string) *Error {
	return New(code, message, http.StatusUnprocessableEntity)
}

func NewNotFound(code int, message string) *Error {
	return New(code, message, http.StatusNotFound)
}

func NewConflict(code int, message string) *Error {
	return New(code, message, http.StatusConflict)
}

func NewBadRequest(code int, message string) *Error {
	return New(code, message, http.StatusBadRequest)
}

func Format(err error) string {
	if gberr, ok := errors.Cause(err).(IException); ok && gberr.RawException() != nil {
		return fmt.Sprintf("%v : %v", err.Error(), gberr.RawException().Error())
	}
	return err.Error()
}

// Is reports whether err, or the error it wraps, carries the
// same code as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	if gberr, ok := errors.Cause(err).(*Error); ok {
		return gberr.Code == target.Code
	}
	return false
}

func IsNotFound(err error) bool {
	return Is(err, NotFound)
}

// code convention is http_status_code:custom_code where custom code starts from 10000
var (
	// 400
	InvalidInput     = NewBadRequest(40010000, "invalid input")
	InvalidDateRange = NewBadRequest(40010001, "as-of date precedes issued date")

	// 404
	NotFound = NewNotFound(40410000, "resource not found")

	// 409
	Conflict               = NewConflict(40910000, "resource conflict")
	AlreadyConverted       = NewConflict(40910001, "security is no longer active")
	ConcurrentModification = NewConflict(40910002, "cap table was modified concurrently")
	InvalidTransition      = NewConflict(40910003, "invalid status transition")

	// 422
	DivisionByZero         = NewUnprocessableEntity(42210000, "division by zero")
	NoApplicablePricing    = NewUnprocessableEntity(42210001, "round has no price per share")
	IncompleteCapTableData = NewUnprocessableEntity(42210002, "cap table data is incomplete")

	// 500
	InternalServerError = NewInternalServerError(50010000, "internal server error occurred")
	InvariantViolation  = NewInternalServerError(50010001, "cap table invariant violated")
)
