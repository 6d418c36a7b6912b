package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the taxonomy every service error is mapped onto.
type ErrorCode string

const (
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeDuplicate          ErrorCode = "DUPLICATE"
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeIntegration        ErrorCode = "INTEGRATION_ERROR"
	ErrCodeDeclinedPayment    ErrorCode = "DECLINED_PAYMENT"
	ErrCodeUnknown            ErrorCode = "UNKNOWN_ERROR"
)

// AppError is the error type returned across service boundaries
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NotFound(message string) *AppError {
	return NewAppError(ErrCodeNotFound, message, nil)
}

func BadRequest(message string) *AppError {
	return NewAppError(ErrCodeBadRequest, message, nil)
}

func Duplicate(message string) *AppError {
	return NewAppError(ErrCodeDuplicate, message, nil)
}

func ServiceUnavailable(message string) *AppError {
	return NewAppError(ErrCodeServiceUnavailable, message, nil)
}

func Integration(message string, err error) *AppError {
	return NewAppError(ErrCodeIntegration, message, err)
}

func DeclinedPayment(message string, err error) *AppError {
	return NewAppError(ErrCodeDeclinedPayment, message, err)
}

func Unknown(message string, err error) *AppError {
	return NewAppError(ErrCodeUnknown, message, err)
}

// IsAppError reports whether err (or anything it wraps) is an AppError
func IsAppError(err error) bool {
	return GetAppError(err) != nil
}

// GetAppError returns the first AppError in err's chain, or nil
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Code == code
}

// Wrap turns err into an AppError with code unless it already is one.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	if IsAppError(err) {
		return err
	}
	return NewAppError(code, message, err)
}

// Prefix keeps the code of an AppError and prepends context to its message.
// Other errors become UNKNOWN_ERROR.
func Prefix(err error, prefix string) error {
	if err == nil {
		return nil
	}
	if appErr := GetAppError(err); appErr != nil {
		return NewAppError(appErr.Code, prefix+": "+appErr.Message, appErr.Err)
	}
	return NewAppError(ErrCodeUnknown, prefix, err)
}

// HTTPStatus maps a code to the status the HTTP surface answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeBadRequest:
		return http.StatusBadRequest
	case ErrCodeDuplicate:
		return http.StatusConflict
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeIntegration:
		return http.StatusBadGateway
	case ErrCodeDeclinedPayment:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

var (
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrAlreadyCanceled    = errors.New("reservation already canceled")
	ErrAlreadyCompleted   = errors.New("reservation already completed")
)
