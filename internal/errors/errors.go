package errors

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrAlreadyExists        = errors.New("resource already exists")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidToken         = errors.New("invalid token")
	ErrWrongTokenClass      = errors.New("token class mismatch")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenRevoked         = errors.New("token revoked")
	ErrTooManyAttempts      = errors.New("too many failed attempts")
	ErrQuotaExceeded        = errors.New("request quota exceeded")
	ErrDatabaseError        = errors.New("database error")
	ErrCacheError           = errors.New("cache error")
	ErrBillingProviderError = errors.New("billing provider error")
)

type Error struct {
	Err     error
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
		Code:    "INTERNAL_ERROR",
	}
}
