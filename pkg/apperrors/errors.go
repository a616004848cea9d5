package apperrors

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Constructors
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func DuplicateAccount(msg string) error {
	return New(CodeDuplicateAccount, msg)
}

func InvalidCredentials(msg string) error {
	return New(CodeInvalidCredentials, msg)
}

func WeakPassword(msg string) error {
	return New(CodeWeakPassword, msg)
}

func ProfileAlreadyExists(msg string) error {
	return New(CodeProfileAlreadyExists, msg)
}

func ProfileNotFound(msg string) error {
	return New(CodeProfileNotFound, msg)
}

func MatchCreationFailed(msg string, cause error) error {
	return Wrap(CodeMatchCreationFailed, msg, cause)
}

func SendFailed(msg string, cause error) error {
	return Wrap(CodeSendFailed, msg, cause)
}

func Transport(msg string, cause error) error {
	return Wrap(CodeTransport, msg, cause)
}

func Unexpected(msg string, cause error) error {
	return Wrap(CodeUnknown, msg, cause)
}

// CodeOf extracts the category of err, walking the wrap chain. Errors that
// were never categorized report CodeUnknown.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
