// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicateKey        = errors.New("duplicate key")
	ErrConflict            = errors.New("conflict")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountBlocked      = errors.New("account blocked")
	ErrAccountNotActivated = errors.New("account not activated")
	ErrAccountDeleted      = errors.New("account deleted")
	ErrDuplicatePassword   = errors.New("new password equals current password")
	ErrUnavailable         = errors.New("dependency unavailable")
	ErrNotSupported        = errors.New("not supported")
	ErrRateLimited         = errors.New("rate limited")
	ErrRegistrationClosed  = errors.New("registration disabled")
)

type ResponseCode int

const (
	CodeOK                ResponseCode = 200
	CodeBadRequest        ResponseCode = 400
	CodeUnauthorized      ResponseCode = 401
	CodeForbidden         ResponseCode = 403
	CodeNotFound          ResponseCode = 404
	CodeParamError        ResponseCode = 4000
	CodeUserNotFound      ResponseCode = 4010
	CodeCredentialInvalid ResponseCode = 4011
	CodeUserBlocked       ResponseCode = 4012
	CodeUserNotActivated  ResponseCode = 4013
	CodeUserExists        ResponseCode = 4014
	CodeEmailExists       ResponseCode = 4016
	CodeUserDeleted       ResponseCode = 4017
	CodeDuplicatePassword ResponseCode = 4018
	CodeRateLimited       ResponseCode = 4029
	CodeInternalError     ResponseCode = 5000
	CodeNotSupported      ResponseCode = 5001
)

var codeStatus = map[ResponseCode]int{
	CodeOK:                http.StatusOK,
	CodeBadRequest:        http.StatusBadRequest,
	CodeUnauthorized:      http.StatusUnauthorized,
	CodeForbidden:         http.StatusForbidden,
	CodeNotFound:          http.StatusNotFound,
	CodeParamError:        http.StatusBadRequest,
	CodeUserNotFound:      http.StatusNotFound,
	CodeCredentialInvalid: http.StatusUnauthorized,
	CodeUserBlocked:       http.StatusForbidden,
	CodeUserNotActivated:  http.StatusForbidden,
	CodeUserExists:        http.StatusConflict,
	CodeEmailExists:       http.StatusConflict,
	CodeUserDeleted:       http.StatusForbidden,
	CodeDuplicatePassword: http.StatusBadRequest,
	CodeRateLimited:       http.StatusTooManyRequests,
	CodeInternalError:     http.StatusInternalServerError,
	CodeNotSupported:      http.StatusNotImplemented,
}

func (c ResponseCode) HTTPStatus() int {
	if status, ok := codeStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

var codeMessages = map[ResponseCode]string{
	CodeOK:                "ok",
	CodeBadRequest:        "bad request",
	CodeUnauthorized:      "unauthorized",
	CodeForbidden:         "forbidden",
	CodeNotFound:          "not found",
	CodeParamError:        "invalid parameters",
	CodeUserNotFound:      "user not found",
	CodeCredentialInvalid: "invalid credentials",
	CodeUserBlocked:       "user is blocked",
	CodeUserNotActivated:  "user is not activated",
	CodeUserExists:        "user already exists",
	CodeEmailExists:       "email already exists",
	CodeUserDeleted:       "user has been deleted",
	CodeDuplicatePassword: "new password must differ from the current one",
	CodeRateLimited:       "too many requests",
	CodeInternalError:     "internal server error",
	CodeNotSupported:      "not supported",
}

func (c ResponseCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return codeMessages[CodeInternalError]
}

type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       ResponseCode
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, code ResponseCode) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: code.HTTPStatus(),
		Code:       code,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// CodeFor maps an error chain onto its response code. Unknown errors are
// internal errors.
func CodeFor(err error) ResponseCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}

	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrInvalidInput):
		return CodeParamError
	case errors.Is(err, ErrInvalidCredentials):
		return CodeCredentialInvalid
	case errors.Is(err, ErrAccountBlocked):
		return CodeUserBlocked
	case errors.Is(err, ErrAccountNotActivated):
		return CodeUserNotActivated
	case errors.Is(err, ErrAccountDeleted):
		return CodeUserDeleted
	case errors.Is(err, ErrDuplicatePassword):
		return CodeDuplicatePassword
	case errors.Is(err, ErrDuplicateKey):
		return CodeUserExists
	case errors.Is(err, ErrConflict):
		return CodeBadRequest
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrRegistrationClosed):
		return CodeForbidden
	case errors.Is(err, ErrNotSupported):
		return CodeNotSupported
	case errors.Is(err, ErrRateLimited):
		return CodeRateLimited
	default:
		return CodeInternalError
	}
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(ErrUnauthorized, message, CodeUnauthorized)
}

func ForbiddenError(message string) *AppError {
	return NewAppError(ErrForbidden, message, CodeForbidden)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(ErrNotFound, resource+" not found", CodeNotFound)
}

func UserNotFoundError() *AppError {
	return NewAppError(ErrNotFound, CodeUserNotFound.Message(), CodeUserNotFound)
}

func ParamError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, CodeParamError)
}

func UserExistsError() *AppError {
	return NewAppError(ErrDuplicateKey, CodeUserExists.Message(), CodeUserExists)
}

func EmailExistsError() *AppError {
	return NewAppError(ErrDuplicateKey, CodeEmailExists.Message(), CodeEmailExists)
}
