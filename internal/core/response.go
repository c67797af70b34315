// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Envelope struct {
	Code    ResponseCode `json:"code"`
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if body == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Envelope{
		Code:    CodeOK,
		Message: CodeOK.Message(),
		Data:    data,
	})
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Envelope{
		Code:    CodeOK,
		Message: CodeOK.Message(),
		Data:    data,
	})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func Fail(w http.ResponseWriter, code ResponseCode, message string) {
	if message == "" {
		message = code.Message()
	}
	JSON(w, code.HTTPStatus(), Envelope{Code: code, Message: message})
}

// JSONError writes err using its response code. Internal errors are logged
// and reported without detail.
func JSONError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		Fail(w, appErr.Code, appErr.Message)
		return
	}

	code := CodeFor(err)
	if code == CodeInternalError {
		InternalServerError(w, err)
		return
	}

	Fail(w, code, "")
}

func BadRequest(w http.ResponseWriter, message string) {
	Fail(w, CodeParamError, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Fail(w, CodeUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	Fail(w, CodeForbidden, message)
}

func NotFound(w http.ResponseWriter, resource string) {
	Fail(w, CodeNotFound, resource+" not found")
}

func InternalServerError(w http.ResponseWriter, err error) {
	slog.Error("internal server error", "error", err)
	Fail(w, CodeInternalError, "")
}

func FormatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return "invalid request"
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}

	return strings.Join(msgs, "; ")
}
