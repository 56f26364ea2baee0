// Package apperr defines the error kinds the API reports and maps any error
// onto an HTTP status and JSON body.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindInternal     Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Field reports a single invalid field.
func Field(field, msg string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "validation failed",
		Fields:  map[string]string{field: msg},
	}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// NotFoundOr turns gorm.ErrRecordNotFound into a 404 with msg and wraps anything
// else as internal.
func NotFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(msg)
	}
	return Internal("database error", err)
}

// Binding classifies an error from decoding a request body. Anything the
// decoder or a field's UnmarshalJSON rejects is the client's fault, so it is
// reported as a validation failure rather than falling through to 500.
func Binding(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var appErr *Error
	switch {
	case errors.As(err, &verrs), errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.As(err, &appErr),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return err
	}
	return &Error{Kind: KindValidation, Message: "request body has an invalid value", Err: err}
}

type Body struct {
	Error  string            `json:"error"`
	Code   Kind              `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Response maps err onto a status code and body. Unknown errors never leak their text.
func Response(err error) (int, Body) {
	var appErr *Error
	if errors.As(err, &appErr) {
		msg := appErr.Message
		if appErr.Kind == KindInternal {
			msg = "internal server error"
		}
		return appErr.Status(), Body{Error: msg, Code: appErr.Kind, Fields: appErr.Fields}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldName(fe)] = describe(fe)
		}
		return http.StatusBadRequest, Body{Error: "validation failed", Code: KindValidation, Fields: fields}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest, Body{Error: "malformed JSON body", Code: KindValidation}
	case errors.As(err, &typeErr):
		return http.StatusBadRequest, Body{
			Error:  "validation failed",
			Code:   KindValidation,
			Fields: map[string]string{typeErr.Field: "has the wrong type"},
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, Body{Error: "not found", Code: KindNotFound}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusBadRequest, Body{Error: "resource already exists", Code: KindValidation}
	}

	return http.StatusInternalServerError, Body{Error: "internal server error", Code: KindInternal}
}

func fieldName(fe validator.FieldError) string {
	// Namespace is "Struct.field.sub"; drop the struct name.
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "must be a valid URL"
	default:
		return "failed the " + fe.Tag() + " check"
	}
}
