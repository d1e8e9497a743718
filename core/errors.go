package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput          = "QUALITY_HOOKS_BAD_INPUT"
	ErrorNotFound          = "QUALITY_HOOKS_NOT_FOUND"
	ErrorDeliveryFailed    = "QUALITY_HOOKS_DELIVERY_FAILED"
	ErrorPayloadFailed     = "QUALITY_HOOKS_PAYLOAD_FAILED"
	ErrorStorageFailed     = "QUALITY_HOOKS_STORAGE_FAILED"
	ErrorExternalFailure   = "QUALITY_HOOKS_EXTERNAL_FAILURE"
	ErrorNotConfigured     = "QUALITY_HOOKS_NOT_CONFIGURED"
	ErrorInternal          = "QUALITY_HOOKS_INTERNAL_ERROR"
	ErrorResolutionSkipped = "QUALITY_HOOKS_RESOLUTION_SKIPPED"
)

// NewError builds a categorized error with the module's text code and HTTP
// status defaults.
func NewError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureEnvelope(goerrors.New(message, category).WithTextCode(textCode))
}

// WrapError wraps source keeping it reachable through errors.Is/As.
func WrapError(source error, category goerrors.Category, textCode string, message string) *goerrors.Error {
	if source == nil {
		return NewError(message, category, textCode)
	}
	return ensureEnvelope(goerrors.Wrap(source, category, message).WithTextCode(textCode))
}

func NotConfiguredError(message string) error {
	return NewError(message, goerrors.CategoryInternal, ErrorNotConfigured)
}

func NotFoundError(message string) error {
	return NewError(message, goerrors.CategoryNotFound, ErrorNotFound)
}

func validationError(field string, message string) error {
	return goerrors.NewValidation(message, goerrors.FieldError{
		Field:   field,
		Message: message,
	}).
		WithCode(http.StatusBadRequest).
		WithTextCode(ErrorBadInput).
		WithSeverity(goerrors.SeverityError)
}

// MapError converts any error into a *goerrors.Error with stable codes.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "not found"):
		return NewError(err.Error(), goerrors.CategoryNotFound, ErrorNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return NewError(err.Error(), goerrors.CategoryBadInput, ErrorBadInput)
	case strings.Contains(msg, "not configured"):
		return NewError(err.Error(), goerrors.CategoryInternal, ErrorNotConfigured)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureEnvelope(mapped)
}

func ensureEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryExternal:
		return ErrorExternalFailure
	default:
		return ErrorInternal
	}
}

func httpStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
