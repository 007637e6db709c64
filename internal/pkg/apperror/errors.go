package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest        ErrorCode = "BAD_REQUEST"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeAlreadyEscalated  ErrorCode = "ALREADY_ESCALATED"
	ErrCodeInvalidReportSet  ErrorCode = "INVALID_REPORT_SET"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeInvalidCoordinate ErrorCode = "INVALID_COORDINATE"
	ErrCodeInvalidRadius     ErrorCode = "INVALID_RADIUS"
	ErrCodeStore             ErrorCode = "STORE_ERROR"
	ErrCodeRateLimited       ErrorCode = "RATE_LIMITED"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	// Fields перечисляет поля или идентификаторы, из-за которых запрос отклонён.
	Fields []string
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if len(e.Fields) > 0 {
		msg += " [" + strings.Join(e.Fields, ", ") + "]"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s (caused by: %v)", msg, e.Cause)
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// WithFields возвращает ошибку с указанным списком полей.
func WithFields(code ErrorCode, message string, fields ...string) *AppError {
	e := New(code, message)
	e.Fields = fields
	return e
}

// Validation создаёт VALIDATION_ERROR со списком проблемных полей.
func Validation(message string, fields ...string) *AppError {
	return WithFields(ErrCodeValidation, message, fields...)
}

// Store оборачивает сбой хранилища. Повторять такие запросы безопасно только для чтения.
func Store(err error, message string) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, ErrCodeStore, message)
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeInvalidCoordinate, ErrCodeInvalidRadius:
		return http.StatusBadRequest
	case ErrCodeAlreadyEscalated, ErrCodeInvalidTransition:
		return http.StatusConflict
	case ErrCodeInvalidReportSet:
		return http.StatusUnprocessableEntity
	case ErrCodeStore:
		return http.StatusServiceUnavailable
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// HasCode проверяет код ошибки по всей цепочке обёрток.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return HasCode(err, ErrCodeNotFound)
}

func IsValidation(err error) bool {
	return HasCode(err, ErrCodeValidation)
}

func IsAlreadyEscalated(err error) bool {
	return HasCode(err, ErrCodeAlreadyEscalated)
}

func IsInvalidTransition(err error) bool {
	return HasCode(err, ErrCodeInvalidTransition)
}

var (
	ErrReportNotFound     = New(ErrCodeNotFound, "отчёт не найден")
	ErrAssignmentNotFound = New(ErrCodeNotFound, "назначение не найдено")
	ErrPincodeNotFound    = New(ErrCodeNotFound, "PIN-код не найден в справочнике")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
)
