package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dshills/kbcontext-mcp/internal/storage"
)

// Code is the error code reported to callers
type Code string

// Error codes
const (
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeDuplicateName     Code = "DUPLICATE_NAME"
	CodeDuplicateFilename Code = "DUPLICATE_FILENAME"
	CodeFileProcessing    Code = "FILE_PROCESSING_ERROR"
	CodeTimeout           Code = "TIMEOUT_ERROR"
	CodeDatabase          Code = "DATABASE_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeInternal          Code = "INTERNAL_ERROR"
)

// Error is a pipeline failure carrying a caller-facing code
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func validationError(format string, args ...interface{}) *Error {
	return newError(CodeValidation, fmt.Sprintf(format, args...), nil)
}

// CodeOf returns the code carried by err, or INTERNAL_ERROR
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// storeError classifies a storage failure
func storeError(message string, err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return newError(CodeTimeout, message, err)
	case errors.Is(err, storage.ErrNotFound):
		return newError(CodeNotFound, message, err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return duplicateError(err)
	case errors.Is(err, storage.ErrInvalidDocument), errors.Is(err, storage.ErrDimensionMismatch):
		return newError(CodeValidation, message, err)
	default:
		return newError(CodeDatabase, message, err)
	}
}

// duplicateError maps a unique index violation to the duplicate code of the column
func duplicateError(err error) *Error {
	if strings.Contains(err.Error(), "source_filename") {
		return newError(CodeDuplicateFilename, "a document with this filename already exists", err)
	}
	return newError(CodeDuplicateName, "a document with this name already exists", err)
}

// embedError classifies an embedding failure
func embedError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(CodeTimeout, "embedding timed out", err)
	}
	return newError(CodeFileProcessing, "failed to generate embedding", err)
}
