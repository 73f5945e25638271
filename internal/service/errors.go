package service

import (
	"errors"
	"strings"

	"github.com/cobach/sia-alumnos-api/internal/dto"
)

var (
	// ErrStudentNotFound indicates no student matched the lookup.
	ErrStudentNotFound = errors.New("student not found")
	// ErrCatalogNotFound indicates a catalog search returned nothing.
	ErrCatalogNotFound = errors.New("catalog entry not found")
	// ErrUnsupportedFileType indicates an upload is not a PDF document.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrDocumentTooLarge indicates an upload exceeds the configured size limit.
	ErrDocumentTooLarge = errors.New("document exceeds the maximum allowed size")
	// ErrDocumentStorage indicates a document could not be written to storage.
	ErrDocumentStorage = errors.New("document storage failed")
	// ErrStudentWriteFailed indicates the write procedure failed and was rolled back.
	ErrStudentWriteFailed = errors.New("student write failed")
)

// ValidationError carries the list of rejected fields.
type ValidationError struct {
	Fields []dto.FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, field.Field+": "+field.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(fields ...dto.FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}
