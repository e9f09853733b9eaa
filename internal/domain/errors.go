package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsValidation reports whether err wraps a DomainError with ErrCodeValidation
func IsValidation(err error) bool {
	var domErr *DomainError
	return errors.As(err, &domErr) && domErr.Code == ErrCodeValidation
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeUnavailable   = "UNAVAILABLE"
)

// Pipeline error codes
const (
	ErrCodeNetworkFailure     = "NETWORK_FAILURE"
	ErrCodeBotDetected        = "BOT_DETECTED"
	ErrCodeParseFailure       = "PARSE_FAILURE"
	ErrCodeExtractionEmpty    = "EXTRACTION_EMPTY"
	ErrCodeRenderFailure      = "RENDER_FAILURE"
	ErrCodeEmbedding          = "EMBEDDING_ERROR"
	ErrCodePersistenceFailure = "PERSISTENCE_FAILURE"
)

// Validation errors
var (
	ErrInvalidSourceType      = NewDomainError(ErrCodeValidation, "invalid source type")
	ErrInvalidIngestJobStatus = NewDomainError(ErrCodeValidation, "invalid ingest job status")
	ErrInvalidChunkConfig     = NewDomainError(ErrCodeValidation, "overlap size must be smaller than chunk size")
	ErrMissingRequiredField   = NewDomainError(ErrCodeValidation, "missing required field")
	ErrEmptyQuery             = NewDomainError(ErrCodeValidation, "query cannot be empty")
)

// Not found errors
var (
	ErrSourceNotFound      = NewDomainError(ErrCodeNotFound, "source not found")
	ErrIngestJobNotFound   = NewDomainError(ErrCodeNotFound, "ingest job not found")
	ErrRawDocumentNotFound = NewDomainError(ErrCodeNotFound, "raw document not archived")
)

// Feature errors
var (
	ErrArchiveNotConfigured = NewDomainError(ErrCodeUnavailable, "raw document archive not configured")
)

// ExtractionKind classifies a per-candidate extraction failure
type ExtractionKind string

const (
	ExtractionNetwork     ExtractionKind = "network"
	ExtractionBotDetected ExtractionKind = "bot_detected"
	ExtractionParse       ExtractionKind = "parse"
	ExtractionEmpty       ExtractionKind = "empty"
	ExtractionRender      ExtractionKind = "render"
)

// ExtractionError is returned when a candidate cannot be turned into text.
// The pipeline drops the candidate and continues.
type ExtractionError struct {
	Kind       ExtractionKind
	URL        string
	StatusCode int
	Err        error
}

func (e *ExtractionError) Error() string {
	msg := fmt.Sprintf("extract %s: %s", e.URL, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Code maps the failure onto the domain error code taxonomy
func (e *ExtractionError) Code() string {
	switch e.Kind {
	case ExtractionNetwork:
		return ErrCodeNetworkFailure
	case ExtractionBotDetected:
		return ErrCodeBotDetected
	case ExtractionParse:
		return ErrCodeParseFailure
	case ExtractionEmpty:
		return ErrCodeExtractionEmpty
	case ExtractionRender:
		return ErrCodeRenderFailure
	}
	return ErrCodeInternalError
}

// NewExtractionError creates an ExtractionError for url
func NewExtractionError(kind ExtractionKind, url string, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, URL: url, Err: err}
}

// IsExtractionKind reports whether err is an ExtractionError of the given kind
func IsExtractionKind(err error, kind ExtractionKind) bool {
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return extErr.Kind == kind
	}
	return false
}

// EmbeddingError is returned when an embedding batch cannot be generated or
// stored. It aborts the remaining batches of a pass.
type EmbeddingError struct {
	Batch   int
	Written int
	Err     error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("[%s] embedding batch %d failed after %d chunks written: %v", ErrCodeEmbedding, e.Batch, e.Written, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
