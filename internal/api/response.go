package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloo-solutions/gleaner/internal/domain"
)

// SuccessResponse wraps successful API responses
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Success writes a successful JSON response
func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

// Error writes an error JSON response
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// ErrorCode returns the domain error code carried by err, or INTERNAL_ERROR
func ErrorCode(err error) string {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	var extErr *domain.ExtractionError
	if errors.As(err, &extErr) {
		return extErr.Code()
	}
	var embErr *domain.EmbeddingError
	if errors.As(err, &embErr) {
		return domain.ErrCodeEmbedding
	}
	return domain.ErrCodeInternalError
}

// DomainErrorToHTTP maps domain errors to HTTP status codes
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch ErrorCode(err) {
	case domain.ErrCodeValidation:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case domain.ErrCodeEmbedding, domain.ErrCodeNetworkFailure, domain.ErrCodeBotDetected, domain.ErrCodeRenderFailure:
		return http.StatusBadGateway
	case domain.ErrCodeParseFailure, domain.ErrCodeExtractionEmpty:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// HandleError writes an appropriate error response based on the error type
func HandleError(w http.ResponseWriter, err error) {
	JSON(w, DomainErrorToHTTP(err), ErrorResponse{Error: err.Error(), Code: ErrorCode(err)})
}
