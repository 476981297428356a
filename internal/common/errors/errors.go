// Package errors provides standardized error codes for the advisory pipeline.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeClassificationFailed ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeLLMTimeout           ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMSynthesisFailed   ErrorCode = "LLM_SYNTHESIS_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeVectorSearchFailed ErrorCode = "VECTOR_SEARCH_FAILED"
	ErrCodeSearchTimeout      ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound      ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeInvalidToolInput ErrorCode = "INVALID_TOOL_INPUT"
	ErrCodeUnknownTool      ErrorCode = "UNKNOWN_TOOL"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// New creates a StandardError with the given code and message.
func New(code ErrorCode, message string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable(code),
		Timestamp: time.Now().UTC(),
	}
}

// Wrap creates a StandardError carrying the underlying error as details.
func Wrap(code ErrorCode, message string, err error) *StandardError {
	se := New(code, message)
	if err != nil {
		se.Details = err.Error()
	}
	return se
}

// Normalize ensures any error is a StandardError.
func Normalize(err error) *StandardError {
	if se, ok := err.(*StandardError); ok {
		return se
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func retryable(code ErrorCode) bool {
	switch code {
	case ErrCodeLLMTimeout, ErrCodeQueryTimeout, ErrCodeSearchTimeout,
		ErrCodeDatabaseConnectionFailed:
		return true
	}
	return false
}
