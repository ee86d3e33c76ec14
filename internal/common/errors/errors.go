// Package errors provides the structured error envelope shared by the copilot
// transports (HTTP, CLI, Zeebe jobs).
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidRequest           ErrorCode = "INVALID_REQUEST"
	ErrCodeClassificationFailed     ErrorCode = "CLASSIFICATION_FAILED"
	ErrCodeRetrievalFailed          ErrorCode = "RETRIEVAL_FAILED"
	ErrCodeLLMGenerationFailed      ErrorCode = "LLM_GENERATION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryRejected            ErrorCode = "QUERY_REJECTED"
	ErrCodeScenarioExtractionFailed ErrorCode = "SCENARIO_EXTRACTION_FAILED"
	ErrCodeAuditWriteFailed         ErrorCode = "AUDIT_WRITE_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Invalid request", details, false)
}

func NewClassificationFailedError(err error) *StandardError {
	return newError(ErrCodeClassificationFailed, "Intent classification failed", err.Error(), true)
}

func NewRetrievalFailedError(err error) *StandardError {
	return newError(ErrCodeRetrievalFailed, "Passage retrieval failed", err.Error(), true)
}

func NewLLMGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeLLMGenerationFailed, "Language model call failed", err.Error(), true)
}

func NewQueryExecutionFailedError(err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Tabular query execution failed", err.Error(), false)
}

func NewQueryRejectedError(details string) *StandardError {
	return newError(ErrCodeQueryRejected, "Query rejected by read-only guard", details, false)
}

func NewScenarioExtractionFailedError(err error) *StandardError {
	return newError(ErrCodeScenarioExtractionFailed, "Scenario parameters could not be extracted", err.Error(), false)
}

func NewAuditWriteFailedError(sink string, err error) *StandardError {
	return newError(ErrCodeAuditWriteFailed, fmt.Sprintf("Audit sink '%s' write failed", sink), err.Error(), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// Classifier maps a sentinel error to its code. Packages register their
// sentinels through Classify so transports can translate without importing
// every stage.
type Classifier struct {
	rules []classifierRule
}

type classifierRule struct {
	target error
	build  func(error) *StandardError
}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Register maps errors matching target (via errors.Is) to build.
func (c *Classifier) Register(target error, build func(error) *StandardError) *Classifier {
	c.rules = append(c.rules, classifierRule{target: target, build: build})
	return c
}

// Classify returns err as a StandardError. Existing StandardErrors pass
// through untouched, unmatched errors become INTERNAL_ERROR.
func (c *Classifier) Classify(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	for _, rule := range c.rules {
		if errors.Is(err, rule.target) {
			return rule.build(err)
		}
	}
	return NewInternalError(err)
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "RETRIEVAL"):
		return "SEARCH"
	case strings.Contains(codeStr, "LLM") || strings.Contains(codeStr, "CLASSIFICATION") || strings.Contains(codeStr, "SCENARIO"):
		return "AI"
	case strings.Contains(codeStr, "AUDIT"):
		return "AUDIT"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps a code to the status used by the HTTP transport.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest:
		return 400
	case ErrCodeClassificationFailed, ErrCodeRetrievalFailed, ErrCodeLLMGenerationFailed:
		return 502
	default:
		return 500
	}
}
