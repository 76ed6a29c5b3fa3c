// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode is the code a job failure is reported under. Business codes are
// thrown as BPMN errors; technical codes fail the job so the broker retries.
type ErrorCode string

const (
	ErrCodeInvalidLeadInput      ErrorCode = "INVALID_LEAD_INPUT"
	ErrCodeLeadNotFound          ErrorCode = "LEAD_NOT_FOUND"
	ErrCodeViewNotFound          ErrorCode = "VIEW_NOT_FOUND"
	ErrCodeInvalidViewDefinition ErrorCode = "INVALID_VIEW_DEFINITION"
	ErrCodeIndexNotFound         ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeViewStoreFailed        ErrorCode = "VIEW_STORE_FAILED"
	ErrCodeLeadSourceFailed       ErrorCode = "LEAD_SOURCE_FAILED"
	ErrCodeLeadSourceTimeout      ErrorCode = "LEAD_SOURCE_TIMEOUT"
	ErrCodeLeadUpdateFailed       ErrorCode = "LEAD_UPDATE_FAILED"
	ErrCodeCRMConversionFailed    ErrorCode = "CRM_CONVERSION_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeWorkflowEngineUnavailable ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"
	ErrCodeWorkflowEngineRejected    ErrorCode = "WORKFLOW_ENGINE_REJECTED"

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

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata sets a metadata key and returns the error for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the variables attached to a failed or thrown job.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewInvalidLeadInputError(details string) *StandardError {
	return newError(ErrCodeInvalidLeadInput, "Invalid lead input", details, false, nil)
}

func NewLeadNotFoundError(leadID string) *StandardError {
	return newError(ErrCodeLeadNotFound, "Lead not found", fmt.Sprintf("leadId: %s", leadID), false, nil)
}

func NewViewNotFoundError(name string) *StandardError {
	return newError(ErrCodeViewNotFound, "View not found", fmt.Sprintf("view: %s", name), false, nil)
}

// NewInvalidViewDefinitionError reports a custom view descriptor that failed
// validation.
func NewInvalidViewDefinitionError(err error) *StandardError {
	return newError(ErrCodeInvalidViewDefinition, "Invalid view definition", err.Error(), false, err)
}

func NewIndexNotFoundError(index string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Lead index not found", fmt.Sprintf("index: %s", index), false, nil)
}

// NewViewStoreFailedError wraps a Redis read or write failure.
func NewViewStoreFailedError(op string, err error) *StandardError {
	return newError(ErrCodeViewStoreFailed, "View state store error",
		fmt.Sprintf("op: %s, error: %s", op, err.Error()), true, err)
}

func NewLeadSourceFailedError(source string, err error) *StandardError {
	return newError(ErrCodeLeadSourceFailed, "Lead source query failed",
		fmt.Sprintf("source: %s, error: %s", source, err.Error()), true, err)
}

func NewLeadSourceTimeoutError(source string) *StandardError {
	return newError(ErrCodeLeadSourceTimeout, "Lead source query timeout",
		fmt.Sprintf("source: %s", source), true, nil)
}

func NewLeadUpdateFailedError(leadID string, err error) *StandardError {
	return newError(ErrCodeLeadUpdateFailed, "Lead update failed",
		fmt.Sprintf("leadId: %s, error: %s", leadID, err.Error()), true, err)
}

func NewCRMConversionFailedError(leadID string, err error) *StandardError {
	return newError(ErrCodeCRMConversionFailed, "CRM lead conversion failed",
		fmt.Sprintf("leadId: %s, error: %s", leadID, err.Error()), true, err)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true, err)
}

// NewWorkflowEngineError wraps a failed broker command. Transport failures
// are retryable; rejections are not.
func NewWorkflowEngineError(operation string, retryable bool, err error) *StandardError {
	code, message := ErrCodeWorkflowEngineRejected, "Workflow engine rejected command"
	if retryable {
		code, message = ErrCodeWorkflowEngineUnavailable, "Workflow engine unavailable"
	}
	return newError(code, message, fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), retryable, err)
}

// NewInternalError is the fallback for errors that carry no code.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// AsStandardError finds a StandardError anywhere in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal codes to the error codes modelled on BPMN
// boundary events.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidLeadInput:       "INVALID_LEAD_INPUT",
	ErrCodeLeadNotFound:           "LEAD_NOT_FOUND",
	ErrCodeViewNotFound:           "VIEW_NOT_FOUND",
	ErrCodeInvalidViewDefinition:  "INVALID_VIEW_DEFINITION",
	ErrCodeIndexNotFound:          "LEAD_SOURCE_FAILED",
	ErrCodeViewStoreFailed:        "VIEW_STORE_FAILED",
	ErrCodeLeadSourceFailed:       "LEAD_SOURCE_FAILED",
	ErrCodeLeadSourceTimeout:      "LEAD_SOURCE_FAILED",
	ErrCodeLeadUpdateFailed:       "LEAD_UPDATE_FAILED",
	ErrCodeCRMConversionFailed:    "CRM_CONVERSION_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns how many broker retries a code is allowed.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeViewStoreFailed,
		ErrCodeLeadSourceFailed,
		ErrCodeLeadUpdateFailed,
		ErrCodeCRMConversionFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeWorkflowEngineUnavailable:
		return 3
	case ErrCodeLeadSourceTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for log aggregation.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VIEW"):
		return "VIEW"
	case strings.Contains(codeStr, "SOURCE") || strings.Contains(codeStr, "INDEX"):
		return "SOURCE"
	case strings.Contains(codeStr, "CRM"):
		return "CRM"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	case strings.Contains(codeStr, "LEAD"):
		return "LEAD"
	default:
		return "OTHER"
	}
}
