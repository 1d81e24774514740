// Package errors provides the robot's error taxonomy and its BPMN mapping.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Business errors. These abort a run immediately and are never retried.
const (
	ErrCodeParse            ErrorCode = "PARSE_ERROR"
	ErrCodeMissingRequester ErrorCode = "MISSING_REQUESTER"
	ErrCodeBusinessRule     ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeRunInProgress    ErrorCode = "RUN_IN_PROGRESS"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInputParsing     ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeAuthentication   ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeTooManyFailures  ErrorCode = "TOO_MANY_FAILURES"
)

// Technical errors. These count against the run retry limit.
const (
	ErrCodeMailboxUnavailable     ErrorCode = "MAILBOX_UNAVAILABLE"
	ErrCodeLookupSessionFailed    ErrorCode = "LOOKUP_SESSION_FAILED"
	ErrCodeReportWriteFailed      ErrorCode = "REPORT_WRITE_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeSourceAckFailed        ErrorCode = "SOURCE_ACK_FAILED"
	ErrCodeExternalService        ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout                ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
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
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
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

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
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

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// NewParseError reports a malformed inbound attachment.
func NewParseError(source string, details string) *StandardError {
	return newError(ErrCodeParse, "Attachment could not be parsed", fmt.Sprintf("%s: %s", source, details), false, nil).
		WithMetadata("source", source)
}

// NewMissingRequesterError reports an inbound message without the requester marker.
func NewMissingRequesterError(details string) *StandardError {
	return newError(ErrCodeMissingRequester, "Requester address not found in message body", details, false, nil)
}

// NewBusinessRuleError creates a non-retryable domain rule violation.
func NewBusinessRuleError(details, message string) *StandardError {
	return newError(ErrCodeBusinessRule, message, details, false, nil)
}

// NewRunInProgressError reports that another robot run holds the lock.
func NewRunInProgressError(lockKey string) *StandardError {
	return newError(ErrCodeRunInProgress, "Another run is already in progress", fmt.Sprintf("lock: %s", lockKey), false, nil)
}

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Input validation failed", details, false, nil)
}

// NewInputParsingError wraps a failure to decode job variables.
func NewInputParsingError(err error) *StandardError {
	return newError(ErrCodeInputParsing, "Failed to parse job variables", detailsOf(err), false, err)
}

// NewAuthenticationError creates a non-retryable authentication error.
func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", details, false, nil)
}

// NewResourceNotFoundError creates a non-retryable not-found error.
func NewResourceNotFoundError(resource, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("%s not found", resource), details, false, nil)
}

// NewMailboxError wraps a failure talking to the mail source.
func NewMailboxError(op string, err error) *StandardError {
	return newError(ErrCodeMailboxUnavailable, "Mailbox operation failed", fmt.Sprintf("%s: %s", op, detailsOf(err)), true, err).
		WithMetadata("operation", op)
}

// NewLookupSessionError wraps a failure establishing or driving the case system session.
func NewLookupSessionError(err error) *StandardError {
	return newError(ErrCodeLookupSessionFailed, "Case system session failed", detailsOf(err), true, err)
}

// NewReportWriteError wraps a report serialization failure.
func NewReportWriteError(err error) *StandardError {
	return newError(ErrCodeReportWriteFailed, "Failed to write report", detailsOf(err), true, err)
}

// NewNotificationSendError wraps a transport failure while sending the report.
func NewNotificationSendError(transport string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Failed to send notification", fmt.Sprintf("%s: %s", transport, detailsOf(err)), true, err).
		WithMetadata("transport", transport)
}

// NewSourceAckError wraps a failure to discard the processed inbound message.
func NewSourceAckError(err error) *StandardError {
	return newError(ErrCodeSourceAckFailed, "Failed to acknowledge inbound message", detailsOf(err), true, err)
}

// NewExternalServiceError creates a retryable error for an external dependency.
func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service %s failed", service), detailsOf(err), true, err).
		WithMetadata("service", service)
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(operation string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Operation %s timed out", operation), detailsOf(err), true, err)
}

// NewTooManyFailuresError reports that the run harness exhausted its retries.
func NewTooManyFailuresError(attempts int, last error) *StandardError {
	return newError(ErrCodeTooManyFailures, "Process failed too many times", fmt.Sprintf("attempts: %d, last error: %s", attempts, detailsOf(last)), false, last).
		WithMetadata("attempts", attempts)
}

// ==========================
// 4. Classification
// ==========================

// AsStandardError finds a StandardError anywhere in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsBusiness reports whether err is a recognized business failure.
func IsBusiness(err error) bool {
	stdErr, ok := AsStandardError(err)
	if !ok {
		return false
	}
	return !stdErr.Retryable && GetErrorCategory(stdErr.Code) == "BUSINESS"
}

// IsRetryable reports whether err should count against the retry limit.
// Unclassified errors are retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	stdErr, ok := AsStandardError(err)
	if !ok {
		return true
	}
	return stdErr.Retryable
}

// CodeOf returns the error code of err, or INTERNAL_ERROR when unclassified.
func CodeOf(err error) ErrorCode {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeParse:                  "EFLYT_INPUT_INVALID",
	ErrCodeMissingRequester:       "EFLYT_INPUT_INVALID",
	ErrCodeBusinessRule:           "EFLYT_BUSINESS_ERROR",
	ErrCodeRunInProgress:          "EFLYT_RUN_IN_PROGRESS",
	ErrCodeValidationFailed:       "VALIDATION_FAILED",
	ErrCodeInputParsing:           "INPUT_PARSING_FAILED",
	ErrCodeTooManyFailures:        "EFLYT_RUN_FAILED",
	ErrCodeMailboxUnavailable:     "MAILBOX_UNAVAILABLE",
	ErrCodeLookupSessionFailed:    "LOOKUP_SESSION_FAILED",
	ErrCodeReportWriteFailed:      "REPORT_WRITE_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeSourceAckFailed:        "SOURCE_ACK_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeMailboxUnavailable,
		ErrCodeLookupSessionFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeSourceAckFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeTimeout,
		ErrCodeReportWriteFailed:
		return 1

	default:
		return 0
	}
}

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

func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeParse, ErrCodeMissingRequester, ErrCodeBusinessRule, ErrCodeRunInProgress:
		return "BUSINESS"
	case ErrCodeTooManyFailures:
		return "RUN"
	}

	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "MAILBOX") || strings.Contains(codeStr, "SOURCE"):
		return "MAILBOX"
	case strings.Contains(codeStr, "LOOKUP"):
		return "CASE_SYSTEM"
	case strings.Contains(codeStr, "REPORT"):
		return "REPORT"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INPUT"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
