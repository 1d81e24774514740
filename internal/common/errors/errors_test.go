package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		business  bool
		retryable bool
		code      ErrorCode
	}{
		{
			name:      "parse error is business",
			err:       NewParseError("input.xlsx", "row 3 has 2 columns"),
			business:  true,
			retryable: false,
			code:      ErrCodeParse,
		},
		{
			name:      "missing requester is business",
			err:       NewMissingRequesterError("no E-mail marker"),
			business:  true,
			retryable: false,
			code:      ErrCodeMissingRequester,
		},
		{
			name:      "wrapped business error is still business",
			err:       fmt.Errorf("ingest: %w", NewParseError("a.xlsx", "bad")),
			business:  true,
			retryable: false,
			code:      ErrCodeParse,
		},
		{
			name:      "notification failure is retryable",
			err:       NewNotificationSendError("smtp", stderrors.New("connection refused")),
			business:  false,
			retryable: true,
			code:      ErrCodeNotificationSendFailed,
		},
		{
			name:      "plain error is retryable and unclassified",
			err:       stderrors.New("chrome crashed"),
			business:  false,
			retryable: true,
			code:      ErrCodeInternal,
		},
		{
			name:      "too many failures is terminal but not business",
			err:       NewTooManyFailuresError(3, stderrors.New("boom")),
			business:  false,
			retryable: false,
			code:      ErrCodeTooManyFailures,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.business, IsBusiness(tt.err))
			assert.Equal(t, tt.retryable, IsRetryable(tt.err))
			assert.Equal(t, tt.code, CodeOf(tt.err))
		})
	}

	assert.False(t, IsRetryable(nil))
}

func TestStandardError_Unwrap(t *testing.T) {
	err := NewLookupSessionError(context.DeadlineExceeded)
	assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "LOOKUP_SESSION_FAILED")
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("business error has no retries", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewParseError("input.xlsx", "bad row"))
		assert.Equal(t, "EFLYT_INPUT_INVALID", bpmn.Code)
		assert.Equal(t, 0, bpmn.Retries)

		vars := bpmn.ToErrorVariables()
		assert.Equal(t, "PARSE_ERROR", vars["originalErrorCode"])
		assert.Equal(t, "input.xlsx", vars["source"])
	})

	t.Run("retryable error keeps its retry count", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewMailboxError("list messages", stderrors.New("503")))
		assert.Equal(t, "MAILBOX_UNAVAILABLE", bpmn.Code)
		assert.Equal(t, 3, bpmn.Retries)
		assert.True(t, bpmn.Retryable)
	})

	t.Run("unknown code falls back to itself", func(t *testing.T) {
		bpmn := ConvertToBPMNError(&StandardError{Code: "SOMETHING_ELSE", Retryable: true})
		assert.Equal(t, "SOMETHING_ELSE", bpmn.Code)
		assert.Equal(t, 0, bpmn.Retries)
	})
}

func TestNormalize(t *testing.T) {
	plain := stderrors.New("boom")
	stdErr := Normalize(plain)
	require.NotNil(t, stdErr)
	assert.Equal(t, ErrCodeInternal, stdErr.Code)
	assert.True(t, stderrors.Is(stdErr, plain))

	orig := NewRunInProgressError("eflyt:lock")
	assert.Same(t, orig, Normalize(fmt.Errorf("wrap: %w", orig)))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "BUSINESS", GetErrorCategory(ErrCodeRunInProgress))
	assert.Equal(t, "MAILBOX", GetErrorCategory(ErrCodeSourceAckFailed))
	assert.Equal(t, "CASE_SYSTEM", GetErrorCategory(ErrCodeLookupSessionFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
