package contextutils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrorCodeInvalidInput, SeverityWarn, "Invalid input", "field x is empty")
	assert.Equal(t, "INVALID_INPUT: Invalid input - field x is empty", err.Error())

	noDetails := NewAppError(ErrorCodeQuizNotFound, SeverityInfo, "Quiz not found", "")
	assert.Equal(t, "QUIZ_NOT_FOUND: Quiz not found", noDetails.Error())
}

func TestWrapError_PreservesCode(t *testing.T) {
	wrapped := WrapError(ErrStudentNotFound, "while planning a quiz")

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, ErrorCodeStudentNotFound, appErr.Code)
	assert.Equal(t, "while planning a quiz", appErr.Message)
	assert.True(t, IsError(wrapped, ErrStudentNotFound))
}

func TestWrapError_PlainErrorBecomesInternal(t *testing.T) {
	wrapped := WrapError(errors.New("boom"), "context")

	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(wrapped))
	assert.Equal(t, SeverityError, GetErrorSeverity(wrapped))
}

func TestWrapError_NilPassesThrough(t *testing.T) {
	assert.NoError(t, WrapError(nil, "context"))
	assert.NoError(t, WrapErrorf(nil, "context %d", 1))
}

func TestWrapErrorf_FormatsContext(t *testing.T) {
	wrapped := WrapErrorf(ErrQuizNotFound, "quiz %d vanished", 7)

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, "quiz 7 vanished", appErr.Message)
	assert.Equal(t, ErrorCodeQuizNotFound, appErr.Code)
}

func TestErrorsIs_MatchesByCode(t *testing.T) {
	wrapped := WrapError(ErrEmptyCatalog, "no questions to draw from")
	assert.True(t, errors.Is(wrapped, ErrEmptyCatalog))
	assert.False(t, errors.Is(wrapped, ErrEmptyQuiz))
}

func TestUnwrap_ReachesCause(t *testing.T) {
	cause := fmt.Errorf("driver failure")
	err := NewAppErrorWithCause(ErrorCodeDatabaseQuery, SeverityError, "query failed", "", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))
	assert.Equal(t, "abcdef", Truncate("abcdef", 0))
	assert.Equal(t, "abcdef", Truncate("abcdef", 6))
}

func TestToJSON(t *testing.T) {
	err := NewAppError(ErrorCodeEmptyQuiz, SeverityWarn, "Quiz must contain at least one question", "selection was empty")
	payload := err.ToJSON()

	assert.Equal(t, "EMPTY_QUIZ", payload["code"])
	assert.Equal(t, "warn", payload["severity"])
	assert.Equal(t, "selection was empty", payload["details"])
	assert.NotContains(t, payload, "cause")
}
