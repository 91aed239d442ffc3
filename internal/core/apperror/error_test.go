package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorString(t *testing.T) {
	err := NewValidation("quantity is required")
	assert.Equal(t, "VALIDATION_ERROR: quantity is required", err.Error())

	wrapped := NewInternal(errors.New("connection refused"))
	assert.Contains(t, wrapped.Error(), "connection refused")
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewInternal(cause)

	require.ErrorIs(t, err, cause)
}

func TestAsAppError_ThroughWrapping(t *testing.T) {
	orig := NewStaleVersion("documents", "abc")
	wrapped := fmt.Errorf("update document: %w", orig)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeStaleVersion, appErr.Code)
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(wrapped))
}

func TestRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewLockTimeout("document_sequences")))

	// Permanent errors must not be marked retryable.
	assert.False(t, IsRetryable(NewInvalidDiscount("150.00", "100.00")))
	assert.False(t, IsRetryable(NewStaleVersion("documents", "abc")))
	assert.False(t, IsRetryable(errors.New("plain error")))
}

func TestIsCodeHelpers(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFound("product", "p-1")))
	assert.True(t, IsStaleVersion(fmt.Errorf("wrap: %w", NewStaleVersion("documents", 1))))
	assert.False(t, IsNotFound(NewConflict("busy")))
}

func TestWithDetail(t *testing.T) {
	err := NewInvalidTransition("QUOTED", "DRAFT").WithDetail("document_id", "d-1")

	assert.Equal(t, "QUOTED", err.Details["from"])
	assert.Equal(t, "DRAFT", err.Details["to"])
	assert.Equal(t, "d-1", err.Details["document_id"])
}
