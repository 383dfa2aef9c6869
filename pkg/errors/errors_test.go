package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBackendErrorStringDetail(t *testing.T) {
	err := NewBackendError(StageClaims, 400, []byte(`{"detail":"Invalid JSON"}`))
	assert.Equal(t, StageClaims, err.Stage)
	assert.Equal(t, 400, err.StatusCode)
	assert.Equal(t, "Invalid JSON", err.Detail)
	assert.Contains(t, err.Error(), "Invalid JSON")
}

func TestNewBackendErrorStructuredDetail(t *testing.T) {
	err := NewBackendError(StageTechnicalRules, 422, []byte(`{"detail":[{"msg":"field required"}]}`))
	assert.Contains(t, err.Detail, "field required")
}

func TestNewBackendErrorPlainBody(t *testing.T) {
	err := NewBackendError(StageResults, 502, []byte("Bad Gateway"))
	assert.Equal(t, "Bad Gateway", err.Detail)
}

func TestNewBackendErrorEmptyBody(t *testing.T) {
	err := NewBackendError(StageExport, 500, nil)
	assert.Empty(t, err.Detail)
	assert.Contains(t, err.Error(), "500")
}

func TestIsUnprocessable(t *testing.T) {
	assert.True(t, IsUnprocessable(NewBackendError(StageTechnicalRules, 422, nil)))
	assert.False(t, IsUnprocessable(NewBackendError(StageTechnicalRules, 400, nil)))
	assert.False(t, IsUnprocessable(fmt.Errorf("dial tcp: connection refused")))

	wrapped := NewStageError(StageTechnicalRules, NewBackendError(StageTechnicalRules, 422, nil))
	assert.True(t, IsUnprocessable(wrapped), "must see through wrapping")
}

func TestStageErrorUnwrap(t *testing.T) {
	backendErr := NewBackendError(StageMedicalRules, 500, []byte(`{"detail":"boom"}`))
	err := NewStageError(StageMedicalRules, backendErr)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageMedicalRules, stageErr.Stage)

	var unwrapped *BackendError
	require.ErrorAs(t, err, &unwrapped)
	assert.Equal(t, "boom", unwrapped.Detail)
}

func TestNotAuthenticatedError(t *testing.T) {
	err := &NotAuthenticatedError{Attempted: "claimsctl export"}
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Contains(t, err.Error(), "claimsctl export")
}
