package errors

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrTokenMalformed     = errors.New("malformed token")
	ErrClaimsFileRequired = errors.New("claims file is required")
	ErrInvalidFileFormat  = errors.New("invalid file format")
	ErrStorageUnavailable = errors.New("session storage unavailable")
)

// Stage names surfaced to the operator when a step fails.
const (
	StageLogin          = "login"
	StageTechnicalRules = "technical_rules"
	StageMedicalRules   = "medical_rules"
	StageClaims         = "claims"
	StageResults        = "results"
	StageMetrics        = "metrics"
	StageExport         = "export"
)

// BackendError is a rejection from the validation backend. Detail carries the
// server-provided message when the response body had one.
type BackendError struct {
	Stage      string
	StatusCode int
	Detail     string
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// NewBackendError extracts the server detail from a FastAPI-style
// {"detail": ...} body. A non-string detail is kept as compact JSON.
func NewBackendError(stage string, statusCode int, body []byte) *BackendError {
	be := &BackendError{Stage: stage, StatusCode: statusCode}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		if len(body) > 0 {
			be.Detail = string(body)
		}
		return be
	}

	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		be.Detail = detail
	} else {
		be.Detail = string(envelope.Detail)
	}
	return be
}

// IsUnprocessable reports whether err is a backend rejection with HTTP 422,
// the only code that triggers the rules field-name fallback.
func IsUnprocessable(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.StatusCode == 422
}

// StageError names the upload stage that aborted the sequence.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s upload failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func NewStageError(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// NotAuthenticatedError records the action the operator attempted so the CLI
// can point them back at it after login.
type NotAuthenticatedError struct {
	Attempted string
}

func (e *NotAuthenticatedError) Error() string {
	return fmt.Sprintf("not authenticated: log in before running %q", e.Attempted)
}

func (e *NotAuthenticatedError) Unwrap() error {
	return ErrNotAuthenticated
}

type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s",
		e.Field, e.Value, e.Message)
}
