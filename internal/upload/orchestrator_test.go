package upload

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reniita09/Humaein/internal/config"
	"github.com/reniita09/Humaein/internal/model"
	"github.com/reniita09/Humaein/pkg/errors"
)

type ruleCall struct {
	Kind  string
	Field string
}

type fakeBackend struct {
	ruleCalls  []ruleCall
	claimCalls int

	ruleErr  func(call ruleCall) error
	jobID    string
	claimErr error
}

func (f *fakeBackend) UploadRules(ctx context.Context, kind string, file *model.FileInput, fileField string) error {
	call := ruleCall{Kind: kind, Field: fileField}
	f.ruleCalls = append(f.ruleCalls, call)
	if f.ruleErr != nil {
		return f.ruleErr(call)
	}
	return nil
}

func (f *fakeBackend) UploadClaims(ctx context.Context, file *model.FileInput) (string, error) {
	f.claimCalls++
	if f.claimErr != nil {
		return "", f.claimErr
	}
	return f.jobID, nil
}

func testOrchestrator(backend *fakeBackend) *Orchestrator {
	return NewOrchestrator(backend, &config.Config{})
}

func claimsFile() *model.FileInput {
	return &model.FileInput{Name: "claims.csv", Data: []byte("claim_id\n1\n")}
}

func rulesFile(name string) *model.FileInput {
	return &model.FileInput{Name: name, Data: []byte("%PDF-")}
}

func unprocessable() error {
	return errors.NewBackendError(errors.StageTechnicalRules, http.StatusUnprocessableEntity,
		[]byte(`{"detail":"unexpected field"}`))
}

func TestRunClaimsOnlyMakesExactlyOneCall(t *testing.T) {
	backend := &fakeBackend{jobID: "job-1"}

	jobID, err := testOrchestrator(backend).Run(context.Background(), model.UploadSet{
		Claims: claimsFile(),
	})
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Empty(t, backend.ruleCalls)
	assert.Equal(t, 1, backend.claimCalls)
}

func TestRunMissingClaimsFailsBeforeAnyNetworkCall(t *testing.T) {
	backend := &fakeBackend{jobID: "job-1"}

	_, err := testOrchestrator(backend).Run(context.Background(), model.UploadSet{
		TechnicalRules: rulesFile("tech.pdf"),
	})
	require.ErrorIs(t, err, errors.ErrClaimsFileRequired)
	assert.Empty(t, backend.ruleCalls)
	assert.Zero(t, backend.claimCalls)
}

func TestRunFullSetSequencing(t *testing.T) {
	backend := &fakeBackend{jobID: "job-2"}

	jobID, err := testOrchestrator(backend).Run(context.Background(), model.UploadSet{
		TechnicalRules: rulesFile("tech.pdf"),
		MedicalRules:   rulesFile("med.pdf"),
		Claims:         claimsFile(),
	})
	require.NoError(t, err)
	assert.Equal(t, "job-2", jobID)
	assert.Equal(t, []ruleCall{
		{Kind: "technical", Field: "file"},
		{Kind: "medical", Field: "file"},
	}, backend.ruleCalls)
	assert.Equal(t, 1, backend.claimCalls)
}

func TestRunRetriesOnceWithFallbackFieldOn422(t *testing.T) {
	backend := &fakeBackend{jobID: "job-3"}
	backend.ruleErr = func(call ruleCall) error {
		if call.Kind == "technical" && call.Field == "file" {
			return unprocessable()
		}
		return nil
	}

	jobID, err := testOrchestrator(backend).Run(context.Background(), model.UploadSet{
		TechnicalRules: rulesFile("tech.pdf"),
		Claims:         claimsFile(),
	})
	require.NoError(t, err)
	assert.Equal(t, "job-3", jobID)
	assert.Equal(t, []ruleCall{
		{Kind: "technical", Field: "file"},
		{Kind: "technical", Field: "rules"},
	}, backend.ruleCalls)
}

func TestRunAbortsWhenRetriedFallbackStillFails(t *testing.T) {
	backend := &fakeBackend{jobID: "job-4"}
	backend.ruleErr = func(call ruleCall) error {
		if call.Kind == "technical" {
			return unprocessable()
		}
		return nil
	}

	_, err := testOrchestrator(backend).Run(context.Background(), model.UploadSet{
		TechnicalRules: rulesFile("tech.pdf"),
		MedicalRules:   rulesFile("med.pdf"),
		Claims:         claimsFile(),
	})
	require.Error(t, err)

	var stageErr *errors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, errors.StageTechnicalRules, stageErr.Stage)

	// Exactly two technical attempts; medical and claims never happen.
	assert.Equal(t, []ruleCall{
		{Kind: "technical", Field: "file"},
		{Kind: "technical", Field: "rules"},
	}, backend.ruleCalls)
	assert.Zero(t, backend.claimCalls)
}

func TestRunDoesNotRetryNon422Failures(t *testing.T) {
	backend := &fakeBackend{jobID: "job-5"}
	backend.ruleErr = func(call ruleCall) error {
		return errors.NewBackendError(errors.StageTechnicalRules, http.StatusInternalServerError,
			[]byte(`{"detail":"boom"}`))
	}

	_, err := testOrchestrator(backend).Run(context.Background(), model.UploadSet{
		TechnicalRules: rulesFile("tech.pdf"),
		Claims:         claimsFile(),
	})
	require.Error(t, err)
	assert.Len(t, backend.ruleCalls, 1, "a 500 must not trigger the field-name fallback")
	assert.Zero(t, backend.claimCalls)
}

func TestRunMedicalFailureSkipsClaims(t *testing.T) {
	backend := &fakeBackend{jobID: "job-6"}
	backend.ruleErr = func(call ruleCall) error {
		if call.Kind == "medical" {
			return unprocessable()
		}
		return nil
	}

	_, err := testOrchestrator(backend).Run(context.Background(), model.UploadSet{
		TechnicalRules: rulesFile("tech.pdf"),
		MedicalRules:   rulesFile("med.pdf"),
		Claims:         claimsFile(),
	})
	require.Error(t, err)

	var stageErr *errors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, errors.StageMedicalRules, stageErr.Stage)
	assert.Zero(t, backend.claimCalls)
}

func TestRunClaimsFailureCarriesStage(t *testing.T) {
	backend := &fakeBackend{
		claimErr: errors.NewBackendError(errors.StageClaims, http.StatusBadRequest,
			[]byte(`{"detail":"Could not locate header row in claims file."}`)),
	}

	_, err := testOrchestrator(backend).Run(context.Background(), model.UploadSet{
		Claims: claimsFile(),
	})
	require.Error(t, err)

	var stageErr *errors.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, errors.StageClaims, stageErr.Stage)
	assert.Contains(t, err.Error(), "header row")
}
