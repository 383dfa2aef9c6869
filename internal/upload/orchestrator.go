package upload

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reniita09/Humaein/internal/config"
	"github.com/reniita09/Humaein/internal/excel"
	"github.com/reniita09/Humaein/internal/logger"
	"github.com/reniita09/Humaein/internal/model"
	"github.com/reniita09/Humaein/pkg/errors"
)

// BackendClient is the slice of the API client the orchestrator needs.
type BackendClient interface {
	UploadRules(ctx context.Context, kind string, file *model.FileInput, fileField string) error
	UploadClaims(ctx context.Context, file *model.FileInput) (string, error)
}

const (
	defaultRulesField  = "file"
	fallbackRulesField = "rules"
)

// Orchestrator runs one submission attempt: optional technical rules, then
// optional medical rules, then the required claims spreadsheet. Steps are
// strictly sequential and the first exhausted failure aborts the rest.
type Orchestrator struct {
	client    BackendClient
	preflight bool
	log       zerolog.Logger
}

func NewOrchestrator(client BackendClient, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		client:    client,
		preflight: cfg.Upload.Preflight,
		log:       logger.Get(),
	}
}

// Run submits the set and returns the job id assigned by the backend.
func (o *Orchestrator) Run(ctx context.Context, set model.UploadSet) (string, error) {
	// The claims file is required; refuse before touching the network.
	if set.Claims == nil || len(set.Claims.Data) == 0 {
		return "", errors.ErrClaimsFileRequired
	}

	if o.preflight && isExcel(set.Claims.Name) {
		if err := o.preflightClaims(set.Claims); err != nil {
			return "", err
		}
	}

	if set.TechnicalRules != nil {
		if err := o.uploadRulesWithFallback(ctx, "technical", set.TechnicalRules); err != nil {
			return "", errors.NewStageError(errors.StageTechnicalRules, err)
		}
	}

	if set.MedicalRules != nil {
		if err := o.uploadRulesWithFallback(ctx, "medical", set.MedicalRules); err != nil {
			return "", errors.NewStageError(errors.StageMedicalRules, err)
		}
	}

	jobID, err := o.client.UploadClaims(ctx, set.Claims)
	if err != nil {
		return "", errors.NewStageError(errors.StageClaims, err)
	}

	o.log.Info().Str("job_id", jobID).Msg("Claims submitted")
	return jobID, nil
}

// uploadRulesWithFallback retries exactly once under the alternate field name
// when the backend rejects the default with 422. Any other failure, or a
// second 422, surfaces as-is.
func (o *Orchestrator) uploadRulesWithFallback(ctx context.Context, kind string, file *model.FileInput) error {
	err := o.client.UploadRules(ctx, kind, file, defaultRulesField)
	if err == nil {
		return nil
	}
	if !errors.IsUnprocessable(err) {
		return err
	}

	o.log.Warn().Str("kind", kind).Msg("Rules upload rejected with 422, retrying with fallback field name")
	return o.client.UploadRules(ctx, kind, file, fallbackRulesField)
}

func (o *Orchestrator) preflightClaims(file *model.FileInput) error {
	report, err := excel.Preflight(file.Data)
	if err != nil {
		return fmt.Errorf("claims preflight failed: %w", err)
	}
	if len(report.Missing) > 0 {
		return errors.ValidationError{
			Field:   "claims",
			Value:   file.Name,
			Message: "missing required columns: " + strings.Join(report.Missing, ", "),
		}
	}
	if report.RowCount == 0 {
		return errors.ValidationError{
			Field:   "claims",
			Value:   file.Name,
			Message: "no data rows below the header",
		}
	}

	o.log.Debug().Int("rows", report.RowCount).Int("header_row", report.HeaderRow).Msg("Claims preflight passed")
	return nil
}

func isExcel(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls")
}
