package results

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/reniita09/Humaein/internal/config"
	"github.com/reniita09/Humaein/internal/logger"
	"github.com/reniita09/Humaein/internal/model"
)

// BackendClient is the slice of the API client the aggregator needs.
type BackendClient interface {
	ListClaims(ctx context.Context, jobID string, page, pageSize int) (*model.ClaimPage, error)
	IngestionMetrics(ctx context.Context, jobID string) (*model.MetricsSnapshot, error)
	ExportCSV(ctx context.Context, jobID string) ([]byte, error)
}

const defaultPageSize = 100

// Aggregator collects the full validation output for a job from the
// paginated claims endpoint, plus its metrics snapshot and CSV export.
type Aggregator struct {
	client   BackendClient
	pageSize int
	log      zerolog.Logger
}

func NewAggregator(client BackendClient, cfg *config.Config) *Aggregator {
	pageSize := cfg.Results.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Aggregator{
		client:   client,
		pageSize: pageSize,
		log:      logger.Get(),
	}
}

// FetchAll walks the pages in increasing order until the declared total is
// accumulated. An empty page also terminates the loop so a total the server
// never satisfies cannot keep us polling forever. Rows come back ordered by
// claim id, numerically.
func (a *Aggregator) FetchAll(ctx context.Context, jobID string) ([]model.ClaimRecord, error) {
	var collected []model.ClaimRecord
	page := 1
	for {
		claimPage, err := a.client.ListClaims(ctx, jobID, page, a.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch claims page %d: %w", page, err)
		}

		collected = append(collected, claimPage.Items...)

		a.log.Debug().
			Str("job_id", jobID).
			Int("page", page).
			Int("received", len(claimPage.Items)).
			Int("collected", len(collected)).
			Int("total", claimPage.Total).
			Msg("Fetched claims page")

		if len(collected) >= claimPage.Total || len(claimPage.Items) == 0 {
			break
		}
		page++
	}

	model.SortClaimsByID(collected)
	return collected, nil
}

// Report is the complete validation output for one job.
type Report struct {
	JobID   string
	Claims  []model.ClaimRecord
	Metrics *model.MetricsSnapshot
}

// FetchReport collects every row and then fetches the metrics snapshot once.
func (a *Aggregator) FetchReport(ctx context.Context, jobID string) (*Report, error) {
	claims, err := a.FetchAll(ctx, jobID)
	if err != nil {
		return nil, err
	}

	metrics, err := a.client.IngestionMetrics(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metrics: %w", err)
	}

	return &Report{JobID: jobID, Claims: claims, Metrics: metrics}, nil
}

// ExportFilename is the compatibility contract with downstream tooling; the
// exported artifact must land under this exact name.
func ExportFilename(jobID string) string {
	return fmt.Sprintf("validation_%s.csv", jobID)
}

// Export fetches the CSV artifact in one shot and writes it into dir,
// returning the written path. Independent of pagination; callable any time
// after the job exists.
func (a *Aggregator) Export(ctx context.Context, jobID, dir string) (string, error) {
	data, err := a.client.ExportCSV(ctx, jobID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch export: %w", err)
	}

	path := filepath.Join(dir, ExportFilename(jobID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	a.log.Info().Str("path", path).Int("bytes", len(data)).Msg("Export written")
	return path, nil
}
