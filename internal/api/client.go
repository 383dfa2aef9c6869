package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/reniita09/Humaein/internal/config"
	"github.com/reniita09/Humaein/internal/logger"
	"github.com/reniita09/Humaein/internal/model"
	"github.com/reniita09/Humaein/internal/session"
	"github.com/reniita09/Humaein/pkg/errors"
)

// Client talks to the claims-validation backend. All requests go through the
// Pipeline transport, so tenant and auth headers are attached uniformly.
type Client struct {
	cfg        *config.Config
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(cfg *config.Config, store session.Store) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.API.Timeout,
			Transport: NewPipeline(http.DefaultTransport, cfg.API.TenantID, store),
		},
		log: logger.Get(),
	}
}

// Login exchanges the operator's credentials for a bearer token. The form
// field is named username even though the backend matches it against email.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.API.BaseURL+"/api/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req, errors.StageLogin)
	if err != nil {
		return "", err
	}

	var tokenResp model.TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("login response contained no access token")
	}

	c.log.Debug().Msg("Login succeeded")
	return tokenResp.AccessToken, nil
}

// UploadRules submits one rule document tagged with its kind. The file goes
// under fileField, which the orchestrator swaps for the fallback name when
// the backend rejects the default with 422.
func (c *Client) UploadRules(ctx context.Context, kind string, file *model.FileInput, fileField string) error {
	stage := errors.StageTechnicalRules
	if kind == "medical" {
		stage = errors.StageMedicalRules
	}

	fields := map[string]string{"kind": kind}
	req, err := c.newMultipartRequest(ctx, "/api/upload/rules", fields, fileField, file)
	if err != nil {
		return fmt.Errorf("failed to build rules upload: %w", err)
	}

	c.log.Debug().Str("kind", kind).Str("field", fileField).Str("file", file.Name).Msg("Uploading rules")

	if _, err := c.do(req, stage); err != nil {
		return err
	}
	return nil
}

// UploadClaims submits the claims spreadsheet and returns the job id the
// backend assigned.
func (c *Client) UploadClaims(ctx context.Context, file *model.FileInput) (string, error) {
	req, err := c.newMultipartRequest(ctx, "/api/upload/claims", nil, "file", file)
	if err != nil {
		return "", fmt.Errorf("failed to build claims upload: %w", err)
	}

	c.log.Debug().Str("file", file.Name).Msg("Uploading claims")

	body, err := c.do(req, errors.StageClaims)
	if err != nil {
		return "", err
	}

	var uploadResp model.ClaimsUploadResponse
	if err := json.Unmarshal(body, &uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode claims upload response: %w", err)
	}
	if uploadResp.JobID == "" {
		return "", fmt.Errorf("claims upload response contained no job id")
	}
	return uploadResp.JobID, nil
}

// ListClaims fetches one page of validation rows for a job.
func (c *Client) ListClaims(ctx context.Context, jobID string, page, pageSize int) (*model.ClaimPage, error) {
	params := url.Values{}
	params.Set("job_id", jobID)
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.API.BaseURL+"/api/claims?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create claims request: %w", err)
	}

	body, err := c.do(req, errors.StageResults)
	if err != nil {
		return nil, err
	}

	var claimPage model.ClaimPage
	if err := json.Unmarshal(body, &claimPage); err != nil {
		return nil, fmt.Errorf("failed to decode claims page: %w", err)
	}
	return &claimPage, nil
}

// IngestionMetrics fetches the aggregate snapshot for a job.
func (c *Client) IngestionMetrics(ctx context.Context, jobID string) (*model.MetricsSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.API.BaseURL+"/api/metrics/ingestion/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics request: %w", err)
	}

	body, err := c.do(req, errors.StageMetrics)
	if err != nil {
		return nil, err
	}

	var metrics model.MetricsSnapshot
	if err := json.Unmarshal(body, &metrics); err != nil {
		return nil, fmt.Errorf("failed to decode metrics: %w", err)
	}
	return &metrics, nil
}

// ExportCSV fetches the CSV artifact for a job as raw bytes.
func (c *Client) ExportCSV(ctx context.Context, jobID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.API.BaseURL+"/api/export/"+url.PathEscape(jobID)+".csv", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create export request: %w", err)
	}

	return c.do(req, errors.StageExport)
}

func (c *Client) newMultipartRequest(ctx context.Context, path string, fields map[string]string, fileField string, file *model.FileInput) (*http.Request, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}

	part, err := writer.CreateFormFile(fileField, file.Name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.API.BaseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	// The writer's type carries the boundary; the pipeline leaves it alone.
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

// do sends the request and returns the response body, converting any non-2xx
// status into a BackendError carrying the server detail.
func (c *Client) do(req *http.Request, stage string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", stage, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s response read failed: %w", stage, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		backendErr := errors.NewBackendError(stage, resp.StatusCode, body)
		c.log.Debug().Int("status", resp.StatusCode).Str("stage", stage).Str("detail", backendErr.Detail).Msg("Backend rejected request")
		return nil, backendErr
	}

	return body, nil
}
