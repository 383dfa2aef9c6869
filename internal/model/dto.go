package model

// FileInput is one file staged for submission. Data is held in memory for the
// duration of a single attempt; nothing is persisted.
type FileInput struct {
	Name string
	Data []byte
}

// UploadSet is one submission attempt: rule files are optional, the claims
// spreadsheet is required.
type UploadSet struct {
	TechnicalRules *FileInput
	MedicalRules   *FileInput
	Claims         *FileInput
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type ClaimsUploadResponse struct {
	Status string `json:"status"`
	JobID  string `json:"job_id"`
	Rows   int    `json:"rows"`
}

// ClaimPage is one page of validation rows. Total is the server-declared row
// count for the whole job, not the page.
type ClaimPage struct {
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Total    int           `json:"total"`
	Items    []ClaimRecord `json:"items"`
}

// MetricsSnapshot is the server-computed aggregate per error category. The
// client treats the maps as opaque beyond their keys.
type MetricsSnapshot struct {
	ClaimsByErrorType     map[string]int     `json:"claims_by_error_type"`
	PaidAmountByErrorType map[string]float64 `json:"paid_amount_by_error_type"`
}
