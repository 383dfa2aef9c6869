package excel

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/reniita09/Humaein/pkg/errors"
)

// Column aliases mirror what the backend's ingestion accepts, so a local
// preflight flags the same problems the server would.
var fieldAliases = map[string][]string{
	"claim_id":        {"claimid", "claim_id", "claimno", "claimnumber", "claimref"},
	"encounter_type":  {"encountertype", "encounter_type", "encounter"},
	"service_date":    {"servicedate", "dateofservice", "svcdate"},
	"national_id":     {"nationalid", "uid", "eid"},
	"member_id":       {"memberid", "member_id", "subscriberid"},
	"facility_id":     {"facilityid", "facility", "providerid"},
	"unique_id":       {"uniqueid", "transactionid", "claimuniqueid"},
	"diagnosis_codes": {"diagnosiscodes", "diagnosis", "icdcodes", "diagnosiscode"},
	"service_code":    {"servicecode", "svc", "servicereference"},
	"paid_amount_aed": {"paidamountaed", "paidamount", "netpaid", "payaed"},
	"approval_number": {"approvalnumber", "authorization", "authno", "approvalno"},
}

// Header detection heuristic, same as the backend: a row within the first
// headerScanLimit rows qualifies once it carries headerRowMinMatches known
// headings.
const (
	headerRowMinMatches = 4
	headerScanLimit     = 15
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

func normalizeHeader(name string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(name), "")
}

// Report summarizes a local inspection of a claims spreadsheet.
type Report struct {
	HeaderRow int
	Found     []string
	Missing   []string
	RowCount  int
}

// Preflight opens an Excel claims file, locates the header row within the
// first fifteen rows, and reports which required columns are present and how
// many data rows follow. claim_id is never reported missing since the backend
// generates it when absent.
func Preflight(data []byte) (*Report, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.ErrInvalidFileFormat
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	headerIdx, matched := detectHeaderRow(rows)
	if headerIdx < 0 {
		return nil, fmt.Errorf("%w: could not locate header row, ensure the file contains standard column headings", errors.ErrInvalidFileFormat)
	}

	var found, missing []string
	for field := range fieldAliases {
		if matched[field] {
			found = append(found, field)
		} else if field != "claim_id" {
			missing = append(missing, field)
		}
	}
	sort.Strings(found)
	sort.Strings(missing)

	return &Report{
		HeaderRow: headerIdx + 1,
		Found:     found,
		Missing:   missing,
		RowCount:  len(rows) - headerIdx - 1,
	}, nil
}

func detectHeaderRow(rows [][]string) (int, map[string]bool) {
	limit := len(rows)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}

	for i := 0; i < limit; i++ {
		matched := make(map[string]bool)
		for _, cell := range rows[i] {
			norm := normalizeHeader(cell)
			if norm == "" {
				continue
			}
			for field, aliases := range fieldAliases {
				for _, alias := range aliases {
					if norm == alias {
						matched[field] = true
					}
				}
			}
		}
		if len(matched) >= headerRowMinMatches {
			return i, matched
		}
	}
	return -1, nil
}
