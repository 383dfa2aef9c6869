package excel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/reniita09/Humaein/pkg/errors"
)

var standardHeaders = []interface{}{
	"Claim ID", "Encounter Type", "Service Date", "National ID", "Member ID",
	"Facility ID", "Unique ID", "Diagnosis Codes", "Service Code",
	"Paid Amount AED", "Approval Number",
}

func buildWorkbook(t *testing.T, rows map[string][]interface{}) []byte {
	t.Helper()
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	for cell, values := range rows {
		row := values
		require.NoError(t, file.SetSheetRow(sheet, cell, &row))
	}

	buf, err := file.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestPreflightCompleteFile(t *testing.T) {
	data := buildWorkbook(t, map[string][]interface{}{
		"A1": standardHeaders,
		"A2": {"1", "OP", "2024-01-01", "N1", "M1", "F1", "U1", "A01`B02", "S1", "120.50", "AP1"},
		"A3": {"2", "IP", "2024-01-02", "N2", "M2", "F2", "U2", "C03", "S2", "80.00", "AP2"},
	})

	report, err := Preflight(data)
	require.NoError(t, err)
	assert.Empty(t, report.Missing)
	assert.Equal(t, 1, report.HeaderRow)
	assert.Equal(t, 2, report.RowCount)
}

func TestPreflightFindsHeaderBelowPreamble(t *testing.T) {
	data := buildWorkbook(t, map[string][]interface{}{
		"A1": {"Humaein Claims Extract"},
		"A2": {"Generated", "2024-09-01"},
		"A3": standardHeaders,
		"A4": {"1", "OP", "2024-01-01", "N1", "M1", "F1", "U1", "A01", "S1", "10", "AP1"},
	})

	report, err := Preflight(data)
	require.NoError(t, err)
	assert.Equal(t, 3, report.HeaderRow)
	assert.Equal(t, 1, report.RowCount)
}

func TestPreflightFindsHeaderDeepInPreamble(t *testing.T) {
	rows := map[string][]interface{}{
		"A12": standardHeaders,
		"A13": {"1", "OP", "2024-01-01", "N1", "M1", "F1", "U1", "A01", "S1", "10", "AP1"},
	}
	for i := 1; i <= 11; i++ {
		rows[fmt.Sprintf("A%d", i)] = []interface{}{"preamble", fmt.Sprintf("line %d", i)}
	}
	data := buildWorkbook(t, rows)

	report, err := Preflight(data)
	require.NoError(t, err)
	assert.Equal(t, 12, report.HeaderRow)
	assert.Equal(t, 1, report.RowCount)
}

func TestPreflightGivesUpBeyondScanLimit(t *testing.T) {
	rows := map[string][]interface{}{
		"A17": standardHeaders,
		"A18": {"1", "OP", "2024-01-01", "N1", "M1", "F1", "U1", "A01", "S1", "10", "AP1"},
	}
	for i := 1; i <= 16; i++ {
		rows[fmt.Sprintf("A%d", i)] = []interface{}{"preamble", fmt.Sprintf("line %d", i)}
	}
	data := buildWorkbook(t, rows)

	_, err := Preflight(data)
	require.ErrorIs(t, err, errors.ErrInvalidFileFormat)
}

func TestPreflightReportsMissingColumns(t *testing.T) {
	data := buildWorkbook(t, map[string][]interface{}{
		"A1": {"Claim ID", "Encounter Type", "Service Date", "National ID", "Member ID"},
		"A2": {"1", "OP", "2024-01-01", "N1", "M1"},
	})

	report, err := Preflight(data)
	require.NoError(t, err)
	assert.Contains(t, report.Missing, "service_code")
	assert.Contains(t, report.Missing, "paid_amount_aed")
	assert.NotContains(t, report.Missing, "claim_id", "backend generates claim_id when absent")
}

func TestPreflightMissingClaimIDIsAllowed(t *testing.T) {
	headers := standardHeaders[1:] // drop Claim ID
	data := buildWorkbook(t, map[string][]interface{}{
		"A1": headers,
		"A2": {"OP", "2024-01-01", "N1", "M1", "F1", "U1", "A01", "S1", "10", "AP1"},
	})

	report, err := Preflight(data)
	require.NoError(t, err)
	assert.Empty(t, report.Missing)
}

func TestPreflightAcceptsAliasHeadings(t *testing.T) {
	data := buildWorkbook(t, map[string][]interface{}{
		"A1": {"ClaimNo", "Encounter", "DateOfService", "EID", "SubscriberID",
			"ProviderID", "TransactionID", "ICDCodes", "Svc", "NetPaid", "AuthNo"},
		"A2": {"1", "OP", "2024-01-01", "N1", "M1", "F1", "U1", "A01", "S1", "10", "AP1"},
	})

	report, err := Preflight(data)
	require.NoError(t, err)
	assert.Empty(t, report.Missing)
}

func TestPreflightNoRecognizableHeader(t *testing.T) {
	data := buildWorkbook(t, map[string][]interface{}{
		"A1": {"alpha", "beta", "gamma"},
		"A2": {"1", "2", "3"},
	})

	_, err := Preflight(data)
	require.ErrorIs(t, err, errors.ErrInvalidFileFormat)
}

func TestPreflightRejectsNonExcelBytes(t *testing.T) {
	_, err := Preflight([]byte("this is not a workbook"))
	require.Error(t, err)
}
