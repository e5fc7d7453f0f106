package sheets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conciliador/internal/table"
)

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_9xYz/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_9xYz", id)

	_, err = extractSpreadsheetID("https://example.com/not-a-sheet")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestCredentials(t *testing.T) {
	_, err := credentials("", "")
	assert.ErrorIs(t, err, ErrNoCredentials)

	creds, err := credentials("", `{"type":"service_account"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"service_account"}`, string(creds))

	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"from":"file"}`), 0o600))
	creds, err = credentials(path, `{"from":"env"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"file"}`, string(creds), "file wins over inline JSON")

	_, err = credentials(filepath.Join(t.TempDir(), "missing.json"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewSheetsServiceRejectsBadInput(t *testing.T) {
	_, err := NewSheetsService(context.Background(), "not a url", "", "{}")
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = NewSheetsService(context.Background(), "https://docs.google.com/spreadsheets/d/abc", "", "")
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = NewSheetsService(context.Background(), "https://docs.google.com/spreadsheets/d/abc", "", "not json")
	assert.Error(t, err)
}

func TestQuoteSheet(t *testing.T) {
	assert.Equal(t, "'Facturas'", quoteSheet("Facturas"))
	assert.Equal(t, "'Cliente''s data'", quoteSheet("Cliente's data"))
}

func TestValuesToRecords(t *testing.T) {
	records := valuesToRecords([][]interface{}{
		{"Nro Factura", "Monto"},
		{"F-1", 100.5, nil},
		{},
	})

	assert.Equal(t, [][]string{
		{"Nro Factura", "Monto"},
		{"F-1", "100.5", ""},
		{},
	}, records)

	tbl, err := table.FromRecords("Facturas", records)
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
}

func TestTableToValues(t *testing.T) {
	tbl := table.New("asignaciones", "Pago_idx", "Nro Factura", "Asignado")
	tbl.Append("0", "F1")

	assert.Equal(t, [][]interface{}{
		{"Pago_idx", "Nro Factura", "Asignado"},
		{"0", "F1", ""},
	}, tableToValues(tbl))
}
