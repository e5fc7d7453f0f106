package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSVDetectsSemicolonAndBOM(t *testing.T) {
	input := "\xEF\xBB\xBFNro Factura;Monto;Cliente\nF-001;1.234,56;ACME\nF-002;10;\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Nro Factura", "Monto", "Cliente"}, tbl.Headers)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "1.234,56", tbl.Cell(0, 1))
	assert.Equal(t, "", tbl.Cell(1, 2))
}

func TestReadCSVCommaWithQuotedDelimiters(t *testing.T) {
	input := "Descripción,Monto\n\"PAGO F-001, F-002\",150.00\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "PAGO F-001, F-002", tbl.Cell(0, 0))
	assert.Equal(t, "150.00", tbl.Cell(0, 1))
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("\n\n"))
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestFromRecordsTrimsBlankEdges(t *testing.T) {
	records := [][]string{
		{"", ""},
		{" Monto ", "Fecha", ""},
		{"10", "2024-01-01"},
		{"", ""},
		{"20", "2024-01-02"},
		{"", ""},
		{},
	}

	tbl, err := FromRecords("pagos", records)
	require.NoError(t, err)

	assert.Equal(t, []string{"Monto", "Fecha"}, tbl.Headers)
	assert.Equal(t, 3, tbl.Len())
	assert.True(t, tbl.IsBlankRow(1))
	assert.Equal(t, "20", tbl.Cell(2, 0))
}

func TestCellAndRecordOutOfRange(t *testing.T) {
	tbl := New("t", "a", "b", "c")
	tbl.Append("1")

	assert.Equal(t, "", tbl.Cell(0, 2))
	assert.Equal(t, "", tbl.Cell(5, 0))
	assert.Equal(t, []string{"1", "", ""}, tbl.Record(0))
	assert.True(t, tbl.IsBlankRow(9))
}

func TestWriteCSV(t *testing.T) {
	tbl := New("asignaciones", "Pago_idx", "Nro Factura", "Asignado")
	tbl.Append("0", "INV001", "100.00")
	tbl.Append("1", "INV,002", "5.50")

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))

	want := "Pago_idx,Nro Factura,Asignado\n0,INV001,100.00\n1,\"INV,002\",5.50\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSVFile(t *testing.T) {
	dir := t.TempDir()
	tbl := New("facturas_resultado", "Nro Factura", "Estado")
	tbl.Append("INV001", "PAGADA")

	path, err := WriteCSVFile(dir, tbl)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "facturas_resultado.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Nro Factura,Estado\nINV001,PAGADA\n", string(data))
}

func TestWriteWorkbookKeepsSheetOrder(t *testing.T) {
	first := New("facturas_resultado", "Nro Factura", "Saldo")
	first.Append("INV001", "0.00")
	second := New("asignaciones", "Pago_idx", "Nro Factura", "Asignado")
	second.Append("0", "INV001", "100.00")

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, first, second))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"facturas_resultado", "asignaciones"}, f.GetSheetList())

	tbl, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "facturas_resultado", tbl.Name)
	assert.Equal(t, []string{"Nro Factura", "Saldo"}, tbl.Headers)
	assert.Equal(t, "INV001", tbl.Cell(0, 0))
}

func TestReadFileDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "pagos.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Descripción,Monto\nTRANSFER,60\n"), 0o600))

	tbl, err := ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "pagos", tbl.Name)
	assert.Equal(t, 1, tbl.Len())

	odsPath := filepath.Join(dir, "pagos.ods")
	require.NoError(t, os.WriteFile(odsPath, []byte("x"), 0o600))
	_, err = ReadFile(odsPath)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSheetNameLimit(t *testing.T) {
	assert.Equal(t, "Hoja2", sheetName("", 1))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40), 0)), 31)
}
