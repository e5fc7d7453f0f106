package cmd

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conciliador/internal/config"
	"conciliador/internal/reconciliation"
	"conciliador/internal/table"
)

const invoicesCSV = `Nro Factura;Cliente;Monto;Fecha Emisión;Tipo Documento;Fecha Vencimiento
INV-001;Acme;1.000,00;01/01/2024;FACT;31/01/2024
INV-002;Acme;500,00;01/02/2024;FACT;02/03/2024
INV-003;Beta;250,00;15/02/2024;FACT;16/03/2024
`

const paymentsCSV = `Fecha;Descripción;Monto;Cliente
10/01/2024;Pago INV-001;1.000,00;ACME
20/03/2024;Transferencia;300,00;acme
25/03/2024;Deposito sin datos;400,00;
`

func writeInputs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	inv := filepath.Join(dir, "facturas.csv")
	pay := filepath.Join(dir, "pagos.csv")
	require.NoError(t, os.WriteFile(inv, []byte(invoicesCSV), 0o600))
	require.NoError(t, os.WriteFile(pay, []byte(paymentsCSV), 0o600))
	return inv, pay
}

// execute runs the root command with fresh flag values and captured output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	cfg = config.Default()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestReconcileCommandWritesOutputs(t *testing.T) {
	inv, pay := writeInputs(t)
	outDir := filepath.Join(t.TempDir(), "resultado")

	out, err := execute(t, "reconcile",
		"--invoices", inv, "--payments", pay,
		"--as-of", "2024-04-01", "--out-dir", outDir, "--format", "both")
	require.NoError(t, err)

	assert.Contains(t, out, "Fecha de corte: 2024-04-01")
	assert.Contains(t, out, "No asignado: 0.00")

	invoices := readCSV(t, filepath.Join(outDir, reconciliation.InvoiceReportName+".csv"))
	assert.Equal(t, []string{
		"Nro Factura", "Cliente", "Monto", "Fecha Emisión", "Tipo Documento", "Fecha Vencimiento",
		"Pagado", "Saldo", "Estado", "Días Mora",
	}, invoices[0])
	assert.Equal(t, []string{"INV001", "Acme", "1000.00", "2024-01-01", "FACT", "2024-01-31", "1000.00", "0.00", "PAGADA", "0"}, invoices[1])
	assert.Equal(t, []string{"INV002", "Acme", "500.00", "2024-02-01", "FACT", "2024-03-02", "500.00", "0.00", "PAGADA", "0"}, invoices[2])
	assert.Equal(t, []string{"INV003", "Beta", "250.00", "2024-02-15", "FACT", "2024-03-16", "200.00", "50.00", "PARCIAL", "16"}, invoices[3])

	allocations := readCSV(t, filepath.Join(outDir, reconciliation.AllocationReportName+".csv"))
	assert.Equal(t, [][]string{
		{"Pago_idx", "Nro Factura", "Asignado"},
		{"0", "INV001", "1000.00"},
		{"1", "INV002", "300.00"},
		{"2", "INV002", "200.00"},
		{"2", "INV003", "200.00"},
	}, allocations)

	payments := readCSV(t, filepath.Join(outDir, reconciliation.PaymentReportName+".csv"))
	require.Len(t, payments, 4)
	assert.Equal(t, "No Asignado", payments[0][4])

	wb, err := os.Open(filepath.Join(outDir, WorkbookName))
	require.NoError(t, err)
	defer wb.Close()
	first, err := table.ReadXLSX(wb)
	require.NoError(t, err)
	assert.Equal(t, invoices[0], first.Headers)
}

func TestReconcileCommandDryRunWritesNothing(t *testing.T) {
	inv, pay := writeInputs(t)
	outDir := filepath.Join(t.TempDir(), "resultado")

	out, err := execute(t, "reconcile",
		"--invoices", inv, "--payments", pay,
		"--as-of", "2024-04-01", "--out-dir", outDir, "--dry-run", "--json")
	require.NoError(t, err)

	assert.Contains(t, out, `"allocations": 4`)
	assert.Contains(t, out, `"client_matching": true`)
	assert.NoDirExists(t, outDir)
}

func TestReconcileCommandFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	inv := filepath.Join(dir, "facturas.csv")
	pay := filepath.Join(dir, "pagos.csv")
	require.NoError(t, os.WriteFile(inv, []byte(invoicesCSV), 0o600))
	require.NoError(t, os.WriteFile(pay, []byte("Descripción;Cliente\nPago;Acme\n"), 0o600))
	outDir := filepath.Join(dir, "resultado")

	_, err := execute(t, "reconcile", "--invoices", inv, "--payments", pay, "--out-dir", outDir)

	var structErr *reconciliation.StructuralError
	require.ErrorAs(t, err, &structErr)
	assert.Equal(t, "Monto", structErr.Column)
	assert.NoDirExists(t, outDir)
}

func TestReconcileOptionsFromFlags(t *testing.T) {
	now := time.Date(2024, 5, 20, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		args    []string
		wantErr error
		check   func(t *testing.T, opts reconcileOptions)
	}{
		{
			name: "files with config defaults",
			args: []string{"--invoices", "f.csv", "--payments", "p.csv"},
			check: func(t *testing.T, opts reconcileOptions) {
				assert.True(t, opts.fromFiles())
				assert.Equal(t, "resultado", opts.OutDir)
				assert.Equal(t, "csv", opts.Format)
				assert.Equal(t, "Facturas", opts.InvoicesSheet)
				assert.Equal(t, time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), opts.AsOf)
			},
		},
		{
			name: "flags override config",
			args: []string{"--sheet-url", "https://docs.google.com/spreadsheets/d/x", "--payments-sheet", "Banco", "--format", "XLSX", "--as-of", "31/12/2023"},
			check: func(t *testing.T, opts reconcileOptions) {
				assert.False(t, opts.fromFiles())
				assert.Equal(t, "Banco", opts.PaymentsSheet)
				assert.True(t, opts.writesXLSX())
				assert.False(t, opts.writesCSV())
				assert.Equal(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), opts.AsOf)
			},
		},
		{name: "no input", args: nil, wantErr: errNoInput},
		{name: "one file only", args: []string{"--invoices", "f.csv"}, wantErr: errIncompleteFiles},
		{name: "write sheets without url", args: []string{"--invoices", "f.csv", "--payments", "p.csv", "--write-sheets"}, wantErr: errSheetsNeedURL},
		{name: "bad format", args: []string{"--invoices", "f.csv", "--payments", "p.csv", "--format", "pdf"}, wantErr: errInvalidFormat},
		{name: "bad date", args: []string{"--invoices", "f.csv", "--payments", "p.csv", "--as-of", "yesterday"}, wantErr: reconciliation.ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &cobra.Command{}
			addReconcileFlags(c)
			require.NoError(t, c.Flags().Parse(tt.args))

			opts, err := reconcileOptionsFromFlags(c, config.Default(), now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, opts)
		})
	}
}

func TestColumnsCommand(t *testing.T) {
	out, err := execute(t, "columns")
	require.NoError(t, err)

	assert.Contains(t, out, "invoices:")
	assert.Contains(t, out, "- Nro Factura")
	assert.Contains(t, out, "payments:")
}
