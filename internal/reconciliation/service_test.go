package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conciliador/internal/config"
	"conciliador/internal/table"
)

func TestServiceRun(t *testing.T) {
	invoices := invoiceTable(
		[]string{"F-1", "Acme", "100", "2024-01-01"},
		[]string{"F-2", "Beta", "40", "2024-01-02"},
	)
	payments := paymentTable(
		[]string{"", "deposito", "60", "beta"},
	)

	out, err := NewService(config.DefaultColumnMap()).Run(invoices, payments, asOf)
	require.NoError(t, err)

	require.NotNil(t, out.Dataset)
	require.NotNil(t, out.Result)
	require.Len(t, out.Tables, 3)

	allocs := out.Result.Allocations
	require.Len(t, allocs, 2)
	assert.Equal(t, "F2", allocs[0].InvoiceID, "same client first")
	assertAmount(t, "40", allocs[0].Applied)
	assert.Equal(t, "F1", allocs[1].InvoiceID)
	assertAmount(t, "20", allocs[1].Applied)

	assert.Equal(t, 1, out.Result.Summary.Paid)
	assert.Equal(t, 1, out.Result.Summary.Partial)
	assertAmount(t, "80", out.Result.Summary.Outstanding)
}

func TestServiceRunFailsWithoutPartialOutput(t *testing.T) {
	invoices := invoiceTable([]string{"F-1", "", "100"})
	payments := table.New("pagos", "Descripción", "Cliente")

	out, err := NewService(config.DefaultColumnMap()).Run(invoices, payments, asOf)
	assert.Nil(t, out)

	var recErr *ReconcileError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, "Run", recErr.Op)

	var structErr *StructuralError
	require.ErrorAs(t, err, &structErr)
	assert.Equal(t, paymentsTable, structErr.Table)
	assert.Equal(t, "Monto", structErr.Column)
}

func TestWrapReconcileError(t *testing.T) {
	assert.NoError(t, WrapReconcileError("Run", nil, ""))

	inner := &ReconcileError{Op: "Load", Err: ErrInvalidAmount}
	assert.Same(t, inner, WrapReconcileError("Run", inner, "again"))

	err := WrapReconcileError("Export", ErrInvalidDate, "writing")
	assert.EqualError(t, err, "reconciliation: Export failed: writing: invalid date")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
