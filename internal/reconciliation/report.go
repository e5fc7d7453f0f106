package reconciliation

import (
	"slices"
	"strconv"

	"conciliador/internal/table"
	"conciliador/pkg/services"
)

// Output table names, also used as file and sheet names
const (
	InvoiceReportName    = "facturas_resultado"
	PaymentReportName    = "pagos_resultado"
	AllocationReportName = "asignaciones"
)

// Headers appended to or making up the output tables
const (
	HeaderPaid        = "Pagado"
	HeaderBalance     = "Saldo"
	HeaderStatus      = "Estado"
	HeaderOverdueDays = "Días Mora"
	HeaderUnallocated = "No Asignado"

	HeaderPaymentIndex = "Pago_idx"
	HeaderInvoiceID    = "Nro Factura"
	HeaderApplied      = "Asignado"
)

// Report builds the three output tables of a run: the invoice table augmented
// with paid amount, balance, status and overdue days, the payment table
// augmented with the unallocated remainder, and the allocation ledger.
//
// Source columns are kept in place. Bound columns are rewritten with their
// normalized values: invoice numbers, amounts with two decimals and ISO dates.
func Report(ds *Dataset, r *services.Reconciliation) []*table.Table {
	return []*table.Table{
		invoiceReport(ds, r),
		paymentReport(ds, r),
		allocationReport(r),
	}
}

func invoiceReport(ds *Dataset, r *services.Reconciliation) *table.Table {
	src := ds.InvoiceTable
	cols := ds.Schema.Invoice

	headers := append(slices.Clone(src.Headers), HeaderPaid, HeaderBalance, HeaderStatus, HeaderOverdueDays)
	out := table.New(InvoiceReportName, headers...)

	for _, inv := range r.Invoices {
		record := src.Record(inv.Row)
		set(record, cols.ID, inv.ID)
		set(record, cols.Amount, formatAmount(inv.Amount))
		if inv.IssueDate != nil {
			set(record, cols.IssueDate, formatDate(inv.IssueDate))
		}
		if inv.DueDate != nil {
			set(record, cols.DueDate, formatDate(inv.DueDate))
		}

		out.Append(append(record,
			formatAmount(inv.PaidAmount),
			formatAmount(inv.Balance),
			inv.Status.Label(),
			strconv.Itoa(inv.OverdueDays),
		)...)
	}
	return out
}

func paymentReport(ds *Dataset, r *services.Reconciliation) *table.Table {
	src := ds.PaymentTable
	cols := ds.Schema.Payment

	headers := append(slices.Clone(src.Headers), HeaderUnallocated)
	out := table.New(PaymentReportName, headers...)

	for _, p := range r.Payments {
		record := src.Record(p.Row)
		set(record, cols.Amount, formatAmount(p.Amount))
		if p.Date != nil {
			set(record, cols.Date, formatDate(p.Date))
		}

		out.Append(append(record, formatAmount(p.Unallocated))...)
	}
	return out
}

func allocationReport(r *services.Reconciliation) *table.Table {
	out := table.New(AllocationReportName, HeaderPaymentIndex, HeaderInvoiceID, HeaderApplied)
	for _, a := range r.Allocations {
		out.Append(strconv.Itoa(a.PaymentIndex), a.InvoiceID, formatAmount(a.Applied))
	}
	return out
}

func set(record []string, col int, value string) {
	if col >= 0 && col < len(record) {
		record[col] = value
	}
}
