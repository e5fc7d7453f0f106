// Package reconciliation matches payments against invoices.
//
// A run loads an invoice table and a payment table, allocates every payment
// across the open invoices and produces three output tables: invoices with
// paid amount, balance, status and overdue days; payments with their
// unallocated remainder; and the allocation ledger.
//
// Input Columns (accent and case insensitive, aliases configurable):
//   - Invoices: Nro Factura (required), Monto (required), Cliente, Fecha Emisión,
//     Tipo Documento, Fecha Vencimiento
//   - Payments: Descripción (required), Monto (required), Cliente, Fecha
//
// Allocation Passes, per payment and in input order:
//   - Explicit reference: invoice numbers found in the payment description
//   - Same client: open invoices of the payment's client, oldest first
//     (only when both tables have a client column)
//   - Fallback: any open invoice, oldest first
//
// Failures:
//   - *StructuralError when a required column is missing
//   - *ValueConversionError when an amount is empty, not numeric or negative
//
// Either a run completes and returns all three tables or it returns an error
// and nothing else.
package reconciliation

import (
	"time"

	"github.com/rs/zerolog"

	"conciliador/internal/config"
	"conciliador/internal/logger"
	"conciliador/internal/table"
	"conciliador/pkg/services"
)

// Outcome is everything a completed run produced
type Outcome struct {
	Dataset *Dataset
	Result  *services.Reconciliation
	Tables  []*table.Table
}

// Service runs loading, allocation and reporting as one step
type Service struct {
	loader        *Loader
	newReconciler func(Schema) services.Reconciler
	log           zerolog.Logger
}

// NewService creates a reconciliation service using the given column aliases
func NewService(columns config.ColumnMap) *Service {
	return &Service{
		loader: NewLoader(columns),
		newReconciler: func(s Schema) services.Reconciler {
			return NewAllocator(s.ClientMatching)
		},
		log: logger.WithComponent("reconciliation"),
	}
}

// Run reconciles the two tables as of the reference date
func (s *Service) Run(invoices, payments *table.Table, asOf time.Time) (*Outcome, error) {
	const op = "Run"

	s.log.Info().
		Str("invoices_table", invoices.Name).
		Str("payments_table", payments.Name).
		Str("as_of", asOf.Format("2006-01-02")).
		Msg("Starting reconciliation")

	ds, err := s.loader.Load(invoices, payments)
	if err != nil {
		return nil, WrapReconcileError(op, err, "loading input tables")
	}

	result, err := s.newReconciler(ds.Schema).Reconcile(ds.Invoices, ds.Payments, asOf)
	if err != nil {
		return nil, WrapReconcileError(op, err, "allocating payments")
	}

	return &Outcome{
		Dataset: ds,
		Result:  result,
		Tables:  Report(ds, result),
	}, nil
}
