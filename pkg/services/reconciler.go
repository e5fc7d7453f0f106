package services

import (
	"time"

	"github.com/shopspring/decimal"

	"conciliador/pkg/models"
)

// Reconciler defines the interface for allocating payments against invoices
type Reconciler interface {
	// Reconcile allocates every payment across the invoices and derives the final
	// invoice status as of the given reference date. Inputs are not mutated.
	Reconcile(invoices []models.Invoice, payments []models.Payment, asOf time.Time) (*Reconciliation, error)
}

// Reconciliation is the terminal state of one reconciliation run
type Reconciliation struct {
	Invoices    []models.Invoice
	Payments    []models.Payment
	Allocations []models.Allocation
	Summary     Summary
}

// Summary aggregates the figures of a run for logging and display
type Summary struct {
	RunID string    `json:"run_id"`
	AsOf  time.Time `json:"as_of"`

	// Counts
	Invoices    int `json:"invoices"`
	Payments    int `json:"payments"`
	Allocations int `json:"allocations"`
	Paid        int `json:"paid"`
	Partial     int `json:"partial"`
	Pending     int `json:"pending"`
	Overdue     int `json:"overdue"`

	// Totals
	Invoiced    decimal.Decimal `json:"invoiced"`
	Applied     decimal.Decimal `json:"applied"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Unallocated decimal.Decimal `json:"unallocated"`

	// ClientMatching is false when the same-client pass was skipped
	ClientMatching bool `json:"client_matching"`
}
