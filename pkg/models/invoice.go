package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is the settlement state of an invoice after a reconciliation run
type InvoiceStatus string

const (
	StatusPending InvoiceStatus = "PENDING"
	StatusPartial InvoiceStatus = "PARTIAL"
	StatusPaid    InvoiceStatus = "PAID"
)

// Label returns the status label used in output tables
func (s InvoiceStatus) Label() string {
	switch s {
	case StatusPaid:
		return "PAGADA"
	case StatusPartial:
		return "PARCIAL"
	default:
		return "PENDIENTE"
	}
}

// DocumentTypeInvoice is the only document type that accrues overdue days
const DocumentTypeInvoice = "FACT"

type Invoice struct {
	// Identification
	ID     string // Normalized invoice number (uppercase alphanumeric)
	Client string // Normalized client identifier, empty when unknown
	Row    int    // Index of the data row in the source table

	// Amounts
	Amount     decimal.Decimal // Original invoice total, never mutated
	PaidAmount decimal.Decimal // Sum of allocations applied so far
	Balance    decimal.Decimal // Amount - PaidAmount

	// Dates
	IssueDate *time.Time // Fecha Emisión, nil when missing
	DueDate   *time.Time // Fecha Vencimiento, nil when missing

	// Classification
	DocumentType string // Tipo Documento, trimmed and uppercased

	// Derived after allocation
	Status      InvoiceStatus
	OverdueDays int
}

// IsInvoiceDocument reports whether the document accrues overdue days
func (i *Invoice) IsInvoiceDocument() bool {
	return i.DocumentType == DocumentTypeInvoice
}
