package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	Index       int             // Ordinal position in the input set
	Row         int             // Index of the data row in the source table
	Description string          // Uppercased description
	Reference   string          // Description reduced to uppercase alphanumerics, searched for invoice numbers
	Amount      decimal.Decimal // Payment amount, never mutated
	Client      string          // Normalized client identifier, empty when unknown
	Date        *time.Time      // Informational only

	Unallocated decimal.Decimal // Remainder after all passes, rounded to 2 decimals
}

// Allocation is one transfer of money from a payment to an invoice
type Allocation struct {
	PaymentIndex int
	InvoiceID    string
	Applied      decimal.Decimal
}
