package reconciliation

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"conciliador/internal/config"
	"conciliador/internal/logger"
	"conciliador/internal/table"
	"conciliador/pkg/models"
)

const (
	invoicesTable = "invoices"
	paymentsTable = "payments"
)

// absent marks a column that is not present in a table
const absent = -1

// InvoiceColumns holds the header position of every invoice column
type InvoiceColumns struct {
	ID, Client, Amount, IssueDate, DocumentType, DueDate int
}

// PaymentColumns holds the header position of every payment column
type PaymentColumns struct {
	Description, Amount, Client, Date int
}

// Schema describes which columns the input tables carry. It is resolved once,
// before any row is read.
type Schema struct {
	Invoice InvoiceColumns
	Payment PaymentColumns

	// ClientMatching is true when both tables carry a client column; the
	// same-client pass is skipped otherwise.
	ClientMatching bool
}

// Dataset is the normalized input of one reconciliation run
type Dataset struct {
	InvoiceTable *table.Table
	PaymentTable *table.Table
	Invoices     []models.Invoice
	Payments     []models.Payment
	Schema       Schema
}

// Loader binds table columns and converts rows into invoices and payments
type Loader struct {
	columns config.ColumnMap
	log     zerolog.Logger
}

// NewLoader creates a loader matching headers against the given aliases
func NewLoader(columns config.ColumnMap) *Loader {
	return &Loader{
		columns: columns,
		log:     logger.WithComponent("reconciliation-loader"),
	}
}

// Load validates both tables and converts them. Missing required columns fail
// with a *StructuralError before any row is converted; unusable amounts fail
// with a *ValueConversionError. Nothing is returned on failure.
func (l *Loader) Load(invoiceTable, paymentTable *table.Table) (*Dataset, error) {
	schema, err := l.ResolveSchema(invoiceTable, paymentTable)
	if err != nil {
		return nil, err
	}

	invoices, err := l.readInvoices(invoiceTable, schema.Invoice)
	if err != nil {
		return nil, err
	}

	payments, err := l.readPayments(paymentTable, schema.Payment)
	if err != nil {
		return nil, err
	}

	l.log.Info().
		Int("invoices", len(invoices)).
		Int("payments", len(payments)).
		Bool("client_matching", schema.ClientMatching).
		Msg("Input tables loaded")

	return &Dataset{
		InvoiceTable: invoiceTable,
		PaymentTable: paymentTable,
		Invoices:     invoices,
		Payments:     payments,
		Schema:       schema,
	}, nil
}

// ResolveSchema binds every logical column to a header position and checks
// that the required ones exist.
func (l *Loader) ResolveSchema(invoiceTable, paymentTable *table.Table) (Schema, error) {
	inv := l.columns.Invoices
	pay := l.columns.Payments

	schema := Schema{
		Invoice: InvoiceColumns{
			ID:           bindColumn(invoiceTable.Headers, inv.ID),
			Client:       bindColumn(invoiceTable.Headers, inv.Client),
			Amount:       bindColumn(invoiceTable.Headers, inv.Amount),
			IssueDate:    bindColumn(invoiceTable.Headers, inv.IssueDate),
			DocumentType: bindColumn(invoiceTable.Headers, inv.DocumentType),
			DueDate:      bindColumn(invoiceTable.Headers, inv.DueDate),
		},
		Payment: PaymentColumns{
			Description: bindColumn(paymentTable.Headers, pay.Description),
			Amount:      bindColumn(paymentTable.Headers, pay.Amount),
			Client:      bindColumn(paymentTable.Headers, pay.Client),
			Date:        bindColumn(paymentTable.Headers, pay.Date),
		},
	}

	required := []struct {
		table   string
		index   int
		aliases []string
	}{
		{invoicesTable, schema.Invoice.ID, inv.ID},
		{invoicesTable, schema.Invoice.Amount, inv.Amount},
		{paymentsTable, schema.Payment.Description, pay.Description},
		{paymentsTable, schema.Payment.Amount, pay.Amount},
	}
	for _, r := range required {
		if r.index == absent {
			return Schema{}, &StructuralError{Table: r.table, Column: canonical(r.aliases)}
		}
	}

	schema.ClientMatching = schema.Invoice.Client != absent && schema.Payment.Client != absent
	if !schema.ClientMatching {
		l.log.Warn().
			Bool("invoice_client_column", schema.Invoice.Client != absent).
			Bool("payment_client_column", schema.Payment.Client != absent).
			Msg("Client column missing, same-client matching disabled")
	}

	return schema, nil
}

func (l *Loader) readInvoices(t *table.Table, cols InvoiceColumns) ([]models.Invoice, error) {
	invoices := make([]models.Invoice, 0, t.Len())
	seen := make(map[string]int, t.Len())

	for row := range t.Rows {
		if t.IsBlankRow(row) {
			continue
		}

		amount, err := readAmount(t, invoicesTable, row, cols.Amount)
		if err != nil {
			return nil, err
		}

		rawID := t.Cell(row, cols.ID)
		invoice := models.Invoice{
			ID:           NormalizeID(rawID),
			Client:       NormalizeClient(t.Cell(row, cols.Client)),
			Row:          row,
			Amount:       amount,
			IssueDate:    l.readDate(t, invoicesTable, row, cols.IssueDate),
			DocumentType: NormalizeDocumentType(t.Cell(row, cols.DocumentType)),
			DueDate:      l.readDate(t, invoicesTable, row, cols.DueDate),
		}

		if invoice.ID == "" {
			l.log.Warn().
				Int("line", sourceLine(row)).
				Str("raw_id", rawID).
				Msg("Invoice without usable number, excluded from reference matching")
		} else if first, dup := seen[invoice.ID]; dup {
			l.log.Warn().
				Str("invoice", invoice.ID).
				Int("line", sourceLine(row)).
				Int("first_line", sourceLine(first)).
				Msg("Duplicate invoice number")
		} else {
			seen[invoice.ID] = row
		}

		invoices = append(invoices, invoice)
	}

	return invoices, nil
}

func (l *Loader) readPayments(t *table.Table, cols PaymentColumns) ([]models.Payment, error) {
	payments := make([]models.Payment, 0, t.Len())

	for row := range t.Rows {
		if t.IsBlankRow(row) {
			continue
		}

		amount, err := readAmount(t, paymentsTable, row, cols.Amount)
		if err != nil {
			return nil, err
		}

		description := t.Cell(row, cols.Description)
		payments = append(payments, models.Payment{
			Index:       len(payments),
			Row:         row,
			Description: NormalizeDescription(description),
			Reference:   ReferenceKey(description),
			Amount:      amount,
			Client:      NormalizeClient(t.Cell(row, cols.Client)),
			Date:        l.readDate(t, paymentsTable, row, cols.Date),
		})
	}

	return payments, nil
}

func readAmount(t *table.Table, tableName string, row, col int) (decimal.Decimal, error) {
	raw := t.Cell(row, col)

	amount, err := ParseAmount(raw)
	if err == nil && amount.IsNegative() {
		err = fmt.Errorf("%w: %w", ErrInvalidAmount, ErrNegativeAmount)
	}
	if err != nil {
		return decimal.Zero, &ValueConversionError{
			Table:  tableName,
			Line:   sourceLine(row),
			Column: t.Headers[col],
			Value:  raw,
			Err:    err,
		}
	}
	return amount, nil
}

// readDate returns nil for absent columns and empty cells. Unparseable values
// are logged and read as missing.
func (l *Loader) readDate(t *table.Table, tableName string, row, col int) *time.Time {
	if col == absent {
		return nil
	}
	raw := t.Cell(row, col)
	if raw == "" {
		return nil
	}

	date, err := ParseDate(raw)
	if err != nil {
		l.log.Warn().
			Err(err).
			Str("table", tableName).
			Int("line", sourceLine(row)).
			Str("column", t.Headers[col]).
			Str("value", raw).
			Msg("Invalid date, treated as missing")
		return nil
	}
	return &date
}

// bindColumn returns the position of the first header matching an alias,
// trying aliases in order.
func bindColumn(headers, aliases []string) int {
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = headerKey(h)
	}

	for _, alias := range aliases {
		want := headerKey(alias)
		for i, key := range keys {
			if key != "" && key == want {
				return i
			}
		}
	}
	return absent
}

func canonical(aliases []string) string {
	if len(aliases) == 0 {
		return "?"
	}
	return aliases[0]
}
