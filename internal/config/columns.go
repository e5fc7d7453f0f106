package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ColumnMap lists the accepted header names for every logical column.
// Matching is accent and case insensitive; the first alias is the canonical name.
type ColumnMap struct {
	Invoices InvoiceColumns `yaml:"invoices"`
	Payments PaymentColumns `yaml:"payments"`
}

type InvoiceColumns struct {
	ID           []string `yaml:"id"`
	Client       []string `yaml:"client"`
	Amount       []string `yaml:"amount"`
	IssueDate    []string `yaml:"issue_date"`
	DocumentType []string `yaml:"document_type"`
	DueDate      []string `yaml:"due_date"`
}

type PaymentColumns struct {
	Description []string `yaml:"description"`
	Amount      []string `yaml:"amount"`
	Client      []string `yaml:"client"`
	Date        []string `yaml:"date"`
}

// DefaultColumnMap returns the Spanish headers of the input templates plus English aliases
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		Invoices: InvoiceColumns{
			ID:           []string{"Nro Factura", "Numero Factura", "Factura", "Invoice Number", "Invoice"},
			Client:       []string{"Cliente", "Client", "Customer"},
			Amount:       []string{"Monto", "Importe", "Amount"},
			IssueDate:    []string{"Fecha Emisión", "Fecha", "Issue Date"},
			DocumentType: []string{"Tipo Documento", "Tipo", "Document Type"},
			DueDate:      []string{"Fecha Vencimiento", "Vencimiento", "Due Date"},
		},
		Payments: PaymentColumns{
			Description: []string{"Descripción", "Concepto", "Description"},
			Amount:      []string{"Monto", "Importe", "Amount"},
			Client:      []string{"Cliente", "Client", "Customer"},
			Date:        []string{"Fecha", "Date"},
		},
	}
}

// LoadColumnMap reads extra aliases from a YAML file and merges them into the defaults.
// File aliases are tried before the built-in ones. An empty path yields the defaults.
func LoadColumnMap(path string) (ColumnMap, error) {
	const op = "LoadColumnMap"

	columns := DefaultColumnMap()
	if path == "" {
		return columns, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return ColumnMap{}, fmt.Errorf("%s: failed to read %s: %w", op, path, err)
	}

	var extra ColumnMap
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return ColumnMap{}, fmt.Errorf("%s: failed to parse %s: %w", op, path, err)
	}

	columns.Merge(extra)
	return columns, nil
}

// Merge puts the aliases of other in front of the receiver's aliases
func (m *ColumnMap) Merge(other ColumnMap) {
	m.Invoices.ID = prepend(other.Invoices.ID, m.Invoices.ID)
	m.Invoices.Client = prepend(other.Invoices.Client, m.Invoices.Client)
	m.Invoices.Amount = prepend(other.Invoices.Amount, m.Invoices.Amount)
	m.Invoices.IssueDate = prepend(other.Invoices.IssueDate, m.Invoices.IssueDate)
	m.Invoices.DocumentType = prepend(other.Invoices.DocumentType, m.Invoices.DocumentType)
	m.Invoices.DueDate = prepend(other.Invoices.DueDate, m.Invoices.DueDate)

	m.Payments.Description = prepend(other.Payments.Description, m.Payments.Description)
	m.Payments.Amount = prepend(other.Payments.Amount, m.Payments.Amount)
	m.Payments.Client = prepend(other.Payments.Client, m.Payments.Client)
	m.Payments.Date = prepend(other.Payments.Date, m.Payments.Date)
}

func prepend(front, back []string) []string {
	if len(front) == 0 {
		return back
	}
	out := make([]string, 0, len(front)+len(back))
	out = append(out, front...)
	return append(out, back...)
}
