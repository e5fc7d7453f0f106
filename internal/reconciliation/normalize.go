package reconciliation

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents removes combining marks ("Emisión" -> "Emision").
// Transformers and casers keep state, so each call builds its own.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// NormalizeID reduces an invoice number to uppercase ASCII letters and digits
// ("inv-001" -> "INV001").
func NormalizeID(s string) string {
	return alphanumeric(upper(foldAccents(s)))
}

// NormalizeDescription uppercases a payment description.
func NormalizeDescription(s string) string {
	return upper(strings.TrimSpace(s))
}

// ReferenceKey reduces a description the same way NormalizeID reduces invoice
// numbers, so that "PAGO INV-001" contains "INV001".
func ReferenceKey(description string) string {
	return NormalizeID(description)
}

// NormalizeClient trims, folds accents, collapses inner whitespace and
// uppercases a client identifier. Both tables go through it so equality is
// meaningful.
func NormalizeClient(s string) string {
	return strings.Join(strings.Fields(upper(foldAccents(s))), " ")
}

// NormalizeDocumentType trims and uppercases a document type.
func NormalizeDocumentType(s string) string {
	return upper(strings.TrimSpace(s))
}

// headerKey folds a column header for alias matching: accents and case are
// ignored and punctuation counts as a space ("Nro. Factura" == "NRO FACTURA").
func headerKey(s string) string {
	folded := upper(foldAccents(s))
	mapped := strings.Map(func(r rune) rune {
		if isASCIIAlnum(r) {
			return r
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(mapped), " ")
}

func alphanumeric(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isASCIIAlnum(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
