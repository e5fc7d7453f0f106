package reconciliation

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"conciliador/internal/logger"
	"conciliador/pkg/models"
	"conciliador/pkg/services"
)

// Tolerance is the amount below which a balance or a payment remainder counts
// as settled.
var Tolerance = decimal.New(1, -2)

// Allocator spreads payments over invoices in three passes: explicit invoice
// reference in the payment description, same client oldest first, and any
// invoice oldest first.
type Allocator struct {
	clientMatching bool
}

var _ services.Reconciler = (*Allocator)(nil)

// NewAllocator creates an allocator. clientMatching comes from the schema
// check; when false the same-client pass never runs.
func NewAllocator(clientMatching bool) *Allocator {
	return &Allocator{clientMatching: clientMatching}
}

// Reconcile runs the allocation over private copies of invoices and payments
// and derives status and overdue days as of asOf. Payments are processed in
// input order, so the first payment able to settle an invoice gets it.
func (a *Allocator) Reconcile(invoices []models.Invoice, payments []models.Payment, asOf time.Time) (*services.Reconciliation, error) {
	if err := checkAmounts(invoices, payments); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := logger.WithRunID("allocator", runID)

	l := newLedger(invoices, log)
	out := slices.Clone(payments)

	log.Info().
		Int("invoices", len(invoices)).
		Int("payments", len(payments)).
		Bool("client_matching", a.clientMatching).
		Msg("Starting allocation")

	for i := range out {
		p := &out[i]
		remaining := l.referencePass(p, p.Amount)

		if a.clientMatching && remaining.GreaterThan(Tolerance) {
			remaining = l.clientPass(p, remaining)
		}
		if remaining.GreaterThan(Tolerance) {
			remaining = l.fallbackPass(p, remaining)
		}

		p.Unallocated = remaining.Round(2)

		log.Debug().
			Int("payment", p.Index).
			Str("amount", formatAmount(p.Amount)).
			Str("unallocated", formatAmount(p.Unallocated)).
			Msg("Payment processed")
	}

	Finalize(l.invoices, asOf)

	result := &services.Reconciliation{
		Invoices:    l.invoices,
		Payments:    out,
		Allocations: l.allocations,
	}
	result.Summary = Summarize(result, asOf)
	result.Summary.RunID = runID
	result.Summary.ClientMatching = a.clientMatching

	log.Info().
		Int("allocations", result.Summary.Allocations).
		Int("paid", result.Summary.Paid).
		Int("partial", result.Summary.Partial).
		Int("pending", result.Summary.Pending).
		Str("applied", formatAmount(result.Summary.Applied)).
		Str("unallocated", formatAmount(result.Summary.Unallocated)).
		Msg("Allocation completed")

	return result, nil
}

func checkAmounts(invoices []models.Invoice, payments []models.Payment) error {
	for _, inv := range invoices {
		if inv.Amount.IsNegative() {
			return &ValueConversionError{
				Table:  invoicesTable,
				Line:   sourceLine(inv.Row),
				Column: "Monto",
				Value:  inv.Amount.String(),
				Err:    ErrNegativeAmount,
			}
		}
	}
	for _, p := range payments {
		if p.Amount.IsNegative() {
			return &ValueConversionError{
				Table:  paymentsTable,
				Line:   sourceLine(p.Row),
				Column: "Monto",
				Value:  p.Amount.String(),
				Err:    ErrNegativeAmount,
			}
		}
	}
	return nil
}

// ledger owns the running invoice balances of one run. allocate is the only
// place where a balance changes.
type ledger struct {
	invoices    []models.Invoice
	allocations []models.Allocation
	log         zerolog.Logger
}

func newLedger(invoices []models.Invoice, log zerolog.Logger) *ledger {
	l := &ledger{
		invoices: slices.Clone(invoices),
		log:      log,
	}
	for i := range l.invoices {
		inv := &l.invoices[i]
		inv.PaidAmount = decimal.Zero
		inv.Balance = inv.Amount
		inv.Status = ""
		inv.OverdueDays = 0
	}
	return l
}

// allocate applies up to requested against the invoice balance and records
// the transfer. It returns the amount applied, zero when the invoice is
// already settled or nothing was requested.
func (l *ledger) allocate(paymentIndex int, inv *models.Invoice, requested decimal.Decimal) decimal.Decimal {
	if inv.Balance.LessThanOrEqual(Tolerance) || !requested.IsPositive() {
		return decimal.Zero
	}

	applied := decimal.Min(inv.Balance, requested)
	inv.PaidAmount = inv.PaidAmount.Add(applied)
	inv.Balance = inv.Balance.Sub(applied)

	l.allocations = append(l.allocations, models.Allocation{
		PaymentIndex: paymentIndex,
		InvoiceID:    inv.ID,
		Applied:      applied,
	})

	l.log.Debug().
		Int("payment", paymentIndex).
		Str("invoice", inv.ID).
		Str("applied", formatAmount(applied)).
		Str("balance", formatAmount(inv.Balance)).
		Msg("Allocated")

	return applied
}

// referencePass allocates to invoices whose number appears in the payment
// description, in table order.
// TODO: several invoice numbers in one description are settled in table
// order, not in the order they are written; confirm with finance.
func (l *ledger) referencePass(p *models.Payment, remaining decimal.Decimal) decimal.Decimal {
	for i := range l.invoices {
		if remaining.LessThan(Tolerance) {
			break
		}
		inv := &l.invoices[i]
		if inv.ID == "" || !inv.Balance.IsPositive() || !strings.Contains(p.Reference, inv.ID) {
			continue
		}
		remaining = remaining.Sub(l.allocate(p.Index, inv, remaining))
	}
	return remaining
}

// clientPass allocates to open invoices of the payment's client, oldest first
func (l *ledger) clientPass(p *models.Payment, remaining decimal.Decimal) decimal.Decimal {
	if p.Client == "" {
		return remaining
	}
	candidates := l.oldestFirst(func(inv *models.Invoice) bool {
		return inv.Client == p.Client
	})
	return l.drain(p, candidates, remaining)
}

// fallbackPass allocates to any open invoice, oldest first
func (l *ledger) fallbackPass(p *models.Payment, remaining decimal.Decimal) decimal.Decimal {
	candidates := l.oldestFirst(func(*models.Invoice) bool { return true })
	return l.drain(p, candidates, remaining)
}

func (l *ledger) drain(p *models.Payment, candidates []int, remaining decimal.Decimal) decimal.Decimal {
	for _, i := range candidates {
		if remaining.LessThan(Tolerance) {
			break
		}
		remaining = remaining.Sub(l.allocate(p.Index, &l.invoices[i], remaining))
	}
	return remaining
}

// oldestFirst returns the positions of open invoices accepted by keep, sorted
// by issue date. Invoices without a date go last; ties keep table order.
func (l *ledger) oldestFirst(keep func(*models.Invoice) bool) []int {
	var candidates []int
	for i := range l.invoices {
		inv := &l.invoices[i]
		if inv.Balance.IsPositive() && keep(inv) {
			candidates = append(candidates, i)
		}
	}

	slices.SortStableFunc(candidates, func(a, b int) int {
		return compareIssueDates(l.invoices[a].IssueDate, l.invoices[b].IssueDate)
	})
	return candidates
}

func compareIssueDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

// Finalize derives status and overdue days for every invoice from its
// balance. It only reads Amount, PaidAmount, Balance and the due date, so
// running it again with the same asOf changes nothing.
func Finalize(invoices []models.Invoice, asOf time.Time) {
	for i := range invoices {
		inv := &invoices[i]

		switch {
		case inv.Balance.LessThanOrEqual(Tolerance):
			inv.Status = models.StatusPaid
		case inv.PaidAmount.IsPositive():
			inv.Status = models.StatusPartial
		default:
			inv.Status = models.StatusPending
		}

		inv.OverdueDays = 0
		if inv.IsInvoiceDocument() && inv.Balance.IsPositive() && inv.DueDate != nil {
			inv.OverdueDays = max(daysBetween(*inv.DueDate, asOf), 0)
		}
	}
}

// daysBetween counts calendar days from one date to another, ignoring the
// time of day
func daysBetween(from, to time.Time) int {
	return int(dateOnly(to).Sub(dateOnly(from)).Hours() / 24)
}

// Summarize computes counts and totals of a finished run
func Summarize(r *services.Reconciliation, asOf time.Time) services.Summary {
	s := services.Summary{
		AsOf:        dateOnly(asOf),
		Invoices:    len(r.Invoices),
		Payments:    len(r.Payments),
		Allocations: len(r.Allocations),
		Invoiced:    decimal.Zero,
		Applied:     decimal.Zero,
		Outstanding: decimal.Zero,
		Unallocated: decimal.Zero,
	}

	for _, inv := range r.Invoices {
		s.Invoiced = s.Invoiced.Add(inv.Amount)
		s.Outstanding = s.Outstanding.Add(inv.Balance)
		switch inv.Status {
		case models.StatusPaid:
			s.Paid++
		case models.StatusPartial:
			s.Partial++
		default:
			s.Pending++
		}
		if inv.OverdueDays > 0 {
			s.Overdue++
		}
	}
	for _, a := range r.Allocations {
		s.Applied = s.Applied.Add(a.Applied)
	}
	for _, p := range r.Payments {
		s.Unallocated = s.Unallocated.Add(p.Unallocated)
	}

	return s
}
