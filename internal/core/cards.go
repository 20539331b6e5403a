package core

import "time"

// DueSummary is the outcome of reconciling one month's statements against
// the payments recorded for that month.
type DueSummary struct {
	TotalDue    Money
	MinimumDue  Money
	NextDueDate Date // zero when no statements are in scope
	Overdue     bool
}

// ReconcileDues matches payments against statements and reports the
// outstanding totals for the window.
//
// Payments without a statement reference cannot be attributed to a specific
// statement and are left out of the match; they reduce nothing here. A
// statement paid beyond its total clamps to zero outstanding rather than
// going negative, and a fully covered statement never raises the overdue
// flag regardless of its due date.
//
// Multiple cards are reconciled independently by the caller and the
// summaries summed; there is no cross-card netting.
func ReconcileDues(statements []CardStatement, payments []CardPayment, today time.Time) DueSummary {
	paid := make(map[int64]Money, len(statements))
	for _, p := range payments {
		if p.StatementID == 0 {
			continue
		}
		paid[p.StatementID] = paid[p.StatementID].Add(p.Amount)
	}

	var out DueSummary
	for _, s := range statements {
		applied := paid[s.ID]
		outstanding := s.TotalDue.Sub(applied).ClampZero()
		outstandingMin := s.MinimumDue.Sub(applied).ClampZero()

		out.TotalDue = out.TotalDue.Add(outstanding)
		out.MinimumDue = out.MinimumDue.Add(outstandingMin)

		if out.NextDueDate.IsEmpty() || s.DueDate.Before(out.NextDueDate.Time) {
			out.NextDueDate = s.DueDate
		}
		if outstanding.Cents > 0 && s.DueDate.Before(today) {
			out.Overdue = true
		}
	}
	return out
}

// Combine sums two due summaries, keeping the earlier next-due date.
func (d DueSummary) Combine(o DueSummary) DueSummary {
	out := DueSummary{
		TotalDue:    d.TotalDue.Add(o.TotalDue),
		MinimumDue:  d.MinimumDue.Add(o.MinimumDue),
		NextDueDate: d.NextDueDate,
		Overdue:     d.Overdue || o.Overdue,
	}
	if out.NextDueDate.IsEmpty() || (!o.NextDueDate.IsEmpty() && o.NextDueDate.Before(out.NextDueDate.Time)) {
		out.NextDueDate = o.NextDueDate
	}
	return out
}

// InstallmentDue returns the slice of the purchase that lands in the month
// containing monthStart: the full amount divided into equal monthly pieces
// starting in the purchase month. Zero installments default to one; a
// negative count is a validation failure that should have been caught
// upstream and is surfaced instead of coerced.
func (t CardTransaction) InstallmentDue(monthStart time.Time) (Money, error) {
	n := t.InstallmentsTotal
	if n == 0 {
		n = 1
	}
	if n < 0 {
		return Money{}, ErrInvalidInstallments
	}
	diff := MonthsBetween(t.PurchasedAt.Time, monthStart)
	if diff < 0 || diff >= n {
		return Money{}, nil
	}
	return t.Amount.Divide(n), nil
}

// InstallmentsDue sums the installment slices of every transaction that
// bills into the month containing monthStart, regardless of purchase date.
func InstallmentsDue(txs []CardTransaction, monthStart time.Time) (Money, error) {
	var total Money
	for _, t := range txs {
		due, err := t.InstallmentDue(monthStart)
		if err != nil {
			return Money{}, err
		}
		total = total.Add(due)
	}
	return total, nil
}

// MonthlyCardSpend sums the full, undivided amount of every transaction
// purchased within the month containing monthStart. This answers "what did I
// buy this month" and is distinct from InstallmentsDue, which answers "what
// installment bills land this month".
func MonthlyCardSpend(txs []CardTransaction, monthStart time.Time) Money {
	var total Money
	for _, t := range txs {
		if MonthsBetween(t.PurchasedAt.Time, monthStart) == 0 {
			total = total.Add(t.Amount)
		}
	}
	return total
}
