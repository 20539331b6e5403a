package core

import "time"

// MonthInput carries one month of ledger rows into the aggregation engine.
// The slices arrive already scoped to one user by the storage layer; the
// engine only reads them and never mutates a row.
type MonthInput struct {
	MonthStart time.Time
	Today      time.Time

	Incomes         []Income
	FixedExpenses   []FixedExpense
	PersonalBudgets []PersonalBudget
	Commitments     []Commitment

	// CardDueTotal is precomputed by ReconcileDues; the engine does not
	// recompute it from raw card rows.
	CardDueTotal Money
}

// MonthSummary is the engine's core output: the five obligation/income
// category totals, both leftover figures and the suggested daily spend.
type MonthSummary struct {
	Period        Period
	DaysInMonth   int
	RemainingDays int

	IncomeTotal      Money
	FixedTotal       Money
	PersonalTotal    Money
	CommitmentsTotal Money
	CardDueTotal     Money

	LeftoverBeforePersonal Money
	LeftoverAfterPersonal  Money
	DailySuggestion        Money
}

// ComputeMonthSummary sums the active rows for the month containing
// in.MonthStart and derives the leftover figures.
//
// Card dues are a fifth obligation category inside the engine:
// LeftoverBeforePersonal already has CardDueTotal subtracted, so every caller
// sees one canonical composition instead of re-subtracting at display time.
//
// Empty inputs yield zero totals, never an error. The daily suggestion is
// floored at zero: a month already in deficit suggests spending nothing, not
// a negative amount.
func ComputeMonthSummary(in MonthInput) MonthSummary {
	period := MonthPeriod(in.MonthStart)
	daysInMonth, remaining := RemainingDays(in.MonthStart, in.Today)

	var income, fixed, personal, commitments Money
	for _, e := range in.Incomes {
		if e.Active && e.OverlapsPeriod(period) {
			income = income.Add(e.Amount)
		}
	}
	for _, e := range in.FixedExpenses {
		if e.Active && e.OverlapsPeriod(period) {
			fixed = fixed.Add(e.Amount)
		}
	}
	for _, e := range in.PersonalBudgets {
		if e.Active && e.OverlapsPeriod(period) {
			personal = personal.Add(e.Amount)
		}
	}
	for _, c := range in.Commitments {
		if c.CoversMonth(period.Start) {
			commitments = commitments.Add(c.AmountPerMonth)
		}
	}

	before := income.Sub(fixed).Sub(commitments).Sub(in.CardDueTotal)
	after := before.Sub(personal)

	return MonthSummary{
		Period:                 period,
		DaysInMonth:            daysInMonth,
		RemainingDays:          remaining,
		IncomeTotal:            income,
		FixedTotal:             fixed,
		PersonalTotal:          personal,
		CommitmentsTotal:       commitments,
		CardDueTotal:           in.CardDueTotal,
		LeftoverBeforePersonal: before,
		LeftoverAfterPersonal:  after,
		DailySuggestion:        after.ClampZero().Divide(remaining),
	}
}
