// Package services orchestrates the pure engine against storage, the
// message broker and the export sinks.
package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"margine/internal/core"
	"margine/internal/export"
)

// LedgerReader supplies the time-bounded ledger rows for one user.
type LedgerReader interface {
	ListIncomes(ctx context.Context) ([]core.Income, error)
	ListFixedExpenses(ctx context.Context) ([]core.FixedExpense, error)
	ListPersonalBudgets(ctx context.Context) ([]core.PersonalBudget, error)
	ListCommitments(ctx context.Context) ([]core.Commitment, error)
}

// BudgetService assembles the monthly leftover picture: ledger rows plus the
// reconciled card dues, fed through the pure engine.
type BudgetService struct {
	ledger   LedgerReader
	cards    *CardService
	exporter export.SummaryWriter
	now      func() time.Time
}

func NewBudgetService(ledger LedgerReader, cards *CardService, exporter export.SummaryWriter) *BudgetService {
	return &BudgetService{
		ledger:   ledger,
		cards:    cards,
		exporter: exporter,
		now:      time.Now,
	}
}

// MonthSummary computes the summary for the given calendar month. The four
// row sets are independent, so they load concurrently.
func (s *BudgetService) MonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error) {
	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)

	var (
		incomes     []core.Income
		fixed       []core.FixedExpense
		personal    []core.PersonalBudget
		commitments []core.Commitment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		incomes, err = s.ledger.ListIncomes(gctx)
		return err
	})
	g.Go(func() (err error) {
		fixed, err = s.ledger.ListFixedExpenses(gctx)
		return err
	})
	g.Go(func() (err error) {
		personal, err = s.ledger.ListPersonalBudgets(gctx)
		return err
	})
	g.Go(func() (err error) {
		commitments, err = s.ledger.ListCommitments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.MonthSummary{}, fmt.Errorf("load ledger rows: %w", err)
	}

	var cardDue core.Money
	if s.cards != nil {
		overview, err := s.cards.MonthOverview(ctx, year, month)
		if err != nil {
			return core.MonthSummary{}, fmt.Errorf("reconcile card dues: %w", err)
		}
		cardDue = overview.Combined.TotalDue
	}

	return core.ComputeMonthSummary(core.MonthInput{
		MonthStart:      monthStart,
		Today:           s.now(),
		Incomes:         incomes,
		FixedExpenses:   fixed,
		PersonalBudgets: personal,
		Commitments:     commitments,
		CardDueTotal:    cardDue,
	}), nil
}

// ExportMonthSummary computes the month's summary and appends it to the
// configured spreadsheet sink. Without a sink it is a no-op.
func (s *BudgetService) ExportMonthSummary(ctx context.Context, year, month int) error {
	if s.exporter == nil {
		return nil
	}
	summary, err := s.MonthSummary(ctx, year, month)
	if err != nil {
		return err
	}
	if err := s.exporter.AppendMonthSummary(ctx, year, month, summary); err != nil {
		return fmt.Errorf("export month summary: %w", err)
	}
	return nil
}
