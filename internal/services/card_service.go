package services

import (
	"context"
	"fmt"
	"time"

	"margine/internal/core"
)

// CardReader supplies card rows scoped to one user.
type CardReader interface {
	ListActiveCards(ctx context.Context) ([]core.CreditCard, error)
	ListStatementsDueBetween(ctx context.Context, from, to core.Date) ([]core.CardStatement, error)
	ListPaymentsBetween(ctx context.Context, from, to core.Date) ([]core.CardPayment, error)
	ListCardTransactions(ctx context.Context) ([]core.CardTransaction, error)
}

// CardMonth is the full card picture for one calendar month.
type CardMonth struct {
	Combined        core.DueSummary
	PerCard         map[int64]core.DueSummary
	InstallmentsDue core.Money
	MonthSpend      core.Money
}

// CardService reconciles statements and payments per card and reports the
// installment load for a month.
type CardService struct {
	cards CardReader
	now   func() time.Time
}

func NewCardService(cards CardReader) *CardService {
	return &CardService{cards: cards, now: time.Now}
}

// ActiveCards lists the cards currently in use.
func (s *CardService) ActiveCards(ctx context.Context) ([]core.CreditCard, error) {
	cards, err := s.cards.ListActiveCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active cards: %w", err)
	}
	return cards, nil
}

// MonthOverview reconciles each card independently over the month window
// (statements by due date, payments by payment date) and sums the results;
// there is no cross-card netting. Installment dues consider every
// transaction regardless of purchase month.
func (s *CardService) MonthOverview(ctx context.Context, year, month int) (CardMonth, error) {
	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	period := core.MonthPeriod(monthStart)
	from := core.Date{Time: period.Start}
	to := core.Date{Time: period.End}

	statements, err := s.cards.ListStatementsDueBetween(ctx, from, to)
	if err != nil {
		return CardMonth{}, fmt.Errorf("load statements: %w", err)
	}
	payments, err := s.cards.ListPaymentsBetween(ctx, from, to)
	if err != nil {
		return CardMonth{}, fmt.Errorf("load payments: %w", err)
	}
	transactions, err := s.cards.ListCardTransactions(ctx)
	if err != nil {
		return CardMonth{}, fmt.Errorf("load transactions: %w", err)
	}

	statementsByCard := make(map[int64][]core.CardStatement)
	for _, st := range statements {
		statementsByCard[st.CardID] = append(statementsByCard[st.CardID], st)
	}
	paymentsByCard := make(map[int64][]core.CardPayment)
	for _, p := range payments {
		paymentsByCard[p.CardID] = append(paymentsByCard[p.CardID], p)
	}

	out := CardMonth{PerCard: make(map[int64]core.DueSummary, len(statementsByCard))}
	today := s.now()
	for cardID, cardStatements := range statementsByCard {
		due := core.ReconcileDues(cardStatements, paymentsByCard[cardID], today)
		out.PerCard[cardID] = due
		out.Combined = out.Combined.Combine(due)
	}

	if out.InstallmentsDue, err = core.InstallmentsDue(transactions, monthStart); err != nil {
		return CardMonth{}, fmt.Errorf("amortize installments: %w", err)
	}
	out.MonthSpend = core.MonthlyCardSpend(transactions, monthStart)

	return out, nil
}
