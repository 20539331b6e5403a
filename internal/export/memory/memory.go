// Package memory is an in-process export sink used in tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"sync"

	"margine/internal/core"
	ports "margine/internal/export"
)

type SummaryRow struct {
	Year    int
	Month   int
	Summary core.MonthSummary
}

type Store struct {
	mu        sync.Mutex
	alerts    []core.FinancialAlert
	summaries []SummaryRow
}

var (
	_ ports.AlertWriter   = (*Store)(nil)
	_ ports.SummaryWriter = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

func (s *Store) AppendAlerts(_ context.Context, alerts []core.FinancialAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alerts...)
	return nil
}

func (s *Store) AppendMonthSummary(_ context.Context, year, month int, summary core.MonthSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, SummaryRow{Year: year, Month: month, Summary: summary})
	return nil
}

// Alerts returns a copy of everything appended so far.
func (s *Store) Alerts() []core.FinancialAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.FinancialAlert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Summaries returns a copy of every appended summary row.
func (s *Store) Summaries() []SummaryRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SummaryRow, len(s.summaries))
	copy(out, s.summaries)
	return out
}
