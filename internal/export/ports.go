// Package export defines the outbound ports for pushing computed results to
// an external spreadsheet, plus the adapters that implement them.
package export

import (
	"context"

	"margine/internal/core"
)

type (
	// AlertWriter appends one generated alert batch to an external sink.
	AlertWriter interface {
		AppendAlerts(ctx context.Context, alerts []core.FinancialAlert) error
	}

	// SummaryWriter appends one computed month summary to an external sink.
	SummaryWriter interface {
		AppendMonthSummary(ctx context.Context, year, month int, s core.MonthSummary) error
	}
)
