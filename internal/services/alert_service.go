package services

import (
	"context"
	"fmt"
	"time"

	"margine/internal/core"
	"margine/internal/export"
	"margine/internal/log"
)

// AlertStore persists generated alerts and answers read queries on them.
type AlertStore interface {
	CreateAlerts(ctx context.Context, alerts []core.FinancialAlert) error
	AlertTimestampsSince(ctx context.Context, since time.Time) ([]time.Time, error)
	ListAlerts(ctx context.Context, unreadOnly bool) ([]core.FinancialAlert, error)
	CountUnreadAlerts(ctx context.Context) (int, error)
	MarkAlertRead(ctx context.Context, id int64) error
}

// ExpenseReader supplies the categorized rows the detector inspects.
type ExpenseReader interface {
	ListFixedExpenses(ctx context.Context) ([]core.FixedExpense, error)
	ListPersonalBudgets(ctx context.Context) ([]core.PersonalBudget, error)
}

// AlertService runs the anomaly detector at most once per calendar day,
// persists the resulting alerts and forwards them to the export sink when
// one is configured.
type AlertService struct {
	store           AlertStore
	ledger          ExpenseReader
	exporter        export.AlertWriter
	detector        core.DetectorConfig
	maxAchievements int
	logger          *log.Logger
}

func NewAlertService(store AlertStore, ledger ExpenseReader, exporter export.AlertWriter, detector core.DetectorConfig, maxAchievements int, logger *log.Logger) *AlertService {
	if maxAchievements <= 0 {
		maxAchievements = 3
	}
	return &AlertService{
		store:           store,
		ledger:          ledger,
		exporter:        exporter,
		detector:        detector,
		maxAchievements: maxAchievements,
		logger:          logger.ForComponent(log.ComponentAlerts),
	}
}

// GenerateDaily runs one detection pass for the day containing now and
// returns how many alerts it stored. A second call on the same day is a
// no-op. The guard is re-checked against storage right before writing
// because the ticker and an HTTP-triggered run can race.
func (s *AlertService) GenerateDaily(ctx context.Context, now time.Time) (int, error) {
	// Alert timestamps are persisted in UTC, so the day boundary must be a
	// UTC boundary too. A zoned now near local midnight would otherwise
	// disagree with storage on which day a batch belongs to.
	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	existing, err := s.store.AlertTimestampsSince(ctx, dayStart)
	if err != nil {
		return 0, fmt.Errorf("load alert timestamps: %w", err)
	}
	if core.AlertsGeneratedOn(existing, now) {
		s.logger.DebugContext(ctx, "alerts already generated today", log.FieldOperation, log.OpGenerate)
		return 0, nil
	}

	fixed, err := s.ledger.ListFixedExpenses(ctx)
	if err != nil {
		return 0, fmt.Errorf("load fixed expenses: %w", err)
	}
	personal, err := s.ledger.ListPersonalBudgets(ctx)
	if err != nil {
		return 0, fmt.Errorf("load personal budgets: %w", err)
	}

	report := core.DetectAnomalies(fixed, personal, now, s.detector)
	alerts := s.buildAlerts(report, now)
	if len(alerts) == 0 {
		s.logger.InfoContext(ctx, "no anomalies detected", log.FieldOperation, log.OpGenerate)
		return 0, nil
	}

	existing, err = s.store.AlertTimestampsSince(ctx, dayStart)
	if err != nil {
		return 0, fmt.Errorf("re-check alert timestamps: %w", err)
	}
	if core.AlertsGeneratedOn(existing, now) {
		s.logger.InfoContext(ctx, "another run generated alerts first", log.FieldOperation, log.OpGenerate)
		return 0, nil
	}

	if err := s.store.CreateAlerts(ctx, alerts); err != nil {
		return 0, fmt.Errorf("store alerts: %w", err)
	}
	s.logger.InfoContext(ctx, "alerts generated",
		log.FieldOperation, log.OpGenerate,
		log.FieldCount, len(alerts),
	)

	if s.exporter != nil {
		if err := s.exporter.AppendAlerts(ctx, alerts); err != nil {
			// Export is best effort; the alerts are already persisted.
			s.logger.ErrorCtx(ctx, "export alerts", err, log.FieldOperation, log.OpExport)
		}
	}

	return len(alerts), nil
}

func (s *AlertService) buildAlerts(report core.AnomalyReport, now time.Time) []core.FinancialAlert {
	threshold := s.detector.ThresholdPercent
	if threshold <= 0 {
		threshold = core.DefaultAnomalyThresholdPercent
	}

	alerts := make([]core.FinancialAlert, 0, len(report.Overspending)+s.maxAchievements)
	for _, stat := range report.Overspending {
		alerts = append(alerts, newAlert(core.AlertOverspending, stat, threshold, now))
	}

	achievements := report.Achievements
	if len(achievements) > s.maxAchievements {
		achievements = achievements[:s.maxAchievements]
	}
	for _, stat := range achievements {
		alerts = append(alerts, newAlert(core.AlertAchievement, stat, threshold, now))
	}
	return alerts
}

func newAlert(t core.AlertType, stat core.CategorySpendingStat, threshold float64, now time.Time) core.FinancialAlert {
	a := core.FinancialAlert{
		Type:           t,
		Severity:       ClassifierFor(t).Classify(stat, threshold),
		Category:       stat.Category,
		CurrentAmount:  stat.CurrentMonthTotal,
		AverageAmount:  stat.AverageMonthlyTotal,
		PercentageDiff: stat.PercentageDiff,
		CreatedAt:      now,
	}
	switch t {
	case core.AlertOverspending:
		a.Title = fmt.Sprintf("Overspending in %s", stat.Category)
		a.Message = fmt.Sprintf("Spent %.2f this month in %s, %.0f%% above the %.2f monthly average.",
			stat.CurrentMonthTotal.Units(), stat.Category, stat.PercentageDiff, stat.AverageMonthlyTotal.Units())
	default:
		a.Title = fmt.Sprintf("Saving on %s", stat.Category)
		a.Message = fmt.Sprintf("Spent %.2f this month in %s, %.0f%% below the %.2f monthly average.",
			stat.CurrentMonthTotal.Units(), stat.Category, -stat.PercentageDiff, stat.AverageMonthlyTotal.Units())
	}
	return a
}

// Alerts lists stored alerts, optionally only the unread ones.
func (s *AlertService) Alerts(ctx context.Context, unreadOnly bool) ([]core.FinancialAlert, error) {
	alerts, err := s.store.ListAlerts(ctx, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// UnreadCount returns how many alerts have not been marked as read.
func (s *AlertService) UnreadCount(ctx context.Context) (int, error) {
	n, err := s.store.CountUnreadAlerts(ctx)
	if err != nil {
		return 0, fmt.Errorf("count unread alerts: %w", err)
	}
	return n, nil
}

// MarkRead flags one alert as read.
func (s *AlertService) MarkRead(ctx context.Context, id int64) error {
	if err := s.store.MarkAlertRead(ctx, id); err != nil {
		return fmt.Errorf("mark alert read: %w", err)
	}
	return nil
}
