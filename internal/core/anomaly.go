package core

import (
	"sort"
	"time"
)

const (
	DefaultAnomalyWindowMonths     = 3
	DefaultAnomalyThresholdPercent = 40.0
)

const (
	AlertOverspending AlertType = "overspending"
	AlertAchievement  AlertType = "achievement"
)

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

type (
	AlertType     string
	AlertSeverity string

	// DetectorConfig tunes the spending-anomaly detector. Zero values fall
	// back to the defaults.
	DetectorConfig struct {
		WindowMonths     int
		ThresholdPercent float64
	}

	// CategorySpendingStat compares one category's current-month spend
	// against its trailing average. Computed fresh on every detector run
	// and discarded after use; never persisted by the engine.
	CategorySpendingStat struct {
		Category            Category
		CurrentMonthTotal   Money
		AverageMonthlyTotal Money
		PercentageDiff      float64
		IsAnomaly           bool
	}

	// AnomalyReport is the classified detector output. Overspending is
	// sorted worst first, achievements biggest saving first.
	AnomalyReport struct {
		Overspending []CategorySpendingStat
		Achievements []CategorySpendingStat
	}

	// FinancialAlert is the persisted record built from a classified
	// category by the alert storage layer.
	FinancialAlert struct {
		ID             int64
		Type           AlertType
		Severity       AlertSeverity
		Title          string
		Message        string
		Category       Category
		CurrentAmount  Money
		AverageAmount  Money
		PercentageDiff float64
		Read           bool
		CreatedAt      time.Time
	}
)

func (c DetectorConfig) withDefaults() DetectorConfig {
	if c.WindowMonths <= 0 {
		c.WindowMonths = DefaultAnomalyWindowMonths
	}
	if c.ThresholdPercent <= 0 {
		c.ThresholdPercent = DefaultAnomalyThresholdPercent
	}
	return c
}

// categorized is the slice of an expense row the detector needs.
type categorized struct {
	category Category
	amount   Money
	span     Lifespan
}

// DetectAnomalies groups the active fixed and personal expenses by category
// and compares each category's current-month total against the mean of its
// totals over the trailing window.
//
// A category with no spend in any historical month uses its current total as
// its own average, yielding a zero percentage difference instead of a
// divide-by-zero; a category at zero both now and historically produces no
// signal at all. Categories move into the report only when the percentage
// difference reaches the threshold in either direction; an under-spend
// additionally requires a positive historical average so that a brand-new
// category cannot read as an achievement.
func DetectAnomalies(fixed []FixedExpense, personal []PersonalBudget, now time.Time, cfg DetectorConfig) AnomalyReport {
	cfg = cfg.withDefaults()

	rows := make([]categorized, 0, len(fixed)+len(personal))
	for _, e := range fixed {
		if e.Active {
			rows = append(rows, categorized{e.Category, e.Amount, e.Lifespan})
		}
	}
	for _, b := range personal {
		if b.Active {
			rows = append(rows, categorized{b.Category, b.Amount, b.Lifespan})
		}
	}

	current := MonthPeriod(now)
	history := make([]Period, cfg.WindowMonths)
	for i := range history {
		history[i] = MonthPeriod(current.Start.AddDate(0, -(i + 1), 0))
	}

	currentTotals := make(map[Category]Money)
	historySums := make(map[Category]Money)
	for _, r := range rows {
		if _, ok := currentTotals[r.category]; !ok {
			currentTotals[r.category] = Money{}
		}
		if r.span.OverlapsPeriod(current) {
			currentTotals[r.category] = currentTotals[r.category].Add(r.amount)
		}
		for _, h := range history {
			if r.span.OverlapsPeriod(h) {
				historySums[r.category] = historySums[r.category].Add(r.amount)
			}
		}
	}

	var report AnomalyReport
	for category, cur := range currentTotals {
		average := historySums[category].Divide(cfg.WindowMonths)
		if average.IsZero() {
			// No historical spend: the category is its own baseline.
			average = cur
		}

		var diff float64
		switch {
		case average.Cents > 0:
			diff = roundPercent(float64(cur.Cents-average.Cents) / float64(average.Cents) * 100)
		case cur.Cents > 0:
			diff = 100
		default:
			continue
		}

		stat := CategorySpendingStat{
			Category:            category,
			CurrentMonthTotal:   cur,
			AverageMonthlyTotal: average,
			PercentageDiff:      diff,
		}
		switch {
		case diff >= cfg.ThresholdPercent:
			stat.IsAnomaly = true
			report.Overspending = append(report.Overspending, stat)
		case diff <= -cfg.ThresholdPercent && average.Cents > 0:
			stat.IsAnomaly = true
			report.Achievements = append(report.Achievements, stat)
		}
	}

	sort.Slice(report.Overspending, func(i, j int) bool {
		return report.Overspending[i].PercentageDiff > report.Overspending[j].PercentageDiff
	})
	sort.Slice(report.Achievements, func(i, j int) bool {
		return report.Achievements[i].PercentageDiff < report.Achievements[j].PercentageDiff
	})
	return report
}

// AlertsGeneratedOn reports whether any of the existing alert creation
// timestamps falls on the same calendar day as today. The generation guard
// stays a pure function over persisted timestamps so callers re-check it
// against the latest alert list immediately before writing a new batch.
// Each timestamp is shifted into today's location first: stored instants
// are UTC and must agree with a zoned today on the calendar day.
func AlertsGeneratedOn(existing []time.Time, today time.Time) bool {
	y, m, d := today.Date()
	for _, ts := range existing {
		ty, tm, td := ts.In(today.Location()).Date()
		if ty == y && tm == m && td == d {
			return true
		}
	}
	return false
}
