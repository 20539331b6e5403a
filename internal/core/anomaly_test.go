package core

import (
	"testing"
	"time"
)

// expenseSince builds an active fixed expense running from startsOn with no
// end date, the common shape for recurring category spend.
func expenseSince(category Category, cents int64, startsOn Date) FixedExpense {
	return FixedExpense{
		Description: string(category),
		Category:    category,
		Amount:      Money{Cents: cents},
		Lifespan:    Lifespan{StartsOn: startsOn, Active: true},
	}
}

func TestDetectAnomaliesOverspending(t *testing.T) {
	now := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	// "food" averaged 100/month over the window, 140 this month: +40%.
	fixed := []FixedExpense{
		expenseSince("food", 10000, NewDate(2024, 1, 1)),
	}
	fixed[0].EndsOn = NewDate(2024, 3, 31)
	extra := expenseSince("food", 14000, NewDate(2024, 4, 1))
	fixed = append(fixed, extra)

	report := DetectAnomalies(fixed, nil, now, DetectorConfig{})
	if len(report.Overspending) != 1 {
		t.Fatalf("expected 1 overspending category, got %d", len(report.Overspending))
	}
	stat := report.Overspending[0]
	if stat.Category != "food" || !stat.IsAnomaly {
		t.Errorf("unexpected stat %+v", stat)
	}
	if stat.PercentageDiff != 40 {
		t.Errorf("PercentageDiff = %v, want 40", stat.PercentageDiff)
	}
	if stat.CurrentMonthTotal.Cents != 14000 || stat.AverageMonthlyTotal.Cents != 10000 {
		t.Errorf("totals = (%d, %d), want (14000, 10000)",
			stat.CurrentMonthTotal.Cents, stat.AverageMonthlyTotal.Cents)
	}
}

func TestDetectAnomaliesAchievement(t *testing.T) {
	now := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	past := expenseSince("food", 10000, NewDate(2024, 1, 1))
	past.EndsOn = NewDate(2024, 3, 31)
	current := expenseSince("food", 6000, NewDate(2024, 4, 1))

	report := DetectAnomalies([]FixedExpense{past, current}, nil, now, DetectorConfig{})
	if len(report.Achievements) != 1 {
		t.Fatalf("expected 1 achievement, got %d (overspending %d)",
			len(report.Achievements), len(report.Overspending))
	}
	if got := report.Achievements[0].PercentageDiff; got != -40 {
		t.Errorf("PercentageDiff = %v, want -40", got)
	}
}

func TestDetectAnomaliesNoHistoryIsItsOwnBaseline(t *testing.T) {
	now := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	// Category that only exists this month: average falls back to the
	// current total, so the diff is zero and no alert fires.
	report := DetectAnomalies([]FixedExpense{
		expenseSince("new-hobby", 25000, NewDate(2024, 4, 1)),
	}, nil, now, DetectorConfig{})

	if len(report.Overspending) != 0 || len(report.Achievements) != 0 {
		t.Errorf("brand-new category must not signal, got %+v", report)
	}
}

func TestDetectAnomaliesBelowThresholdIsQuiet(t *testing.T) {
	now := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	past := expenseSince("transport", 10000, NewDate(2024, 1, 1))
	past.EndsOn = NewDate(2024, 3, 31)
	current := expenseSince("transport", 12000, NewDate(2024, 4, 1)) // +20%

	report := DetectAnomalies([]FixedExpense{past, current}, nil, now, DetectorConfig{})
	if len(report.Overspending) != 0 || len(report.Achievements) != 0 {
		t.Errorf("+20%% with default threshold must not signal, got %+v", report)
	}
}

func TestDetectAnomaliesSorting(t *testing.T) {
	now := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	threshold := DetectorConfig{WindowMonths: 3, ThresholdPercent: 10}

	mk := func(cat Category, histCents, curCents int64) []FixedExpense {
		past := expenseSince(cat, histCents, NewDate(2024, 1, 1))
		past.EndsOn = NewDate(2024, 3, 31)
		return []FixedExpense{past, expenseSince(cat, curCents, NewDate(2024, 4, 1))}
	}

	var fixed []FixedExpense
	fixed = append(fixed, mk("mild", 10000, 12000)...)   // +20
	fixed = append(fixed, mk("worst", 10000, 18000)...)  // +80
	fixed = append(fixed, mk("better", 10000, 8000)...)  // -20
	fixed = append(fixed, mk("best", 10000, 4000)...)    // -60

	report := DetectAnomalies(fixed, nil, now, threshold)

	if len(report.Overspending) != 2 || report.Overspending[0].Category != "worst" {
		t.Errorf("overspending not sorted worst first: %+v", report.Overspending)
	}
	if len(report.Achievements) != 2 || report.Achievements[0].Category != "best" {
		t.Errorf("achievements not sorted biggest saving first: %+v", report.Achievements)
	}
}

func TestDetectAnomaliesMergesPersonalBudgets(t *testing.T) {
	now := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	past := expenseSince("leisure", 10000, NewDate(2024, 1, 1))
	past.EndsOn = NewDate(2024, 3, 31)
	budget := PersonalBudget{
		Description: "cinema",
		Category:    "leisure",
		Amount:      Money{Cents: 16000},
		Lifespan:    Lifespan{StartsOn: NewDate(2024, 4, 1), Active: true},
	}

	report := DetectAnomalies([]FixedExpense{past}, []PersonalBudget{budget}, now, DetectorConfig{})
	if len(report.Overspending) != 1 || report.Overspending[0].PercentageDiff != 60 {
		t.Errorf("fixed and personal rows should aggregate per category, got %+v", report)
	}
}

func TestDetectAnomaliesIgnoresInactiveRows(t *testing.T) {
	now := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)

	inactive := expenseSince("food", 50000, NewDate(2024, 4, 1))
	inactive.Active = false

	report := DetectAnomalies([]FixedExpense{inactive}, nil, now, DetectorConfig{})
	if len(report.Overspending) != 0 || len(report.Achievements) != 0 {
		t.Errorf("inactive rows must not contribute, got %+v", report)
	}
}

func TestAlertsGeneratedOn(t *testing.T) {
	today := time.Date(2024, 4, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		existing []time.Time
		want     bool
	}{
		{"no alerts", nil, false},
		{"alert from yesterday", []time.Time{time.Date(2024, 4, 9, 23, 59, 0, 0, time.UTC)}, false},
		{"alert earlier today", []time.Time{time.Date(2024, 4, 10, 1, 0, 0, 0, time.UTC)}, true},
		{
			"mixed days",
			[]time.Time{
				time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
				time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC),
			},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AlertsGeneratedOn(tt.existing, today); got != tt.want {
				t.Errorf("AlertsGeneratedOn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAlertsGeneratedOnAcrossZones(t *testing.T) {
	auckland := time.FixedZone("UTC+12", 12*3600)

	// Stored UTC instant late on April 10 is already April 11 in UTC+12.
	stored := []time.Time{time.Date(2024, 4, 10, 23, 0, 0, 0, time.UTC)}

	todayLocal := time.Date(2024, 4, 11, 11, 30, 0, 0, auckland)
	if !AlertsGeneratedOn(stored, todayLocal) {
		t.Error("same instant viewed from UTC+12 must count as today")
	}

	nextLocal := time.Date(2024, 4, 12, 0, 30, 0, 0, auckland)
	if AlertsGeneratedOn(stored, nextLocal) {
		t.Error("next local day must not be suppressed by yesterday's batch")
	}
}
