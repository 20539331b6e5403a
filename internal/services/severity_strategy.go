package services

import (
	"margine/internal/core"
)

// SeverityClassifier maps one classified category stat to an alert severity.
type SeverityClassifier interface {
	Classify(stat core.CategorySpendingStat, thresholdPercent float64) core.AlertSeverity
}

// OverspendingClassifier escalates to critical once the overshoot reaches
// twice the detection threshold.
type OverspendingClassifier struct{}

func (OverspendingClassifier) Classify(stat core.CategorySpendingStat, thresholdPercent float64) core.AlertSeverity {
	if stat.PercentageDiff >= 2*thresholdPercent {
		return core.SeverityCritical
	}
	return core.SeverityWarning
}

// AchievementClassifier never escalates; a saving is good news.
type AchievementClassifier struct{}

func (AchievementClassifier) Classify(core.CategorySpendingStat, float64) core.AlertSeverity {
	return core.SeverityInfo
}

var severityClassifiers = map[core.AlertType]SeverityClassifier{
	core.AlertOverspending: OverspendingClassifier{},
	core.AlertAchievement:  AchievementClassifier{},
}

// ClassifierFor returns the classifier registered for the alert type,
// falling back to the achievement classifier for unknown types.
func ClassifierFor(t core.AlertType) SeverityClassifier {
	if c, ok := severityClassifiers[t]; ok {
		return c
	}
	return AchievementClassifier{}
}
