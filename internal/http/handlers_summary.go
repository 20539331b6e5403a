package http

import (
	"net/http"

	"margine/internal/core"
	"margine/internal/log"
)

type monthSummaryResponse struct {
	Year                 int   `json:"year"`
	Month                int   `json:"month"`
	IncomeCents          int64 `json:"income_cents"`
	FixedCents           int64 `json:"fixed_cents"`
	CommitmentsCents     int64 `json:"commitments_cents"`
	CardDueCents         int64 `json:"card_due_cents"`
	PersonalCents        int64 `json:"personal_cents"`
	LeftoverBeforeCents  int64 `json:"leftover_before_personal_cents"`
	LeftoverAfterCents   int64 `json:"leftover_after_personal_cents"`
	DaysInMonth          int   `json:"days_in_month"`
	RemainingDays        int   `json:"remaining_days"`
	DailySuggestionCents int64 `json:"daily_suggestion_cents"`
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r, s.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.summaries.MonthSummary(r.Context(), year, month)
	if err != nil {
		s.logger.ErrorCtx(r.Context(), "month summary", err,
			log.FieldYear, year, log.FieldMonth, month)
		respondError(w, http.StatusInternalServerError, "failed to compute month summary")
		return
	}

	respondJSON(w, http.StatusOK, toSummaryResponse(year, month, summary))
}

func toSummaryResponse(year, month int, s core.MonthSummary) monthSummaryResponse {
	return monthSummaryResponse{
		Year:                 year,
		Month:                month,
		IncomeCents:          s.IncomeTotal.Cents,
		FixedCents:           s.FixedTotal.Cents,
		CommitmentsCents:     s.CommitmentsTotal.Cents,
		CardDueCents:         s.CardDueTotal.Cents,
		PersonalCents:        s.PersonalTotal.Cents,
		LeftoverBeforeCents:  s.LeftoverBeforePersonal.Cents,
		LeftoverAfterCents:   s.LeftoverAfterPersonal.Cents,
		DaysInMonth:          s.DaysInMonth,
		RemainingDays:        s.RemainingDays,
		DailySuggestionCents: s.DailySuggestion.Cents,
	}
}
