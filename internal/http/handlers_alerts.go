package http

import (
	"net/http"
	"strconv"
	"strings"

	"margine/internal/core"
	"margine/internal/log"
)

type alertResponse struct {
	ID             int64   `json:"id"`
	Type           string  `json:"type"`
	Severity       string  `json:"severity"`
	Title          string  `json:"title"`
	Message        string  `json:"message"`
	Category       string  `json:"category"`
	CurrentCents   int64   `json:"current_cents"`
	AverageCents   int64   `json:"average_cents"`
	PercentageDiff float64 `json:"percentage_diff"`
	Read           bool    `json:"read"`
	CreatedAt      string  `json:"created_at"`
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	unreadOnly := strings.EqualFold(r.URL.Query().Get("unread"), "true")

	alerts, err := s.alerts.Alerts(r.Context(), unreadOnly)
	if err != nil {
		s.logger.ErrorCtx(r.Context(), "list alerts", err, log.FieldOperation, log.OpList)
		respondError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	out := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertResponse(a))
	}
	respondJSON(w, http.StatusOK, out)
}

func toAlertResponse(a core.FinancialAlert) alertResponse {
	return alertResponse{
		ID:             a.ID,
		Type:           string(a.Type),
		Severity:       string(a.Severity),
		Title:          a.Title,
		Message:        a.Message,
		Category:       string(a.Category),
		CurrentCents:   a.CurrentAmount.Cents,
		AverageCents:   a.AverageAmount.Cents,
		PercentageDiff: a.PercentageDiff,
		Read:           a.Read,
		CreatedAt:      a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.alerts.UnreadCount(r.Context())
	if err != nil {
		s.logger.ErrorCtx(r.Context(), "unread count", err, log.FieldOperation, log.OpRead)
		respondError(w, http.StatusInternalServerError, "failed to count unread alerts")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"unread": n})
}

func (s *Server) handleMarkAlertRead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid alert id")
		return
	}

	if err := s.alerts.MarkRead(r.Context(), id); err != nil {
		s.logger.ErrorCtx(r.Context(), "mark alert read", err,
			log.FieldOperation, log.OpCreate, log.FieldAlertID, id)
		respondError(w, http.StatusNotFound, "alert not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"read": true})
}

// handleGenerateAlerts requests one detection pass. With a broker configured
// the request goes to the worker queue; otherwise it runs inline.
func (s *Server) handleGenerateAlerts(w http.ResponseWriter, r *http.Request) {
	now := s.now()

	if s.publisher != nil {
		if err := s.publisher.PublishAlertRequest(r.Context(), now, "manual"); err != nil {
			s.logger.ErrorCtx(r.Context(), "publish alert request", err, log.FieldOperation, log.OpGenerate)
			respondError(w, http.StatusInternalServerError, "failed to queue alert generation")
			return
		}
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}

	n, err := s.alerts.GenerateDaily(r.Context(), now)
	if err != nil {
		s.logger.ErrorCtx(r.Context(), "generate alerts", err, log.FieldOperation, log.OpGenerate)
		respondError(w, http.StatusInternalServerError, "failed to generate alerts")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"generated": n})
}
