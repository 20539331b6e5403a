package http

import (
	"net/http"

	"margine/internal/core"
	"margine/internal/log"
	"margine/internal/services"
)

type cardMonthResponse struct {
	Year                 int                `json:"year"`
	Month                int                `json:"month"`
	TotalDueCents        int64              `json:"total_due_cents"`
	MinimumDueCents      int64              `json:"minimum_due_cents"`
	NextDueDate          string             `json:"next_due_date,omitempty"`
	Overdue              bool               `json:"overdue"`
	InstallmentsDueCents int64              `json:"installments_due_cents"`
	MonthSpendCents      int64              `json:"month_spend_cents"`
	PerCard              map[int64]cardDues `json:"per_card,omitempty"`
}

type cardDues struct {
	TotalDueCents   int64  `json:"total_due_cents"`
	MinimumDueCents int64  `json:"minimum_due_cents"`
	NextDueDate     string `json:"next_due_date,omitempty"`
	Overdue         bool   `json:"overdue"`
}

func (s *Server) handleCardSummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r, s.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	overview, err := s.cards.MonthOverview(r.Context(), year, month)
	if err != nil {
		s.logger.ErrorCtx(r.Context(), "card summary", err,
			log.FieldYear, year, log.FieldMonth, month)
		respondError(w, http.StatusInternalServerError, "failed to compute card summary")
		return
	}

	respondJSON(w, http.StatusOK, toCardMonthResponse(year, month, overview))
}

func toCardMonthResponse(year, month int, o services.CardMonth) cardMonthResponse {
	resp := cardMonthResponse{
		Year:                 year,
		Month:                month,
		TotalDueCents:        o.Combined.TotalDue.Cents,
		MinimumDueCents:      o.Combined.MinimumDue.Cents,
		NextDueDate:          formatOptionalDate(o.Combined.NextDueDate),
		Overdue:              o.Combined.Overdue,
		InstallmentsDueCents: o.InstallmentsDue.Cents,
		MonthSpendCents:      o.MonthSpend.Cents,
	}
	if len(o.PerCard) > 0 {
		resp.PerCard = make(map[int64]cardDues, len(o.PerCard))
		for id, due := range o.PerCard {
			resp.PerCard[id] = cardDues{
				TotalDueCents:   due.TotalDue.Cents,
				MinimumDueCents: due.MinimumDue.Cents,
				NextDueDate:     formatOptionalDate(due.NextDueDate),
				Overdue:         due.Overdue,
			}
		}
	}
	return resp
}

func formatOptionalDate(d core.Date) string {
	if d.IsEmpty() {
		return ""
	}
	return d.Format("2006-01-02")
}

type cardResponse struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	CutoffDay        int    `json:"cutoff_day"`
	DueDay           int    `json:"due_day"`
	CreditLimitCents int64  `json:"credit_limit_cents"`
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.cards.ActiveCards(r.Context())
	if err != nil {
		s.logger.ErrorCtx(r.Context(), "list cards", err, log.FieldOperation, log.OpList)
		respondError(w, http.StatusInternalServerError, "failed to list cards")
		return
	}

	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, cardResponse{
			ID:               c.ID,
			Name:             c.Name,
			CutoffDay:        c.CutoffDay,
			DueDay:           c.DueDay,
			CreditLimitCents: c.CreditLimit.Cents,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

type cardRequest struct {
	Name        string `json:"name"`
	CutoffDay   int    `json:"cutoff_day"`
	DueDay      int    `json:"due_day"`
	CreditLimit string `json:"credit_limit,omitempty"`
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var limit core.Money
	if req.CreditLimit != "" {
		cents, err := core.ParseDecimalToCents(req.CreditLimit)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		limit = core.Money{Cents: cents}
	}

	card := core.CreditCard{
		Name:        req.Name,
		CutoffDay:   req.CutoffDay,
		DueDay:      req.DueDay,
		CreditLimit: limit,
		Active:      true,
	}
	if err := card.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.writer.CreateCard(r.Context(), card)
	if err != nil {
		s.logger.ErrorCtx(r.Context(), "create card", err, log.FieldOperation, log.OpCreate)
		respondError(w, http.StatusInternalServerError, "failed to store card")
		return
	}
	respondCreated(w, id)
}

type statementRequest struct {
	CardID         int64  `json:"card_id"`
	StatementMonth string `json:"statement_month"` // YYYY-MM-DD, first of month
	ClosingDate    string `json:"closing_date,omitempty"`
	DueDate        string `json:"due_date"`
	TotalDue       string `json:"total_due"`
	MinimumDue     string `json:"minimum_due,omitempty"`
}

func (s *Server) handleCreateStatement(w http.ResponseWriter, r *http.Request) {
	var req statementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	statementMonth, err := parseDate(req.StatementMonth)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	closingDate, err := parseOptionalDate(req.ClosingDate)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	totalCents, err := core.ParseDecimalToCents(req.TotalDue)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	var minimum core.Money
	if req.MinimumDue != "" {
		minCents, err := core.ParseDecimalToCents(req.MinimumDue)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		minimum = core.Money{Cents: minCents}
	}

	statement := core.CardStatement{
		CardID:         req.CardID,
		StatementMonth: statementMonth,
		ClosingDate:    closingDate,
		DueDate:        dueDate,
		TotalDue:       core.Money{Cents: totalCents},
		MinimumDue:     minimum,
		Status:         core.StatementOpen,
	}
	if err := statement.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.writer.CreateStatement(r.Context(), statement)
	if err != nil {
		s.logger.ErrorCtx(r.Context(), "create statement", err,
			log.FieldOperation, log.OpCreate, log.FieldCardID, req.CardID)
		respondError(w, http.StatusInternalServerError, "failed to store statement")
		return
	}
	respondCreated(w, id)
}

type paymentRequest struct {
	CardID      int64  `json:"card_id"`
	StatementID int64  `json:"statement_id,omitempty"` // 0 = unattributed
	Amount      string `json:"amount"`
	PaidAt      string `json:"paid_at"`
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	paidAt, err := parseDate(req.PaidAt)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	payment := core.CardPayment{
		CardID:      req.CardID,
		StatementID: req.StatementID,
		Amount:      core.Money{Cents: cents},
		PaidAt:      paidAt,
	}
	if err := payment.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.writer.CreatePayment(r.Context(), payment)
	if err != nil {
		s.logger.ErrorCtx(r.Context(), "create payment", err,
			log.FieldOperation, log.OpCreate, log.FieldCardID, req.CardID)
		respondError(w, http.StatusInternalServerError, "failed to store payment")
		return
	}
	respondCreated(w, id)
}

type transactionRequest struct {
	CardID            int64  `json:"card_id"`
	Description       string `json:"description"`
	Amount            string `json:"amount"`
	PurchasedAt       string `json:"purchased_at"`
	InstallmentsTotal int    `json:"installments_total,omitempty"` // 0 = single installment
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	purchasedAt, err := parseDate(req.PurchasedAt)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	transaction := core.CardTransaction{
		CardID:            req.CardID,
		Description:       req.Description,
		Amount:            core.Money{Cents: cents},
		PurchasedAt:       purchasedAt,
		InstallmentsTotal: req.InstallmentsTotal,
	}
	if err := transaction.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.writer.CreateCardTransaction(r.Context(), transaction)
	if err != nil {
		s.logger.ErrorCtx(r.Context(), "create card transaction", err,
			log.FieldOperation, log.OpCreate, log.FieldCardID, req.CardID)
		respondError(w, http.StatusInternalServerError, "failed to store card transaction")
		return
	}
	respondCreated(w, id)
}
