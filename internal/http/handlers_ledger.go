package http

import (
	"net/http"

	"margine/internal/core"
	"margine/internal/log"
)

// lifespanRequest is the shared shape of time-bounded row payloads.
// Amounts arrive as decimal strings ("1234.56") and end_date may be empty
// for open-ended rows.
type lifespanRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	StartsOn    string `json:"starts_on"`
	EndsOn      string `json:"ends_on,omitempty"`
}

func (req lifespanRequest) toLifespan() (core.Lifespan, core.Money, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Lifespan{}, core.Money{}, err
	}
	startsOn, err := parseDate(req.StartsOn)
	if err != nil {
		return core.Lifespan{}, core.Money{}, err
	}
	endsOn, err := parseOptionalDate(req.EndsOn)
	if err != nil {
		return core.Lifespan{}, core.Money{}, err
	}
	span := core.Lifespan{StartsOn: startsOn, EndsOn: endsOn, Active: true}
	return span, core.Money{Cents: cents}, nil
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var req lifespanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	span, amount, err := req.toLifespan()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	income := core.Income{Description: req.Description, Amount: amount, Lifespan: span}
	if err := income.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.writer.CreateIncome(r.Context(), income)
	if err != nil {
		s.logger.ErrorCtx(r.Context(), "create income", err, log.FieldOperation, log.OpCreate)
		respondError(w, http.StatusInternalServerError, "failed to store income")
		return
	}
	respondCreated(w, id)
}

type fixedExpenseRequest struct {
	lifespanRequest
	Category string `json:"category"`
}

func (s *Server) handleCreateFixedExpense(w http.ResponseWriter, r *http.Request) {
	var req fixedExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	span, amount, err := req.toLifespan()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	expense := core.FixedExpense{
		Description: req.Description,
		Category:    core.Category(req.Category),
		Amount:      amount,
		Lifespan:    span,
	}
	if err := expense.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.writer.CreateFixedExpense(r.Context(), expense)
	if err != nil {
		s.logger.ErrorCtx(r.Context(), "create fixed expense", err, log.FieldOperation, log.OpCreate)
		respondError(w, http.StatusInternalServerError, "failed to store fixed expense")
		return
	}
	respondCreated(w, id)
}

func (s *Server) handleCreatePersonalBudget(w http.ResponseWriter, r *http.Request) {
	var req fixedExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	span, amount, err := req.toLifespan()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	budget := core.PersonalBudget{
		Description: req.Description,
		Category:    core.Category(req.Category),
		Amount:      amount,
		Lifespan:    span,
	}
	if err := budget.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.writer.CreatePersonalBudget(r.Context(), budget)
	if err != nil {
		s.logger.ErrorCtx(r.Context(), "create personal budget", err, log.FieldOperation, log.OpCreate)
		respondError(w, http.StatusInternalServerError, "failed to store personal budget")
		return
	}
	respondCreated(w, id)
}

type commitmentRequest struct {
	Description    string `json:"description"`
	AmountPerMonth string `json:"amount_per_month"`
	MonthsTotal    int    `json:"months_total"`
	StartMonth     string `json:"start_month"` // YYYY-MM-DD, first of month
}

func (s *Server) handleCreateCommitment(w http.ResponseWriter, r *http.Request) {
	var req commitmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	cents, err := core.ParseDecimalToCents(req.AmountPerMonth)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	startMonth, err := parseDate(req.StartMonth)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	commitment := core.Commitment{
		Description:    req.Description,
		AmountPerMonth: core.Money{Cents: cents},
		MonthsTotal:    req.MonthsTotal,
		StartMonth:     startMonth,
	}
	if err := commitment.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.writer.CreateCommitment(r.Context(), commitment)
	if err != nil {
		s.logger.ErrorCtx(r.Context(), "create commitment", err, log.FieldOperation, log.OpCreate)
		respondError(w, http.StatusInternalServerError, "failed to store commitment")
		return
	}
	respondCreated(w, id)
}
