package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"margine/internal/core"
	"margine/internal/log"
	"margine/internal/services"
)

type fakeSummaries struct {
	summary core.MonthSummary
	err     error
}

func (f *fakeSummaries) MonthSummary(context.Context, int, int) (core.MonthSummary, error) {
	return f.summary, f.err
}

type fakeCardProvider struct {
	cards    []core.CreditCard
	overview services.CardMonth
	err      error
}

func (f *fakeCardProvider) ActiveCards(context.Context) ([]core.CreditCard, error) {
	return f.cards, f.err
}

func (f *fakeCardProvider) MonthOverview(context.Context, int, int) (services.CardMonth, error) {
	return f.overview, f.err
}

type fakeAlerts struct {
	alerts    []core.FinancialAlert
	unread    int
	generated int
	markedID  int64
	markErr   error
}

func (f *fakeAlerts) GenerateDaily(context.Context, time.Time) (int, error) {
	return f.generated, nil
}

func (f *fakeAlerts) Alerts(_ context.Context, unreadOnly bool) ([]core.FinancialAlert, error) {
	if !unreadOnly {
		return f.alerts, nil
	}
	var out []core.FinancialAlert
	for _, a := range f.alerts {
		if !a.Read {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlerts) UnreadCount(context.Context) (int, error) {
	return f.unread, nil
}

func (f *fakeAlerts) MarkRead(_ context.Context, id int64) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.markedID = id
	return nil
}

type fakeWriter struct {
	nextID  int64
	income  *core.Income
	card    *core.CreditCard
	payment *core.CardPayment
}

func (f *fakeWriter) CreateIncome(_ context.Context, in core.Income) (int64, error) {
	f.income = &in
	f.nextID++
	return f.nextID, nil
}

func (f *fakeWriter) CreateFixedExpense(context.Context, core.FixedExpense) (int64, error) {
	f.nextID++
	return f.nextID, nil
}

func (f *fakeWriter) CreatePersonalBudget(context.Context, core.PersonalBudget) (int64, error) {
	f.nextID++
	return f.nextID, nil
}

func (f *fakeWriter) CreateCommitment(context.Context, core.Commitment) (int64, error) {
	f.nextID++
	return f.nextID, nil
}

func (f *fakeWriter) CreateCard(_ context.Context, c core.CreditCard) (int64, error) {
	f.card = &c
	f.nextID++
	return f.nextID, nil
}

func (f *fakeWriter) CreateStatement(context.Context, core.CardStatement) (int64, error) {
	f.nextID++
	return f.nextID, nil
}

func (f *fakeWriter) CreatePayment(_ context.Context, p core.CardPayment) (int64, error) {
	f.payment = &p
	f.nextID++
	return f.nextID, nil
}

func (f *fakeWriter) CreateCardTransaction(context.Context, core.CardTransaction) (int64, error) {
	f.nextID++
	return f.nextID, nil
}

type fakePublisher struct {
	published int
	err       error
}

func (f *fakePublisher) PublishAlertRequest(context.Context, time.Time, string) error {
	if f.err != nil {
		return f.err
	}
	f.published++
	return nil
}

func testLogger() *log.Logger {
	return log.New(log.Config{
		Component: log.ComponentHTTP,
		Handler:   slog.NewTextHandler(io.Discard, nil),
	})
}

func newTestServer(summaries SummaryProvider, cards CardProvider, alerts AlertProvider, writer LedgerWriter, publisher AlertRequestPublisher) *Server {
	s := NewServer(":0", summaries, cards, alerts, writer, publisher, testLogger())
	s.now = func() time.Time {
		return time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	}
	return s
}

func doRequest(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleMonthSummary(t *testing.T) {
	summaries := &fakeSummaries{
		summary: core.MonthSummary{
			IncomeTotal:            core.Money{Cents: 200000},
			FixedTotal:             core.Money{Cents: 80000},
			LeftoverBeforePersonal: core.Money{Cents: 120000},
			LeftoverAfterPersonal:  core.Money{Cents: 90000},
			DaysInMonth:            30,
			RemainingDays:          21,
			DailySuggestion:        core.Money{Cents: 4286},
		},
	}
	s := newTestServer(summaries, &fakeCardProvider{}, &fakeAlerts{}, &fakeWriter{}, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/summary?year=2024&month=4", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got monthSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Year != 2024 || got.Month != 4 {
		t.Errorf("year/month = %d/%d, want 2024/4", got.Year, got.Month)
	}
	if got.LeftoverAfterCents != 90000 {
		t.Errorf("LeftoverAfterCents = %d, want 90000", got.LeftoverAfterCents)
	}
	if got.DailySuggestionCents != 4286 {
		t.Errorf("DailySuggestionCents = %d, want 4286", got.DailySuggestionCents)
	}
}

func TestHandleMonthSummaryBadMonth(t *testing.T) {
	s := newTestServer(&fakeSummaries{}, &fakeCardProvider{}, &fakeAlerts{}, &fakeWriter{}, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/summary?year=2024&month=13", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleMonthSummaryDefaultsToToday(t *testing.T) {
	s := newTestServer(&fakeSummaries{}, &fakeCardProvider{}, &fakeAlerts{}, &fakeWriter{}, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got monthSummaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Year != 2024 || got.Month != 4 {
		t.Errorf("year/month = %d/%d, want clock month 2024/4", got.Year, got.Month)
	}
}

func TestHandleCardSummary(t *testing.T) {
	cards := &fakeCardProvider{
		overview: services.CardMonth{
			Combined: core.DueSummary{
				TotalDue:    core.Money{Cents: 30000},
				MinimumDue:  core.Money{Cents: 3000},
				NextDueDate: core.NewDate(2024, 4, 20),
			},
			InstallmentsDue: core.Money{Cents: 18000},
			MonthSpend:      core.Money{Cents: 8000},
		},
	}
	s := newTestServer(&fakeSummaries{}, cards, &fakeAlerts{}, &fakeWriter{}, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/cards/summary?year=2024&month=4", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got cardMonthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.TotalDueCents != 30000 {
		t.Errorf("TotalDueCents = %d, want 30000", got.TotalDueCents)
	}
	if got.NextDueDate != "2024-04-20" {
		t.Errorf("NextDueDate = %q, want 2024-04-20", got.NextDueDate)
	}
	if got.InstallmentsDueCents != 18000 {
		t.Errorf("InstallmentsDueCents = %d, want 18000", got.InstallmentsDueCents)
	}
}

func TestHandleListCards(t *testing.T) {
	cards := &fakeCardProvider{
		cards: []core.CreditCard{
			{ID: 1, Name: "visa", CutoffDay: 25, DueDay: 10, CreditLimit: core.Money{Cents: 500000}, Active: true},
		},
	}
	s := newTestServer(&fakeSummaries{}, cards, &fakeAlerts{}, &fakeWriter{}, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/cards", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got []cardResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d cards, want 1", len(got))
	}
	if got[0].Name != "visa" || got[0].CreditLimitCents != 500000 {
		t.Errorf("card = %+v, want visa with 500000 limit", got[0])
	}
}

func TestHandleCreateIncome(t *testing.T) {
	writer := &fakeWriter{}
	s := newTestServer(&fakeSummaries{}, &fakeCardProvider{}, &fakeAlerts{}, writer, nil)

	body := `{"description":"salary","amount":"2000.00","starts_on":"2024-01-01"}`
	rec := doRequest(t, s, http.MethodPost, "/api/incomes", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	if writer.income == nil {
		t.Fatal("income was not stored")
	}
	if writer.income.Amount.Cents != 200000 {
		t.Errorf("Amount = %d, want 200000", writer.income.Amount.Cents)
	}
	if !writer.income.Active {
		t.Error("stored income should be active")
	}
}

func TestHandleCreateIncomeValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"description":`, http.StatusBadRequest},
		{"unknown field", `{"description":"x","amount":"1.00","starts_on":"2024-01-01","bogus":1}`, http.StatusBadRequest},
		{"bad amount", `{"description":"x","amount":"abc","starts_on":"2024-01-01"}`, http.StatusUnprocessableEntity},
		{"zero amount", `{"description":"x","amount":"0","starts_on":"2024-01-01"}`, http.StatusUnprocessableEntity},
		{"missing start", `{"description":"x","amount":"1.00"}`, http.StatusUnprocessableEntity},
		{"end before start", `{"description":"x","amount":"1.00","starts_on":"2024-02-01","ends_on":"2024-01-01"}`, http.StatusUnprocessableEntity},
		{"empty description", `{"description":" ","amount":"1.00","starts_on":"2024-01-01"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeSummaries{}, &fakeCardProvider{}, &fakeAlerts{}, &fakeWriter{}, nil)
			rec := doRequest(t, s, http.MethodPost, "/api/incomes", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleCreateCardValidatesDays(t *testing.T) {
	s := newTestServer(&fakeSummaries{}, &fakeCardProvider{}, &fakeAlerts{}, &fakeWriter{}, nil)

	body := `{"name":"visa","cutoff_day":29,"due_day":10}`
	rec := doRequest(t, s, http.MethodPost, "/api/cards", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestHandleCreatePaymentUnattributed(t *testing.T) {
	writer := &fakeWriter{}
	s := newTestServer(&fakeSummaries{}, &fakeCardProvider{}, &fakeAlerts{}, writer, nil)

	body := `{"card_id":3,"amount":"50.00","paid_at":"2024-04-05"}`
	rec := doRequest(t, s, http.MethodPost, "/api/cards/payments", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	if writer.payment == nil {
		t.Fatal("payment was not stored")
	}
	if writer.payment.StatementID != 0 {
		t.Errorf("StatementID = %d, want 0 for unattributed payment", writer.payment.StatementID)
	}
}

func TestHandleListAlerts(t *testing.T) {
	alerts := &fakeAlerts{
		alerts: []core.FinancialAlert{
			{ID: 1, Type: core.AlertOverspending, Severity: core.SeverityWarning, Category: "dining", Read: true},
			{ID: 2, Type: core.AlertAchievement, Severity: core.SeverityInfo, Category: "books"},
		},
	}
	s := newTestServer(&fakeSummaries{}, &fakeCardProvider{}, alerts, &fakeWriter{}, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/alerts", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var all []alertResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d alerts, want 2", len(all))
	}

	rec = doRequest(t, s, http.MethodGet, "/api/alerts?unread=true", "")
	var unread []alertResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &unread); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(unread) != 1 || unread[0].ID != 2 {
		t.Errorf("unread = %v, want only ID 2", unread)
	}
}

func TestHandleMarkAlertRead(t *testing.T) {
	alerts := &fakeAlerts{}
	s := newTestServer(&fakeSummaries{}, &fakeCardProvider{}, alerts, &fakeWriter{}, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/alerts/7/read", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if alerts.markedID != 7 {
		t.Errorf("markedID = %d, want 7", alerts.markedID)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/alerts/abc/read", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for non-numeric id", rec.Code)
	}

	alerts.markErr = errors.New("no such row")
	rec = doRequest(t, s, http.MethodPost, "/api/alerts/99/read", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for missing alert", rec.Code)
	}
}

func TestHandleGenerateAlertsInline(t *testing.T) {
	alerts := &fakeAlerts{generated: 2}
	s := newTestServer(&fakeSummaries{}, &fakeCardProvider{}, alerts, &fakeWriter{}, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/alerts/generate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["generated"] != 2 {
		t.Errorf("generated = %d, want 2", got["generated"])
	}
}

func TestHandleGenerateAlertsQueued(t *testing.T) {
	publisher := &fakePublisher{}
	s := newTestServer(&fakeSummaries{}, &fakeCardProvider{}, &fakeAlerts{}, &fakeWriter{}, publisher)

	rec := doRequest(t, s, http.MethodPost, "/api/alerts/generate", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if publisher.published != 1 {
		t.Errorf("published = %d, want 1", publisher.published)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeSummaries{}, &fakeCardProvider{}, &fakeAlerts{}, &fakeWriter{}, nil)

	rec := doRequest(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want ok", rec.Body.String())
	}
}
