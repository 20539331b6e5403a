// Package http exposes the budgeting engine as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"margine/internal/core"
	"margine/internal/log"
	"margine/internal/services"
)

// SummaryProvider computes the monthly leftover summary.
type SummaryProvider interface {
	MonthSummary(ctx context.Context, year, month int) (core.MonthSummary, error)
}

// CardProvider lists cards and reconciles the card picture for a month.
type CardProvider interface {
	ActiveCards(ctx context.Context) ([]core.CreditCard, error)
	MonthOverview(ctx context.Context, year, month int) (services.CardMonth, error)
}

// AlertProvider runs and reads the anomaly alerts.
type AlertProvider interface {
	GenerateDaily(ctx context.Context, now time.Time) (int, error)
	Alerts(ctx context.Context, unreadOnly bool) ([]core.FinancialAlert, error)
	UnreadCount(ctx context.Context) (int, error)
	MarkRead(ctx context.Context, id int64) error
}

// LedgerWriter persists new rows entered through the API.
type LedgerWriter interface {
	CreateIncome(ctx context.Context, in core.Income) (int64, error)
	CreateFixedExpense(ctx context.Context, e core.FixedExpense) (int64, error)
	CreatePersonalBudget(ctx context.Context, b core.PersonalBudget) (int64, error)
	CreateCommitment(ctx context.Context, c core.Commitment) (int64, error)
	CreateCard(ctx context.Context, c core.CreditCard) (int64, error)
	CreateStatement(ctx context.Context, s core.CardStatement) (int64, error)
	CreatePayment(ctx context.Context, p core.CardPayment) (int64, error)
	CreateCardTransaction(ctx context.Context, t core.CardTransaction) (int64, error)
}

// AlertRequestPublisher hands an alert-generation request to the broker so
// the worker picks it up. Nil publisher means the server generates inline.
type AlertRequestPublisher interface {
	PublishAlertRequest(ctx context.Context, now time.Time, reason string) error
}

type Server struct {
	http.Server

	summaries SummaryProvider
	cards     CardProvider
	alerts    AlertProvider
	writer    LedgerWriter
	publisher AlertRequestPublisher
	logger    *log.Logger
	now       func() time.Time

	shutdownOnce sync.Once
}

// NewServer wires the routes and returns a ready-to-run server.
func NewServer(addr string, summaries SummaryProvider, cards CardProvider, alerts AlertProvider, writer LedgerWriter, publisher AlertRequestPublisher, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		summaries: summaries,
		cards:     cards,
		alerts:    alerts,
		writer:    writer,
		publisher: publisher,
		logger:    logger.ForComponent(log.ComponentHTTP),
		now:       time.Now,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/summary", s.withRequestLog(s.handleMonthSummary))
	mux.HandleFunc("GET /api/cards", s.withRequestLog(s.handleListCards))
	mux.HandleFunc("GET /api/cards/summary", s.withRequestLog(s.handleCardSummary))

	mux.HandleFunc("POST /api/incomes", s.withRequestLog(s.handleCreateIncome))
	mux.HandleFunc("POST /api/expenses", s.withRequestLog(s.handleCreateFixedExpense))
	mux.HandleFunc("POST /api/budgets", s.withRequestLog(s.handleCreatePersonalBudget))
	mux.HandleFunc("POST /api/commitments", s.withRequestLog(s.handleCreateCommitment))

	mux.HandleFunc("POST /api/cards", s.withRequestLog(s.handleCreateCard))
	mux.HandleFunc("POST /api/cards/statements", s.withRequestLog(s.handleCreateStatement))
	mux.HandleFunc("POST /api/cards/payments", s.withRequestLog(s.handleCreatePayment))
	mux.HandleFunc("POST /api/cards/transactions", s.withRequestLog(s.handleCreateTransaction))

	mux.HandleFunc("GET /api/alerts", s.withRequestLog(s.handleListAlerts))
	mux.HandleFunc("GET /api/alerts/unread-count", s.withRequestLog(s.handleUnreadCount))
	mux.HandleFunc("POST /api/alerts/{id}/read", s.withRequestLog(s.handleMarkAlertRead))
	mux.HandleFunc("POST /api/alerts/generate", s.withRequestLog(s.handleGenerateAlerts))

	return s
}

// Shutdown drains in-flight requests once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withRequestLog tags each request with an ID and logs start and completion.
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := generateRequestID()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP,
		)
	}
}

type requestIDKey struct{}

// responseWriter captures the status code for the request log.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
