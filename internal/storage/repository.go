// Package storage implements the SQLite ledger and alert store. Rows are
// read into the core domain types; all amounts are persisted as integer
// cents and all dates as ISO strings.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"margine/internal/core"

	_ "modernc.org/sqlite"
)

const (
	dateLayout = "2006-01-02"
	tsLayout   = time.RFC3339
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := applySchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func encodeDate(d core.Date) string {
	return d.Format(dateLayout)
}

func encodeOptionalDate(d core.Date) sql.NullString {
	if d.IsEmpty() {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeDate(d), Valid: true}
}

func decodeDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func decodeOptionalDate(s sql.NullString) (core.Date, error) {
	if !s.Valid {
		return core.Date{}, nil
	}
	return decodeDate(s.String)
}

// --- time-bounded entries ---

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO incomes (description, amount_cents, starts_on, ends_on, active) VALUES (?, ?, ?, ?, ?)`,
		in.Description, in.Amount.Cents, encodeDate(in.StartsOn), encodeOptionalDate(in.EndsOn), in.Active)
	if err != nil {
		return 0, fmt.Errorf("create income: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount_cents, starts_on, ends_on, active FROM incomes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		var (
			in     core.Income
			starts string
			ends   sql.NullString
		)
		if err := rows.Scan(&in.ID, &in.Description, &in.Amount.Cents, &starts, &ends, &in.Active); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		if in.StartsOn, err = decodeDate(starts); err != nil {
			return nil, err
		}
		if in.EndsOn, err = decodeOptionalDate(ends); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateFixedExpense(ctx context.Context, e core.FixedExpense) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO fixed_expenses (description, category, amount_cents, starts_on, ends_on, active) VALUES (?, ?, ?, ?, ?, ?)`,
		e.Description, string(e.Category), e.Amount.Cents, encodeDate(e.StartsOn), encodeOptionalDate(e.EndsOn), e.Active)
	if err != nil {
		return 0, fmt.Errorf("create fixed expense: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListFixedExpenses(ctx context.Context) ([]core.FixedExpense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, category, amount_cents, starts_on, ends_on, active FROM fixed_expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list fixed expenses: %w", err)
	}
	defer rows.Close()

	var out []core.FixedExpense
	for rows.Next() {
		var (
			e        core.FixedExpense
			category string
			starts   string
			ends     sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Description, &category, &e.Amount.Cents, &starts, &ends, &e.Active); err != nil {
			return nil, fmt.Errorf("scan fixed expense: %w", err)
		}
		e.Category = core.Category(category)
		if e.StartsOn, err = decodeDate(starts); err != nil {
			return nil, err
		}
		if e.EndsOn, err = decodeOptionalDate(ends); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreatePersonalBudget(ctx context.Context, b core.PersonalBudget) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO personal_budgets (description, category, amount_cents, starts_on, ends_on, active) VALUES (?, ?, ?, ?, ?, ?)`,
		b.Description, string(b.Category), b.Amount.Cents, encodeDate(b.StartsOn), encodeOptionalDate(b.EndsOn), b.Active)
	if err != nil {
		return 0, fmt.Errorf("create personal budget: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListPersonalBudgets(ctx context.Context) ([]core.PersonalBudget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, category, amount_cents, starts_on, ends_on, active FROM personal_budgets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list personal budgets: %w", err)
	}
	defer rows.Close()

	var out []core.PersonalBudget
	for rows.Next() {
		var (
			b        core.PersonalBudget
			category string
			starts   string
			ends     sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Description, &category, &b.Amount.Cents, &starts, &ends, &b.Active); err != nil {
			return nil, fmt.Errorf("scan personal budget: %w", err)
		}
		b.Category = core.Category(category)
		if b.StartsOn, err = decodeDate(starts); err != nil {
			return nil, err
		}
		if b.EndsOn, err = decodeOptionalDate(ends); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateCommitment(ctx context.Context, c core.Commitment) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO commitments (description, amount_per_month_cents, months_total, start_month) VALUES (?, ?, ?, ?)`,
		c.Description, c.AmountPerMonth.Cents, c.MonthsTotal, encodeDate(c.StartMonth))
	if err != nil {
		return 0, fmt.Errorf("create commitment: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListCommitments(ctx context.Context) ([]core.Commitment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount_per_month_cents, months_total, start_month FROM commitments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list commitments: %w", err)
	}
	defer rows.Close()

	var out []core.Commitment
	for rows.Next() {
		var (
			c     core.Commitment
			start string
		)
		if err := rows.Scan(&c.ID, &c.Description, &c.AmountPerMonth.Cents, &c.MonthsTotal, &start); err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		if c.StartMonth, err = decodeDate(start); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- cards ---

func (r *SQLiteRepository) CreateCard(ctx context.Context, c core.CreditCard) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_cards (name, cutoff_day, due_day, credit_limit_cents, active) VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.CutoffDay, c.DueDay, c.CreditLimit.Cents, c.Active)
	if err != nil {
		return 0, fmt.Errorf("create card: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListActiveCards(ctx context.Context) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, cutoff_day, due_day, credit_limit_cents, active FROM credit_cards WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active cards: %w", err)
	}
	defer rows.Close()

	var out []core.CreditCard
	for rows.Next() {
		var c core.CreditCard
		if err := rows.Scan(&c.ID, &c.Name, &c.CutoffDay, &c.DueDay, &c.CreditLimit.Cents, &c.Active); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateStatement(ctx context.Context, s core.CardStatement) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO card_statements (card_id, statement_month, closing_date, due_date, total_due_cents, minimum_due_cents, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.CardID, encodeDate(s.StatementMonth), encodeDate(s.ClosingDate), encodeDate(s.DueDate),
		s.TotalDue.Cents, s.MinimumDue.Cents, string(s.Status))
	if err != nil {
		return 0, fmt.Errorf("create statement: %w", err)
	}
	return res.LastInsertId()
}

// ListStatementsDueBetween returns statements whose due date falls inside
// [from, to], across every card.
func (r *SQLiteRepository) ListStatementsDueBetween(ctx context.Context, from, to core.Date) ([]core.CardStatement, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, card_id, statement_month, closing_date, due_date, total_due_cents, minimum_due_cents, status
		 FROM card_statements WHERE due_date >= ? AND due_date <= ? ORDER BY due_date`,
		encodeDate(from), encodeDate(to))
	if err != nil {
		return nil, fmt.Errorf("list statements: %w", err)
	}
	defer rows.Close()

	var out []core.CardStatement
	for rows.Next() {
		var (
			s                          core.CardStatement
			month, closing, due, state string
		)
		if err := rows.Scan(&s.ID, &s.CardID, &month, &closing, &due, &s.TotalDue.Cents, &s.MinimumDue.Cents, &state); err != nil {
			return nil, fmt.Errorf("scan statement: %w", err)
		}
		s.Status = core.StatementStatus(state)
		if s.StatementMonth, err = decodeDate(month); err != nil {
			return nil, err
		}
		if s.ClosingDate, err = decodeDate(closing); err != nil {
			return nil, err
		}
		if s.DueDate, err = decodeDate(due); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreatePayment(ctx context.Context, p core.CardPayment) (int64, error) {
	var statementID sql.NullInt64
	if p.StatementID != 0 {
		statementID = sql.NullInt64{Int64: p.StatementID, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO card_payments (card_id, statement_id, amount_cents, paid_at) VALUES (?, ?, ?, ?)`,
		p.CardID, statementID, p.Amount.Cents, encodeDate(p.PaidAt))
	if err != nil {
		return 0, fmt.Errorf("create payment: %w", err)
	}
	return res.LastInsertId()
}

// ListPaymentsBetween returns payments made inside [from, to], across every
// card.
func (r *SQLiteRepository) ListPaymentsBetween(ctx context.Context, from, to core.Date) ([]core.CardPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, card_id, statement_id, amount_cents, paid_at FROM card_payments
		 WHERE paid_at >= ? AND paid_at <= ? ORDER BY paid_at`,
		encodeDate(from), encodeDate(to))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.CardPayment
	for rows.Next() {
		var (
			p           core.CardPayment
			statementID sql.NullInt64
			paidAt      string
		)
		if err := rows.Scan(&p.ID, &p.CardID, &statementID, &p.Amount.Cents, &paidAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.StatementID = statementID.Int64
		if p.PaidAt, err = decodeDate(paidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateCardTransaction(ctx context.Context, t core.CardTransaction) (int64, error) {
	installments := t.InstallmentsTotal
	if installments < 1 {
		installments = 1
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO card_transactions (card_id, description, amount_cents, purchased_at, installments_total) VALUES (?, ?, ?, ?, ?)`,
		t.CardID, t.Description, t.Amount.Cents, encodeDate(t.PurchasedAt), installments)
	if err != nil {
		return 0, fmt.Errorf("create card transaction: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListCardTransactions(ctx context.Context) ([]core.CardTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, card_id, description, amount_cents, purchased_at, installments_total FROM card_transactions ORDER BY purchased_at`)
	if err != nil {
		return nil, fmt.Errorf("list card transactions: %w", err)
	}
	defer rows.Close()

	var out []core.CardTransaction
	for rows.Next() {
		var (
			t         core.CardTransaction
			purchased string
		)
		if err := rows.Scan(&t.ID, &t.CardID, &t.Description, &t.Amount.Cents, &purchased, &t.InstallmentsTotal); err != nil {
			return nil, fmt.Errorf("scan card transaction: %w", err)
		}
		if t.PurchasedAt, err = decodeDate(purchased); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// --- alerts ---

// CreateAlerts persists one generation batch atomically so the once-per-day
// guard sees either the whole batch or nothing.
func (r *SQLiteRepository) CreateAlerts(ctx context.Context, alerts []core.FinancialAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin alert batch: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO alerts (type, severity, title, message, category, current_cents, average_cents, percentage_diff, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`)
	if err != nil {
		return fmt.Errorf("prepare alert insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range alerts {
		_, err := stmt.ExecContext(ctx,
			string(a.Type), string(a.Severity), a.Title, a.Message, string(a.Category),
			a.CurrentAmount.Cents, a.AverageAmount.Cents, a.PercentageDiff, a.CreatedAt.UTC().Format(tsLayout))
		if err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit alert batch: %w", err)
	}

	slog.InfoContext(ctx, "Alert batch persisted", "count", len(alerts))
	return nil
}

func (r *SQLiteRepository) ListAlerts(ctx context.Context, unreadOnly bool) ([]core.FinancialAlert, error) {
	query := `SELECT id, type, severity, title, message, category, current_cents, average_cents, percentage_diff, is_read, created_at
	          FROM alerts`
	if unreadOnly {
		query += ` WHERE is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []core.FinancialAlert
	for rows.Next() {
		var (
			a                                core.FinancialAlert
			typ, severity, category, created string
		)
		if err := rows.Scan(&a.ID, &typ, &severity, &a.Title, &a.Message, &category,
			&a.CurrentAmount.Cents, &a.AverageAmount.Cents, &a.PercentageDiff, &a.Read, &created); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		a.Type = core.AlertType(typ)
		a.Severity = core.AlertSeverity(severity)
		a.Category = core.Category(category)
		if a.CreatedAt, err = time.Parse(tsLayout, created); err != nil {
			return nil, fmt.Errorf("parse alert timestamp %q: %w", created, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CountUnreadAlerts(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alerts WHERE is_read = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread alerts: %w", err)
	}
	return count, nil
}

func (r *SQLiteRepository) MarkAlertRead(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE alerts SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark alert read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark alert read: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AlertTimestampsSince returns the creation timestamps of alerts created at
// or after t, newest first. The alert service feeds these into the pure
// generation guard.
func (r *SQLiteRepository) AlertTimestampsSince(ctx context.Context, t time.Time) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT created_at FROM alerts WHERE created_at >= ? ORDER BY created_at DESC`,
		t.UTC().Format(tsLayout))
	if err != nil {
		return nil, fmt.Errorf("list alert timestamps: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var created string
		if err := rows.Scan(&created); err != nil {
			return nil, fmt.Errorf("scan alert timestamp: %w", err)
		}
		ts, err := time.Parse(tsLayout, created)
		if err != nil {
			return nil, fmt.Errorf("parse alert timestamp %q: %w", created, err)
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}
