package core

import (
	"errors"
	"strings"
	"time"
)

const (
	StatementOpen   StatementStatus = "open"
	StatementClosed StatementStatus = "closed"
	StatementPaid   StatementStatus = "paid"
)

type (
	StatementStatus string

	// Category identifies a spending category. It is a validated string
	// rather than a free-form one so a typo in a caller shows up as a
	// validation error instead of a silently split category.
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Lifespan is the time-bounded shape shared by incomes, fixed expenses
	// and personal budgets: a start date, an optional end date and an
	// active flag managed by the editing layer.
	Lifespan struct {
		StartsOn Date
		EndsOn   Date // zero = open-ended
		Active   bool
	}

	Income struct {
		ID          int64
		Description string
		Amount      Money
		Lifespan
	}

	FixedExpense struct {
		ID          int64
		Description string
		Category    Category
		Amount      Money
		Lifespan
	}

	PersonalBudget struct {
		ID          int64
		Description string
		Category    Category
		Amount      Money
		Lifespan
	}

	// Commitment is a fixed-amount obligation spread over a whole number of
	// consecutive months, e.g. a scheduled saving. It contributes its full
	// monthly installment in every month of its span.
	Commitment struct {
		ID             int64
		Description    string
		AmountPerMonth Money
		MonthsTotal    int
		StartMonth     Date // first day of a month
	}

	CreditCard struct {
		ID          int64
		Name        string
		CutoffDay   int   // 1-28
		DueDay      int   // 1-28
		CreditLimit Money // zero = no limit recorded
		Active      bool
	}

	// CardStatement is one billing-cycle snapshot of a card's total and
	// minimum due.
	CardStatement struct {
		ID             int64
		CardID         int64
		StatementMonth Date
		ClosingDate    Date
		DueDate        Date
		TotalDue       Money
		MinimumDue     Money
		Status         StatementStatus
	}

	CardPayment struct {
		ID          int64
		CardID      int64
		StatementID int64 // 0 = not tied to a specific statement
		Amount      Money
		PaidAt      Date
	}

	// CardTransaction is a purchase whose cost is divided into
	// InstallmentsTotal equal monthly pieces starting in the purchase month.
	CardTransaction struct {
		ID                int64
		CardID            int64
		Description       string
		Amount            Money
		PurchasedAt       Date
		InstallmentsTotal int // 0 defaults to 1
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidDateRange    = errors.New("end date before start date")
	ErrEmptyDescription    = errors.New("empty description")
	ErrEmptyCategory       = errors.New("empty category")
	ErrInvalidMonthsTotal  = errors.New("months total must be at least 1")
	ErrInvalidInstallments = errors.New("installments total must be at least 1")
	ErrInvalidCardDay      = errors.New("card day must be between 1 and 28")
)

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty reports whether the date is unset, used for optional end dates.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(string(c)) == "" {
		return ErrEmptyCategory
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (l Lifespan) Validate() error {
	if err := l.StartsOn.Validate(); err != nil {
		return err
	}
	if !l.EndsOn.IsEmpty() && l.EndsOn.Before(l.StartsOn.Time) {
		return ErrInvalidDateRange
	}
	return nil
}

func (i Income) Validate() error {
	if len(strings.TrimSpace(i.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := i.Amount.Validate(); err != nil {
		return err
	}
	return i.Lifespan.Validate()
}

func (e FixedExpense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := e.Category.Validate(); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return e.Lifespan.Validate()
}

func (b PersonalBudget) Validate() error {
	if len(strings.TrimSpace(b.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := b.Category.Validate(); err != nil {
		return err
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	return b.Lifespan.Validate()
}

func (c Commitment) Validate() error {
	if len(strings.TrimSpace(c.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := c.AmountPerMonth.Validate(); err != nil {
		return err
	}
	if c.MonthsTotal < 1 {
		return ErrInvalidMonthsTotal
	}
	return c.StartMonth.Validate()
}

// EndMonth returns the first day of the last month the commitment covers.
func (c Commitment) EndMonth() Date {
	start := MonthPeriod(c.StartMonth.Time).Start
	return Date{Time: start.AddDate(0, c.MonthsTotal-1, 0)}
}

// CoversMonth reports whether the commitment contributes to the month
// containing monthStart.
func (c Commitment) CoversMonth(monthStart time.Time) bool {
	if c.MonthsTotal < 1 {
		return false
	}
	diff := MonthsBetween(c.StartMonth.Time, monthStart)
	return diff >= 0 && diff < c.MonthsTotal
}

func (c CreditCard) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyDescription
	}
	if c.CutoffDay < 1 || c.CutoffDay > 28 {
		return ErrInvalidCardDay
	}
	if c.DueDay < 1 || c.DueDay > 28 {
		return ErrInvalidCardDay
	}
	return nil
}

func (s CardStatement) Validate() error {
	if err := s.StatementMonth.Validate(); err != nil {
		return err
	}
	if err := s.DueDate.Validate(); err != nil {
		return err
	}
	if err := s.TotalDue.Validate(); err != nil {
		return err
	}
	if s.MinimumDue.Cents < 0 || s.MinimumDue.Cents > s.TotalDue.Cents {
		return ErrInvalidAmount
	}
	return nil
}

func (p CardPayment) Validate() error {
	if err := p.Amount.Validate(); err != nil {
		return err
	}
	return p.PaidAt.Validate()
}

func (t CardTransaction) Validate() error {
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.PurchasedAt.Validate(); err != nil {
		return err
	}
	if t.InstallmentsTotal < 0 {
		return ErrInvalidInstallments
	}
	return nil
}
