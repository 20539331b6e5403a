package core

import (
	"testing"
	"time"
)

func TestMonthPeriod(t *testing.T) {
	tests := []struct {
		name      string
		in        time.Time
		wantStart Date
		wantEnd   Date
	}{
		{
			name:      "mid-month input normalizes to month bounds",
			in:        time.Date(2024, 4, 17, 15, 30, 0, 0, time.UTC),
			wantStart: NewDate(2024, 4, 1),
			wantEnd:   NewDate(2024, 4, 30),
		},
		{
			name:      "leap february",
			in:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			wantStart: NewDate(2024, 2, 1),
			wantEnd:   NewDate(2024, 2, 29),
		},
		{
			name:      "december rolls into next year correctly",
			in:        time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
			wantStart: NewDate(2023, 12, 1),
			wantEnd:   NewDate(2023, 12, 31),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MonthPeriod(tt.in)
			if !p.Start.Equal(tt.wantStart.Time) || !p.End.Equal(tt.wantEnd.Time) {
				t.Errorf("MonthPeriod(%v) = [%v, %v], want [%v, %v]",
					tt.in, p.Start, p.End, tt.wantStart.Time, tt.wantEnd.Time)
			}
		})
	}
}

func TestRemainingDays(t *testing.T) {
	tests := []struct {
		name          string
		monthStart    time.Time
		today         time.Time
		wantDays      int
		wantRemaining int
	}{
		{
			name:          "first day of current month",
			monthStart:    time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			today:         time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC),
			wantDays:      30,
			wantRemaining: 30,
		},
		{
			name:          "mid current month",
			monthStart:    time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			today:         time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
			wantDays:      30,
			wantRemaining: 11,
		},
		{
			name:          "last day of current month floors at 1",
			monthStart:    time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			today:         time.Date(2024, 4, 30, 23, 0, 0, 0, time.UTC),
			wantDays:      30,
			wantRemaining: 1,
		},
		{
			name:          "past month counts whole month",
			monthStart:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			today:         time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
			wantDays:      31,
			wantRemaining: 31,
		},
		{
			name:          "future month counts whole month",
			monthStart:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			today:         time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
			wantDays:      31,
			wantRemaining: 31,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, remaining := RemainingDays(tt.monthStart, tt.today)
			if days != tt.wantDays || remaining != tt.wantRemaining {
				t.Errorf("RemainingDays() = (%d, %d), want (%d, %d)",
					days, remaining, tt.wantDays, tt.wantRemaining)
			}
		})
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same month", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 28, 0, 0, 0, 0, time.UTC), 0},
		{"next month", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 1},
		{"across year boundary", time.Date(2023, 11, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 3},
		{"earlier month is negative", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("MonthsBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLifespanOverlapsPeriod(t *testing.T) {
	period := MonthPeriod(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		span Lifespan
		want bool
	}{
		{
			name: "open-ended started before period",
			span: Lifespan{StartsOn: NewDate(2023, 1, 1)},
			want: true,
		},
		{
			name: "starts mid-period counts for whole period",
			span: Lifespan{StartsOn: NewDate(2024, 4, 15)},
			want: true,
		},
		{
			name: "ends mid-period counts for whole period",
			span: Lifespan{StartsOn: NewDate(2024, 1, 1), EndsOn: NewDate(2024, 4, 10)},
			want: true,
		},
		{
			name: "starts after period end",
			span: Lifespan{StartsOn: NewDate(2024, 5, 1)},
			want: false,
		},
		{
			name: "ends before period start",
			span: Lifespan{StartsOn: NewDate(2024, 1, 1), EndsOn: NewDate(2024, 3, 31)},
			want: false,
		},
		{
			name: "ends exactly on period start",
			span: Lifespan{StartsOn: NewDate(2024, 1, 1), EndsOn: NewDate(2024, 4, 1)},
			want: true,
		},
		{
			name: "starts exactly on period end",
			span: Lifespan{StartsOn: NewDate(2024, 4, 30)},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.span.OverlapsPeriod(period); got != tt.want {
				t.Errorf("OverlapsPeriod() = %v, want %v", got, tt.want)
			}
		})
	}
}
