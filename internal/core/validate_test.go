package core

import (
	"errors"
	"testing"
	"time"
)

var fixedNow = time.Date(2025, 3, 14, 10, 30, 15, 123456789, time.UTC)

func TestNewUser(t *testing.T) {
	u, err := NewUser(UserInput{Name: "  Asha ", MonthlyIncome: "5000"}, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID == "" || u.Name != "Asha" || u.MonthlyIncome.Cents != 500000 {
		t.Fatalf("unexpected user: %+v", u)
	}
	if !u.CreatedAt.Equal(fixedNow.Truncate(time.Millisecond)) {
		t.Fatalf("expected millisecond timestamp, got %v", u.CreatedAt)
	}

	other, _ := NewUser(UserInput{Name: "Asha", MonthlyIncome: "5000"}, fixedNow)
	if other.ID == u.ID {
		t.Fatalf("expected unique ids")
	}
}

func TestNewUserRejects(t *testing.T) {
	cases := []struct {
		in    UserInput
		field string
		want  error
	}{
		{UserInput{Name: "   ", MonthlyIncome: "10"}, "Name", ErrEmptyName},
		{UserInput{Name: "A", MonthlyIncome: ""}, "MonthlyIncome", ErrInvalidAmount},
		{UserInput{Name: "A", MonthlyIncome: "0"}, "MonthlyIncome", ErrInvalidAmount},
		{UserInput{Name: "A", MonthlyIncome: "-20"}, "MonthlyIncome", ErrInvalidAmount},
	}
	for i, tc := range cases {
		_, err := NewUser(tc.in, fixedNow)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("case %d expected ValidationError, got %v", i, err)
		}
		if verr.Field != tc.field || !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %s/%v, got %s/%v", i, tc.field, tc.want, verr.Field, verr.Err)
		}
	}
}

func TestNewExpense(t *testing.T) {
	e, err := NewExpense("u1", ExpenseInput{
		Category:    "Travel",
		Amount:      "120,50",
		Description: "  Bus pass ",
		Date:        "2025-02-28",
	}, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID == "" || e.UserID != "u1" || e.Category != CategoryTravel {
		t.Fatalf("unexpected expense: %+v", e)
	}
	if e.Amount.Cents != 12050 || e.Description != "Bus pass" {
		t.Fatalf("unexpected amount/description: %+v", e)
	}
	if !e.Date.SameDay(NewDate(2025, 2, 28)) {
		t.Fatalf("unexpected date: %s", e.Date)
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("built expense should validate: %v", err)
	}
}

func TestNewExpenseRejects(t *testing.T) {
	base := ExpenseInput{Category: "Food & Snacks", Amount: "10", Date: "2025-01-02"}
	cases := []struct {
		mutate func(*ExpenseInput)
		want   error
	}{
		{func(in *ExpenseInput) { in.Category = "Snacks" }, ErrInvalidCategory},
		{func(in *ExpenseInput) { in.Category = "" }, ErrInvalidCategory},
		{func(in *ExpenseInput) { in.Amount = "0" }, ErrInvalidAmount},
		{func(in *ExpenseInput) { in.Amount = "" }, ErrInvalidAmount},
		{func(in *ExpenseInput) { in.Date = "02/01/2025" }, ErrInvalidDate},
		{func(in *ExpenseInput) { in.Date = "" }, ErrInvalidDate},
	}
	for i, tc := range cases {
		in := base
		tc.mutate(&in)
		if _, err := NewExpense("u1", in, fixedNow); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestEditExpenseKeepsIdentity(t *testing.T) {
	prev, err := NewExpense("u1", ExpenseInput{Category: "EMI", Amount: "100", Date: "2025-01-02"}, fixedNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	next, err := EditExpense(prev, ExpenseInput{Category: "Other", Amount: "5", Date: "2025-01-03"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.ID != prev.ID || next.UserID != prev.UserID || !next.CreatedAt.Equal(prev.CreatedAt) {
		t.Fatalf("identity not kept: %+v vs %+v", next, prev)
	}
	if next.Category != CategoryOther || next.Amount.Cents != 500 {
		t.Fatalf("fields not replaced: %+v", next)
	}
}
