package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateOfKeepsCalendarDay(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	late := time.Date(2025, 3, 14, 23, 30, 0, 0, ist) // 18:00 UTC the same day
	early := time.Date(2025, 3, 15, 1, 0, 0, 0, ist)  // 19:30 UTC on the 14th

	if got := DateOf(late); !got.SameDay(NewDate(2025, 3, 14)) {
		t.Fatalf("expected 2025-03-14, got %s", got)
	}
	if got := DateOf(early); !got.SameDay(NewDate(2025, 3, 15)) {
		t.Fatalf("expected 2025-03-15, got %s", got)
	}
	if NewDate(2025, 3, 14).SameDay(NewDate(2024, 3, 14)) {
		t.Fatalf("different years must not be the same day")
	}
}

func TestCategories(t *testing.T) {
	all := Categories()
	if len(all) != 12 || all[0] != CategoryEMI || all[len(all)-1] != CategoryOther {
		t.Fatalf("unexpected categories: %v", all)
	}
	if c, err := ParseCategory(" Food & Snacks "); err != nil || c != CategoryFood {
		t.Fatalf("expected Food & Snacks, got %q (err=%v)", c, err)
	}
	if _, err := ParseCategory("food"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -5}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		ID:       "e1",
		UserID:   "u1",
		Category: CategoryFood,
		Amount:   Money{Cents: 100},
		Date:     NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	long := good
	long.Description = strings.Repeat("Groceries for the week, ", 50)
	if err := long.Validate(); err != nil {
		t.Fatalf("long descriptions are allowed, got %v", err)
	}

	bads := []struct {
		mutate func(*Expense)
		want   error
	}{
		{func(e *Expense) { e.ID = " " }, ErrEmptyID},
		{func(e *Expense) { e.Category = "Snacks" }, ErrInvalidCategory},
		{func(e *Expense) { e.Amount = Money{} }, ErrInvalidAmount},
		{func(e *Expense) { e.Date = Date{} }, ErrInvalidDate},
	}
	for i, tc := range bads {
		e := good
		tc.mutate(&e)
		if err := e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}
