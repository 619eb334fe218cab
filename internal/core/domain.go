package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CategoryEMI       Category = "EMI"
	CategoryBike      Category = "Bike"
	CategoryPetrol    Category = "Petrol"
	CategoryRepair    Category = "Repair"
	CategoryCloth     Category = "Cloth"
	CategoryMovies    Category = "Movies"
	CategoryTravel    Category = "Travel"
	CategoryGrocery   Category = "Grocery"
	CategoryFood      Category = "Food & Snacks"
	CategoryHome      Category = "Home & Kitchen"
	CategoryUtilities Category = "Utilities"
	CategoryOther     Category = "Other"
)

type (
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	User struct {
		ID            string
		Name          string
		MonthlyIncome Money
		CreatedAt     time.Time
	}

	Expense struct {
		ID          string
		UserID      string
		Category    Category
		Amount      Money
		Description string
		Date        Date
		CreatedAt   time.Time
	}

	// Snapshot is a copy of the ledger state at a given revision.
	Snapshot struct {
		User     *User
		Expenses []Expense
		Revision uint64
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyID         = errors.New("empty id")
)

var categories = []Category{
	CategoryEMI, CategoryBike, CategoryPetrol, CategoryRepair, CategoryCloth, CategoryMovies,
	CategoryTravel, CategoryGrocery, CategoryFood, CategoryHome, CategoryUtilities, CategoryOther,
}

// Categories returns every category in declaration order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory maps a label onto the closed category set.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// Month returns the month (1-12)
func (d Date) Month() int {
	return int(d.Time.Month())
}

// SameDay reports calendar-day equality.
func (d Date) SameDay(o Date) bool {
	y1, m1, d1 := d.Date()
	y2, m2, d2 := o.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	return u.MonthlyIncome.Validate()
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyID
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return e.Date.Validate()
}

// Timestamp returns t in UTC at millisecond precision, the resolution kept by persisted records.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
