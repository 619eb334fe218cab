package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// string is not empty and not only whitespace
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		_, err := ParseCategory(fl.Field().String())
		return err == nil
	})
}

type (
	// UserInput is the raw onboarding form.
	UserInput struct {
		Name          string `validate:"notblank,max=100"`
		MonthlyIncome string `validate:"notblank"`
	}

	// ExpenseInput is the raw add/edit expense form. Date is YYYY-MM-DD.
	ExpenseInput struct {
		Category    string `validate:"category"`
		Amount      string `validate:"notblank"`
		Description string
		Date        string `validate:"datetime=2006-01-02"`
	}
)

// ValidationError reports the first field that failed boundary validation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", strings.ToLower(e.Field), e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewUser validates in and builds a User with a fresh id.
func NewUser(in UserInput, now time.Time) (User, error) {
	if err := check(in); err != nil {
		return User{}, err
	}
	income, err := ParseMoney(in.MonthlyIncome)
	if err != nil {
		return User{}, &ValidationError{Field: "MonthlyIncome", Err: err}
	}
	return User{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		MonthlyIncome: income,
		CreatedAt:     Timestamp(now),
	}, nil
}

// NewExpense validates in and builds an Expense owned by userID.
func NewExpense(userID string, in ExpenseInput, now time.Time) (Expense, error) {
	e, err := buildExpense(in)
	if err != nil {
		return Expense{}, err
	}
	e.ID = uuid.NewString()
	e.UserID = userID
	e.CreatedAt = Timestamp(now)
	return e, nil
}

// EditExpense applies in to prev, keeping its id, owner and creation time.
func EditExpense(prev Expense, in ExpenseInput) (Expense, error) {
	e, err := buildExpense(in)
	if err != nil {
		return Expense{}, err
	}
	e.ID = prev.ID
	e.UserID = prev.UserID
	e.CreatedAt = prev.CreatedAt
	return e, nil
}

func buildExpense(in ExpenseInput) (Expense, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := check(in); err != nil {
		return Expense{}, err
	}
	amount, err := ParseMoney(in.Amount)
	if err != nil {
		return Expense{}, &ValidationError{Field: "Amount", Err: err}
	}
	day, err := time.Parse(time.DateOnly, strings.TrimSpace(in.Date))
	if err != nil {
		return Expense{}, &ValidationError{Field: "Date", Err: ErrInvalidDate}
	}
	category, _ := ParseCategory(in.Category)
	return Expense{
		Category:    category,
		Amount:      amount,
		Description: in.Description,
		Date:        DateOf(day),
	}, nil
}

func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &ValidationError{Field: fe.Field(), Err: sentinelFor(fe)}
}

func sentinelFor(fe validator.FieldError) error {
	switch fe.Field() {
	case "Name":
		if fe.Tag() == "max" {
			return errors.New("name too long (max 100 characters)")
		}
		return ErrEmptyName
	case "MonthlyIncome", "Amount":
		return ErrInvalidAmount
	case "Category":
		return ErrInvalidCategory
	case "Date":
		return ErrInvalidDate
	default:
		return fmt.Errorf("failed %q check", fe.Tag())
	}
}
