package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"dbudget/internal/core"
)

const (
	userKey             = "dbudget_user"
	expensesKeyPrefix   = "dbudget_expenses_"
	quarantineKeyPrefix = "dbudget_unreadable_expenses_"
)

// UserKey is the key holding the active user.
func UserKey() string {
	return userKey
}

// ExpensesKey is the per-user key holding that user's expense collection.
func ExpensesKey(userID string) string {
	return expensesKeyPrefix + userID
}

// QuarantineKey holds the last expense collection of userID that failed to
// decode, kept for manual recovery.
func QuarantineKey(userID string) string {
	return quarantineKeyPrefix + userID
}

// Persisted shapes. Calendar dates travel as YYYY-MM-DD and instants as
// ISO-8601 strings. Both are parsed back explicitly; nothing read from
// storage is trusted to already be a time.
type (
	userRecord struct {
		ID            string     `json:"id"`
		Name          string     `json:"name"`
		MonthlyIncome core.Money `json:"monthlyIncome"`
		CreatedAt     string     `json:"createdAt"`
	}

	expenseRecord struct {
		ID          string     `json:"id"`
		UserID      string     `json:"userId"`
		Category    string     `json:"category"`
		Amount      core.Money `json:"amount"`
		Description string     `json:"description"`
		Date        string     `json:"date"`
		CreatedAt   string     `json:"createdAt"`
	}
)

func encodeUser(u core.User) ([]byte, error) {
	return json.Marshal(userRecord{
		ID:            u.ID,
		Name:          u.Name,
		MonthlyIncome: u.MonthlyIncome,
		CreatedAt:     formatTime(u.CreatedAt),
	})
}

func decodeUser(data []byte) (core.User, error) {
	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return core.User{}, fmt.Errorf("decode user: %w", err)
	}
	createdAt, err := parseTime(rec.CreatedAt)
	if err != nil {
		return core.User{}, fmt.Errorf("user createdAt: %w", err)
	}
	u := core.User{
		ID:            rec.ID,
		Name:          rec.Name,
		MonthlyIncome: rec.MonthlyIncome,
		CreatedAt:     createdAt,
	}
	if err := u.Validate(); err != nil {
		return core.User{}, fmt.Errorf("user record: %w", err)
	}
	return u, nil
}

func encodeExpenses(expenses []core.Expense) ([]byte, error) {
	recs := make([]expenseRecord, len(expenses))
	for i, e := range expenses {
		recs[i] = expenseRecord{
			ID:          e.ID,
			UserID:      e.UserID,
			Category:    e.Category.String(),
			Amount:      e.Amount,
			Description: e.Description,
			Date:        e.Date.String(),
			CreatedAt:   formatTime(e.CreatedAt),
		}
	}
	return json.Marshal(recs)
}

// decodeExpenses rejects the whole collection if any record is malformed.
func decodeExpenses(data []byte) ([]core.Expense, error) {
	var recs []expenseRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}
	expenses := make([]core.Expense, 0, len(recs))
	seen := make(map[string]struct{}, len(recs))
	for i, rec := range recs {
		category, err := core.ParseCategory(rec.Category)
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", i, err)
		}
		day, err := parseTime(rec.Date)
		if err != nil {
			return nil, fmt.Errorf("expense %d date: %w", i, err)
		}
		createdAt, err := parseTime(rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("expense %d createdAt: %w", i, err)
		}
		e := core.Expense{
			ID:          rec.ID,
			UserID:      rec.UserID,
			Category:    category,
			Amount:      rec.Amount,
			Description: rec.Description,
			Date:        core.DateOf(day),
			CreatedAt:   createdAt,
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("expense %d: %w", i, err)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("expense %d: duplicate id %q", i, e.ID)
		}
		seen[e.ID] = struct{}{}
		expenses = append(expenses, e)
	}
	return expenses, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime accepts full RFC 3339 timestamps and bare YYYY-MM-DD dates.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
	}
	return t, nil
}
