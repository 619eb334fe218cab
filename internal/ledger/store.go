// Package ledger holds the authoritative in-memory ledger (active user plus
// expense collection) and keeps it in step with the persistence adapter.
//
// Every mutator writes the full updated record before it returns. When the
// write fails the in-memory state is left untouched, so a reload always
// reproduces what the store last reported.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"dbudget/internal/core"
	"dbudget/internal/log"
	"dbudget/internal/storage"
)

var (
	ErrNoActiveUser = errors.New("no active user")
	ErrDuplicateID  = errors.New("duplicate expense id")
	ErrForeignUser  = errors.New("expense belongs to another user")
	// ErrUnreadable is returned by mutators while the active user's stored
	// collection could neither be read nor set aside.
	ErrUnreadable = errors.New("stored expenses unreadable")
)

type Store struct {
	kv     storage.KV
	logger *log.Logger

	mu       sync.RWMutex
	user     *core.User
	expenses []core.Expense
	revision uint64
	// blocked is set while the stored collection must not be overwritten.
	blocked bool
}

func New(kv storage.KV, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Nop()
	}
	return &Store{
		kv:     kv,
		logger: logger.WithComponent(log.ComponentLedger),
	}
}

// Initialize loads the persisted user and their expenses. Missing, unreadable
// or malformed data leaves the store empty (or the user with no expenses);
// the caller then drives onboarding.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user, s.expenses, s.blocked = nil, nil, false
	s.revision++

	data, ok, err := s.kv.Load(ctx, userKey)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load user, starting empty",
			log.FieldOperation, log.OpLoad, log.FieldKey, userKey, log.FieldError, err)
		return
	}
	if !ok {
		s.logger.InfoContext(ctx, "No persisted user, onboarding required")
		return
	}
	user, err := decodeUser(data)
	if err != nil {
		s.logger.WarnContext(ctx, "Ignoring malformed user record",
			log.FieldOperation, log.OpLoad, log.FieldKey, userKey, log.FieldError, err)
		return
	}

	s.user = &user
	s.expenses, s.blocked = s.loadExpenses(ctx, user.ID)
	s.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldUserID, user.ID, log.FieldCount, len(s.expenses))
}

// loadExpenses reads the collection of userID. blocked reports that the
// stored bytes are still in place and would be lost by the next write.
// A malformed collection is copied to QuarantineKey first, so the user can
// carry on with an empty ledger without losing the original.
func (s *Store) loadExpenses(ctx context.Context, userID string) (expenses []core.Expense, blocked bool) {
	key := ExpensesKey(userID)
	data, ok, err := s.kv.Load(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load expenses, changes disabled",
			log.FieldOperation, log.OpLoad, log.FieldKey, key, log.FieldError, err)
		return nil, true
	}
	if !ok {
		return nil, false
	}
	expenses, err = decodeExpenses(data)
	if err == nil {
		return expenses, false
	}

	backup := QuarantineKey(userID)
	s.logger.WarnContext(ctx, "Ignoring malformed expense collection",
		log.FieldOperation, log.OpLoad, log.FieldKey, key, "backup_key", backup, log.FieldError, err)
	if err := s.kv.Save(ctx, backup, data); err != nil {
		s.logger.ErrorContext(ctx, "Failed to set aside malformed expenses, changes disabled",
			log.FieldOperation, log.OpLoad, log.FieldKey, backup, log.FieldError, err)
		return nil, true
	}
	return nil, false
}

// SetUser makes user the active user. The first time a user id is seen an
// empty expense collection is written for it; a returning user gets their
// persisted expenses back. Other users' records are left alone.
func (s *Store) SetUser(ctx context.Context, user core.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("set user: %w", err)
	}
	data, err := encodeUser(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := ExpensesKey(user.ID)
	_, seen, err := s.kv.Load(ctx, key)
	if err != nil {
		// Never overwrite a collection that could not be read.
		return fmt.Errorf("check expenses: %w", err)
	}
	if !seen {
		if err := s.kv.Save(ctx, key, []byte("[]")); err != nil {
			s.logger.ErrorContext(ctx, "Failed to persist expense collection",
				log.FieldOperation, log.OpSetUser, log.FieldKey, key, log.FieldError, err)
			return fmt.Errorf("persist expenses: %w", err)
		}
	}
	if err := s.kv.Save(ctx, userKey, data); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist user",
			log.FieldOperation, log.OpSetUser, log.FieldKey, userKey, log.FieldError, err)
		return fmt.Errorf("persist user: %w", err)
	}

	u := user
	s.user = &u
	s.expenses, s.blocked = nil, false
	if seen {
		s.expenses, s.blocked = s.loadExpenses(ctx, user.ID)
	}
	s.revision++

	s.logger.InfoContext(ctx, "Active user set",
		log.FieldOperation, log.OpSetUser, log.FieldUserID, user.ID, log.FieldCount, len(s.expenses))
	return nil
}

// AddExpense appends e and persists the collection. e must be valid and
// owned by the active user.
func (s *Store) AddExpense(ctx context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.admit(e); err != nil {
		return err
	}
	e = normalize(e)
	if s.indexOf(e.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
	}

	next := append(slices.Clip(s.expenses), e)
	if err := s.commit(ctx, log.OpCreate, next); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Expense added", log.NewFields().
		WithOperation(log.OpCreate).
		WithUser(e.UserID).
		WithExpense(e.ID, e.Amount.Cents, e.Category.String()).
		ToSlice()...)
	return nil
}

// DeleteExpense removes the expense with id. Unknown ids leave the
// collection as it is.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return ErrNoActiveUser
	}
	i := s.indexOf(id)
	if i < 0 {
		s.logger.DebugContext(ctx, "Delete of unknown expense ignored", log.FieldExpenseID, id)
		return nil
	}

	next := slices.Delete(slices.Clone(s.expenses), i, i+1)
	if err := s.commit(ctx, log.OpDelete, next); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Expense deleted",
		log.FieldOperation, log.OpDelete, log.FieldExpenseID, id)
	return nil
}

// UpdateExpense replaces the expense with id by e as a whole. The id of e is
// stored as given; keeping it equal to id is the caller's job.
func (s *Store) UpdateExpense(ctx context.Context, id string, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.admit(e); err != nil {
		return err
	}
	e = normalize(e)
	i := s.indexOf(id)
	if i < 0 {
		s.logger.DebugContext(ctx, "Update of unknown expense ignored", log.FieldExpenseID, id)
		return nil
	}
	if e.ID != id && s.indexOf(e.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
	}

	next := slices.Clone(s.expenses)
	next[i] = e
	if err := s.commit(ctx, log.OpUpdate, next); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Expense updated", log.NewFields().
		WithOperation(log.OpUpdate).
		WithExpense(e.ID, e.Amount.Cents, e.Category.String()).
		ToSlice()...)
	return nil
}

// Clear detaches the active user. Persisted records stay where they are;
// use Erase to remove them.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		s.logger.Info("Active user cleared", log.FieldOperation, log.OpClear, log.FieldUserID, s.user.ID)
	}
	s.user, s.expenses, s.blocked = nil, nil, false
	s.revision++
}

// Erase deletes the persisted records of userID: its expense collection and
// any set-aside copy, and the user record if it still points at userID.
func (s *Store) Erase(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range []string{ExpensesKey(userID), QuarantineKey(userID)} {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("erase expenses: %w", err)
		}
	}
	data, ok, err := s.kv.Load(ctx, userKey)
	if err != nil {
		return fmt.Errorf("erase user: %w", err)
	}
	if ok {
		if u, err := decodeUser(data); err != nil || u.ID == userID {
			if err := s.kv.Delete(ctx, userKey); err != nil {
				return fmt.Errorf("erase user: %w", err)
			}
		}
	}
	if s.user != nil && s.user.ID == userID {
		s.user, s.expenses, s.blocked = nil, nil, false
		s.revision++
	}
	s.logger.InfoContext(ctx, "User records erased", log.FieldOperation, log.OpErase, log.FieldUserID, userID)
	return nil
}

// admit checks that e can be stored for the active user and read back later.
func (s *Store) admit(e core.Expense) error {
	if s.user == nil {
		return ErrNoActiveUser
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid expense: %w", err)
	}
	if e.UserID != s.user.ID {
		return fmt.Errorf("%w: %s", ErrForeignUser, e.UserID)
	}
	return nil
}

// normalize puts e in the form it has after a reload: the calendar day it
// names in its own location, and a millisecond UTC creation time.
func normalize(e core.Expense) core.Expense {
	e.Date = core.DateOf(e.Date.Time)
	e.CreatedAt = core.Timestamp(e.CreatedAt)
	return e
}

// commit persists next for the active user and, only on success, installs it.
func (s *Store) commit(ctx context.Context, op string, next []core.Expense) error {
	if s.blocked {
		return ErrUnreadable
	}
	data, err := encodeExpenses(next)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	key := ExpensesKey(s.user.ID)
	if err := s.kv.Save(ctx, key, data); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist expenses",
			log.FieldOperation, op, log.FieldKey, key, log.FieldError, err)
		return fmt.Errorf("persist expenses: %w", err)
	}
	s.expenses = next
	s.revision++
	return nil
}

func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.expenses, func(e core.Expense) bool { return e.ID == id })
}

// User returns the active user, if any.
func (s *Store) User() (core.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return core.User{}, false
	}
	return *s.user, true
}

// Expenses returns a copy of the collection in insertion order.
func (s *Store) Expenses() []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.expenses)
}

// Expense looks up a single expense by id.
func (s *Store) Expense(id string) (core.Expense, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.expenses[i], true
	}
	return core.Expense{}, false
}

// Revision increases on every state change.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := core.Snapshot{
		Expenses: slices.Clone(s.expenses),
		Revision: s.revision,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}
