package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/invest_ledger/metrics"
	"github.com/invest_ledger/model"
	"github.com/invest_ledger/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Delta is a signed change to a user's tri-part balance.
type Delta struct {
	Total     decimal.Decimal
	Invested  decimal.Decimal
	Available decimal.Decimal
}

// Balanced reports whether the delta preserves total = invested + available.
func (d Delta) Balanced() bool {
	return d.Total.Equal(d.Invested.Add(d.Available))
}

func (d Delta) IsZero() bool {
	return d.Total.IsZero() && d.Invested.IsZero() && d.Available.IsZero()
}

func (d Delta) Neg() Delta {
	return Delta{Total: d.Total.Neg(), Invested: d.Invested.Neg(), Available: d.Available.Neg()}
}

// Entry describes the ledger row appended alongside a balance change.
type Entry struct {
	Type        model.TransactionType
	Amount      decimal.Decimal
	Status      model.TransactionStatus // completed when empty
	Description string
	Reference   string
}

// Settlement moves an existing pending ledger entry to a final status. When the
// entry stops counting toward the balance (failed, cancelled) its delta is reverted.
type Settlement struct {
	EntryID string
	Status  model.TransactionStatus
}

// Change is what a Mutation asks the mutator to commit. Exactly one of Entry or
// Settle must be set. Delta is ignored for settlements; the mutator derives it.
type Change struct {
	Delta  Delta
	Entry  *Entry
	Settle *Settlement
}

// Mutation runs inside the user's locked transaction. tx is for companion writes
// (investment or withdrawal rows); user is a read-only snapshot of the locked row.
// Returning a nil Change commits the companion writes without touching the balance.
type Mutation func(tx *gorm.DB, user *model.User) (*Change, error)

// Fixed wraps a change known before the lock is taken.
func Fixed(c Change) Mutation {
	return func(*gorm.DB, *model.User) (*Change, error) {
		return &c, nil
	}
}

// BalanceMutator is the only writer of user balances. Every call commits the
// balance update and its single ledger write in one database transaction.
type BalanceMutator struct {
	db    *gorm.DB
	users *repository.UserRepository
	txs   *repository.TransactionRepository
	locks *userLocks
	log   *zap.Logger
}

func NewBalanceMutator(db *gorm.DB, log *zap.Logger) *BalanceMutator {
	return &BalanceMutator{
		db:    db,
		users: repository.NewUserRepository(db),
		txs:   repository.NewTransactionRepository(db),
		locks: newUserLocks(),
		log:   log,
	}
}

// Apply locks userID, runs fn and commits the resulting change. It returns the
// ledger row written, or nil when fn returned no change.
func (m *BalanceMutator) Apply(ctx context.Context, userID string, fn Mutation) (*model.Transaction, error) {
	// in-process lock first, so a goroutine never holds a connection while queueing
	unlock := m.locks.lock(userID)
	defer unlock()

	var (
		written *model.Transaction
		label   = "none"
	)
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := m.users.WithTx(tx)
		user, err := users.LockByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %s", ErrNotFound, userID)
			}
			return err
		}
		if !user.Balance.Consistent() {
			return m.fault(user.ID, user.Balance, user.Balance, "stored balance")
		}

		snapshot := *user
		change, err := fn(tx, &snapshot)
		if err != nil {
			return err
		}
		if change == nil {
			return nil
		}

		var row *model.Transaction
		delta := change.Delta
		switch {
		case change.Entry != nil && change.Settle == nil:
			label = string(change.Entry.Type)
			row, err = newEntryRow(userID, delta, change.Entry)
			if err != nil {
				return err
			}
		case change.Settle != nil && change.Entry == nil:
			label = "settlement"
			row, delta, err = m.settle(ctx, tx, userID, change.Settle)
			if err != nil {
				return err
			}
		default:
			return m.fault(user.ID, user.Balance, user.Balance, "change must carry exactly one ledger write")
		}
		if !delta.Balanced() {
			return m.fault(user.ID, user.Balance, user.Balance, "unbalanced delta")
		}

		next := model.Balance{
			Total:     user.Balance.Total.Add(delta.Total),
			Invested:  user.Balance.Invested.Add(delta.Invested),
			Available: user.Balance.Available.Add(delta.Available),
		}
		if next.Available.IsNegative() || next.Invested.IsNegative() {
			return fmt.Errorf("%w: available %s, invested %s, requested %s/%s",
				ErrInsufficientFunds, user.Balance.Available, user.Balance.Invested, delta.Available, delta.Invested)
		}
		if !next.Consistent() {
			return m.fault(user.ID, user.Balance, next, "post-mutation balance")
		}

		before := user.Balance
		user.Balance = next
		if !delta.Invested.IsZero() {
			user.UpdateLevel()
		}
		if err := users.SaveBalance(ctx, user); err != nil {
			return err
		}
		if change.Entry != nil {
			if err := m.txs.WithTx(tx).Create(ctx, row); err != nil {
				return err
			}
		}
		written = row

		m.log.Debug("balance mutated",
			zap.String("user_id", userID),
			zap.String("entry", label),
			zap.String("total", before.Total.String()+" -> "+next.Total.String()),
			zap.String("invested", before.Invested.String()+" -> "+next.Invested.String()),
			zap.String("available", before.Available.String()+" -> "+next.Available.String()),
		)
		return nil
	})

	switch {
	case err == nil:
		metrics.RecordMutation(label, "ok")
	case errors.Is(err, ErrInsufficientFunds):
		metrics.RecordMutation(label, "insufficient_funds")
	case errors.Is(err, ErrConsistencyFault):
		metrics.RecordMutation(label, "consistency_fault")
	default:
		metrics.RecordMutation(label, "error")
	}
	if err != nil {
		return nil, err
	}
	return written, nil
}

// settle transitions a pending entry and derives the balance delta the transition implies.
func (m *BalanceMutator) settle(ctx context.Context, tx *gorm.DB, userID string, s *Settlement) (*model.Transaction, Delta, error) {
	txs := m.txs.WithTx(tx)
	row, err := txs.FindByID(ctx, s.EntryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Delta{}, fmt.Errorf("%w: ledger entry %s", ErrNotFound, s.EntryID)
		}
		return nil, Delta{}, err
	}
	if row.UserID != userID {
		return nil, Delta{}, fmt.Errorf("%w: ledger entry %s belongs to another user", ErrForbidden, s.EntryID)
	}
	if row.Status != model.TxPending {
		return nil, Delta{}, fmt.Errorf("%w: ledger entry %s is %s", ErrInvalidState, row.ID, row.Status)
	}
	switch s.Status {
	case model.TxCompleted, model.TxFailed, model.TxCancelled:
	default:
		return nil, Delta{}, fmt.Errorf("%w: cannot settle to %q", ErrValidation, s.Status)
	}

	var delta Delta
	if !s.Status.Effective() {
		delta = Delta{Total: row.TotalDelta, Invested: row.InvestedDelta, Available: row.AvailableDelta}.Neg()
	}
	if err := txs.UpdateStatus(ctx, row.ID, s.Status); err != nil {
		return nil, Delta{}, err
	}
	row.Status = s.Status
	return row, delta, nil
}

func newEntryRow(userID string, d Delta, e *Entry) (*model.Transaction, error) {
	if !e.Type.Valid() {
		return nil, fmt.Errorf("%w: ledger type %q", ErrValidation, e.Type)
	}
	if !e.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: ledger amount must be positive, got %s", ErrValidation, e.Amount)
	}
	status := e.Status
	if status == "" {
		status = model.TxCompleted
	}
	return &model.Transaction{
		UserID:         userID,
		Type:           e.Type,
		Amount:         e.Amount,
		Status:         status,
		Description:    e.Description,
		Reference:      e.Reference,
		TotalDelta:     d.Total,
		InvestedDelta:  d.Invested,
		AvailableDelta: d.Available,
	}, nil
}

func (m *BalanceMutator) fault(userID string, before, after model.Balance, what string) error {
	metrics.RecordConsistencyFault()
	m.log.Error("balance consistency fault",
		zap.String("user_id", userID),
		zap.String("check", what),
		zap.String("before_total", before.Total.String()),
		zap.String("before_invested", before.Invested.String()),
		zap.String("before_available", before.Available.String()),
		zap.String("after_total", after.Total.String()),
		zap.String("after_invested", after.Invested.String()),
		zap.String("after_available", after.Available.String()),
	)
	return fmt.Errorf("%w: user %s: %s", ErrConsistencyFault, userID, what)
}
