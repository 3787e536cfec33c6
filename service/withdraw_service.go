package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/invest_ledger/model"
	"github.com/invest_ledger/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// WithdrawalService handles withdrawal requests and their admin settlement.
type WithdrawalService struct {
	mutator     *BalanceMutator
	withdrawals *repository.WithdrawRepository
	txs         *repository.TransactionRepository
	clock       Clock
	log         *zap.Logger
}

func NewWithdrawalService(db *gorm.DB, mutator *BalanceMutator, clock Clock, log *zap.Logger) *WithdrawalService {
	return &WithdrawalService{
		mutator:     mutator,
		withdrawals: repository.NewWithdrawRepository(db),
		txs:         repository.NewTransactionRepository(db),
		clock:       clock,
		log:         log,
	}
}

// Request reserves amount out of the available balance and opens a pending
// withdrawal with a pending ledger entry.
func (s *WithdrawalService) Request(ctx context.Context, userID string, amount decimal.Decimal, phone string) (*model.Withdrawal, error) {
	if amount.LessThan(model.MinWithdrawal) {
		return nil, fmt.Errorf("%w: minimum withdrawal amount is %s", ErrValidation, model.MinWithdrawal)
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrValidation)
	}

	w := &model.Withdrawal{
		UserID: userID,
		Amount: amount,
		Phone:  phone,
		Status: model.WithdrawalPending,
	}
	_, err := s.mutator.Apply(ctx, userID, func(tx *gorm.DB, user *model.User) (*Change, error) {
		if user.Balance.Available.LessThan(amount) {
			return nil, fmt.Errorf("%w: available %s, requested %s", ErrInsufficientFunds, user.Balance.Available, amount)
		}
		if err := s.withdrawals.WithTx(tx).Create(ctx, w); err != nil {
			return nil, err
		}
		return &Change{
			Delta: Delta{Total: amount.Neg(), Available: amount.Neg()},
			Entry: &Entry{
				Type:        model.TxWithdrawal,
				Amount:      amount,
				Status:      model.TxPending,
				Description: "Withdrawal request",
				Reference:   w.ID,
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("withdrawal requested", zap.String("withdrawal_id", w.ID), zap.String("user_id", userID), zap.String("amount", amount.String()))
	return w, nil
}

// Process settles a pending withdrawal. completed marks the ledger entry
// completed; rejected marks it failed and restores the reserved amount.
func (s *WithdrawalService) Process(ctx context.Context, actor Actor, withdrawalID string, status model.WithdrawalStatus) (*model.Withdrawal, error) {
	if !actor.IsAdmin {
		return nil, fmt.Errorf("%w: not authorized to process withdrawals", ErrForbidden)
	}
	var entryStatus model.TransactionStatus
	switch status {
	case model.WithdrawalCompleted:
		entryStatus = model.TxCompleted
	case model.WithdrawalRejected:
		entryStatus = model.TxFailed
	default:
		return nil, fmt.Errorf("%w: invalid status %q, must be completed or rejected", ErrValidation, status)
	}

	w, err := s.find(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if w.Status != model.WithdrawalPending {
		return nil, fmt.Errorf("%w: withdrawal %s has already been processed", ErrInvalidState, w.ID)
	}

	var out *model.Withdrawal
	_, err = s.mutator.Apply(ctx, w.UserID, func(tx *gorm.DB, _ *model.User) (*Change, error) {
		repo := s.withdrawals.WithTx(tx)
		cur, err := repo.LockByID(ctx, withdrawalID)
		if err != nil {
			return nil, err
		}
		if cur.Status != model.WithdrawalPending {
			return nil, fmt.Errorf("%w: withdrawal %s has already been processed", ErrInvalidState, cur.ID)
		}
		entry, err := s.txs.WithTx(tx).FindByReference(ctx, cur.ID, model.TxWithdrawal)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: ledger entry for withdrawal %s", ErrNotFound, cur.ID)
			}
			return nil, err
		}
		now := s.clock.Now()
		if err := repo.UpdateStatus(ctx, cur.ID, status, now); err != nil {
			return nil, err
		}
		cur.Status = status
		cur.ProcessedAt = &now
		out = cur
		return &Change{Settle: &Settlement{EntryID: entry.ID, Status: entryStatus}}, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("withdrawal processed", zap.String("withdrawal_id", out.ID), zap.String("status", string(out.Status)))
	return out, nil
}

func (s *WithdrawalService) ListByUser(ctx context.Context, userID string) ([]*model.Withdrawal, error) {
	return s.withdrawals.ListByUser(ctx, userID)
}

// List is admin-only; an empty status lists every withdrawal.
func (s *WithdrawalService) List(ctx context.Context, actor Actor, status model.WithdrawalStatus, page, size int) ([]*model.Withdrawal, int64, error) {
	if !actor.IsAdmin {
		return nil, 0, fmt.Errorf("%w: not authorized to list withdrawals", ErrForbidden)
	}
	return s.withdrawals.ListByStatus(ctx, status, page, size)
}

func (s *WithdrawalService) find(ctx context.Context, id string) (*model.Withdrawal, error) {
	w, err := s.withdrawals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: withdrawal %s", ErrNotFound, id)
		}
		return nil, err
	}
	return w, nil
}
