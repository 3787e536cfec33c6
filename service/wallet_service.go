package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/invest_ledger/model"
	"github.com/invest_ledger/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const recentTransactionLimit = 10

// WalletService is the read side of balances and the ledger.
type WalletService struct {
	users *repository.UserRepository
	txs   *repository.TransactionRepository
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{
		users: repository.NewUserRepository(db),
		txs:   repository.NewTransactionRepository(db),
	}
}

// 查询账户余额
func (s *WalletService) GetBalance(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return u, nil
}

// 查询资金流水
func (s *WalletService) GetHistory(ctx context.Context, userID string, page, size int) ([]*model.Transaction, int64, error) {
	return s.txs.ListByUser(ctx, userID, page, size)
}

// HistoryByType lists every entry of one type, oldest first.
func (s *WalletService) HistoryByType(ctx context.Context, userID string, typ model.TransactionType) ([]*model.Transaction, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: transaction type %q", ErrValidation, typ)
	}
	return s.txs.ListByUserAndType(ctx, userID, typ)
}

func (s *WalletService) Recent(ctx context.Context, userID string) ([]*model.Transaction, error) {
	list, _, err := s.txs.ListByUser(ctx, userID, 1, recentTransactionLimit)
	return list, err
}

// Reconciliation compares a stored balance with the one replayed from the ledger.
type Reconciliation struct {
	UserID   string        `json:"user_id"`
	Stored   model.Balance `json:"stored"`
	Replayed model.Balance `json:"replayed"`
	Entries  int           `json:"entries"`
	Balanced bool          `json:"balanced"`
}

// Reconcile replays the delta of every ledger entry that still counts toward
// the balance (pending or completed) and compares it with the stored balance.
func (s *WalletService) Reconcile(ctx context.Context, userID string) (*Reconciliation, error) {
	u, err := s.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.txs.ListEffectiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	replayed := model.Balance{Total: decimal.Zero, Invested: decimal.Zero, Available: decimal.Zero}
	for _, e := range entries {
		replayed.Total = replayed.Total.Add(e.TotalDelta)
		replayed.Invested = replayed.Invested.Add(e.InvestedDelta)
		replayed.Available = replayed.Available.Add(e.AvailableDelta)
	}
	return &Reconciliation{
		UserID:   userID,
		Stored:   u.Balance,
		Replayed: replayed,
		Entries:  len(entries),
		Balanced: replayed.Total.Equal(u.Balance.Total) &&
			replayed.Invested.Equal(u.Balance.Invested) &&
			replayed.Available.Equal(u.Balance.Available),
	}, nil
}
