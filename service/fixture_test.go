package service

import (
	"context"
	"testing"
	"time"

	"github.com/invest_ledger/model"
	"github.com/invest_ledger/repository"
	"github.com/invest_ledger/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	t0    = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	admin = Actor{UserID: "back-office", IsAdmin: true}
)

type fixture struct {
	ctx         context.Context
	db          *gorm.DB
	clock       *testutil.Clock
	mutator     *BalanceMutator
	users       *UserService
	products    *ProductService
	wallet      *WalletService
	investments *InvestmentService
	withdrawals *WithdrawalService
	driver      *AccrualDriver
}

func newFixture(t *testing.T, opts ...AccrualOption) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	clock := testutil.NewClock(t0)
	log := zap.NewNop()
	mutator := NewBalanceMutator(db, log)
	investments := NewInvestmentService(db, mutator, clock, time.UTC, log)
	return &fixture{
		ctx:         context.Background(),
		db:          db,
		clock:       clock,
		mutator:     mutator,
		users:       NewUserService(db, log),
		products:    NewProductService(db),
		wallet:      NewWalletService(db),
		investments: investments,
		withdrawals: NewWithdrawalService(db, mutator, clock, log),
		driver:      NewAccrualDriver(db, investments, clock, time.UTC, log, opts...),
	}
}

func (f *fixture) register(t *testing.T, phone, referralCode string) *model.User {
	t.Helper()
	u, err := f.users.Register(f.ctx, phone, referralCode, false)
	require.NoError(t, err)
	return u
}

func (f *fixture) product(t *testing.T, name, price, rate string, days int, level model.Level) *model.Product {
	t.Helper()
	p, err := f.products.Create(f.ctx, admin, ProductInput{
		Name:         name,
		Price:        testutil.Dec(price),
		ReturnRate:   testutil.Dec(rate),
		DurationDays: days,
		Level:        level,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) bronze(t *testing.T) *model.Product {
	return f.product(t, "Bronze Plan", "1000", "0.005", 90, model.LevelBronze)
}

// fund credits available money through the mutator, as an external top-up would.
func (f *fixture) fund(t *testing.T, userID, amount string) {
	t.Helper()
	a := testutil.Dec(amount)
	_, err := f.mutator.Apply(f.ctx, userID, Fixed(Change{
		Delta: Delta{Total: a, Available: a},
		Entry: &Entry{Type: model.TxDeposit, Amount: a, Description: "Top up"},
	}))
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, userID string) model.Balance {
	t.Helper()
	u, err := repository.NewUserRepository(f.db).FindByID(f.ctx, userID)
	require.NoError(t, err)
	return u.Balance
}

func (f *fixture) requireBalance(t *testing.T, userID, total, invested, available string) {
	t.Helper()
	b := f.balance(t, userID)
	testutil.RequireDecimal(t, total, b.Total, "total")
	testutil.RequireDecimal(t, invested, b.Invested, "invested")
	testutil.RequireDecimal(t, available, b.Available, "available")
}

func (f *fixture) entries(t *testing.T, userID string) []*model.Transaction {
	t.Helper()
	list, _, err := repository.NewTransactionRepository(f.db).ListByUser(f.ctx, userID, 1, 1000)
	require.NoError(t, err)
	return list
}

func (f *fixture) requireReconciled(t *testing.T, userID string) {
	t.Helper()
	rec, err := f.wallet.Reconcile(f.ctx, userID)
	require.NoError(t, err)
	require.True(t, rec.Balanced, "stored %+v replayed %+v", rec.Stored, rec.Replayed)
}

func day(k int) time.Time {
	return t0.AddDate(0, 0, k)
}
