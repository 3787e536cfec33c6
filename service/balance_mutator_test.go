package service

import (
	"sync"
	"testing"

	"github.com/invest_ledger/model"
	"github.com/invest_ledger/repository"
	"github.com/invest_ledger/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestApplyWritesBalanceAndOneEntry(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")

	row, err := f.mutator.Apply(f.ctx, u.ID, Fixed(Change{
		Delta: Delta{Total: testutil.Dec("1000"), Available: testutil.Dec("1000")},
		Entry: &Entry{Type: model.TxDeposit, Amount: testutil.Dec("1000"), Description: "Top up", Reference: "ext-1"},
	}))
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, model.TxCompleted, row.Status)
	assert.Equal(t, "ext-1", row.Reference)

	f.requireBalance(t, u.ID, "1000", "0", "1000")
	entries := f.entries(t, u.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, row.ID, entries[0].ID)
	f.requireReconciled(t, u.ID)
}

func TestApplyRecomputesLevelWhenInvestedChanges(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")

	_, err := f.mutator.Apply(f.ctx, u.ID, Fixed(Change{
		Delta: Delta{Total: testutil.Dec("2500"), Invested: testutil.Dec("2500")},
		Entry: &Entry{Type: model.TxDeposit, Amount: testutil.Dec("2500")},
	}))
	require.NoError(t, err)

	got, err := f.users.Get(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LevelSilver, got.Level)
}

func TestApplyRejectsUnbalancedDelta(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")
	f.fund(t, u.ID, "100")

	_, err := f.mutator.Apply(f.ctx, u.ID, Fixed(Change{
		Delta: Delta{Total: testutil.Dec("10"), Available: testutil.Dec("5")},
		Entry: &Entry{Type: model.TxGain, Amount: testutil.Dec("10")},
	}))
	require.ErrorIs(t, err, ErrConsistencyFault)

	f.requireBalance(t, u.ID, "100", "0", "100")
	assert.Len(t, f.entries(t, u.ID), 1)
}

func TestApplyRequiresExactlyOneLedgerWrite(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")

	_, err := f.mutator.Apply(f.ctx, u.ID, Fixed(Change{
		Delta: Delta{Total: testutil.Dec("10"), Available: testutil.Dec("10")},
	}))
	require.ErrorIs(t, err, ErrConsistencyFault)
	f.requireBalance(t, u.ID, "0", "0", "0")
}

func TestApplyInsufficientFundsLeavesBalanceUntouched(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")
	f.fund(t, u.ID, "100")

	_, err := f.mutator.Apply(f.ctx, u.ID, Fixed(Change{
		Delta: Delta{Total: testutil.Dec("-200"), Available: testutil.Dec("-200")},
		Entry: &Entry{Type: model.TxWithdrawal, Amount: testutil.Dec("200")},
	}))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	f.requireBalance(t, u.ID, "100", "0", "100")
	assert.Len(t, f.entries(t, u.ID), 1)
}

func TestApplyRollsBackCompanionWritesOnError(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")

	_, err := f.mutator.Apply(f.ctx, u.ID, func(tx *gorm.DB, user *model.User) (*Change, error) {
		w := &model.Withdrawal{UserID: user.ID, Amount: testutil.Dec("60"), Phone: "+100", Status: model.WithdrawalPending}
		if err := repository.NewWithdrawRepository(tx).Create(f.ctx, w); err != nil {
			return nil, err
		}
		return &Change{
			Delta: Delta{Total: testutil.Dec("-60"), Available: testutil.Dec("-60")},
			Entry: &Entry{Type: model.TxWithdrawal, Amount: testutil.Dec("60"), Status: model.TxPending},
		}, nil
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	list, err := f.withdrawals.ListByUser(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.entries(t, u.ID))
}

func TestApplyNilChangeCommitsCompanionWritesOnly(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")

	row, err := f.mutator.Apply(f.ctx, u.ID, func(tx *gorm.DB, user *model.User) (*Change, error) {
		w := &model.Withdrawal{UserID: user.ID, Amount: testutil.Dec("60"), Phone: "+100", Status: model.WithdrawalPending}
		return nil, repository.NewWithdrawRepository(tx).Create(f.ctx, w)
	})
	require.NoError(t, err)
	assert.Nil(t, row)

	list, err := f.withdrawals.ListByUser(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Empty(t, f.entries(t, u.ID))
}

func TestApplyUnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.mutator.Apply(f.ctx, "missing", Fixed(Change{}))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestApplyDetectsCorruptStoredBalance(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")
	f.fund(t, u.ID, "100")
	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", u.ID).Update("balance_total", 999).Error)

	_, err := f.mutator.Apply(f.ctx, u.ID, Fixed(Change{
		Delta: Delta{Total: testutil.Dec("1"), Available: testutil.Dec("1")},
		Entry: &Entry{Type: model.TxGain, Amount: testutil.Dec("1")},
	}))
	require.ErrorIs(t, err, ErrConsistencyFault)
}

func TestApplySerializesSameUser(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.mutator.Apply(f.ctx, u.ID, func(_ *gorm.DB, user *model.User) (*Change, error) {
				amt := testutil.Dec("10")
				return &Change{
					Delta: Delta{Total: amt, Available: amt},
					Entry: &Entry{Type: model.TxGain, Amount: amt},
				}, nil
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	f.requireBalance(t, u.ID, "200", "0", "200")
	assert.Len(t, f.entries(t, u.ID), n)
	assert.Zero(t, f.mutator.locks.size())
	f.requireReconciled(t, u.ID)
}

func TestApplySettlementRevertsFailedEntry(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")
	f.fund(t, u.ID, "500")

	pending, err := f.mutator.Apply(f.ctx, u.ID, Fixed(Change{
		Delta: Delta{Total: testutil.Dec("-200"), Available: testutil.Dec("-200")},
		Entry: &Entry{Type: model.TxWithdrawal, Amount: testutil.Dec("200"), Status: model.TxPending},
	}))
	require.NoError(t, err)
	f.requireBalance(t, u.ID, "300", "0", "300")

	settled, err := f.mutator.Apply(f.ctx, u.ID, Fixed(Change{
		Settle: &Settlement{EntryID: pending.ID, Status: model.TxFailed},
	}))
	require.NoError(t, err)
	assert.Equal(t, model.TxFailed, settled.Status)
	f.requireBalance(t, u.ID, "500", "0", "500")
	assert.Len(t, f.entries(t, u.ID), 2)

	_, err = f.mutator.Apply(f.ctx, u.ID, Fixed(Change{
		Settle: &Settlement{EntryID: pending.ID, Status: model.TxCompleted},
	}))
	require.ErrorIs(t, err, ErrInvalidState)
	f.requireReconciled(t, u.ID)
}

func TestApplySettlementRejectsForeignEntry(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "+100", "")
	b := f.register(t, "+200", "")
	f.fund(t, a.ID, "500")

	pending, err := f.mutator.Apply(f.ctx, a.ID, Fixed(Change{
		Delta: Delta{Total: testutil.Dec("-200"), Available: testutil.Dec("-200")},
		Entry: &Entry{Type: model.TxWithdrawal, Amount: testutil.Dec("200"), Status: model.TxPending},
	}))
	require.NoError(t, err)

	_, err = f.mutator.Apply(f.ctx, b.ID, Fixed(Change{
		Settle: &Settlement{EntryID: pending.ID, Status: model.TxFailed},
	}))
	require.ErrorIs(t, err, ErrForbidden)
}

func TestApplyRejectsInvalidEntry(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")

	_, err := f.mutator.Apply(f.ctx, u.ID, Fixed(Change{
		Entry: &Entry{Type: "bonus", Amount: testutil.Dec("1")},
	}))
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.mutator.Apply(f.ctx, u.ID, Fixed(Change{
		Entry: &Entry{Type: model.TxGain, Amount: testutil.Dec("0")},
	}))
	require.ErrorIs(t, err, ErrValidation)
}
