package service

import (
	"testing"

	"github.com/invest_ledger/model"
	"github.com/invest_ledger/repository"
	"github.com/invest_ledger/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvestmentAccruesNinetyDaysThenMatures(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")
	p := f.bronze(t)

	inv, err := f.investments.Create(f.ctx, u.ID, p.ID, testutil.Dec("1000"))
	require.NoError(t, err)
	testutil.RequireDecimal(t, "5", inv.DailyReturn)
	assert.Equal(t, day(90), inv.EndDate)
	f.requireBalance(t, u.ID, "1000", "1000", "0")

	for k := 0; k < 90; k++ {
		f.clock.Set(day(k))
		run, err := f.driver.Run(f.ctx)
		require.NoError(t, err)
		require.Equal(t, 1, run.Accrued, "day %d", k)
	}

	got, err := f.investments.Get(f.ctx, admin, inv.ID)
	require.NoError(t, err)
	testutil.RequireDecimal(t, "450", got.TotalReturn)
	assert.Equal(t, 90, got.AccrualCount)
	assert.Equal(t, model.InvestmentActive, got.Status)
	f.requireBalance(t, u.ID, "1450", "1000", "450")
	requireTypedLaw(t, f, u.ID)

	f.clock.Set(day(90))
	run, err := f.driver.Run(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Matured)
	assert.Zero(t, run.Accrued)

	got, err = f.investments.Get(f.ctx, admin, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvestmentCompleted, got.Status)
	testutil.RequireDecimal(t, "450", got.TotalReturn)
	f.requireBalance(t, u.ID, "1450", "0", "1450")

	// completed investments are no longer picked up, and direct calls are refused
	f.clock.Set(day(91))
	run, err = f.driver.Run(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, run.Processed)

	_, err = f.investments.AccrueOrMature(f.ctx, inv.ID)
	require.ErrorIs(t, err, ErrInvalidState)
	f.requireBalance(t, u.ID, "1450", "0", "1450")
	f.requireReconciled(t, u.ID)
}

func TestInvestmentPaysReferrerByReferrerTier(t *testing.T) {
	f := newFixture(t)
	p := f.bronze(t)

	b := f.register(t, "+200", "")
	_, err := f.investments.Create(f.ctx, b.ID, p.ID, testutil.Dec("10000"))
	require.NoError(t, err)
	b, err = f.users.Get(f.ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, model.LevelPlatinum, b.Level)

	a := f.register(t, "+100", b.ReferralCode)
	require.NotNil(t, a.ReferredBy)
	_, err = f.investments.Create(f.ctx, a.ID, p.ID, testutil.Dec("5000"))
	require.NoError(t, err)

	a, err = f.users.Get(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LevelGold, a.Level)
	f.requireBalance(t, a.ID, "5000", "5000", "0")
	f.requireBalance(t, b.ID, "10500", "10000", "500")

	bonuses, err := f.wallet.HistoryByType(f.ctx, b.ID, model.TxReferral)
	require.NoError(t, err)
	require.Len(t, bonuses, 1)
	testutil.RequireDecimal(t, "500", bonuses[0].Amount)
	assert.Equal(t, a.ID, bonuses[0].Reference)
	assert.Equal(t, model.TxCompleted, bonuses[0].Status)

	// no recurring bonus on accrual
	_, err = f.driver.Run(f.ctx)
	require.NoError(t, err)
	bonuses, err = f.wallet.HistoryByType(f.ctx, b.ID, model.TxReferral)
	require.NoError(t, err)
	assert.Len(t, bonuses, 1)

	requireTypedLaw(t, f, a.ID)
	requireTypedLaw(t, f, b.ID)
}

func TestInvestmentSurvivesMissingReferrer(t *testing.T) {
	f := newFixture(t)
	p := f.bronze(t)
	u := f.register(t, "+100", "")
	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", u.ID).Update("referred_by", "gone").Error)

	inv, err := f.investments.Create(f.ctx, u.ID, p.ID, testutil.Dec("1000"))
	require.NoError(t, err)
	assert.Equal(t, model.InvestmentActive, inv.Status)
	f.requireBalance(t, u.ID, "1000", "1000", "0")
}

func TestInvestmentCreateValidation(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")
	bronze := f.bronze(t)
	silver := f.product(t, "Silver Plan", "2500", "0.006", 90, model.LevelSilver)
	retired := f.product(t, "Retired Plan", "100", "0.005", 30, model.LevelBronze)
	require.NoError(t, f.products.SetActive(f.ctx, admin, retired.ID, false))

	cases := []struct {
		name    string
		product string
		amount  string
		want    error
	}{
		{"below platform floor", retired.ID, "99", ErrValidation},
		{"below product price", bronze.ID, "999", ErrValidation},
		{"tier too low", silver.ID, "2500", ErrValidation},
		{"inactive product", retired.ID, "100", ErrValidation},
		{"unknown product", "nope", "1000", ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.investments.Create(f.ctx, u.ID, tc.product, testutil.Dec(tc.amount))
			require.ErrorIs(t, err, tc.want)
		})
	}

	list, err := f.investments.ListByUser(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	f.requireBalance(t, u.ID, "0", "0", "0")
	assert.Empty(t, f.entries(t, u.ID))
}

func TestInvestmentTierUnlocksHigherProducts(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")
	bronze := f.bronze(t)
	silver := f.product(t, "Silver Plan", "2500", "0.006", 90, model.LevelSilver)

	_, err := f.investments.Create(f.ctx, u.ID, bronze.ID, testutil.Dec("2500"))
	require.NoError(t, err)
	_, err = f.investments.Create(f.ctx, u.ID, silver.ID, testutil.Dec("2500"))
	require.NoError(t, err)

	got, err := f.users.Get(f.ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LevelGold, got.Level)
}

func TestInvestmentCancel(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "+100", "")
	other := f.register(t, "+200", "")
	p := f.bronze(t)

	inv, err := f.investments.Create(f.ctx, owner.ID, p.ID, testutil.Dec("2500"))
	require.NoError(t, err)

	_, err = f.investments.Cancel(f.ctx, Actor{UserID: other.ID}, inv.ID)
	require.ErrorIs(t, err, ErrForbidden)

	got, err := f.investments.Cancel(f.ctx, Actor{UserID: owner.ID}, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvestmentCancelled, got.Status)
	f.requireBalance(t, owner.ID, "2500", "0", "2500")

	u, err := f.users.Get(f.ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LevelBronze, u.Level)

	_, err = f.investments.Cancel(f.ctx, Actor{UserID: owner.ID}, inv.ID)
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = f.investments.AccrueOrMature(f.ctx, inv.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = f.investments.Cancel(f.ctx, Actor{UserID: owner.ID}, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	f.requireReconciled(t, owner.ID)
}

func TestInvestmentAdminMayCancelAndRead(t *testing.T) {
	f := newFixture(t)
	owner := f.register(t, "+100", "")
	p := f.bronze(t)
	inv, err := f.investments.Create(f.ctx, owner.ID, p.ID, testutil.Dec("1000"))
	require.NoError(t, err)

	_, err = f.investments.Get(f.ctx, Actor{UserID: "someone"}, inv.ID)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.investments.Cancel(f.ctx, admin, inv.ID)
	require.NoError(t, err)
	f.requireBalance(t, owner.ID, "1000", "0", "1000")
}

func TestInvestmentCopiesProductTerms(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "+100", "")
	p := f.bronze(t)

	inv, err := f.investments.Create(f.ctx, u.ID, p.ID, testutil.Dec("1000"))
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&model.Product{}).Where("id = ?", p.ID).Update("return_rate", 0.01).Error)

	_, err = f.investments.AccrueOrMature(f.ctx, inv.ID)
	require.NoError(t, err)
	f.requireBalance(t, u.ID, "1005", "1000", "5")
}

// requireTypedLaw checks gain + deposit + referral - settled withdrawals == total.
// It only holds while no investment has been cancelled or matured.
func requireTypedLaw(t *testing.T, f *fixture, userID string) {
	t.Helper()
	sum := decimal.Zero
	list, _, err := repository.NewTransactionRepository(f.db).ListByUser(f.ctx, userID, 1, 1000)
	require.NoError(t, err)
	for _, e := range list {
		switch {
		case e.Type == model.TxWithdrawal && e.Status == model.TxCompleted:
			sum = sum.Sub(e.Amount)
		case e.Type != model.TxWithdrawal && e.Status == model.TxCompleted:
			sum = sum.Add(e.Amount)
		}
	}
	testutil.RequireDecimal(t, f.balance(t, userID).Total.String(), sum)
}
