package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	cases := []struct {
		invested string
		want     Level
	}{
		{"0", LevelBronze},
		{"2499", LevelBronze},
		{"2499.9999", LevelBronze},
		{"2500", LevelSilver},
		{"4999", LevelSilver},
		{"5000", LevelGold},
		{"10000", LevelPlatinum},
		{"250000", LevelPlatinum},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelFor(decimal.RequireFromString(tc.invested)), tc.invested)
	}
}

func TestLevelOrdering(t *testing.T) {
	assert.True(t, LevelPlatinum.AtLeast(LevelGold))
	assert.True(t, LevelSilver.AtLeast(LevelSilver))
	assert.False(t, LevelBronze.AtLeast(LevelSilver))
	assert.False(t, Level("diamond").Valid())
}

func TestUpdateLevelFollowsInvested(t *testing.T) {
	u := &User{Level: LevelPlatinum, Balance: Balance{Invested: decimal.NewFromInt(2499)}}
	assert.Equal(t, LevelBronze, u.UpdateLevel())
	assert.Equal(t, LevelBronze, u.Level)
}

func TestInvestmentMatured(t *testing.T) {
	inv := Investment{}
	inv.EndDate = inv.StartDate.AddDate(0, 0, 90)
	assert.False(t, inv.Matured(inv.EndDate.Add(-1)))
	assert.True(t, inv.Matured(inv.EndDate))
	assert.True(t, InvestmentCancelled.Terminal())
	assert.False(t, InvestmentActive.Terminal())
	assert.True(t, TxPending.Effective())
	assert.False(t, TxFailed.Effective())
}
