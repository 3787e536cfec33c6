package service

import (
	"github.com/invest_ledger/model"
	"github.com/shopspring/decimal"
)

var referralRates = map[model.Level]decimal.Decimal{
	model.LevelPlatinum: decimal.RequireFromString("0.10"),
	model.LevelGold:     decimal.RequireFromString("0.08"),
	model.LevelSilver:   decimal.RequireFromString("0.05"),
}

var defaultReferralRate = decimal.RequireFromString("0.03")

// ReferralRate is the share of a referred investment paid to a referrer of the given tier.
func ReferralRate(referrer model.Level) decimal.Decimal {
	if r, ok := referralRates[referrer]; ok {
		return r
	}
	return defaultReferralRate
}

// ReferralBonus computes the one-time bonus owed to a referrer. It has no side effects.
func ReferralBonus(referrer model.Level, invested decimal.Decimal) decimal.Decimal {
	return invested.Mul(ReferralRate(referrer))
}
