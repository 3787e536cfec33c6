package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Level is the user tier, derived from the invested balance.
type Level string

const (
	LevelBronze   Level = "bronze"
	LevelSilver   Level = "silver"
	LevelGold     Level = "gold"
	LevelPlatinum Level = "platinum"
)

var (
	silverFloor   = decimal.NewFromInt(2500)
	goldFloor     = decimal.NewFromInt(5000)
	platinumFloor = decimal.NewFromInt(10000)
)

// LevelFor maps an invested amount onto its tier.
func LevelFor(invested decimal.Decimal) Level {
	switch {
	case invested.GreaterThanOrEqual(platinumFloor):
		return LevelPlatinum
	case invested.GreaterThanOrEqual(goldFloor):
		return LevelGold
	case invested.GreaterThanOrEqual(silverFloor):
		return LevelSilver
	default:
		return LevelBronze
	}
}

// Rank orders tiers: bronze < silver < gold < platinum. Unknown values rank 0.
func (l Level) Rank() int {
	switch l {
	case LevelBronze:
		return 1
	case LevelSilver:
		return 2
	case LevelGold:
		return 3
	case LevelPlatinum:
		return 4
	}
	return 0
}

func (l Level) Valid() bool { return l.Rank() > 0 }

// AtLeast reports whether l meets the required tier.
func (l Level) AtLeast(required Level) bool { return l.Rank() >= required.Rank() }

// Balance 用户三段余额：total = invested + available
type Balance struct {
	Total     decimal.Decimal `gorm:"column:total;type:decimal(20,4);not null;default:0" json:"total"`
	Invested  decimal.Decimal `gorm:"column:invested;type:decimal(20,4);not null;default:0" json:"invested"`
	Available decimal.Decimal `gorm:"column:available;type:decimal(20,4);not null;default:0" json:"available"`
}

// Consistent reports whether total == invested + available.
func (b Balance) Consistent() bool {
	return b.Total.Equal(b.Invested.Add(b.Available))
}

// 用户表（users）
type User struct {
	ID           string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Phone        string    `gorm:"column:phone;type:varchar(32);uniqueIndex;not null" json:"phone"`
	ReferralCode string    `gorm:"column:referral_code;type:varchar(16);uniqueIndex;not null" json:"referral_code"`
	ReferredBy   *string   `gorm:"column:referred_by;type:varchar(36);index" json:"referred_by,omitempty"`
	IsAdmin      bool      `gorm:"column:is_admin;not null" json:"is_admin"`
	Level        Level     `gorm:"column:level;type:varchar(16);not null;default:bronze" json:"level"`
	Balance      Balance   `gorm:"embedded;embeddedPrefix:balance_" json:"balance"`
	CreatedAt    time.Time `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdatedAt    time.Time `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Level == "" {
		u.Level = LevelFor(u.Balance.Invested)
	}
	return nil
}

// UpdateLevel recomputes the tier from the invested balance.
func (u *User) UpdateLevel() Level {
	u.Level = LevelFor(u.Balance.Invested)
	return u.Level
}
