package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvestmentStatus string

const (
	InvestmentActive    InvestmentStatus = "active"
	InvestmentCompleted InvestmentStatus = "completed"
	InvestmentCancelled InvestmentStatus = "cancelled"
)

// Terminal reports whether no further transition may leave s.
func (s InvestmentStatus) Terminal() bool {
	return s == InvestmentCompleted || s == InvestmentCancelled
}

// 投资表（investments）
type Investment struct {
	ID            string           `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	UserID        string           `gorm:"column:user_id;type:varchar(36);not null;index" json:"user_id"`
	ProductID     string           `gorm:"column:product_id;type:varchar(36);not null;index" json:"product_id"`
	Amount        decimal.Decimal  `gorm:"column:amount;type:decimal(20,4);not null" json:"amount"`
	DailyReturn   decimal.Decimal  `gorm:"column:daily_return;type:decimal(20,4);not null" json:"daily_return"`
	TotalReturn   decimal.Decimal  `gorm:"column:total_return;type:decimal(20,4);not null;default:0" json:"total_return"`
	AccrualCount  int              `gorm:"column:accrual_count;not null;default:0" json:"accrual_count"`
	LastAccrualAt *time.Time       `gorm:"column:last_accrual_at" json:"last_accrual_at,omitempty"`
	StartDate     time.Time        `gorm:"column:start_date;not null" json:"start_date"`
	EndDate       time.Time        `gorm:"column:end_date;not null;index" json:"end_date"`
	Status        InvestmentStatus `gorm:"column:status;type:varchar(16);not null;default:active;index" json:"status"`
	CreatedAt     time.Time        `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdatedAt     time.Time        `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (i *Investment) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Matured reports whether the investment's term has elapsed at now.
func (i Investment) Matured(now time.Time) bool {
	return !now.Before(i.EndDate)
}
