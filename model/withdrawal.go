package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WithdrawalStatus string

const (
	WithdrawalPending   WithdrawalStatus = "pending"
	WithdrawalCompleted WithdrawalStatus = "completed"
	WithdrawalRejected  WithdrawalStatus = "rejected"
)

// MinWithdrawal is the smallest amount a user may request.
var MinWithdrawal = decimal.NewFromInt(50)

// 提现表（withdrawals）：pending 只能转换一次为 completed 或 rejected
type Withdrawal struct {
	ID          string           `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	UserID      string           `gorm:"column:user_id;type:varchar(36);not null;index" json:"user_id"`
	Amount      decimal.Decimal  `gorm:"column:amount;type:decimal(20,4);not null" json:"amount"`
	Phone       string           `gorm:"column:phone;type:varchar(32);not null" json:"phone"`
	Status      WithdrawalStatus `gorm:"column:status;type:varchar(16);not null;default:pending;index" json:"status"`
	ProcessedAt *time.Time       `gorm:"column:processed_at" json:"processed_at,omitempty"`
	CreatedAt   time.Time        `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdatedAt   time.Time        `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (w *Withdrawal) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
