package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionType string

const (
	TxDeposit    TransactionType = "deposit"
	TxWithdrawal TransactionType = "withdrawal"
	TxGain       TransactionType = "gain"
	TxReferral   TransactionType = "referral"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxDeposit, TxWithdrawal, TxGain, TxReferral:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
	TxFailed    TransactionStatus = "failed"
	TxCancelled TransactionStatus = "cancelled"
)

// Effective reports whether the entry's delta still counts toward the balance.
func (s TransactionStatus) Effective() bool {
	return s == TxPending || s == TxCompleted
}

// 资金流水表（transactions）：只追加；创建后仅 status 可变
type Transaction struct {
	ID             string            `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	UserID         string            `gorm:"column:user_id;type:varchar(36);not null;index" json:"user_id"`
	Type           TransactionType   `gorm:"column:type;type:varchar(16);not null;index" json:"type"`
	Amount         decimal.Decimal   `gorm:"column:amount;type:decimal(20,4);not null" json:"amount"`
	Status         TransactionStatus `gorm:"column:status;type:varchar(16);not null;default:completed" json:"status"`
	Description    string            `gorm:"column:description;type:varchar(256)" json:"description"`
	Reference      string            `gorm:"column:reference;type:varchar(36);index" json:"reference"`
	TotalDelta     decimal.Decimal   `gorm:"column:total_delta;type:decimal(20,4);not null;default:0" json:"-"`
	InvestedDelta  decimal.Decimal   `gorm:"column:invested_delta;type:decimal(20,4);not null;default:0" json:"-"`
	AvailableDelta decimal.Decimal   `gorm:"column:available_delta;type:decimal(20,4);not null;default:0" json:"-"`
	CreatedAt      time.Time         `gorm:"column:create_time;autoCreateTime;index" json:"create_time"`
	UpdatedAt      time.Time         `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
