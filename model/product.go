package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 产品表（products）：可投资的固定期限计划
type Product struct {
	ID           string          `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Name         string          `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Description  string          `gorm:"column:description;type:text" json:"description"`
	Price        decimal.Decimal `gorm:"column:price;type:decimal(20,4);not null" json:"price"`
	ReturnRate   decimal.Decimal `gorm:"column:return_rate;type:decimal(10,6);not null" json:"return_rate"`
	DurationDays int             `gorm:"column:duration_days;not null" json:"duration_days"`
	Level        Level           `gorm:"column:level;type:varchar(16);not null" json:"level"`
	IsActive     bool            `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt    time.Time       `gorm:"column:create_time;autoCreateTime" json:"create_time"`
	UpdatedAt    time.Time       `gorm:"column:update_time;autoUpdateTime" json:"update_time"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// DailyReturn is the daily return of an investment at the product's minimum price.
func (p Product) DailyReturn() decimal.Decimal {
	return p.Price.Mul(p.ReturnRate)
}
