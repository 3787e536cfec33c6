package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccrualRun records one pass of the daily accrual driver.
type AccrualRun struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Day        string `gorm:"size:10;index"` // YYYY-MM-DD in the accrual timezone
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Accrued    int
	Matured    int
	Skipped    int
	Failed     int
}

func (r *AccrualRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// helper: create tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Product{}, &Investment{}, &Transaction{}, &Withdrawal{}, &AccrualRun{})
}
