package repository

import (
	"context"

	"github.com/invest_ledger/model"
	"gorm.io/gorm"
)

type AccrualRunRepository struct {
	db *gorm.DB
}

func NewAccrualRunRepository(db *gorm.DB) *AccrualRunRepository {
	return &AccrualRunRepository{db: db}
}

func (r *AccrualRunRepository) Create(ctx context.Context, run *model.AccrualRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *AccrualRunRepository) ListByDay(ctx context.Context, day string) ([]*model.AccrualRun, error) {
	var list []*model.AccrualRun
	err := r.db.WithContext(ctx).Where("day = ?", day).Order("started_at asc").Find(&list).Error
	return list, err
}
