package repository

import (
	"context"

	"github.com/invest_ledger/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvestmentRepository struct {
	db *gorm.DB
}

func NewInvestmentRepository(db *gorm.DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

func (r *InvestmentRepository) WithTx(tx *gorm.DB) *InvestmentRepository {
	return &InvestmentRepository{db: tx}
}

func (r *InvestmentRepository) Create(ctx context.Context, inv *model.Investment) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InvestmentRepository) FindByID(ctx context.Context, id string) (*model.Investment, error) {
	var inv model.Investment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *InvestmentRepository) LockByID(ctx context.Context, id string) (*model.Investment, error) {
	var inv model.Investment
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// SaveProgress persists the lifecycle fields of inv.
func (r *InvestmentRepository) SaveProgress(ctx context.Context, inv *model.Investment) error {
	return r.db.WithContext(ctx).Model(&model.Investment{}).Where("id = ?", inv.ID).Updates(map[string]interface{}{
		"status":          inv.Status,
		"total_return":    inv.TotalReturn,
		"accrual_count":   inv.AccrualCount,
		"last_accrual_at": inv.LastAccrualAt,
	}).Error
}

func (r *InvestmentRepository) ListByUser(ctx context.Context, userID string) ([]*model.Investment, error) {
	var list []*model.Investment
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("create_time desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListActiveAfter pages through active investments ordered by id (keyset pagination).
func (r *InvestmentRepository) ListActiveAfter(ctx context.Context, afterID string, limit int) ([]*model.Investment, error) {
	var list []*model.Investment
	q := r.db.WithContext(ctx).Where("status = ?", model.InvestmentActive)
	if afterID != "" {
		q = q.Where("id > ?", afterID)
	}
	if err := q.Order("id asc").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *InvestmentRepository) CountActive(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Investment{}).
		Where("user_id = ? AND status = ?", userID, model.InvestmentActive).
		Count(&n).Error
	return n, err
}
