package repository

import (
	"context"
	"time"

	"github.com/invest_ledger/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WithdrawRepository struct {
	db *gorm.DB
}

func NewWithdrawRepository(db *gorm.DB) *WithdrawRepository {
	return &WithdrawRepository{db: db}
}

func (r *WithdrawRepository) WithTx(tx *gorm.DB) *WithdrawRepository {
	return &WithdrawRepository{db: tx}
}

func (r *WithdrawRepository) Create(ctx context.Context, w *model.Withdrawal) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *WithdrawRepository) FindByID(ctx context.Context, id string) (*model.Withdrawal, error) {
	var w model.Withdrawal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawRepository) LockByID(ctx context.Context, id string) (*model.Withdrawal, error) {
	var w model.Withdrawal
	if err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawRepository) UpdateStatus(ctx context.Context, id string, status model.WithdrawalStatus, processedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Withdrawal{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       status,
		"processed_at": processedAt,
	}).Error
}

func (r *WithdrawRepository) ListByUser(ctx context.Context, userID string) ([]*model.Withdrawal, error) {
	var list []*model.Withdrawal
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("create_time desc").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListByStatus lists withdrawals, oldest first when filtering pending ones so
// they are settled in arrival order. An empty status lists everything newest first.
func (r *WithdrawRepository) ListByStatus(ctx context.Context, status model.WithdrawalStatus, page, size int) ([]*model.Withdrawal, int64, error) {
	var list []*model.Withdrawal
	var total int64
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	q := r.db.WithContext(ctx).Model(&model.Withdrawal{})
	order := "create_time desc"
	if status != "" {
		q = q.Where("status = ?", status)
		if status == model.WithdrawalPending {
			order = "create_time asc"
		}
	}
	q = q.Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order(order).Offset((page - 1) * size).Limit(size).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
