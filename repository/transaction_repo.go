package repository

import (
	"context"

	"github.com/invest_ledger/model"
	"gorm.io/gorm"
)

// TransactionRepository is the ledger store. Rows are append-only: the only
// mutation it offers after Create is a status transition.
type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

func (r *TransactionRepository) Create(ctx context.Context, t *model.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*model.Transaction, error) {
	var t model.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByReference returns the oldest entry of the given type pointing at ref.
func (r *TransactionRepository) FindByReference(ctx context.Context, ref string, typ model.TransactionType) (*model.Transaction, error) {
	var t model.Transaction
	if err := r.db.WithContext(ctx).Where("reference = ? AND type = ?", ref, typ).Order("create_time asc").First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepository) UpdateStatus(ctx context.Context, id string, status model.TransactionStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, page, size int) ([]*model.Transaction, int64, error) {
	var list []*model.Transaction
	var total int64
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	offset := (page - 1) * size
	if err := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("create_time desc").Offset(offset).Limit(size).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListEffectiveByUser returns every entry whose delta still counts toward the balance.
func (r *TransactionRepository) ListEffectiveByUser(ctx context.Context, userID string) ([]*model.Transaction, error) {
	var list []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, []model.TransactionStatus{model.TxPending, model.TxCompleted}).
		Order("create_time asc").
		Find(&list).Error
	return list, err
}

func (r *TransactionRepository) ListByUserAndType(ctx context.Context, userID string, typ model.TransactionType) ([]*model.Transaction, error) {
	var list []*model.Transaction
	err := r.db.WithContext(ctx).Where("user_id = ? AND type = ?", userID, typ).Order("create_time asc").Find(&list).Error
	return list, err
}
