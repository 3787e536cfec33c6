package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/invest_ledger/model"
	"github.com/invest_ledger/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	minReturnRate = decimal.RequireFromString("0.001")
	maxReturnRate = decimal.RequireFromString("0.01")
)

// ProductService is the catalog. Investments copy what they need from a product
// at creation, so later edits never reach open investments.
type ProductService struct {
	products *repository.ProductRepository
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{products: repository.NewProductRepository(db)}
}

type ProductInput struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	ReturnRate   decimal.Decimal `json:"return_rate"`
	DurationDays int             `json:"duration_days"`
	Level        model.Level     `json:"level"`
}

func (in ProductInput) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: product name is required", ErrValidation)
	case in.Price.LessThan(MinInvestment):
		return fmt.Errorf("%w: minimum investment amount must be at least %s", ErrValidation, MinInvestment)
	case in.ReturnRate.LessThan(minReturnRate) || in.ReturnRate.GreaterThan(maxReturnRate):
		return fmt.Errorf("%w: return rate must be within [%s, %s]", ErrValidation, minReturnRate, maxReturnRate)
	case in.DurationDays < 1:
		return fmt.Errorf("%w: duration must be at least 1 day", ErrValidation)
	case !in.Level.Valid():
		return fmt.Errorf("%w: unknown level %q", ErrValidation, in.Level)
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, actor Actor, in ProductInput) (*model.Product, error) {
	if !actor.IsAdmin {
		return nil, fmt.Errorf("%w: not authorized to create products", ErrForbidden)
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &model.Product{
		Name:         strings.TrimSpace(in.Name),
		Description:  in.Description,
		Price:        in.Price,
		ReturnRate:   in.ReturnRate,
		DurationDays: in.DurationDays,
		Level:        in.Level,
		IsActive:     true,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) ListActive(ctx context.Context) ([]*model.Product, error) {
	return s.products.ListActive(ctx)
}

func (s *ProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

func (s *ProductService) SetActive(ctx context.Context, actor Actor, id string, active bool) error {
	if !actor.IsAdmin {
		return fmt.Errorf("%w: not authorized to update products", ErrForbidden)
	}
	if err := s.products.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return err
	}
	return nil
}
