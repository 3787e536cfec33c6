package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/invest_ledger/model"
	"github.com/invest_ledger/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MinInvestment is the catalog-wide floor, applied on top of each product's price.
var MinInvestment = decimal.NewFromInt(100)

// Actor is the authenticated caller, as supplied by the auth layer.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// Outcome is what one accrue-or-mature step did to an investment.
type Outcome string

const (
	OutcomeAccrued Outcome = "accrued"
	OutcomeMatured Outcome = "matured"
	OutcomeSkipped Outcome = "skipped" // already credited for this logical day
)

// InvestmentService owns the investment state machine:
// active -> completed (matured) | cancelled. Both targets are terminal.
type InvestmentService struct {
	mutator     *BalanceMutator
	users       *repository.UserRepository
	products    *repository.ProductRepository
	investments *repository.InvestmentRepository
	clock       Clock
	loc         *time.Location
	log         *zap.Logger
}

func NewInvestmentService(db *gorm.DB, mutator *BalanceMutator, clock Clock, loc *time.Location, log *zap.Logger) *InvestmentService {
	if loc == nil {
		loc = time.UTC
	}
	return &InvestmentService{
		mutator:     mutator,
		users:       repository.NewUserRepository(db),
		products:    repository.NewProductRepository(db),
		investments: repository.NewInvestmentRepository(db),
		clock:       clock,
		loc:         loc,
		log:         log,
	}
}

// Create opens an investment and moves amount into the user's invested balance.
// A referral bonus, when due, is paid afterwards as an independent mutation; its
// failure is logged and never undoes the investment.
func (s *InvestmentService) Create(ctx context.Context, userID, productID string, amount decimal.Decimal) (*model.Investment, error) {
	if amount.LessThan(MinInvestment) {
		return nil, fmt.Errorf("%w: minimum investment amount is %s", ErrValidation, MinInvestment)
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, productID)
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: product %s is not available for investment", ErrValidation, product.Name)
	}
	if amount.LessThan(product.Price) {
		return nil, fmt.Errorf("%w: minimum investment amount for %s is %s", ErrValidation, product.Name, product.Price)
	}

	now := s.clock.Now()
	inv := &model.Investment{
		UserID:      userID,
		ProductID:   product.ID,
		Amount:      amount,
		DailyReturn: amount.Mul(product.ReturnRate),
		TotalReturn: decimal.Zero,
		StartDate:   now,
		EndDate:     now.AddDate(0, 0, product.DurationDays),
		Status:      model.InvestmentActive,
	}

	var investor model.User
	_, err = s.mutator.Apply(ctx, userID, func(tx *gorm.DB, user *model.User) (*Change, error) {
		if !user.Level.AtLeast(product.Level) {
			return nil, fmt.Errorf("%w: %s level required for %s, user is %s", ErrValidation, product.Level, product.Name, user.Level)
		}
		if err := s.investments.WithTx(tx).Create(ctx, inv); err != nil {
			return nil, err
		}
		investor = *user
		return &Change{
			Delta: Delta{Total: amount, Invested: amount},
			Entry: &Entry{
				Type:        model.TxDeposit,
				Amount:      amount,
				Description: "Investment in " + product.Name,
				Reference:   inv.ID,
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if investor.ReferredBy != nil && *investor.ReferredBy != "" {
		if _, err := s.payReferral(ctx, &investor, *investor.ReferredBy, amount); err != nil {
			s.log.Warn("referral bonus not paid",
				zap.String("investment_id", inv.ID),
				zap.String("referrer_id", *investor.ReferredBy),
				zap.Error(err))
		}
	}
	return inv, nil
}

// payReferral credits the referrer with a bonus based on their tier at payment time.
func (s *InvestmentService) payReferral(ctx context.Context, investor *model.User, referrerID string, invested decimal.Decimal) (*model.Transaction, error) {
	return s.mutator.Apply(ctx, referrerID, func(_ *gorm.DB, referrer *model.User) (*Change, error) {
		bonus := ReferralBonus(referrer.Level, invested)
		if !bonus.IsPositive() {
			return nil, nil
		}
		return &Change{
			Delta: Delta{Total: bonus, Available: bonus},
			Entry: &Entry{
				Type:        model.TxReferral,
				Amount:      bonus,
				Description: "Referral bonus from " + investor.Phone,
				Reference:   investor.ID,
			},
		}, nil
	})
}

// Cancel returns an active investment's principal to the available balance.
func (s *InvestmentService) Cancel(ctx context.Context, actor Actor, investmentID string) (*model.Investment, error) {
	inv, err := s.find(ctx, investmentID)
	if err != nil {
		return nil, err
	}
	if inv.UserID != actor.UserID && !actor.IsAdmin {
		return nil, fmt.Errorf("%w: not authorized to cancel investment %s", ErrForbidden, investmentID)
	}

	var out *model.Investment
	_, err = s.mutator.Apply(ctx, inv.UserID, func(tx *gorm.DB, _ *model.User) (*Change, error) {
		repo := s.investments.WithTx(tx)
		cur, err := repo.LockByID(ctx, investmentID)
		if err != nil {
			return nil, err
		}
		if cur.Status != model.InvestmentActive {
			return nil, fmt.Errorf("%w: only active investments can be cancelled, investment %s is %s", ErrInvalidState, cur.ID, cur.Status)
		}
		cur.Status = model.InvestmentCancelled
		if err := repo.SaveProgress(ctx, cur); err != nil {
			return nil, err
		}
		out = cur
		return &Change{
			Delta: Delta{Invested: cur.Amount.Neg(), Available: cur.Amount},
			Entry: &Entry{
				Type:        model.TxWithdrawal,
				Amount:      cur.Amount,
				Description: "Investment cancellation",
				Reference:   cur.ID,
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AccrueOrMature advances an active investment by one step: at or past its end
// date it matures (principal back to available, no gain this cycle), otherwise
// it is credited its daily return at most once per logical day.
func (s *InvestmentService) AccrueOrMature(ctx context.Context, investmentID string) (Outcome, error) {
	inv, err := s.find(ctx, investmentID)
	if err != nil {
		return "", err
	}
	if inv.Status != model.InvestmentActive {
		return "", fmt.Errorf("%w: investment %s is %s", ErrInvalidState, inv.ID, inv.Status)
	}

	var outcome Outcome
	_, err = s.mutator.Apply(ctx, inv.UserID, func(tx *gorm.DB, _ *model.User) (*Change, error) {
		repo := s.investments.WithTx(tx)
		cur, err := repo.LockByID(ctx, investmentID)
		if err != nil {
			return nil, err
		}
		if cur.Status != model.InvestmentActive {
			return nil, fmt.Errorf("%w: investment %s is %s", ErrInvalidState, cur.ID, cur.Status)
		}

		now := s.clock.Now()
		if cur.Matured(now) {
			cur.Status = model.InvestmentCompleted
			if err := repo.SaveProgress(ctx, cur); err != nil {
				return nil, err
			}
			outcome = OutcomeMatured
			return &Change{
				Delta: Delta{Invested: cur.Amount.Neg(), Available: cur.Amount},
				Entry: &Entry{
					Type:        model.TxDeposit,
					Amount:      cur.Amount,
					Description: "Investment matured",
					Reference:   cur.ID,
				},
			}, nil
		}

		if cur.LastAccrualAt != nil && dayOf(*cur.LastAccrualAt, s.loc) == dayOf(now, s.loc) {
			outcome = OutcomeSkipped
			return nil, nil
		}
		cur.TotalReturn = cur.TotalReturn.Add(cur.DailyReturn)
		cur.AccrualCount++
		cur.LastAccrualAt = &now
		if err := repo.SaveProgress(ctx, cur); err != nil {
			return nil, err
		}
		outcome = OutcomeAccrued
		return &Change{
			Delta: Delta{Total: cur.DailyReturn, Available: cur.DailyReturn},
			Entry: &Entry{
				Type:        model.TxGain,
				Amount:      cur.DailyReturn,
				Description: "Daily investment return",
				Reference:   cur.ID,
			},
		}, nil
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// Get returns an investment visible to actor (owner or admin).
func (s *InvestmentService) Get(ctx context.Context, actor Actor, investmentID string) (*model.Investment, error) {
	inv, err := s.find(ctx, investmentID)
	if err != nil {
		return nil, err
	}
	if inv.UserID != actor.UserID && !actor.IsAdmin {
		return nil, fmt.Errorf("%w: not authorized to access investment %s", ErrForbidden, investmentID)
	}
	return inv, nil
}

func (s *InvestmentService) ListByUser(ctx context.Context, userID string) ([]*model.Investment, error) {
	return s.investments.ListByUser(ctx, userID)
}

func (s *InvestmentService) find(ctx context.Context, id string) (*model.Investment, error) {
	inv, err := s.investments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: investment %s", ErrNotFound, id)
		}
		return nil, err
	}
	return inv, nil
}
