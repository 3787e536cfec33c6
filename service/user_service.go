package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/invest_ledger/model"
	"github.com/invest_ledger/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService opens accounts and links them to their referrer.
type UserService struct {
	users       *repository.UserRepository
	investments *repository.InvestmentRepository
	log         *zap.Logger
}

func NewUserService(db *gorm.DB, log *zap.Logger) *UserService {
	return &UserService{
		users:       repository.NewUserRepository(db),
		investments: repository.NewInvestmentRepository(db),
		log:         log,
	}
}

// Profile is the account summary shown to its owner.
type Profile struct {
	*model.User
	Referrals         int64 `json:"referrals"`
	ActiveInvestments int64 `json:"active_investments"`
}

// Register creates a bronze account with an empty balance. An unknown
// referral code is ignored rather than rejected.
func (s *UserService) Register(ctx context.Context, phone, referralCode string, isAdmin bool) (*model.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", ErrValidation)
	}
	if _, err := s.users.FindByPhone(ctx, phone); err == nil {
		return nil, fmt.Errorf("%w: phone %s already registered", ErrValidation, phone)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	u := &model.User{
		Phone:        phone,
		ReferralCode: NewReferralCode(),
		IsAdmin:      isAdmin,
		Level:        model.LevelBronze,
	}
	if code := strings.TrimSpace(referralCode); code != "" {
		referrer, err := s.users.FindByReferralCode(ctx, code)
		switch {
		case err == nil:
			u.ReferredBy = &referrer.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			s.log.Info("unknown referral code ignored", zap.String("code", code))
		default:
			return nil, err
		}
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, id)
		}
		return nil, err
	}
	return u, nil
}

// NewReferralCode returns a fresh "REF" + 8 upper hex code.
func NewReferralCode() string {
	return "REF" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *UserService) Profile(ctx context.Context, id string) (*Profile, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	referrals, err := s.users.CountByReferrer(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	active, err := s.investments.CountActive(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, Referrals: referrals, ActiveInvestments: active}, nil
}
