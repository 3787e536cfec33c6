package seed

import (
	"context"
	"errors"

	"github.com/invest_ledger/model"
	"github.com/invest_ledger/repository"
	"github.com/invest_ledger/service"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const durationDays = 90

var catalog = []struct {
	Name        string
	Description string
	Price       string
	Rate        string
	Level       model.Level
}{
	{"Bronze Plan", "Entry level plan, open to every account", "1000", "0.005", model.LevelBronze},
	{"Silver Plan", "Requires silver level", "2500", "0.006", model.LevelSilver},
	{"Gold Plan", "Requires gold level", "5000", "0.007", model.LevelGold},
	{"Platinum Plan", "Requires platinum level", "10000", "0.008", model.LevelPlatinum},
}

// Run inserts the default catalog and the admin account. Rows that already
// exist (by product name or admin phone) are left untouched.
func Run(ctx context.Context, db *gorm.DB, adminPhone string, log *zap.Logger) error {
	created := 0
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := repository.NewProductRepository(tx)
		for _, p := range catalog {
			_, err := products.FindByName(ctx, p.Name)
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			row := &model.Product{
				Name:         p.Name,
				Description:  p.Description,
				Price:        decimal.RequireFromString(p.Price),
				ReturnRate:   decimal.RequireFromString(p.Rate),
				DurationDays: durationDays,
				Level:        p.Level,
				IsActive:     true,
			}
			if err := products.Create(ctx, row); err != nil {
				return err
			}
			created++
		}

		if adminPhone == "" {
			return nil
		}
		users := repository.NewUserRepository(tx)
		_, err := users.FindByPhone(ctx, adminPhone)
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		admin := &model.User{
			Phone:        adminPhone,
			ReferralCode: service.NewReferralCode(),
			IsAdmin:      true,
			Level:        model.LevelBronze,
		}
		if err := users.Create(ctx, admin); err != nil {
			return err
		}
		created++
		return nil
	})
	if err != nil {
		return err
	}
	if created == 0 {
		log.Info("seed already applied, skipping")
		return nil
	}
	log.Info("seed applied", zap.Int("rows", created))
	return nil
}
