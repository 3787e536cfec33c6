package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/invest_ledger/config"
	"github.com/invest_ledger/controller"
	"github.com/invest_ledger/handler"
	"github.com/invest_ledger/logger"
	"github.com/invest_ledger/repository"
	"github.com/invest_ledger/router"
	"github.com/invest_ledger/seed"
	"github.com/invest_ledger/service"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("configs")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.Log.Level); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Log.Sync()

	loc, _ := cfg.Location()

	db, err := repository.Open(cfg.DB.DSN, cfg.DB.MaxOpenConns)
	if err != nil {
		logger.Log.Fatal("open database", zap.Error(err))
	}
	if cfg.Seed.Enabled {
		if err := seed.Run(context.Background(), db, cfg.Seed.AdminPhone, logger.Log.Named("seed")); err != nil {
			logger.Log.Fatal("seed failed", zap.Error(err))
		}
	}

	clock := service.SystemClock
	mutator := service.NewBalanceMutator(db, logger.Log.Named("balance"))
	users := service.NewUserService(db, logger.Log.Named("users"))
	products := service.NewProductService(db)
	wallet := service.NewWalletService(db)
	investments := service.NewInvestmentService(db, mutator, clock, loc, logger.Log.Named("investments"))
	withdrawals := service.NewWithdrawalService(db, mutator, clock, logger.Log.Named("withdrawals"))
	driver := service.NewAccrualDriver(db, investments, clock, loc, logger.Log.Named("accrual"),
		service.WithBatchSize(cfg.Accrual.BatchSize),
		service.WithWorkers(cfg.Accrual.Workers))

	// 每日收益结算
	scheduler := cron.New(cron.WithLocation(loc))
	if _, err := scheduler.AddFunc(cfg.Accrual.Schedule, func() {
		if _, err := driver.Run(context.Background()); err != nil {
			logger.Log.Error("scheduled accrual run failed", zap.Error(err))
		}
	}); err != nil {
		logger.Log.Fatal("invalid accrual schedule", zap.String("schedule", cfg.Accrual.Schedule), zap.Error(err))
	}
	scheduler.Start()
	logger.Sugar().Infof("accrual scheduled at %q in %s", cfg.Accrual.Schedule, loc)

	r := router.SetupRouter(
		handler.NewWalletHandler(users, wallet, investments, withdrawals),
		handler.NewInvestmentHandler(products, investments),
		&controller.AdminController{
			ProductService:    products,
			WithdrawalService: withdrawals,
			WalletService:     wallet,
			AccrualDriver:     driver,
		},
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("graceful shutdown failed", zap.Error(err))
	}
	// wait for an in-flight accrual pass
	<-scheduler.Stop().Done()

	if sqlDB, err := db.DB(); err != nil {
		logger.Log.Error("db close skipped", zap.Error(err))
	} else {
		sqlDB.Close()
		logger.Log.Info("db closed")
	}
	logger.Log.Info("server stopped")
}
