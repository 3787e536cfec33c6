package service

import (
	"context"
	"sync"
	"time"

	"github.com/invest_ledger/metrics"
	"github.com/invest_ledger/model"
	"github.com/invest_ledger/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DefaultAccrualBatchSize = 100
	DefaultAccrualWorkers   = 4
)

// AccrualDriver walks every active investment once per invocation and advances
// it one lifecycle step. A failing investment is logged and skipped; the pass
// never aborts on a single item. Re-running within the same logical day does
// not double-credit because each investment remembers its last accrual.
type AccrualDriver struct {
	investments *repository.InvestmentRepository
	runs        *repository.AccrualRunRepository
	lifecycle   *InvestmentService
	clock       Clock
	loc         *time.Location
	batchSize   int
	workers     int
	log         *zap.Logger

	mu sync.Mutex // one pass at a time per process
}

type AccrualOption func(*AccrualDriver)

func WithBatchSize(n int) AccrualOption {
	return func(d *AccrualDriver) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

func WithWorkers(n int) AccrualOption {
	return func(d *AccrualDriver) {
		if n > 0 {
			d.workers = n
		}
	}
}

func NewAccrualDriver(db *gorm.DB, lifecycle *InvestmentService, clock Clock, loc *time.Location, log *zap.Logger, opts ...AccrualOption) *AccrualDriver {
	if loc == nil {
		loc = time.UTC
	}
	d := &AccrualDriver{
		investments: repository.NewInvestmentRepository(db),
		runs:        repository.NewAccrualRunRepository(db),
		lifecycle:   lifecycle,
		clock:       clock,
		loc:         loc,
		batchSize:   DefaultAccrualBatchSize,
		workers:     DefaultAccrualWorkers,
		log:         log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run performs one pass and records it. The returned error only reports a
// failure to enumerate or record; per-investment failures are counted in the run.
func (d *AccrualDriver) Run(ctx context.Context) (*model.AccrualRun, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	started := d.clock.Now()
	run := &model.AccrualRun{Day: dayOf(started, d.loc), StartedAt: started}
	d.log.Info("accrual run started", zap.String("day", run.Day))

	var (
		countMu sync.Mutex
		after   string
	)
	for {
		if err := ctx.Err(); err != nil {
			return run, err
		}
		batch, err := d.investments.ListActiveAfter(ctx, after, d.batchSize)
		if err != nil {
			d.log.Error("fetch active investments", zap.Error(err))
			return run, err
		}
		if len(batch) == 0 {
			break
		}
		after = batch[len(batch)-1].ID

		// per-item errors are absorbed, so the group never cancels its siblings
		var g errgroup.Group
		g.SetLimit(d.workers)
		for _, inv := range batch {
			inv := inv
			g.Go(func() error {
				outcome, err := d.lifecycle.AccrueOrMature(ctx, inv.ID)

				countMu.Lock()
				defer countMu.Unlock()
				run.Processed++
				if err != nil {
					run.Failed++
					metrics.RecordAccrualItem("failed")
					d.log.Error("accrual step failed",
						zap.String("investment_id", inv.ID),
						zap.String("user_id", inv.UserID),
						zap.Error(err))
					return nil
				}
				metrics.RecordAccrualItem(string(outcome))
				switch outcome {
				case OutcomeAccrued:
					run.Accrued++
				case OutcomeMatured:
					run.Matured++
				case OutcomeSkipped:
					run.Skipped++
				}
				return nil
			})
		}
		_ = g.Wait()

		if len(batch) < d.batchSize {
			break
		}
	}

	run.FinishedAt = d.clock.Now()
	metrics.RecordAccrualRun(run.FinishedAt.Sub(run.StartedAt))
	if err := d.runs.Create(ctx, run); err != nil {
		d.log.Error("record accrual run", zap.Error(err))
		return run, err
	}
	d.log.Info("accrual run finished",
		zap.String("day", run.Day),
		zap.Int("processed", run.Processed),
		zap.Int("accrued", run.Accrued),
		zap.Int("matured", run.Matured),
		zap.Int("skipped", run.Skipped),
		zap.Int("failed", run.Failed))
	return run, nil
}

// Runs lists the recorded passes for a logical day (YYYY-MM-DD); an empty day means today.
func (d *AccrualDriver) Runs(ctx context.Context, day string) ([]*model.AccrualRun, error) {
	if day == "" {
		day = dayOf(d.clock.Now(), d.loc)
	}
	return d.runs.ListByDay(ctx, day)
}
