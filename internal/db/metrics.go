package db

import (
	"context"
	"time"

	"github.com/meridianfi/treasury-sweeper/internal/db/model"
	"github.com/meridianfi/treasury-sweeper/internal/observability/metrics"
	"github.com/meridianfi/treasury-sweeper/internal/types"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) SaveAccount(ctx context.Context, account *model.AccountDocument) error {
	return d.run("SaveAccount", func() error {
		return d.db.SaveAccount(ctx, account)
	})
}

func (d *DbWithMetrics) GetAccount(ctx context.Context, accountID string) (result *model.AccountDocument, err error) {
	//nolint:errcheck
	d.run("GetAccount", func() error {
		result, err = d.db.GetAccount(ctx, accountID)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveSweepConfig(ctx context.Context, cfg *model.SweepConfigDocument) error {
	return d.run("SaveSweepConfig", func() error {
		return d.db.SaveSweepConfig(ctx, cfg)
	})
}

func (d *DbWithMetrics) GetActiveSweepConfigs(ctx context.Context) (result []*model.SweepConfigDocument, err error) {
	//nolint:errcheck
	d.run("GetActiveSweepConfigs", func() error {
		result, err = d.db.GetActiveSweepConfigs(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) SetSweepConfigEnabled(ctx context.Context, accountID string, enabled bool) error {
	return d.run("SetSweepConfigEnabled", func() error {
		return d.db.SetSweepConfigEnabled(ctx, accountID, enabled)
	})
}

func (d *DbWithMetrics) RecordSweepTrigger(ctx context.Context, accountID string, triggeredAt time.Time) error {
	return d.run("RecordSweepTrigger", func() error {
		return d.db.RecordSweepTrigger(ctx, accountID, triggeredAt)
	})
}

func (d *DbWithMetrics) GetAndSetBaseline(ctx context.Context, accountID string, observedBalance string) (result *model.AllocationBaselineDocument, created bool, err error) {
	//nolint:errcheck
	d.run("GetAndSetBaseline", func() error {
		result, created, err = d.db.GetAndSetBaseline(ctx, accountID, observedBalance)
		return err
	})
	return
}

func (d *DbWithMetrics) UpdateBaselineBalance(ctx context.Context, accountID string, newBalance string) error {
	return d.run("UpdateBaselineBalance", func() error {
		return d.db.UpdateBaselineBalance(ctx, accountID, newBalance)
	})
}

func (d *DbWithMetrics) ApplySweepToBaseline(ctx context.Context, accountID string, newBalance, newTotalDeposited string) error {
	return d.run("ApplySweepToBaseline", func() error {
		return d.db.ApplySweepToBaseline(ctx, accountID, newBalance, newTotalDeposited)
	})
}

func (d *DbWithMetrics) AppendEarningsEvent(ctx context.Context, accountID string, event *types.EarningsEvent) error {
	return d.run("AppendEarningsEvent", func() error {
		return d.db.AppendEarningsEvent(ctx, accountID, event)
	})
}

func (d *DbWithMetrics) GetEarningsEvents(ctx context.Context, accountID string) (result []types.EarningsEvent, err error) {
	//nolint:errcheck
	d.run("GetEarningsEvents", func() error {
		result, err = d.db.GetEarningsEvents(ctx, accountID)
		return err
	})
	return
}

func (d *DbWithMetrics) GetVaultAddresses(ctx context.Context, accountID string) (result []string, err error) {
	//nolint:errcheck
	d.run("GetVaultAddresses", func() error {
		result, err = d.db.GetVaultAddresses(ctx, accountID)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveIncomingDeposit(ctx context.Context, deposit *model.IncomingDepositDocument) error {
	return d.run("SaveIncomingDeposit", func() error {
		return d.db.SaveIncomingDeposit(ctx, deposit)
	})
}

func (d *DbWithMetrics) GetLatestIncomingDeposit(ctx context.Context, accountID string) (result *model.IncomingDepositDocument, err error) {
	//nolint:errcheck
	d.run("GetLatestIncomingDeposit", func() error {
		result, err = d.db.GetLatestIncomingDeposit(ctx, accountID)
		return err
	})
	return
}

func (d *DbWithMetrics) GetUnsweptIncomingDeposits(ctx context.Context, accountID string) (result []*model.IncomingDepositDocument, err error) {
	//nolint:errcheck
	d.run("GetUnsweptIncomingDeposits", func() error {
		result, err = d.db.GetUnsweptIncomingDeposits(ctx, accountID)
		return err
	})
	return
}

func (d *DbWithMetrics) MarkIncomingDepositSwept(ctx context.Context, txHash, sweptTxHash string, sweptAt time.Time) error {
	return d.run("MarkIncomingDepositSwept", func() error {
		return d.db.MarkIncomingDepositSwept(ctx, txHash, sweptTxHash, sweptAt)
	})
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
