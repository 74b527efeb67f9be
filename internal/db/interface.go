package db

import (
	"context"
	"time"

	"github.com/meridianfi/treasury-sweeper/internal/db/model"
	"github.com/meridianfi/treasury-sweeper/internal/types"
)

type DbInterface interface {
	Ping(ctx context.Context) error

	// accounts
	SaveAccount(ctx context.Context, account *model.AccountDocument) error
	GetAccount(ctx context.Context, accountID string) (*model.AccountDocument, error)

	// sweep configs
	SaveSweepConfig(ctx context.Context, cfg *model.SweepConfigDocument) error
	GetActiveSweepConfigs(ctx context.Context) ([]*model.SweepConfigDocument, error)
	SetSweepConfigEnabled(ctx context.Context, accountID string, enabled bool) error
	RecordSweepTrigger(ctx context.Context, accountID string, triggeredAt time.Time) error

	// allocation baselines
	GetAndSetBaseline(ctx context.Context, accountID string, observedBalance string) (
		baseline *model.AllocationBaselineDocument, created bool, err error)
	UpdateBaselineBalance(ctx context.Context, accountID string, newBalance string) error
	ApplySweepToBaseline(ctx context.Context, accountID string, newBalance, newTotalDeposited string) error

	// earnings ledger
	AppendEarningsEvent(ctx context.Context, accountID string, event *types.EarningsEvent) error
	GetEarningsEvents(ctx context.Context, accountID string) ([]types.EarningsEvent, error)
	GetVaultAddresses(ctx context.Context, accountID string) ([]string, error)

	// incoming deposits
	SaveIncomingDeposit(ctx context.Context, deposit *model.IncomingDepositDocument) error
	GetLatestIncomingDeposit(ctx context.Context, accountID string) (*model.IncomingDepositDocument, error)
	GetUnsweptIncomingDeposits(ctx context.Context, accountID string) ([]*model.IncomingDepositDocument, error)
	MarkIncomingDepositSwept(ctx context.Context, txHash, sweptTxHash string, sweptAt time.Time) error
}
