package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/meridianfi/treasury-sweeper/internal/clients/relayclient"
	"github.com/meridianfi/treasury-sweeper/internal/db"
	"github.com/meridianfi/treasury-sweeper/internal/db/model"
	"github.com/meridianfi/treasury-sweeper/internal/types"
)

// fakeDB is an in-memory DbInterface for unit tests.
type fakeDB struct {
	accounts  map[string]*model.AccountDocument
	configs   map[string]*model.SweepConfigDocument
	baselines map[string]*model.AllocationBaselineDocument
	events    map[string][]types.EarningsEvent
	deposits  map[string]*model.IncomingDepositDocument

	appendEventErr error
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		accounts:  make(map[string]*model.AccountDocument),
		configs:   make(map[string]*model.SweepConfigDocument),
		baselines: make(map[string]*model.AllocationBaselineDocument),
		events:    make(map[string][]types.EarningsEvent),
		deposits:  make(map[string]*model.IncomingDepositDocument),
	}
}

func (f *fakeDB) Ping(ctx context.Context) error { return nil }

func (f *fakeDB) SaveAccount(ctx context.Context, account *model.AccountDocument) error {
	f.accounts[account.AccountID] = account
	return nil
}

func (f *fakeDB) GetAccount(ctx context.Context, accountID string) (*model.AccountDocument, error) {
	account, ok := f.accounts[accountID]
	if !ok {
		return nil, &db.NotFoundError{Key: accountID, Message: "account not found"}
	}
	return account, nil
}

func (f *fakeDB) SaveSweepConfig(ctx context.Context, cfg *model.SweepConfigDocument) error {
	f.configs[cfg.AccountID] = cfg
	return nil
}

func (f *fakeDB) GetActiveSweepConfigs(ctx context.Context) ([]*model.SweepConfigDocument, error) {
	var active []*model.SweepConfigDocument
	for _, cfg := range f.configs {
		if cfg.Enabled {
			active = append(active, cfg)
		}
	}
	return active, nil
}

func (f *fakeDB) SetSweepConfigEnabled(ctx context.Context, accountID string, enabled bool) error {
	cfg, ok := f.configs[accountID]
	if !ok {
		return &db.NotFoundError{Key: accountID, Message: "sweep config not found"}
	}
	cfg.Enabled = enabled
	return nil
}

func (f *fakeDB) RecordSweepTrigger(ctx context.Context, accountID string, triggeredAt time.Time) error {
	cfg, ok := f.configs[accountID]
	if !ok {
		return &db.NotFoundError{Key: accountID, Message: "sweep config not found"}
	}
	cfg.LastTriggeredAt = triggeredAt
	return nil
}

func (f *fakeDB) GetAndSetBaseline(ctx context.Context, accountID string, observedBalance string) (*model.AllocationBaselineDocument, bool, error) {
	if baseline, ok := f.baselines[accountID]; ok {
		copied := *baseline
		return &copied, false, nil
	}
	baseline := &model.AllocationBaselineDocument{
		AccountID:          accountID,
		LastCheckedBalance: observedBalance,
		TotalDeposited:     "0",
		LastUpdated:        time.Now(),
	}
	f.baselines[accountID] = baseline
	copied := *baseline
	return &copied, true, nil
}

func (f *fakeDB) UpdateBaselineBalance(ctx context.Context, accountID string, newBalance string) error {
	baseline, ok := f.baselines[accountID]
	if !ok {
		return &db.NotFoundError{Key: accountID, Message: "baseline not found"}
	}
	baseline.LastCheckedBalance = newBalance
	baseline.LastUpdated = time.Now()
	return nil
}

func (f *fakeDB) ApplySweepToBaseline(ctx context.Context, accountID string, newBalance, newTotalDeposited string) error {
	baseline, ok := f.baselines[accountID]
	if !ok {
		return &db.NotFoundError{Key: accountID, Message: "baseline not found"}
	}
	baseline.LastCheckedBalance = newBalance
	baseline.TotalDeposited = newTotalDeposited
	baseline.LastUpdated = time.Now()
	return nil
}

func (f *fakeDB) AppendEarningsEvent(ctx context.Context, accountID string, event *types.EarningsEvent) error {
	if f.appendEventErr != nil {
		return f.appendEventErr
	}
	for _, existing := range f.events[accountID] {
		if existing.ID == event.ID {
			return &db.DuplicateKeyError{Key: event.ID, Message: "earnings event already recorded"}
		}
	}
	f.events[accountID] = append(f.events[accountID], *event)
	return nil
}

func (f *fakeDB) GetEarningsEvents(ctx context.Context, accountID string) ([]types.EarningsEvent, error) {
	return f.events[accountID], nil
}

func (f *fakeDB) GetVaultAddresses(ctx context.Context, accountID string) ([]string, error) {
	seen := make(map[string]struct{})
	var vaults []string
	for _, event := range f.events[accountID] {
		if _, ok := seen[event.VaultAddress]; ok {
			continue
		}
		seen[event.VaultAddress] = struct{}{}
		vaults = append(vaults, event.VaultAddress)
	}
	return vaults, nil
}

func (f *fakeDB) SaveIncomingDeposit(ctx context.Context, deposit *model.IncomingDepositDocument) error {
	if _, ok := f.deposits[deposit.TxHash]; ok {
		return &db.DuplicateKeyError{Key: deposit.TxHash, Message: "incoming deposit already recorded"}
	}
	f.deposits[deposit.TxHash] = deposit
	return nil
}

func (f *fakeDB) GetLatestIncomingDeposit(ctx context.Context, accountID string) (*model.IncomingDepositDocument, error) {
	var latest *model.IncomingDepositDocument
	for _, deposit := range f.deposits {
		if deposit.AccountID != accountID {
			continue
		}
		if latest == nil || deposit.Timestamp.After(latest.Timestamp) {
			latest = deposit
		}
	}
	if latest == nil {
		return nil, &db.NotFoundError{Key: accountID, Message: "no incoming deposits"}
	}
	return latest, nil
}

func (f *fakeDB) GetUnsweptIncomingDeposits(ctx context.Context, accountID string) ([]*model.IncomingDepositDocument, error) {
	var unswept []*model.IncomingDepositDocument
	for _, deposit := range f.deposits {
		if deposit.AccountID == accountID && !deposit.Swept {
			unswept = append(unswept, deposit)
		}
	}
	sort.Slice(unswept, func(i, j int) bool {
		return unswept[i].Timestamp.Before(unswept[j].Timestamp)
	})
	return unswept, nil
}

func (f *fakeDB) MarkIncomingDepositSwept(ctx context.Context, txHash, sweptTxHash string, sweptAt time.Time) error {
	deposit, ok := f.deposits[txHash]
	if !ok {
		return &db.NotFoundError{Key: txHash, Message: "incoming deposit not found"}
	}
	deposit.Swept = true
	deposit.SweptTxHash = sweptTxHash
	deposit.SweptAt = sweptAt
	return nil
}

// fakeChain serves balances from a map keyed by account address.
type fakeChain struct {
	balances   map[string]sdkmath.Int
	shares     map[string]sdkmath.Int
	assets     map[string]sdkmath.Int
	balanceErr error

	// mintedShares is what DecodeDepositEvent reports for any receipt with
	// at least one log.
	mintedShares sdkmath.Int
}

func (f *fakeChain) BalanceOf(ctx context.Context, tokenAddress, accountAddress string) (sdkmath.Int, error) {
	if f.balanceErr != nil {
		return sdkmath.Int{}, f.balanceErr
	}
	balance, ok := f.balances[accountAddress]
	if !ok {
		return sdkmath.ZeroInt(), nil
	}
	return balance, nil
}

func (f *fakeChain) AccountBalances(ctx context.Context, tokenAddress, accountAddress string, vaultAddresses []string) (sdkmath.Int, map[string]sdkmath.Int, error) {
	if f.balanceErr != nil {
		return sdkmath.Int{}, nil, f.balanceErr
	}
	idle, ok := f.balances[accountAddress]
	if !ok {
		idle = sdkmath.ZeroInt()
	}
	result := make(map[string]sdkmath.Int, len(vaultAddresses))
	for _, vault := range vaultAddresses {
		if shares, ok := f.shares[vault]; ok {
			result[vault] = shares
		} else {
			result[vault] = sdkmath.ZeroInt()
		}
	}
	return idle, result, nil
}

func (f *fakeChain) ConvertToAssets(ctx context.Context, sharesByVault map[string]sdkmath.Int) (map[string]sdkmath.Int, error) {
	result := make(map[string]sdkmath.Int, len(sharesByVault))
	for vault := range sharesByVault {
		if assets, ok := f.assets[vault]; ok {
			result[vault] = assets
		} else {
			result[vault] = sdkmath.ZeroInt()
		}
	}
	return result, nil
}

func (f *fakeChain) DecodeDepositEvent(logs []types.TxLog, vaultAddress string) (sdkmath.Int, sdkmath.Int, bool) {
	if len(logs) == 0 || f.mintedShares.IsNil() {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), false
	}
	return sdkmath.ZeroInt(), f.mintedShares, true
}

// fakeRelay confirms every deposit unless told to fail.
type fakeRelay struct {
	simulateErr error
	sendErr     error
	receiptErr  error
	reverted    bool

	submitted []*relayclient.VaultDeposit
	transfers []relayclient.IncomingTransfer
	nextTx    int
}

func (f *fakeRelay) Simulate(ctx context.Context, deposit *relayclient.VaultDeposit) (*relayclient.Simulation, error) {
	if f.simulateErr != nil {
		return nil, f.simulateErr
	}
	return &relayclient.Simulation{GasEstimate: 120_000}, nil
}

func (f *fakeRelay) Send(ctx context.Context, deposit *relayclient.VaultDeposit) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.submitted = append(f.submitted, deposit)
	f.nextTx++
	return txHashForSeq(f.nextTx), nil
}

func (f *fakeRelay) AwaitReceipt(ctx context.Context, txID string) (*relayclient.Receipt, error) {
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	status := relayclient.ReceiptStatusSuccess
	if f.reverted {
		status = "reverted"
	}
	return &relayclient.Receipt{
		TxHash:      txID,
		Status:      status,
		BlockNumber: 1000,
		Logs:        []types.TxLog{{Address: "0x0", Topics: []string{"0x0"}, Data: "0x"}},
	}, nil
}

func (f *fakeRelay) ListIncomingTransfers(ctx context.Context, address string, sinceBlock uint64) ([]relayclient.IncomingTransfer, error) {
	var result []relayclient.IncomingTransfer
	for _, transfer := range f.transfers {
		if transfer.BlockNumber >= sinceBlock {
			result = append(result, transfer)
		}
	}
	return result, nil
}

func txHashForSeq(n int) string {
	return fmt.Sprintf("0x%064x", n)
}

func fakeTransfer(txHash, from, token string, block uint64) relayclient.IncomingTransfer {
	return relayclient.IncomingTransfer{
		TxHash:       txHash,
		FromAddress:  from,
		ToAddress:    testAddress,
		TokenAddress: token,
		Amount:       "250000",
		BlockNumber:  block,
		Timestamp:    time.Now(),
	}
}

var errFakeUnavailable = errors.New("service unavailable")
