package services

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/meridianfi/treasury-sweeper/internal/types"
)

// fakeBalanceCache is an in-memory BalanceCacheInterface.
type fakeBalanceCache struct {
	entries map[string]*types.SpendableBalance
	hits    int
}

func newFakeBalanceCache() *fakeBalanceCache {
	return &fakeBalanceCache{entries: make(map[string]*types.SpendableBalance)}
}

func (f *fakeBalanceCache) Get(ctx context.Context, address string) (*types.SpendableBalance, error) {
	if balance, ok := f.entries[address]; ok {
		f.hits++
		return balance, nil
	}
	return nil, nil
}

func (f *fakeBalanceCache) Set(ctx context.Context, address string, balance *types.SpendableBalance) error {
	f.entries[address] = balance
	return nil
}

func (f *fakeBalanceCache) Invalidate(ctx context.Context, address string) error {
	delete(f.entries, address)
	return nil
}

func (f *fakeBalanceCache) Close() error { return nil }

func seedLedgerDeposit(fdb *fakeDB, vault string) {
	fdb.events[testAccountID] = append(fdb.events[testAccountID], types.EarningsEvent{
		ID:           "0xdeposit",
		Type:         types.EventTypeDeposit,
		Timestamp:    time.Now(),
		Amount:       sdkmath.NewInt(100_000),
		VaultAddress: vault,
		APY:          8,
		Shares:       sdkmath.NewInt(99_000),
		Decimals:     6,
	})
}

func TestGetSpendableBalanceAggregatesIdleAndVaultFunds(t *testing.T) {
	fdb := newFakeDB()
	seedAccount(fdb, 2000)
	seedLedgerDeposit(fdb, testVault)

	chain := &fakeChain{
		balances: map[string]sdkmath.Int{testAddress: sdkmath.NewInt(1_000_000)},
		shares:   map[string]sdkmath.Int{testVault: sdkmath.NewInt(2_400_000)},
		assets:   map[string]sdkmath.Int{testVault: sdkmath.NewInt(2_500_000)},
	}
	s := newTestService(fdb, chain, &fakeRelay{})

	balance, err := s.GetSpendableBalance(context.Background(), testAccountID)
	require.NoError(t, err)
	require.True(t, balance.AccountFound)
	require.Equal(t, "1000000", balance.IdleBalance.String())
	require.Equal(t, "2500000", balance.EarningBalance.String())
	require.Equal(t, "3500000", balance.SpendableBalance.String())
	require.Len(t, balance.VaultBalances, 1)
	require.Equal(t, testVault, balance.VaultBalances[0].VaultAddress)
	require.Equal(t, "2400000", balance.VaultBalances[0].Shares.String())
	require.Equal(t, "2500000", balance.VaultBalances[0].Assets.String())
}

func TestGetSpendableBalanceUnknownAccountIsZeroed(t *testing.T) {
	fdb := newFakeDB()
	s := newTestService(fdb, &fakeChain{}, &fakeRelay{})

	balance, err := s.GetSpendableBalance(context.Background(), "ghost")
	require.NoError(t, err)
	require.False(t, balance.AccountFound)
	require.True(t, balance.IdleBalance.IsZero())
	require.True(t, balance.EarningBalance.IsZero())
	require.True(t, balance.SpendableBalance.IsZero())
}

func TestGetSpendableBalanceWithoutVaultHistory(t *testing.T) {
	fdb := newFakeDB()
	seedAccount(fdb, 2000)

	chain := &fakeChain{
		balances: map[string]sdkmath.Int{testAddress: sdkmath.NewInt(750_000)},
	}
	s := newTestService(fdb, chain, &fakeRelay{})

	balance, err := s.GetSpendableBalance(context.Background(), testAccountID)
	require.NoError(t, err)
	require.Equal(t, "750000", balance.IdleBalance.String())
	require.True(t, balance.EarningBalance.IsZero())
	require.Equal(t, "750000", balance.SpendableBalance.String())
	require.Empty(t, balance.VaultBalances)
}

func TestGetSpendableBalanceUsesCache(t *testing.T) {
	fdb := newFakeDB()
	seedAccount(fdb, 2000)

	chain := &fakeChain{
		balances: map[string]sdkmath.Int{testAddress: sdkmath.NewInt(1_000_000)},
	}
	balanceCache := newFakeBalanceCache()
	s := NewService(testConfig(), fdb, chain, &fakeRelay{}, nil, balanceCache)

	first, err := s.GetSpendableBalance(context.Background(), testAccountID)
	require.NoError(t, err)

	// balance changes on-chain, but the cached value is served until
	// invalidated
	chain.balances[testAddress] = sdkmath.NewInt(9_000_000)

	second, err := s.GetSpendableBalance(context.Background(), testAccountID)
	require.NoError(t, err)
	require.Equal(t, 1, balanceCache.hits)
	require.True(t, first.SpendableBalance.Equal(second.SpendableBalance))

	// entries are keyed by the account's normalized primary address
	require.Contains(t, balanceCache.entries, testAddress)

	require.NoError(t, balanceCache.Invalidate(context.Background(), testAddress))

	third, err := s.GetSpendableBalance(context.Background(), testAccountID)
	require.NoError(t, err)
	require.Equal(t, "9000000", third.SpendableBalance.String())
}

func TestSweepSuccessInvalidatesCachedBalance(t *testing.T) {
	fdb := newFakeDB()
	seedAccount(fdb, 2000)
	seedBaseline(fdb, "1000000", "0")

	chain := &fakeChain{
		balances:     map[string]sdkmath.Int{testAddress: sdkmath.NewInt(1_500_000)},
		mintedShares: sdkmath.NewInt(1),
	}
	balanceCache := newFakeBalanceCache()
	balanceCache.entries[testAddress] = types.ZeroSpendableBalance(testAccountID)

	s := NewService(testConfig(), fdb, chain, &fakeRelay{}, nil, balanceCache)

	report, err := s.RunSweepCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, types.SweepStateRecordSuccess, report.Results[0].State)
	require.NotContains(t, balanceCache.entries, testAddress)
}

func TestSyncIncomingTransfersFiltersVaultReturns(t *testing.T) {
	fdb := newFakeDB()
	seedAccount(fdb, 2000)
	seedLedgerDeposit(fdb, testVault)

	relay := &fakeRelay{}
	relay.transfers = append(relay.transfers,
		// genuine external deposit
		fakeTransfer("0xaaa", "0x5555555555555555555555555555555555555555", testToken, 100),
		// withdrawal coming back from the account's own vault
		fakeTransfer("0xbbb", testVault, testToken, 101),
		// transfer of some unrelated token
		fakeTransfer("0xccc", "0x6666666666666666666666666666666666666666", "0x7777777777777777777777777777777777777777", 102),
	)

	s := newTestService(fdb, &fakeChain{}, relay)

	err := s.SyncIncomingTransfers(context.Background(), fdb.accounts[testAccountID])
	require.NoError(t, err)

	require.Len(t, fdb.deposits, 1)
	require.Contains(t, fdb.deposits, "0xaaa")
}
