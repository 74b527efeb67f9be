//go:build integration

package db_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianfi/treasury-sweeper/internal/db"
	"github.com/meridianfi/treasury-sweeper/testutil"
)

func TestEarningsLedger(t *testing.T) {
	ctx := t.Context()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	const accountID = "acct-ledger"
	vaultA := testutil.RandomEVMAddress()
	vaultB := testutil.RandomEVMAddress()
	now := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("append and read back in timestamp order", func(t *testing.T) {
		later := testutil.RandomDepositEvent(vaultA, 200_000, 8, now.Add(time.Hour))
		earlier := testutil.RandomDepositEvent(vaultA, 100_000, 8, now)

		// insert out of order on purpose
		require.NoError(t, testDB.AppendEarningsEvent(ctx, accountID, &later))
		require.NoError(t, testDB.AppendEarningsEvent(ctx, accountID, &earlier))

		events, err := testDB.GetEarningsEvents(ctx, accountID)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, earlier.ID, events[0].ID)
		assert.Equal(t, later.ID, events[1].ID)
		assert.Equal(t, "100000", events[0].Amount.String())
	})

	t.Run("duplicate append is rejected", func(t *testing.T) {
		event := testutil.RandomDepositEvent(vaultA, 50_000, 8, now)
		require.NoError(t, testDB.AppendEarningsEvent(ctx, accountID, &event))

		err := testDB.AppendEarningsEvent(ctx, accountID, &event)
		assert.True(t, db.IsDuplicateKeyError(err))
	})

	t.Run("vault addresses are distinct", func(t *testing.T) {
		event := testutil.RandomDepositEvent(vaultB, 75_000, 5, now)
		require.NoError(t, testDB.AppendEarningsEvent(ctx, accountID, &event))

		vaults, err := testDB.GetVaultAddresses(ctx, accountID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{vaultA, vaultB}, vaults)
	})

	t.Run("other accounts see nothing", func(t *testing.T) {
		events, err := testDB.GetEarningsEvents(ctx, "someone-else")
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
