package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridianfi/treasury-sweeper/internal/config"
	"github.com/meridianfi/treasury-sweeper/internal/db"
	"github.com/meridianfi/treasury-sweeper/internal/earnings"
)

// ValidateLedgerCmd checks an account's earnings ledger for consistency:
// ./treasury-sweeper validate-ledger acct-123 --config config.yml
func ValidateLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-ledger [accountID]",
		Short: "Validate the earnings event ledger of an account",
		Args:  cobra.ExactArgs(1),
		RunE:  validateLedger,
	}

	return cmd
}

func validateLedger(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	accountID := args[0]

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return err
	}

	events, err := dbClient.GetEarningsEvents(ctx, accountID)
	if err != nil {
		return err
	}

	validation := earnings.ValidateEvents(events)
	if validation.Valid {
		fmt.Printf("ledger of %s is consistent (%d events)\n", accountID, len(events))
		return nil
	}

	fmt.Printf("ledger of %s has %d problem(s):\n", accountID, len(validation.Errors))
	for _, msg := range validation.Errors {
		fmt.Printf("  - %s\n", msg)
	}

	return fmt.Errorf("ledger validation failed for %s", accountID)
}
