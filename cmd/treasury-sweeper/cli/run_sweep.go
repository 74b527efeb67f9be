package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/meridianfi/treasury-sweeper/internal/cache"
	"github.com/meridianfi/treasury-sweeper/internal/clients/chainclient"
	"github.com/meridianfi/treasury-sweeper/internal/clients/relayclient"
	"github.com/meridianfi/treasury-sweeper/internal/config"
	"github.com/meridianfi/treasury-sweeper/internal/db"
	"github.com/meridianfi/treasury-sweeper/internal/observability/tracing"
	"github.com/meridianfi/treasury-sweeper/internal/services"
)

// RunSweepCmd runs a single sweep cycle and exits, for setups that schedule
// sweeping through an external cron instead of the built-in poller:
// ./treasury-sweeper run-sweep --config config.yml
func RunSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run-sweep",
		Short: "Run one sweep cycle across all enabled configs and exit",
		Args:  cobra.ExactArgs(0),
		RunE:  runSweep,
	}

	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := tracing.InjectTraceID(cmd.Context())

	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return err
	}

	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		return err
	}

	chainClient, err := chainclient.NewChainClient(ctx, &cfg.Chain)
	if err != nil {
		return err
	}
	relayClient := relayclient.NewRelayClient(&cfg.Relay)

	balanceCache := cache.NewBalanceCache(&cfg.Cache)
	defer balanceCache.Close()

	srv := services.NewService(cfg, dbClient, chainClient, relayClient, nil, balanceCache)

	report, err := srv.RunSweepCycle(ctx)
	if err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Str("cycle_id", report.CycleID).
		Int("accounts", len(report.Results)).
		Int("succeeded", report.Succeeded()).
		Int("failed", report.Failed()).
		Msg("One-shot sweep cycle finished")

	return nil
}
