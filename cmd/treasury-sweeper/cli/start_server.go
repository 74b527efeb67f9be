package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/meridianfi/treasury-sweeper/internal/cache"
	"github.com/meridianfi/treasury-sweeper/internal/clients/chainclient"
	"github.com/meridianfi/treasury-sweeper/internal/clients/relayclient"
	"github.com/meridianfi/treasury-sweeper/internal/config"
	"github.com/meridianfi/treasury-sweeper/internal/db"
	dbmodel "github.com/meridianfi/treasury-sweeper/internal/db/model"
	"github.com/meridianfi/treasury-sweeper/internal/observability/metrics"
	"github.com/meridianfi/treasury-sweeper/internal/observability/tracing"
	"github.com/meridianfi/treasury-sweeper/internal/queue"
	"github.com/meridianfi/treasury-sweeper/internal/services"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the treasury sweeper daemon",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	err = dbmodel.Setup(ctx, &cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up sweeper db model")
	}

	// create new db client
	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	var chainClient chainclient.ChainInterface
	chainClient, err = chainclient.NewChainClient(ctx, &cfg.Chain)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating chain client")
	}
	chainClient = chainclient.NewChainClientWithMetrics(chainClient)

	var relayClient relayclient.RelayInterface
	relayClient = relayclient.NewRelayClient(&cfg.Relay)
	relayClient = relayclient.NewRelayClientWithMetrics(relayClient)

	qm, err := queue.NewQueueManager(&cfg.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize queue manager")
	}
	defer qm.Shutdown()

	balanceCache := cache.NewBalanceCache(&cfg.Cache)
	defer balanceCache.Close()

	service := services.NewService(cfg, dbClient, chainClient, relayClient, qm, balanceCache)

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	service.StartSweeperSync(ctx)
	return nil
}
