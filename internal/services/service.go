package services

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/meridianfi/treasury-sweeper/internal/cache"
	"github.com/meridianfi/treasury-sweeper/internal/clients/chainclient"
	"github.com/meridianfi/treasury-sweeper/internal/clients/relayclient"
	"github.com/meridianfi/treasury-sweeper/internal/config"
	"github.com/meridianfi/treasury-sweeper/internal/db"
	"github.com/meridianfi/treasury-sweeper/internal/queue"
)

type Service struct {
	cfg          *config.Config
	db           db.DbInterface
	chain        chainclient.ChainInterface
	relay        relayclient.RelayInterface
	queueManager *queue.QueueManager
	balanceCache cache.BalanceCacheInterface

	// cycleMu enforces at most one sweep cycle in flight; an overlapping
	// tick is skipped, not queued.
	cycleMu sync.Mutex
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	chain chainclient.ChainInterface,
	relay relayclient.RelayInterface,
	qm *queue.QueueManager,
	balanceCache cache.BalanceCacheInterface,
) *Service {
	return &Service{
		cfg:          cfg,
		db:           db,
		chain:        chain,
		relay:        relay,
		queueManager: qm,
		balanceCache: balanceCache,
	}
}

// StartSweeperSync starts the sweep poller and blocks until the context is
// cancelled.
func (s *Service) StartSweeperSync(ctx context.Context) {
	s.StartSweepPoller(ctx)

	<-ctx.Done()
	log.Ctx(ctx).Info().Msg("Sweeper sync stopped")
}
