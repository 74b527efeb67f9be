package relayclient

import (
	"context"
	"time"

	"github.com/meridianfi/treasury-sweeper/internal/observability/metrics"
)

type relayClientWithMetrics struct {
	relay RelayInterface
}

func NewRelayClientWithMetrics(relay RelayInterface) *relayClientWithMetrics {
	return &relayClientWithMetrics{relay: relay}
}

func (r *relayClientWithMetrics) Simulate(ctx context.Context, deposit *VaultDeposit) (*Simulation, error) {
	return runRelayClientMethodWithMetrics("Simulate", func() (*Simulation, error) {
		return r.relay.Simulate(ctx, deposit)
	})
}

func (r *relayClientWithMetrics) Send(ctx context.Context, deposit *VaultDeposit) (string, error) {
	return runRelayClientMethodWithMetrics("Send", func() (string, error) {
		return r.relay.Send(ctx, deposit)
	})
}

func (r *relayClientWithMetrics) AwaitReceipt(ctx context.Context, txID string) (*Receipt, error) {
	return runRelayClientMethodWithMetrics("AwaitReceipt", func() (*Receipt, error) {
		return r.relay.AwaitReceipt(ctx, txID)
	})
}

func (r *relayClientWithMetrics) ListIncomingTransfers(ctx context.Context, address string, sinceBlock uint64) ([]IncomingTransfer, error) {
	return runRelayClientMethodWithMetrics("ListIncomingTransfers", func() ([]IncomingTransfer, error) {
		return r.relay.ListIncomingTransfers(ctx, address, sinceBlock)
	})
}

func runRelayClientMethodWithMetrics[T any](method string, f func() (T, error)) (T, error) {
	startTime := time.Now()
	v, err := f()
	duration := time.Since(startTime)

	metrics.RecordRelayClientLatency(duration, method, err != nil)
	return v, err
}
