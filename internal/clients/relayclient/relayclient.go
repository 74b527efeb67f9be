package relayclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"github.com/meridianfi/treasury-sweeper/internal/clients/client"
	"github.com/meridianfi/treasury-sweeper/internal/config"
)

const (
	simulateEndpoint  = "/v1/transactions/simulate"
	sendEndpoint      = "/v1/transactions"
	receiptEndpoint   = "/v1/transactions/%s/receipt"
	transfersEndpoint = "/v1/transfers"
)

// RevertError means the relay's simulation predicts the deposit would fail
// on-chain. It is terminal for the current cycle, not retryable.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("transaction would revert: %s", e.Reason)
}

func IsRevertError(err error) bool {
	var target *RevertError
	return errors.As(err, &target)
}

type RelayClient struct {
	httpClient *http.Client
	cfg        *config.RelayConfig
}

func NewRelayClient(cfg *config.RelayConfig) *RelayClient {
	return &RelayClient{
		httpClient: &http.Client{},
		cfg:        cfg,
	}
}

func (c *RelayClient) GetBaseURL() string {
	return c.cfg.BaseURL
}

func (c *RelayClient) GetDefaultRequestTimeout() time.Duration {
	return c.cfg.Timeout
}

func (c *RelayClient) GetHttpClient() *http.Client {
	return c.httpClient
}

type simulateResponse struct {
	Success      bool   `json:"success"`
	GasEstimate  uint64 `json:"gasEstimate"`
	RevertReason string `json:"revertReason"`
}

func (c *RelayClient) Simulate(ctx context.Context, deposit *VaultDeposit) (*Simulation, error) {
	callForSimulation := func() (*Simulation, error) {
		opts := &client.HttpClientOptions{
			Path:         simulateEndpoint,
			TemplatePath: simulateEndpoint,
		}

		resp, err := client.SendRequest[VaultDeposit, simulateResponse](ctx, c, http.MethodPost, opts, deposit)
		if err != nil {
			return nil, err
		}

		if !resp.Success {
			return nil, &RevertError{Reason: resp.RevertReason}
		}

		return &Simulation{GasEstimate: resp.GasEstimate}, nil
	}

	result, err := clientCallWithRetry(ctx, callForSimulation, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to simulate vault deposit: %w", err)
	}

	return result, nil
}

type sendResponse struct {
	TxID string `json:"txId"`
}

func (c *RelayClient) Send(ctx context.Context, deposit *VaultDeposit) (string, error) {
	// deliberately no retry: a timed-out submission may still have gone
	// through, and resubmitting would double-spend the idle balance
	opts := &client.HttpClientOptions{
		Path:         sendEndpoint,
		TemplatePath: sendEndpoint,
	}

	resp, err := client.SendRequest[VaultDeposit, sendResponse](ctx, c, http.MethodPost, opts, deposit)
	if err != nil {
		return "", fmt.Errorf("failed to submit vault deposit: %w", err)
	}
	if resp.TxID == "" {
		return "", errors.New("relay returned empty transaction id")
	}

	return resp.TxID, nil
}

type receiptResponse struct {
	Pending bool     `json:"pending"`
	Receipt *Receipt `json:"receipt"`
}

func (c *RelayClient) AwaitReceipt(ctx context.Context, txID string) (*Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.ReceiptTimeout)
	defer cancel()

	ticker := time.NewTicker(c.cfg.ReceiptPollInterval)
	defer ticker.Stop()

	endpoint := fmt.Sprintf(receiptEndpoint, url.PathEscape(txID))
	opts := &client.HttpClientOptions{
		Path:         endpoint,
		TemplatePath: receiptEndpoint,
	}

	for {
		type empty struct{}
		resp, err := client.SendRequest[empty, receiptResponse](waitCtx, c, http.MethodGet, opts, nil)
		if err == nil && !resp.Pending && resp.Receipt != nil {
			return resp.Receipt, nil
		}
		if err != nil {
			log.Ctx(ctx).Debug().Err(err).Str("tx_id", txID).Msg("receipt not available yet")
		}

		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("timed out waiting for receipt of %s: %w", txID, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

type transfersResponse struct {
	Transfers []IncomingTransfer `json:"transfers"`
}

func (c *RelayClient) ListIncomingTransfers(ctx context.Context, address string, sinceBlock uint64) ([]IncomingTransfer, error) {
	callForTransfers := func() ([]IncomingTransfer, error) {
		query := url.Values{}
		query.Set("to", address)
		query.Set("sinceBlock", strconv.FormatUint(sinceBlock, 10))

		opts := &client.HttpClientOptions{
			Path:         transfersEndpoint + "?" + query.Encode(),
			TemplatePath: transfersEndpoint,
		}

		type empty struct{}
		resp, err := client.SendRequest[empty, transfersResponse](ctx, c, http.MethodGet, opts, nil)
		if err != nil {
			return nil, err
		}

		return resp.Transfers, nil
	}

	result, err := clientCallWithRetry(ctx, callForTransfers, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming transfers for %s: %w", address, err)
	}

	return result, nil
}

func clientCallWithRetry[T any](
	ctx context.Context,
	call retry.RetryableFuncWithData[T],
	cfg *config.RelayConfig,
) (T, error) {
	result, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			// a predicted revert will not go away on retry
			return !IsRevertError(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("failed to call the relay service")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
