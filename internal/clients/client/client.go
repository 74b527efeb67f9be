package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meridianfi/treasury-sweeper/internal/observability/metrics"
)

// HttpClient is implemented by service clients that share the generic
// request helper below.
type HttpClient interface {
	GetBaseURL() string
	GetDefaultRequestTimeout() time.Duration
	GetHttpClient() *http.Client
}

type HttpClientOptions struct {
	Path    string
	Headers map[string]string
	// TemplatePath is the parameterless form of Path used as the metrics
	// label, so per-ID paths do not explode the label cardinality.
	TemplatePath string
}

type HttpResponseError struct {
	StatusCode int
	Body       string
}

func (e *HttpResponseError) Error() string {
	return fmt.Sprintf("http request failed with status %d: %s", e.StatusCode, e.Body)
}

// SendRequest issues one JSON request against the client's base URL and
// decodes the JSON response body into Resp.
func SendRequest[Req any, Resp any](
	ctx context.Context, c HttpClient, method string, opts *HttpClientOptions, body *Req,
) (*Resp, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.GetDefaultRequestTimeout())
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	url := c.GetBaseURL() + opts.Path
	req, err := http.NewRequestWithContext(reqCtx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	timer := metrics.StartClientRequestDurationTimer(c.GetBaseURL(), method, opts.TemplatePath)

	resp, err := c.GetHttpClient().Do(req)
	if err != nil {
		timer(http.StatusServiceUnavailable)
		return nil, fmt.Errorf("failed to send request to %s: %w", url, err)
	}
	defer resp.Body.Close()

	timer(resp.StatusCode)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &HttpResponseError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	var decoded Resp
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return &decoded, nil
}
