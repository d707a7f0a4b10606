package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultRPS = 2

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default requests-per-second throttle.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type httpClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an HTTP provider client for the given endpoint.
func NewClient(baseURL, apiKey string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 90 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRPS), defaultRPS),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type fetchPayload struct {
	Field    string `json:"field"`
	RecordID string `json:"record_id"`
	Name     string `json:"name,omitempty"`
	Domain   string `json:"domain,omitempty"`
	BudgetMS int64  `json:"budget_ms"`
}

// FetchField posts one field request. The budget is enforced twice: sent to
// the upstream as a soft deadline and raced locally via the context.
func (c *httpClient) FetchField(ctx context.Context, req FieldRequest) (*FieldResult, error) {
	if req.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Budget)
		defer cancel()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return timeoutResult(err), nil
	}

	start := time.Now()
	body, err := json.Marshal(fetchPayload{
		Field:    req.Field,
		RecordID: req.RecordID,
		Name:     req.Name,
		Domain:   req.Domain,
		BudgetMS: req.Budget.Milliseconds(),
	})
	if err != nil {
		return nil, eris.Wrap(err, "provider: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/fetch-field", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "provider: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		// Transport failures map onto result statuses so one slow field
		// never aborts the whole cycle.
		if errors.Is(err, context.DeadlineExceeded) {
			return timeoutResult(err), nil
		}
		return &FieldResult{
			Status: StatusUpstreamUnreachable,
			Diagnostics: Diagnostics{
				Message: truncate(err.Error()),
				Elapsed: time.Since(start),
			},
		}, nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &FieldResult{
			Status: StatusUpstreamUnreachable,
			Diagnostics: Diagnostics{
				HTTPStatus: resp.StatusCode,
				Message:    truncate(err.Error()),
				Elapsed:    time.Since(start),
			},
		}, nil
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &FieldResult{
			Status: StatusDeferred,
			Diagnostics: Diagnostics{
				HTTPStatus:  resp.StatusCode,
				RateLimited: true,
				Elapsed:     time.Since(start),
			},
		}, nil
	case resp.StatusCode == http.StatusGatewayTimeout:
		return &FieldResult{
			Status: StatusUpstreamTimeout,
			Diagnostics: Diagnostics{
				HTTPStatus: resp.StatusCode,
				Elapsed:    time.Since(start),
			},
		}, nil
	case resp.StatusCode >= 500:
		return &FieldResult{
			Status: StatusUpstreamUnreachable,
			Diagnostics: Diagnostics{
				HTTPStatus: resp.StatusCode,
				Message:    truncate(string(respBody)),
				Elapsed:    time.Since(start),
			},
		}, nil
	case resp.StatusCode != http.StatusOK:
		return nil, eris.Errorf("provider: unexpected status %d: %s", resp.StatusCode, truncate(string(respBody)))
	}

	var result FieldResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "provider: unmarshal response")
	}
	if result.Status == "" {
		result.Status = StatusOK
	}
	result.Diagnostics.HTTPStatus = resp.StatusCode
	result.Diagnostics.Elapsed = time.Since(start)
	return &result, nil
}

func timeoutResult(err error) *FieldResult {
	return &FieldResult{
		Status:      StatusUpstreamTimeout,
		Diagnostics: Diagnostics{Message: truncate(err.Error())},
	}
}

func truncate(s string) string {
	const max = 300
	if len(s) > max {
		return s[:max]
	}
	return s
}
