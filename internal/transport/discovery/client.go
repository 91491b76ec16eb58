// Package discovery is an HTTP client for the Watson Discovery v1 REST API.
// It covers the query, term aggregation and training data endpoints.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/polaudit/internal/domain"
	"github.com/kailas-cloud/polaudit/internal/metrics"
)

const (
	defaultVersion  = "2019-04-30"
	maxErrorBodyLen = 4096
)

// Config holds the client settings.
type Config struct {
	URL           string
	APIKey        string
	EnvironmentID string
	Version       string
	// PassagesCount is sent as passages.count when positive.
	PassagesCount int
	// RateLimit is the outbound request rate per second. Zero means unlimited.
	RateLimit  float64
	Burst      int
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to one Discovery environment.
type Client struct {
	baseURL       string
	apiKey        string
	environmentID string
	version       string
	passagesCount int
	limiter       *rate.Limiter
	http          *http.Client
	logger        *zap.Logger
}

// New creates a Discovery client.
func New(cfg *Config) *Client {
	version := cfg.Version
	if version == "" {
		version = defaultVersion
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		apiKey:        cfg.APIKey,
		environmentID: cfg.EnvironmentID,
		version:       version,
		passagesCount: cfg.PassagesCount,
		limiter:       rate.NewLimiter(limit, burst),
		http:          httpClient,
		logger:        logger,
	}
}

func (c *Client) collectionPath(collectionID string, parts ...string) string {
	p := "/v1/environments/" + url.PathEscape(c.environmentID) +
		"/collections/" + url.PathEscape(collectionID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// Ping checks that the environment is reachable with the configured credentials.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet,
		"/v1/environments/"+url.PathEscape(c.environmentID), nil, nil, nil)
}

// do sends one request and decodes a JSON response into out (when non-nil).
// Non-2xx responses become *domain.ServiceError.
func (c *Client) do(ctx context.Context, op, method, path string, params url.Values, body, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, method, path, params, body, out)

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DiscoveryRequestsTotal.WithLabelValues(op, status).Inc()
	metrics.DiscoveryRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		c.logger.Debug("discovery request failed",
			zap.String("operation", op),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return fmt.Errorf("discovery %s: %w", op, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("version", c.version)

	var reader io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+params.Encode(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", domain.ErrSearchUnavailable, err)
	}
	return nil
}

// parseAPIError builds a ServiceError from the service's error payload,
// falling back to the HTTP status and raw body.
func parseAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))

	var payload struct {
		Code        json.Number `json:"code"`
		Error       string      `json:"error"`
		Description string      `json:"description"`
	}
	code := resp.StatusCode
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &payload) == nil {
		if n, err := strconv.Atoi(payload.Code.String()); err == nil && n > 0 {
			code = n
		}
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Description != "":
			msg = payload.Description
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return domain.NewServiceError(code, msg)
}
