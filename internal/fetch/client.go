// Package fetch retrieves raw METAR and TAF report text from the
// aviationweather.gov data API.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/forvines/metar-monitor/internal/config"
	"github.com/forvines/metar-monitor/pkg/logger"
)

// ReportKind identifies which raw report type a request is for
type ReportKind string

const (
	KindMETAR ReportKind = "metar"
	KindTAF   ReportKind = "taf"
)

// Fetcher retrieves the latest raw report text for a station
type Fetcher interface {
	FetchMETAR(ctx context.Context, icao string) (string, error)
	FetchTAF(ctx context.Context, icao string) (string, error)
}

// Client handles HTTP requests to the raw report API
type Client struct {
	config     config.FetchConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *logger.Logger
}

// NewClient creates a new raw report client
func NewClient(cfg config.FetchConfig, log *logger.Logger) *Client {
	settings := gobreaker.Settings{
		Name:        "report-api",
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     time.Duration(cfg.BreakerCooldownSecs) * time.Second,
	}
	settings.OnStateChange = func(name string, from gobreaker.State, to gobreaker.State) {
		log.Warn("Report API circuit breaker state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()))
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  log.Named("fetch-client"),
	}
}

// FetchMETAR fetches the latest raw METAR for the specified station
func (c *Client) FetchMETAR(ctx context.Context, icao string) (string, error) {
	return c.fetch(ctx, KindMETAR, icao)
}

// FetchTAF fetches the latest raw TAF for the specified station
func (c *Client) FetchTAF(ctx context.Context, icao string) (string, error) {
	return c.fetch(ctx, KindTAF, icao)
}

func (c *Client) fetch(ctx context.Context, kind ReportKind, icao string) (string, error) {
	reqURL := fmt.Sprintf("%s/%s.php?ids=%s", c.config.BaseURL, kind, url.QueryEscape(icao))

	raw, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchWithRetry(ctx, reqURL, kind, icao)
	})
	if err != nil {
		return "", err
	}
	return raw.(string), nil
}

// fetchWithRetry performs an HTTP request with retry logic and exponential backoff
func (c *Client) fetchWithRetry(ctx context.Context, reqURL string, kind ReportKind, icao string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoffDuration := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			c.logger.Info("Retrying report fetch",
				logger.String("type", string(kind)),
				logger.String("airport", icao),
				logger.Int("attempt", attempt),
				logger.String("backoff", backoffDuration.String()))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoffDuration):
			}
		}

		body, err := c.fetchOnce(ctx, reqURL)
		if err != nil {
			lastErr = err
			c.logger.Warn("Report API request failed, may retry",
				logger.String("type", string(kind)),
				logger.String("airport", icao),
				logger.Error(err),
				logger.Int("attempt", attempt+1),
				logger.Int("max_attempts", c.config.MaxRetries+1))
			continue
		}

		text := strings.TrimSpace(body)
		if text == "" {
			lastErr = fmt.Errorf("no %s data found for %s", kind, icao)
			continue
		}

		if attempt > 0 {
			c.logger.Info("Successfully fetched report after retries",
				logger.String("type", string(kind)),
				logger.String("airport", icao),
				logger.Int("attempts_needed", attempt+1))
		}
		return text, nil
	}

	c.logger.Error("All attempts to fetch report failed",
		logger.String("type", string(kind)),
		logger.String("airport", icao),
		logger.Error(lastErr),
		logger.Int("max_attempts", c.config.MaxRetries+1))
	return "", lastErr
}

func (c *Client) fetchOnce(ctx context.Context, reqURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("error building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request to report API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading report body: %w", err)
	}
	return string(body), nil
}
