// Package marketdata fetches published mortgage and prime rates from the
// Bank of Canada Valet API.
package marketdata

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

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Valet series identifiers.
const (
	SeriesPrime         = "V122530"
	SeriesMortgage1Year = "V122521"
	SeriesMortgage3Year = "V122524"
	SeriesMortgage5Year = "V122525"
)

// Client defaults.
const (
	DefaultBaseURL    = "https://www.bankofcanada.ca/valet"
	DefaultTimeout    = 10 * time.Second
	DefaultRetries    = 2
	DefaultRetryDelay = 500 * time.Millisecond

	dateLayout   = "2006-01-02"
	daysPerMonth = 30
)

var latestSeries = []string{SeriesPrime, SeriesMortgage1Year, SeriesMortgage3Year, SeriesMortgage5Year}

// Rates are the most recent published rates, in percent. A nil field was
// missing from the feed.
type Rates struct {
	Date          *string  `json:"date"`
	Prime         *float64 `json:"primeRate"`
	Mortgage1Year *float64 `json:"mortgage1Year"`
	Mortgage3Year *float64 `json:"mortgage3Year"`
	Mortgage5Year *float64 `json:"mortgage5Year"`

	// Stale is set when the rates come from the last successful fetch
	// because the feed could not be reached.
	Stale bool `json:"stale,omitempty"`
}

// RatePoint is one observation of a historical series.
type RatePoint struct {
	Date string  `json:"date"`
	Rate float64 `json:"rate"`

	// Stale is set when the point comes from the last successful fetch.
	Stale bool `json:"stale,omitempty"`
}

// ClientConfig configures a Client. Zero values take the defaults.
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

// Client talks to the Valet API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	retryDelay time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient creates a Valet client.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retries:    cfg.Retries,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
		now:        time.Now,
	}
}

type observationsResponse struct {
	Observations []map[string]json.RawMessage `json:"observations"`
}

type observationValue struct {
	V string `json:"v"`
}

// LatestRates fetches the most recent observation of the prime and
// conventional mortgage series.
func (c *Client) LatestRates(ctx context.Context) (Rates, error) {
	q := url.Values{}
	q.Set("recent", "1")

	var resp observationsResponse
	if err := c.getJSON(ctx, c.observationsURL(latestSeries, q), &resp); err != nil {
		return Rates{}, eris.Wrap(err, "failed to fetch latest rates")
	}

	var r Rates
	if len(resp.Observations) == 0 {
		return r, nil
	}
	obs := resp.Observations[0]
	r.Date = observationDate(obs)
	r.Prime = observationRate(obs, SeriesPrime)
	r.Mortgage1Year = observationRate(obs, SeriesMortgage1Year)
	r.Mortgage3Year = observationRate(obs, SeriesMortgage3Year)
	r.Mortgage5Year = observationRate(obs, SeriesMortgage5Year)
	return r, nil
}

// HistoricalRates fetches the 5-year mortgage series over the last months
// months. Observations without a value are dropped.
func (c *Client) HistoricalRates(ctx context.Context, months int) ([]RatePoint, error) {
	if months <= 0 {
		return nil, eris.Errorf("months must be positive, got %d", months)
	}

	end := c.now()
	start := end.AddDate(0, 0, -months*daysPerMonth)
	q := url.Values{}
	q.Set("start_date", start.Format(dateLayout))
	q.Set("end_date", end.Format(dateLayout))

	var resp observationsResponse
	if err := c.getJSON(ctx, c.observationsURL([]string{SeriesMortgage5Year}, q), &resp); err != nil {
		return nil, eris.Wrap(err, "failed to fetch historical rates")
	}

	points := make([]RatePoint, 0, len(resp.Observations))
	for _, obs := range resp.Observations {
		date := observationDate(obs)
		rate := observationRate(obs, SeriesMortgage5Year)
		if date == nil || rate == nil {
			continue
		}
		points = append(points, RatePoint{Date: *date, Rate: *rate})
	}
	return points, nil
}

func (c *Client) observationsURL(series []string, q url.Values) string {
	return fmt.Sprintf("%s/observations/%s/json?%s", c.baseURL, strings.Join(series, ","), q.Encode())
}

// getJSON fetches target and decodes it into out, retrying transport errors
// and server errors.
func (c *Client) getJSON(ctx context.Context, target string, out interface{}) error {
	var body bytes.Buffer
	var err error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Debug("retrying market data request",
				zap.String("op", "marketdata.getJSON"),
				zap.String("url", target),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return eris.Wrap(ctx.Err(), "request cancelled")
			case <-time.After(c.retryDelay):
			}
		}

		body.Reset()
		err = c.fetchOnce(ctx, target, &body)
		if err == nil {
			break
		}
		if !retryable(err) || ctx.Err() != nil {
			return eris.Wrap(err, "valet request failed")
		}
	}
	if err != nil {
		c.logger.Warn("market data request failed",
			zap.String("op", "marketdata.getJSON"),
			zap.String("url", target),
			zap.Int("attempts", c.retries+1),
			zap.Error(err),
		)
		return eris.Wrap(err, "valet request failed")
	}

	if err := json.Unmarshal(body.Bytes(), out); err != nil {
		return eris.Wrap(err, "failed to decode response")
	}
	return nil
}

// statusError is a non-2xx response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func retryable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.code >= http.StatusInternalServerError || se.code == http.StatusTooManyRequests
	}
	return true
}

func (c *Client) fetchOnce(ctx context.Context, target string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return eris.Wrap(err, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &statusError{code: resp.StatusCode}
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return eris.Wrap(err, "failed to read response")
	}
	return nil
}

func observationDate(obs map[string]json.RawMessage) *string {
	raw, ok := obs["d"]
	if !ok {
		return nil
	}
	var d string
	if err := json.Unmarshal(raw, &d); err != nil || d == "" {
		return nil
	}
	return &d
}

func observationRate(obs map[string]json.RawMessage, series string) *float64 {
	raw, ok := obs[series]
	if !ok {
		return nil
	}
	var v observationValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(v.V), 64)
	if err != nil {
		return nil
	}
	return &rate
}
