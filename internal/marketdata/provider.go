package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long fetched rates are served without refetching.
const DefaultCacheTTL = time.Hour

const (
	latestKey           = "rates:latest"
	lastKnownKey        = "rates:last-known"
	historyKey          = "rates:history:%d"
	historyLastKnownKey = "rates:history:%d:last-known"
)

// ErrUnavailable is returned when the feed fails and nothing was cached.
var ErrUnavailable = eris.New("market data unavailable")

// Source fetches rates. *Client satisfies it.
type Source interface {
	LatestRates(ctx context.Context) (Rates, error)
	HistoricalRates(ctx context.Context, months int) ([]RatePoint, error)
}

// Provider serves rates from a cache in front of a Source and falls back to
// the last successful fetch when the Source fails.
type Provider struct {
	source Source
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewProvider creates a provider. A nil cache uses a MemoryCache.
func NewProvider(source Source, cache Cache, ttl time.Duration, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Provider{source: source, cache: cache, ttl: ttl, logger: logger}
}

// Latest returns current rates. Fresh cached rates are returned without a
// fetch. When the fetch fails the last known rates are returned with Stale
// set, or ErrUnavailable when there are none.
func (p *Provider) Latest(ctx context.Context) (Rates, error) {
	var r Rates
	if p.load(ctx, latestKey, &r) {
		return r, nil
	}

	r, err := p.source.LatestRates(ctx)
	if err == nil {
		p.store(ctx, latestKey, r, p.ttl)
		p.store(ctx, lastKnownKey, r, 0)
		return r, nil
	}

	var last Rates
	if p.load(ctx, lastKnownKey, &last) {
		p.logger.Warn("serving last known rates",
			zap.String("op", "marketdata.Latest"),
			zap.Error(err),
		)
		last.Stale = true
		return last, nil
	}
	return Rates{}, eris.Wrapf(ErrUnavailable, "latest rates: %v", err)
}

// History returns the 5-year mortgage series over months. It is cached and
// falls back like Latest, with every last known point marked Stale.
func (p *Provider) History(ctx context.Context, months int) ([]RatePoint, error) {
	key := fmt.Sprintf(historyKey, months)

	var points []RatePoint
	if p.load(ctx, key, &points) {
		return points, nil
	}

	points, err := p.source.HistoricalRates(ctx, months)
	if err == nil {
		p.store(ctx, key, points, p.ttl)
		p.store(ctx, fmt.Sprintf(historyLastKnownKey, months), points, 0)
		return points, nil
	}

	var last []RatePoint
	if p.load(ctx, fmt.Sprintf(historyLastKnownKey, months), &last) {
		p.logger.Warn("serving last known historical rates",
			zap.String("op", "marketdata.History"),
			zap.Int("months", months),
			zap.Error(err),
		)
		for i := range last {
			last[i].Stale = true
		}
		return last, nil
	}

	p.logger.Warn("historical rates unavailable",
		zap.String("op", "marketdata.History"),
		zap.Int("months", months),
		zap.Error(err),
	)
	return nil, eris.Wrapf(ErrUnavailable, "historical rates: %v", err)
}

// CurrentRate returns the 5-year mortgage rate in percent, or fallback when
// it cannot be determined.
func (p *Provider) CurrentRate(ctx context.Context, fallback float64) float64 {
	r, err := p.Latest(ctx)
	if err != nil || r.Mortgage5Year == nil {
		p.logger.Debug("using fallback interest rate",
			zap.String("op", "marketdata.CurrentRate"),
			zap.Float64("fallback", fallback),
		)
		return fallback
	}
	return *r.Mortgage5Year
}

func (p *Provider) load(ctx context.Context, key string, out interface{}) bool {
	raw, ok := p.cache.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		p.logger.Warn("discarding unreadable cache entry",
			zap.String("op", "marketdata.load"),
			zap.String("key", key),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (p *Provider) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, key, string(raw), ttl); err != nil {
		p.logger.Warn("failed to cache rates",
			zap.String("op", "marketdata.store"),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
