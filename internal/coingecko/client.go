// Package coingecko fetches market cap history and market snapshots from the
// CoinGecko v3 API.
package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"altcoin-leadlag/internal/config"
	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/httpclient"
	"altcoin-leadlag/internal/observability"
)

// ProviderName labels CoinGecko requests in logs and metrics.
const ProviderName = "coingecko"

// APIKeyHeader carries the pro API key.
const APIKeyHeader = "x-cg-pro-api-key"

// MaxPerPage is the largest page size coins/markets accepts.
const MaxPerPage = 250

// Client is a CoinGecko API client.
type Client struct {
	http   *httpclient.Client
	logger *zap.Logger
}

// NewClient creates a client from provider configuration.
func NewClient(cfg config.CoinGecko, logger *zap.Logger, metrics *observability.Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http: httpclient.New(ProviderName, cfg.BaseURL,
			httpclient.WithTimeout(cfg.Timeout),
			httpclient.WithMaxRetries(cfg.MaxRetries),
			httpclient.WithRequestsPerMinute(cfg.RequestsPerMinute),
			httpclient.WithHeader(APIKeyHeader, cfg.APIKey),
			httpclient.WithLogger(logger),
			httpclient.WithMetrics(metrics),
		),
		logger: logger,
	}
}

// chartPoint is a [timestamp_ms, value] pair. Points with a null member are
// dropped by toObservations.
type chartPoint [2]*float64

type marketChartResponse struct {
	Prices       []chartPoint `json:"prices"`
	MarketCaps   []chartPoint `json:"market_caps"`
	TotalVolumes []chartPoint `json:"total_volumes"`
}

type globalChartResponse struct {
	MarketCapChart struct {
		MarketCap []chartPoint `json:"market_cap"`
		Volume    []chartPoint `json:"volume"`
	} `json:"market_cap_chart"`
}

func toObservations(points []chartPoint, from, to time.Time) []domain.Observation {
	out := make([]domain.Observation, 0, len(points))
	for _, p := range points {
		if p[0] == nil || p[1] == nil {
			continue
		}
		ts := time.UnixMilli(int64(*p[0])).UTC()
		if ts.Before(from) || ts.After(to) {
			continue
		}
		out = append(out, domain.Observation{Time: ts, Value: *p[1]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// MarketCapRange returns the USD market cap history of coinID between from and to.
func (c *Client) MarketCapRange(ctx context.Context, coinID string, from, to time.Time) ([]domain.Observation, error) {
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))

	var resp marketChartResponse
	path := "/coins/" + url.PathEscape(coinID) + "/market_chart/range"
	if err := c.http.GetJSON(ctx, "market_chart_range", path, q, &resp); err != nil {
		return nil, fmt.Errorf("market cap range %s: %w", coinID, err)
	}

	obs := toObservations(resp.MarketCaps, from, to)
	c.logger.Debug("fetched market cap history",
		zap.String("coin", coinID),
		zap.Int("points", len(obs)))
	return obs, nil
}

// GlobalMarketCapRange returns the total crypto market cap between from and to.
// The endpoint is anchored at now, so the window is widened to cover from and
// then trimmed.
func (c *Client) GlobalMarketCapRange(ctx context.Context, from, to time.Time) ([]domain.Observation, error) {
	days := int(time.Since(from).Hours()/24) + 2
	if days < 1 {
		days = 1
	}
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("days", strconv.Itoa(days))

	var resp globalChartResponse
	if err := c.http.GetJSON(ctx, "global_market_cap_chart", "/global/market_cap_chart", q, &resp); err != nil {
		return nil, fmt.Errorf("global market cap range: %w", err)
	}

	obs := toObservations(resp.MarketCapChart.MarketCap, from, to)
	c.logger.Debug("fetched global market cap history", zap.Int("points", len(obs)))
	return obs, nil
}

// MarketsQuery selects rows of coins/markets.
type MarketsQuery struct {
	IDs         []string
	PerPage     int
	Page        int
	PriceChange []string  // e.g. "24h", "7d"
	Date        time.Time // optional snapshot date
}

// CoinsMarkets returns one page of coins/markets ordered by market cap.
func (c *Client) CoinsMarkets(ctx context.Context, mq MarketsQuery) ([]domain.CoinMarket, error) {
	perPage := mq.PerPage
	if perPage <= 0 || perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	page := mq.Page
	if page <= 0 {
		page = 1
	}

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("sparkline", "false")
	q.Set("precision", "full")
	if len(mq.IDs) > 0 {
		q.Set("ids", strings.Join(mq.IDs, ","))
	}
	if len(mq.PriceChange) > 0 {
		q.Set("price_change_percentage", strings.Join(mq.PriceChange, ","))
	}
	if !mq.Date.IsZero() {
		q.Set("date", mq.Date.Format("02-01-2006"))
	}

	var coins []domain.CoinMarket
	if err := c.http.GetJSON(ctx, "coins_markets", "/coins/markets", q, &coins); err != nil {
		return nil, fmt.Errorf("coins markets page %d: %w", page, err)
	}
	return coins, nil
}

// TopMarketCaps returns the n largest coins by market cap as of date, paging
// through coins/markets with pageSize rows per request.
func (c *Client) TopMarketCaps(ctx context.Context, date time.Time, n, pageSize int) ([]domain.CoinMarket, error) {
	if pageSize <= 0 || pageSize > MaxPerPage {
		pageSize = MaxPerPage
	}

	var all []domain.CoinMarket
	for page := 1; len(all) < n; page++ {
		coins, err := c.CoinsMarkets(ctx, MarketsQuery{PerPage: pageSize, Page: page, Date: date})
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", date.Format("2006-01-02"), err)
		}
		all = append(all, coins...)
		if len(coins) < pageSize {
			break
		}
	}
	return domain.TopByMarketCap(all, n), nil
}
