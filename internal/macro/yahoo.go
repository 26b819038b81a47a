// Package macro fetches the macro liquidity proxy: daily returns of an index
// (S&P 500 total return by default) from the Yahoo Finance chart API.
package macro

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"altcoin-leadlag/internal/config"
	"altcoin-leadlag/internal/domain"
	"altcoin-leadlag/internal/httpclient"
	"altcoin-leadlag/internal/observability"
	"altcoin-leadlag/internal/series"
)

// ProviderName labels Yahoo requests in logs and metrics.
const ProviderName = "yahoo"

// ErrNoData is returned when the chart response carries no series.
var ErrNoData = errors.New("no chart data")

// Client reads adjusted closes from the chart API.
type Client struct {
	http   *httpclient.Client
	symbol string
	logger *zap.Logger
}

// NewClient creates a client from macro configuration.
func NewClient(cfg config.Macro, logger *zap.Logger, metrics *observability.Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http: httpclient.New(ProviderName, cfg.BaseURL,
			httpclient.WithTimeout(cfg.Timeout),
			httpclient.WithHeader("User-Agent", "Mozilla/5.0"),
			httpclient.WithLogger(logger),
			httpclient.WithMetrics(metrics),
		),
		symbol: cfg.Symbol,
		logger: logger,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// AdjustedClose returns daily adjusted closes between from and to.
// Days without a close are skipped.
func (c *Client) AdjustedClose(ctx context.Context, from, to time.Time) ([]domain.Observation, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(from.Unix(), 10))
	q.Set("period2", strconv.FormatInt(to.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "div,splits")

	var resp chartResponse
	path := "/v8/finance/chart/" + url.PathEscape(c.symbol)
	if err := c.http.GetJSON(ctx, "chart", path, q, &resp); err != nil {
		return nil, fmt.Errorf("chart %s: %w", c.symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart %s: %s: %s", c.symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart %s: %w", c.symbol, ErrNoData)
	}

	res := resp.Chart.Result[0]
	var closes []*float64
	if len(res.Indicators.AdjClose) > 0 {
		closes = res.Indicators.AdjClose[0].AdjClose
	} else if len(res.Indicators.Quote) > 0 {
		closes = res.Indicators.Quote[0].Close
	}

	out := make([]domain.Observation, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		out = append(out, domain.Observation{Time: series.DayOf(time.Unix(ts, 0)), Value: *closes[i]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	c.logger.Debug("fetched macro closes", zap.String("symbol", c.symbol), zap.Int("points", len(out)))
	return out, nil
}

// Returns returns the daily percentage change of the adjusted close. The first
// day has no predecessor and is reported as 0.
func (c *Client) Returns(ctx context.Context, from, to time.Time) ([]domain.Observation, error) {
	closes, err := c.AdjustedClose(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return ReturnsOf(closes), nil
}

// ReturnsOf converts a close series into percentage changes with undefined
// values set to 0.
func ReturnsOf(closes []domain.Observation) []domain.Observation {
	values := make([]float64, len(closes))
	for i, o := range closes {
		values[i] = o.Value
	}
	rets := series.FillUndefined(series.PctChange(values), 0)

	out := make([]domain.Observation, len(closes))
	for i, o := range closes {
		out[i] = domain.Observation{Time: o.Time, Value: rets[i]}
	}
	return out
}
