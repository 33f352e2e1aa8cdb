// Package yahoo serves stock and ETF market data from the public Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// chartParams maps a timeframe to the chart API interval and the number of source bars merged
// into one candle. Yahoo has no 4h interval so 4H is built from hourly bars.
var chartParams = map[string]struct {
	interval string
	group    int
}{
	"1H": {"1h", 1},
	"4H": {"1h", 4},
	"1D": {"1d", 1},
	"1W": {"1wk", 1},
}

// Client implements ports.MarketDataProvider for equities.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     ports.Logger
	symbolMap  map[string]string
}

// Config holds the Yahoo client settings.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // Requests per second; <= 0 disables limiting
	Logger    ports.Logger
}

// New creates a Yahoo chart client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = ports.NopLogger{}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		limiter:    limiter,
		logger:     cfg.Logger,
		symbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (c *Client) Name() string { return "yahoo" }

func (c *Client) DetectAssetType(ticker string) domain.AssetType {
	return domain.DetectAssetType(ticker)
}

// GetFundamentals returns nil: the chart API carries no valuation data.
func (c *Client) GetFundamentals(context.Context, string) (*domain.FundamentalData, error) {
	return nil, nil
}

func (c *Client) yahooSymbol(ticker string) string {
	t := domain.NormalizeTicker(ticker)
	if mapped, ok := c.symbolMap[t]; ok {
		return mapped
	}
	return t
}

// chartResponse is the response structure from the Yahoo Finance chart API.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				ChartPreviousClose *float64 `json:"chartPreviousClose"`
				PreviousClose      *float64 `json:"previousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *Client) fetchChart(ctx context.Context, op, ticker, interval, rng string) (*chartResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %w", op, ports.ErrRateLimited, err)
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		c.baseURL, url.PathEscape(c.yahooSymbol(ticker)), interval, rng)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %w", op, ports.ErrInvalidRequest, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s failed: %w: %w", op, ports.ErrTimeout, err)
		}
		return nil, fmt.Errorf("%s failed: %w: %w", op, ports.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read body failed: %w: %w", op, ports.ErrProviderFailure, err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s failed: %w: status %d", op, ports.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s failed: %w: %s", op, ports.ErrUnsupportedTicker, ticker)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%s failed: %w: status %d, body: %s", op, ports.ErrProviderFailure, resp.StatusCode, truncate(string(body), 200))
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("%s decode failed: %w: %w", op, ports.ErrProviderFailure, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", op, ports.ErrProviderFailure, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s failed: %w: no result for %s", op, ports.ErrNoData, ticker)
	}
	return &chart, nil
}

// GetCurrentPrice reads the regular market price and the change against the previous close.
func (c *Client) GetCurrentPrice(ctx context.Context, ticker string) (domain.PriceQuote, error) {
	op := "yahoo GetCurrentPrice"
	chart, err := c.fetchChart(ctx, op, ticker, "1d", "5d")
	if err != nil {
		return domain.PriceQuote{}, err
	}
	res := chart.Chart.Result[0]

	var price float64
	if p := res.Meta.RegularMarketPrice; p != nil && *p > 0 {
		price = *p
	} else if bars := barsFrom(chart); len(bars) > 0 {
		price = bars[len(bars)-1].Close
	}
	if price <= 0 {
		return domain.PriceQuote{}, fmt.Errorf("%s failed: %w: no price for %s", op, ports.ErrNoData, ticker)
	}

	quote := domain.PriceQuote{Price: price}
	prev := res.Meta.PreviousClose
	if prev == nil {
		prev = res.Meta.ChartPreviousClose
	}
	if prev != nil && *prev > 0 {
		quote.Change24h = domain.Float(price - *prev)
		quote.ChangePercent24h = domain.Float((price - *prev) / *prev * 100)
	}
	return quote, nil
}

// GetCandles returns up to limit candles, oldest first.
func (c *Client) GetCandles(ctx context.Context, ticker, timeframe string, limit int) ([]domain.Candle, error) {
	op := "yahoo GetCandles"
	params, ok := chartParams[strings.ToUpper(strings.TrimSpace(timeframe))]
	if !ok {
		return nil, fmt.Errorf("%s failed: %w: unsupported timeframe %q", op, ports.ErrInvalidRequest, timeframe)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%s failed: %w: limit must be positive", op, ports.ErrInvalidRequest)
	}

	chart, err := c.fetchChart(ctx, op, ticker, params.interval, rangeFor(params.interval, limit*params.group))
	if err != nil {
		return nil, err
	}
	bars := group(barsFrom(chart), params.group)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s failed: %w: no bars for %s", op, ports.ErrNoData, ticker)
	}
	if len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	c.logger.Debug(ctx, "Yahoo candles fetched", map[string]interface{}{"ticker": ticker, "timeframe": timeframe, "count": len(bars)})
	return bars, nil
}

func barsFrom(chart *chartResponse) []domain.Candle {
	res := chart.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return nil
	}
	q := res.Indicators.Quote[0]
	at := func(s []*float64, i int) float64 {
		if i < len(s) && s[i] != nil {
			return *s[i]
		}
		return 0
	}

	bars := make([]domain.Candle, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		o, h, l, cl := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i)
		if o == 0 && h == 0 && l == 0 && cl == 0 {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, domain.Candle{
			Timestamp: ts * 1000,
			Open:      o,
			High:      h,
			Low:       l,
			Close:     cl,
			Volume:    at(q.Volume, i),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp < bars[j].Timestamp })
	return bars
}

// group merges every n consecutive bars into one. A trailing partial group is kept.
func group(bars []domain.Candle, n int) []domain.Candle {
	if n <= 1 {
		return bars
	}
	out := make([]domain.Candle, 0, len(bars)/n+1)
	for i := 0; i < len(bars); i += n {
		end := min(i+n, len(bars))
		g := bars[i]
		for _, b := range bars[i+1 : end] {
			g.High = max(g.High, b.High)
			g.Low = min(g.Low, b.Low)
			g.Close = b.Close
			g.Volume += b.Volume
		}
		out = append(out, g)
	}
	return out
}

// rangeFor picks the smallest chart range that covers n bars of interval.
func rangeFor(interval string, n int) string {
	switch interval {
	case "1h":
		// About seven trading hours per session.
		switch days := n/7 + 1; {
		case days <= 5:
			return "5d"
		case days <= 22:
			return "1mo"
		case days <= 66:
			return "3mo"
		case days <= 130:
			return "6mo"
		case days <= 250:
			return "1y"
		default:
			return "2y"
		}
	case "1wk":
		switch {
		case n <= 26:
			return "6mo"
		case n <= 52:
			return "1y"
		case n <= 104:
			return "2y"
		case n <= 260:
			return "5y"
		default:
			return "10y"
		}
	default:
		switch {
		case n <= 20:
			return "1mo"
		case n <= 60:
			return "3mo"
		case n <= 120:
			return "6mo"
		case n <= 250:
			return "1y"
		case n <= 500:
			return "2y"
		default:
			return "5y"
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
