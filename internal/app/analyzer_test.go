package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalDesk/internal/alert"
	"signalDesk/internal/domain"
	"signalDesk/internal/engine"
	"signalDesk/internal/playbook"
	"signalDesk/internal/ports"
)

func newTestAnalyzer(t *testing.T, p ports.MarketDataProvider, logger ports.Logger, opts ...AnalyzerOption) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(p, engine.New(logger), logger, opts...)
	require.NoError(t, err)
	return a
}

func TestNewAnalyzer_RequiresDependencies(t *testing.T) {
	_, err := NewAnalyzer(nil, engine.New(nil), nil)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)

	_, err = NewAnalyzer(newMockProvider(), nil, nil)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestAnalyzeTicker_Success(t *testing.T) {
	p := newMockProvider()
	a := newTestAnalyzer(t, p, &mockLogger{})

	r, err := a.AnalyzeTicker(context.Background(), " btc ", domain.ModeSwing, nil)
	require.NoError(t, err)

	assert.Equal(t, "BTC", r.Ticker)
	assert.Equal(t, domain.AssetCrypto, r.AssetType)
	assert.Equal(t, domain.ModeSwing, r.Mode)
	assert.Equal(t, 160.0, r.CurrentPrice)
	assert.Equal(t, "4H", p.lastTimeframe.Load())
	assert.Zero(t, p.fundamentalCalls.Load(), "crypto never asks for fundamentals")
	assert.GreaterOrEqual(t, r.BuyScore, 0.0)
	assert.LessOrEqual(t, r.BuyScore, 10.0)
	assert.NotEmpty(t, r.Explanation)
}

func TestAnalyzeTicker_FundamentalsForStocks(t *testing.T) {
	p := newMockProvider()
	p.fundamentals = &domain.FundamentalData{PERatio: domain.Float(12)}
	a := newTestAnalyzer(t, p, &mockLogger{})

	r, err := a.AnalyzeTicker(context.Background(), "AAPL", domain.ModeLongTerm, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.fundamentalCalls.Load())
	assert.Equal(t, "1D", p.lastTimeframe.Load())

	out, ok := r.Output(domain.LayerFundamentals)
	require.True(t, ok)
	assert.True(t, out.Has(domain.FlagLowPE))
}

func TestAnalyzeTicker_RiskOnlySkipsFundamentals(t *testing.T) {
	p := newMockProvider()
	a := newTestAnalyzer(t, p, &mockLogger{})

	_, err := a.AnalyzeTicker(context.Background(), "AAPL", domain.ModeRiskOnly, nil)
	require.NoError(t, err)
	assert.Zero(t, p.fundamentalCalls.Load())
}

func TestAnalyzeTicker_FundamentalsFailureDegrades(t *testing.T) {
	p := newMockProvider()
	p.fundamentalsErr = errors.New("quota exceeded")
	logger := &mockLogger{}
	a := newTestAnalyzer(t, p, logger)

	r, err := a.AnalyzeTicker(context.Background(), "AAPL", domain.ModeLongTerm, nil)
	require.NoError(t, err)

	out, ok := r.Output(domain.LayerFundamentals)
	require.True(t, ok)
	assert.True(t, out.Has(domain.FlagNotApplicable))
	assert.Contains(t, logger.warnings(), "Fundamentals unavailable, continuing without them")
}

func TestAnalyzeTicker_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ticker  string
		mode    domain.Mode
		setup   func(p *mockProvider)
		wantErr error
	}{
		{"unknown mode", "BTC", domain.Mode("scalp"), nil, ports.ErrUnknownMode},
		{"empty ticker", "  ", domain.ModeSwing, nil, ports.ErrInvalidRequest},
		{"price failure", "BTC", domain.ModeSwing, func(p *mockProvider) { p.priceErr = errors.New("down") }, ports.ErrProviderFailure},
		{"candle failure", "BTC", domain.ModeSwing, func(p *mockProvider) { p.candlesErr = errors.New("down") }, ports.ErrProviderFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newMockProvider()
			if tt.setup != nil {
				tt.setup(p)
			}
			a := newTestAnalyzer(t, p, &mockLogger{})
			r, err := a.AnalyzeTicker(context.Background(), tt.ticker, tt.mode, nil)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

type slowProvider struct{ *mockProvider }

func (s slowProvider) GetCandles(ctx context.Context, ticker, timeframe string, limit int) ([]domain.Candle, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestAnalyzeTicker_ProviderTimeout(t *testing.T) {
	a := newTestAnalyzer(t, slowProvider{newMockProvider()}, &mockLogger{}, WithProviderTimeout(20*time.Millisecond))

	_, err := a.AnalyzeTicker(context.Background(), "BTC", domain.ModeSwing, nil)
	assert.ErrorIs(t, err, ports.ErrTimeout)
	assert.ErrorIs(t, err, ports.ErrProviderFailure)
}

func TestAnalyzeTicker_RepricesPosition(t *testing.T) {
	p := newMockProvider()
	p.price = 200
	a := newTestAnalyzer(t, p, &mockLogger{})

	pos := &domain.UserPosition{Ticker: "BTC", AvgEntryPrice: 100, Quantity: 2, PnLPercent: -99}
	r, err := a.AnalyzeTicker(context.Background(), "BTC", domain.ModeSwing, pos)
	require.NoError(t, err)

	out, ok := r.Output(domain.LayerUserPosition)
	require.True(t, ok)
	assert.True(t, out.Has(domain.FlagLargeProfit))
	assert.Equal(t, -99.0, pos.PnLPercent, "caller's position is not mutated")
}

func TestAnalyzeMultiple_PreservesOrder(t *testing.T) {
	a := newTestAnalyzer(t, newMockProvider(), &mockLogger{})
	tickers := []string{"ETH", "AAPL", "BTC", "SPY", "MSFT", "SOL"}

	results, err := a.AnalyzeMultiple(context.Background(), tickers, domain.ModeSwing, nil)
	require.NoError(t, err)
	require.Len(t, results, len(tickers))
	for i, tk := range tickers {
		assert.Equal(t, tk, results[i].Ticker)
	}
}

func TestAnalyzeMultiple_FailsOnError(t *testing.T) {
	p := newMockProvider()
	p.priceErr = errors.New("down")
	a := newTestAnalyzer(t, p, &mockLogger{})

	results, err := a.AnalyzeMultiple(context.Background(), []string{"BTC", "ETH"}, domain.ModeSwing, nil)
	assert.Nil(t, results)
	assert.ErrorIs(t, err, ports.ErrProviderFailure)
}

type memPrefs map[string]bool

func (m memPrefs) AlertsEnabled(_ context.Context, id string) (bool, error) { return m[id], nil }
func (m memPrefs) SetAlertPreference(_ context.Context, id string, on bool) error {
	m[id] = on
	return nil
}

type memAlerts struct{ saved []*domain.AlertEvent }

func (m *memAlerts) HasAlertWithin(context.Context, string, string, domain.Tier, time.Duration) (bool, error) {
	return len(m.saved) > 0, nil
}

func (m *memAlerts) SaveAlert(_ context.Context, evt *domain.AlertEvent) error {
	m.saved = append(m.saved, evt)
	return nil
}

func TestEvaluate_ReportAndAlert(t *testing.T) {
	// Thresholds low enough that any buy score qualifies as Strong Buy.
	pb := playbook.Config{StrongBuyThreshold: 0, BuyThreshold: 0, StrongSellThreshold: 11, TakeProfitThreshold: 11, HighRiskThreshold: 101, NeutralThreshold: -1}
	store := &memAlerts{}
	svc := alert.NewService(alert.Config{Ticker: "BTC", Mode: domain.ModeSwing, Playbook: pb}, memPrefs{"u1": true}, store, nil, nil)
	a := newTestAnalyzer(t, newMockProvider(), &mockLogger{}, WithPlaybook(pb), WithAlerts(svc))

	rep, err := a.Evaluate(context.Background(), "BTC", domain.ModeSwing, "u1", nil)
	require.NoError(t, err)
	require.NotNil(t, rep.Analysis)
	assert.Equal(t, domain.TierStrongBuy, rep.Playbook.Tier)
	require.NotNil(t, rep.Alert)
	assert.Equal(t, "u1", rep.Alert.UserID)

	again, err := a.Evaluate(context.Background(), "BTC", domain.ModeSwing, "u1", nil)
	require.NoError(t, err)
	assert.Nil(t, again.Alert, "deduplicated")
	assert.Len(t, store.saved, 1)
}

func TestEvaluate_WithoutUser(t *testing.T) {
	a := newTestAnalyzer(t, newMockProvider(), &mockLogger{})

	rep, err := a.Evaluate(context.Background(), "AAPL", domain.ModeLongTerm, "", nil)
	require.NoError(t, err)
	assert.Nil(t, rep.Alert)
	assert.NotEmpty(t, rep.Playbook.Tier)
	assert.Equal(t, playbook.DefaultConfig(), a.Playbook())
}
