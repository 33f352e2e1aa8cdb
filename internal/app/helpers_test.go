package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"signalDesk/internal/domain"
	"signalDesk/internal/ports"
)

type mockLogger struct {
	mu        sync.Mutex
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

func (m *mockLogger) warnings() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.warnMsgs...)
}

func (m *mockLogger) errors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.errorMsgs...)
}

// mockProvider serves a fixed rising series for every ticker.
type mockProvider struct {
	price           float64
	priceErr        error
	candlesErr      error
	fundamentals    *domain.FundamentalData
	fundamentalsErr error

	fundamentalCalls atomic.Int32
	lastTimeframe    atomic.Value
}

func newMockProvider() *mockProvider {
	return &mockProvider{price: 160}
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) GetCurrentPrice(ctx context.Context, ticker string) (domain.PriceQuote, error) {
	if m.priceErr != nil {
		return domain.PriceQuote{}, m.priceErr
	}
	return domain.PriceQuote{Price: m.price, ChangePercent24h: domain.Float(1.2)}, nil
}

func (m *mockProvider) GetCandles(ctx context.Context, ticker, timeframe string, limit int) ([]domain.Candle, error) {
	m.lastTimeframe.Store(timeframe)
	if m.candlesErr != nil {
		return nil, m.candlesErr
	}
	return risingCandles(60, 100, 1), nil
}

func (m *mockProvider) DetectAssetType(ticker string) domain.AssetType {
	return domain.DetectAssetType(ticker)
}

func (m *mockProvider) GetFundamentals(ctx context.Context, ticker string) (*domain.FundamentalData, error) {
	m.fundamentalCalls.Add(1)
	return m.fundamentals, m.fundamentalsErr
}

func risingCandles(n int, start, step float64) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		c := start + float64(i)*step
		out[i] = domain.Candle{
			Timestamp: int64(1700000000000 + i*86400000),
			Open:      c - step/2,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return out
}

// memSignalStore records saved signals. When release is non-nil, SaveSignal reports on started
// and blocks until release is closed.
type memSignalStore struct {
	mu      sync.Mutex
	saved   []ports.SignalRecord
	err     error
	started chan struct{}
	release chan struct{}
}

func (m *memSignalStore) SaveSignal(ctx context.Context, rec ports.SignalRecord) error {
	if m.release != nil {
		m.started <- struct{}{}
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, rec)
	return nil
}

func (m *memSignalStore) RecentSignals(ctx context.Context, ticker string, limit int) ([]*domain.AnalysisResult, error) {
	return nil, errors.New("not implemented")
}

func (m *memSignalStore) records() []ports.SignalRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.SignalRecord(nil), m.saved...)
}
