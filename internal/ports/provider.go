package ports

import (
	"context"

	"signalDesk/internal/domain"
)

// MarketDataProvider supplies price, candles, classification and fundamentals for a ticker.
// Implementations are interchangeable; a composite may route between them.
type MarketDataProvider interface {
	// Name identifies the provider in logs.
	Name() string
	// GetCurrentPrice returns the latest price with optional 24h change.
	GetCurrentPrice(ctx context.Context, ticker string) (domain.PriceQuote, error)
	// GetCandles returns up to limit candles for timeframe, oldest first.
	GetCandles(ctx context.Context, ticker, timeframe string, limit int) ([]domain.Candle, error)
	// DetectAssetType classifies the ticker.
	DetectAssetType(ticker string) domain.AssetType
	// GetFundamentals returns nil, nil when the provider has no fundamentals for ticker.
	GetFundamentals(ctx context.Context, ticker string) (*domain.FundamentalData, error)
}
