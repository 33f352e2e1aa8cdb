package domain

import "strings"

// AssetType classifies an instrument.
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetCrypto AssetType = "crypto"
	AssetETF    AssetType = "etf"
)

// Regime is the coarse market direction derived from the composite scores.
type Regime string

const (
	RegimeBull  Regime = "bull"
	RegimeBear  Regime = "bear"
	RegimeRange Regime = "range"
)

// SuggestedAction is the engine's recommendation for the caller.
type SuggestedAction string

const (
	ActionAccumulateAggressive SuggestedAction = "accumulate_aggressive"
	ActionAccumulateSmall      SuggestedAction = "accumulate_small"
	ActionAvoidNewEntries      SuggestedAction = "avoid_new_entries"
	ActionHold                 SuggestedAction = "hold"
	ActionNoAction             SuggestedAction = "no_action"
	ActionTakePartialProfit    SuggestedAction = "take_partial_profit"
	ActionConsiderExit         SuggestedAction = "consider_exit"
)

var knownCrypto = map[string]struct{}{
	"BTC": {}, "ETH": {}, "SOL": {}, "BNB": {}, "XRP": {}, "ADA": {}, "DOGE": {}, "AVAX": {},
	"DOT": {}, "MATIC": {}, "LINK": {}, "LTC": {}, "TRX": {}, "ATOM": {}, "UNI": {}, "SHIB": {},
}

var knownETF = map[string]struct{}{
	"SPY": {}, "QQQ": {}, "VTI": {}, "VOO": {}, "IWM": {}, "DIA": {}, "ARKK": {}, "GLD": {},
	"TLT": {}, "XLK": {}, "XLF": {}, "XLE": {}, "VEA": {}, "VWO": {}, "SCHD": {}, "IVV": {},
}

// DetectAssetType classifies a ticker using static symbol tables.
// Quote-suffixed crypto pairs ("BTCUSDT", "ETH-USD") are recognised as crypto.
func DetectAssetType(ticker string) AssetType {
	t := NormalizeTicker(ticker)
	if _, ok := knownCrypto[t]; ok {
		return AssetCrypto
	}
	if _, ok := knownETF[t]; ok {
		return AssetETF
	}
	for _, suffix := range []string{"USDT", "-USD", "USDC"} {
		if strings.HasSuffix(t, suffix) && len(t) > len(suffix) {
			return AssetCrypto
		}
	}
	return AssetStock
}

// NormalizeTicker upper-cases and trims a ticker symbol.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// BaseAsset strips a known quote suffix from a crypto pair ("BTCUSDT" -> "BTC").
func BaseAsset(ticker string) string {
	t := NormalizeTicker(ticker)
	for _, suffix := range []string{"USDT", "-USD", "USDC"} {
		if strings.HasSuffix(t, suffix) && len(t) > len(suffix) {
			return strings.TrimSuffix(t, suffix)
		}
	}
	return t
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
