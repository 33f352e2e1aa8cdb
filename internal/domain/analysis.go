package domain

import "time"

// KeyFactor is a displayable flag with its direction.
type KeyFactor struct {
	Label    string    `json:"label"`
	Polarity Polarity  `json:"polarity"`
	Layer    LayerName `json:"layer"`
	Flag     Flag      `json:"flag"`
}

// LayerBreakdown holds each layer's raw score. Layers that did not run report 5.
type LayerBreakdown struct {
	Trend             float64 `json:"trend"`
	Momentum          float64 `json:"momentum"`
	SupportResistance float64 `json:"supportResistance"`
	VolumeVolatility  float64 `json:"volumeVolatility"`
	Fundamentals      float64 `json:"fundamentals"`
	UserPosition      float64 `json:"userPosition"`
}

// Set records score for layer.
func (b *LayerBreakdown) Set(layer LayerName, score float64) {
	switch layer {
	case LayerTrend:
		b.Trend = score
	case LayerMomentum:
		b.Momentum = score
	case LayerSupportResistance:
		b.SupportResistance = score
	case LayerVolumeVolatility:
		b.VolumeVolatility = score
	case LayerFundamentals:
		b.Fundamentals = score
	case LayerUserPosition:
		b.UserPosition = score
	}
}

// AnalysisResult is produced once per analysis call and not mutated afterwards.
type AnalysisResult struct {
	ID              string          `json:"id"`
	Ticker          string          `json:"ticker"`
	AssetType       AssetType       `json:"assetType"`
	Mode            Mode            `json:"mode"`
	Timestamp       time.Time       `json:"timestamp"`
	BuyScore        float64         `json:"buyScore"`  // 0..10, one decimal
	SellScore       float64         `json:"sellScore"` // 0..10, one decimal
	RiskScore       float64         `json:"riskScore"` // 0..100
	MarketRegime    Regime          `json:"marketRegime"`
	CurrentPrice    float64         `json:"currentPrice"`
	Explanation     string          `json:"explanation"`
	SuggestedAction SuggestedAction `json:"suggestedAction"`
	KeyFactors      []KeyFactor     `json:"keyFactors"`
	LayerBreakdown  LayerBreakdown  `json:"layerBreakdown"`
	LayerOutputs    []LayerOutput   `json:"layerOutputs"`
}

// Output returns the raw output for layer, if it ran.
func (r *AnalysisResult) Output(layer LayerName) (LayerOutput, bool) {
	for _, o := range r.LayerOutputs {
		if o.Layer == layer {
			return o, true
		}
	}
	return LayerOutput{}, false
}

// Clone returns a deep copy.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	c := *r
	c.KeyFactors = append([]KeyFactor(nil), r.KeyFactors...)
	c.LayerOutputs = make([]LayerOutput, len(r.LayerOutputs))
	for i, o := range r.LayerOutputs {
		c.LayerOutputs[i] = o.clone()
	}
	return &c
}
