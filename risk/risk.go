package risk

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/quantfold/optrisk/options"
	"github.com/quantfold/optrisk/simulation"
)

// LossFn maps one simulated terminal price to a loss amount. Positive values
// are losses. Supplying the transform explicitly keeps the analyzer usable for
// raw spot risk as well as option-position risk.
type LossFn func(terminal float64) float64

// SpotLoss measures the decline of the underlying below the reference spot.
func SpotLoss(spot float64) LossFn {
	return func(terminal float64) float64 {
		return spot - terminal
	}
}

// ShortOptionLoss measures the loss on a short option position: the exercise
// value owed at expiry net of the premium collected up front.
func ShortOptionLoss(kind options.Kind, strike, premium float64) LossFn {
	p := options.Parameters{Strike: strike, Kind: kind}
	return func(terminal float64) float64 {
		return p.IntrinsicValue(terminal) - premium
	}
}

// Metrics summarizes the tail risk and shape of a simulated distribution.
// VaR is the Confidence-quantile of the loss sample, linearly interpolated
// between order statistics. ExpectedShortfall is the mean of losses strictly
// beyond VaR; when no sample lies strictly beyond it (degenerate or very small
// tails) it is reported equal to VaR, so ES ≥ VaR always holds.
type Metrics struct {
	Confidence        float64 `json:"confidence"`
	VaR               float64 `json:"var"`
	ExpectedShortfall float64 `json:"expected_shortfall"`
	TailSamples       int     `json:"tail_samples"`
	Mean              float64 `json:"mean"`
	StdDev            float64 `json:"std_dev"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
}

// Analyze computes Metrics for the distribution under the given loss
// transform at the given confidence level in (0,1).
func Analyze(dist simulation.Distribution, loss LossFn, confidence float64) (Metrics, error) {
	if len(dist) == 0 {
		return Metrics{}, fmt.Errorf("%w: empty distribution", options.ErrInvalidParameter)
	}
	if loss == nil {
		return Metrics{}, fmt.Errorf("%w: nil loss transform", options.ErrInvalidParameter)
	}
	if confidence <= 0 || confidence >= 1 {
		return Metrics{}, fmt.Errorf("%w: confidence must be in (0,1), got %v", options.ErrInvalidParameter, confidence)
	}

	losses := make([]float64, len(dist))
	for i, terminal := range dist {
		losses[i] = loss(terminal)
	}
	sort.Float64s(losses)

	valueAtRisk := stat.Quantile(confidence, stat.LinInterp, losses, nil)

	// Losses are sorted, so the strict tail is the suffix beyond VaR.
	tailStart := sort.SearchFloat64s(losses, valueAtRisk)
	for tailStart < len(losses) && losses[tailStart] <= valueAtRisk {
		tailStart++
	}
	shortfall := valueAtRisk
	tailSamples := len(losses) - tailStart
	if tailSamples > 0 {
		shortfall = stat.Mean(losses[tailStart:], nil)
	}

	return Metrics{
		Confidence:        confidence,
		VaR:               valueAtRisk,
		ExpectedShortfall: shortfall,
		TailSamples:       tailSamples,
		Mean:              stat.Mean(dist, nil),
		StdDev:            stat.StdDev(dist, nil),
		Min:               floats.Min(dist),
		Max:               floats.Max(dist),
	}, nil
}
