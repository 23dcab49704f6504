package risk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/optrisk/options"
	"github.com/quantfold/optrisk/risk"
	"github.com/quantfold/optrisk/simulation"
)

// identityLoss treats the stored sample values as losses directly.
func identityLoss(terminal float64) float64 { return terminal }

func gbmSample(t *testing.T, paths int, seed uint64) simulation.Distribution {
	t.Helper()
	dist, err := simulation.TerminalPrices(options.Parameters{
		Spot:         100,
		Strike:       100,
		TimeToExpiry: 1,
		RiskFreeRate: 0.05,
		Volatility:   0.2,
		Kind:         options.Call,
	}, simulation.Config{Paths: paths, Seed: &seed})
	require.NoError(t, err)
	return dist
}

func TestAnalyzeKnownSample(t *testing.T) {
	dist := make(simulation.Distribution, 100)
	for i := range dist {
		dist[i] = float64(i + 1) // losses 1..100
	}

	m, err := risk.Analyze(dist, identityLoss, 0.95)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, m.VaR, 94.0)
	assert.LessOrEqual(t, m.VaR, 96.0)
	assert.GreaterOrEqual(t, m.ExpectedShortfall, m.VaR)
	assert.LessOrEqual(t, m.ExpectedShortfall, 100.0)
	assert.Positive(t, m.TailSamples)

	assert.InDelta(t, 50.5, m.Mean, 1e-9)
	assert.Equal(t, 1.0, m.Min)
	assert.Equal(t, 100.0, m.Max)
}

func TestAnalyzeSummaryStats(t *testing.T) {
	dist := simulation.Distribution{90, 100, 110}
	m, err := risk.Analyze(dist, risk.SpotLoss(100), 0.5)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, m.Mean, 1e-9)
	assert.InDelta(t, 10.0, m.StdDev, 1e-9, "std-dev must be the unbiased sample estimate")
	assert.Equal(t, 90.0, m.Min)
	assert.Equal(t, 110.0, m.Max)
}

func TestAnalyzeShortfallDominatesVaR(t *testing.T) {
	dist := gbmSample(t, 50000, 11)
	for _, confidence := range []float64{0.90, 0.95, 0.99} {
		m, err := risk.Analyze(dist, risk.SpotLoss(100), confidence)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, m.ExpectedShortfall, m.VaR,
			"ES must dominate VaR at confidence %v", confidence)
	}
}

func TestAnalyzeVaRMonotoneInConfidence(t *testing.T) {
	dist := gbmSample(t, 50000, 12)
	low, err := risk.Analyze(dist, risk.SpotLoss(100), 0.90)
	require.NoError(t, err)
	high, err := risk.Analyze(dist, risk.SpotLoss(100), 0.99)
	require.NoError(t, err)
	assert.Greater(t, high.VaR, low.VaR)
}

func TestAnalyzeDegenerateTail(t *testing.T) {
	dist := simulation.Distribution{100, 100, 100, 100}
	m, err := risk.Analyze(dist, risk.SpotLoss(100), 0.95)
	require.NoError(t, err)

	// No sample lies strictly beyond VaR: ES falls back to VaR.
	assert.Zero(t, m.TailSamples)
	assert.Equal(t, m.VaR, m.ExpectedShortfall)
}

func TestLossTransforms(t *testing.T) {
	spot := risk.SpotLoss(100)
	assert.InDelta(t, 20.0, spot(80), 1e-12)
	assert.InDelta(t, -10.0, spot(110), 1e-12)

	shortCall := risk.ShortOptionLoss(options.Call, 100, 5)
	assert.InDelta(t, 15.0, shortCall(120), 1e-12, "exercised call costs intrinsic minus premium")
	assert.InDelta(t, -5.0, shortCall(90), 1e-12, "expired call keeps the premium")

	shortPut := risk.ShortOptionLoss(options.Put, 100, 5)
	assert.InDelta(t, 15.0, shortPut(80), 1e-12)
	assert.InDelta(t, -5.0, shortPut(110), 1e-12)
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	dist := simulation.Distribution{100, 101, 99}

	_, err := risk.Analyze(nil, risk.SpotLoss(100), 0.95)
	assert.ErrorIs(t, err, options.ErrInvalidParameter)

	_, err = risk.Analyze(dist, nil, 0.95)
	assert.ErrorIs(t, err, options.ErrInvalidParameter)

	for _, confidence := range []float64{0, 1, -0.5, 1.5} {
		_, err = risk.Analyze(dist, risk.SpotLoss(100), confidence)
		assert.ErrorIs(t, err, options.ErrInvalidParameter, "confidence %v", confidence)
	}
}
