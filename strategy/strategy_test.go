package strategy_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/optrisk/options"
	"github.com/quantfold/optrisk/strategy"
)

func TestCoveredCallPlateau(t *testing.T) {
	spec := strategy.CoveredCall(100, 105, 3, strategy.Scan{Min: 80, Max: 130, Steps: 51})
	curve, err := strategy.Evaluate(spec)
	require.NoError(t, err)
	require.Len(t, curve, 51)

	maxPnL := 105.0 - 100 + 3
	for _, pt := range curve {
		assert.LessOrEqual(t, pt.PnL, maxPnL+1e-9, "covered call upside must be capped")
		if pt.Price >= 105 {
			assert.InDelta(t, maxPnL, pt.PnL, 1e-9, "plateau at price %v", pt.Price)
		}
	}
}

func TestProtectivePutFloor(t *testing.T) {
	spec := strategy.ProtectivePut(100, 95, 2.8, strategy.Scan{Min: 50, Max: 150, Steps: 101})
	curve, err := strategy.Evaluate(spec)
	require.NoError(t, err)

	floor := 95.0 - 100 - 2.8
	for _, pt := range curve {
		assert.GreaterOrEqual(t, pt.PnL, floor-1e-9, "protective put downside must be floored")
		if pt.Price <= 95 {
			assert.InDelta(t, floor, pt.PnL, 1e-9)
		}
	}
}

func TestEvaluateIsLegGeneric(t *testing.T) {
	// Long straddle: not one of the presets, built from the same leg primitive.
	spec := strategy.Spec{
		Name: "Straddle",
		Legs: []strategy.Leg{
			{Kind: strategy.CallLeg, Quantity: 1, Strike: 100, Premium: 5},
			{Kind: strategy.PutLeg, Quantity: 1, Strike: 100, Premium: 4},
		},
		Scan: strategy.Scan{Min: 60, Max: 140, Steps: 81},
	}
	curve, err := strategy.Evaluate(spec)
	require.NoError(t, err)

	for _, pt := range curve {
		want := math.Max(pt.Price-100, 0) + math.Max(100-pt.Price, 0) - 9
		assert.InDelta(t, want, pt.PnL, 1e-9)
	}
}

func TestStockLegPnL(t *testing.T) {
	long := strategy.Leg{Kind: strategy.StockLeg, Quantity: 2, Entry: 50}
	assert.InDelta(t, 20.0, long.PnLAt(60), 1e-12)
	assert.InDelta(t, -10.0, long.PnLAt(45), 1e-12)

	short := strategy.Leg{Kind: strategy.StockLeg, Quantity: -1, Entry: 50}
	assert.InDelta(t, -10.0, short.PnLAt(60), 1e-12)
}

func TestSingleOptionCurve(t *testing.T) {
	spec := strategy.SingleOption(options.Put, 1, 100, 5.57, strategy.Scan{Min: 50, Max: 150, Steps: 101})
	curve, err := strategy.Evaluate(spec)
	require.NoError(t, err)

	for _, pt := range curve {
		want := math.Max(100-pt.Price, 0) - 5.57
		assert.InDelta(t, want, pt.PnL, 1e-9)
	}
}

func TestCurvePricesStrictlyIncreasing(t *testing.T) {
	spec := strategy.CoveredCall(100, 105, 3, strategy.ScanAround(100, 0.5, 100))
	curve, err := strategy.Evaluate(spec)
	require.NoError(t, err)
	require.Len(t, curve, 100)

	assert.InDelta(t, 50.0, curve[0].Price, 1e-9)
	assert.InDelta(t, 150.0, curve[len(curve)-1].Price, 1e-9)
	for i := 1; i < len(curve); i++ {
		assert.Greater(t, curve[i].Price, curve[i-1].Price)
	}
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	scan := strategy.Scan{Min: 80, Max: 120, Steps: 10}

	_, err := strategy.Evaluate(strategy.Spec{Scan: scan})
	assert.ErrorIs(t, err, options.ErrInvalidParameter, "empty leg set")

	legs := []strategy.Leg{{Kind: strategy.StockLeg, Quantity: 1, Entry: 100}}

	_, err = strategy.Evaluate(strategy.Spec{Legs: legs, Scan: strategy.Scan{Min: 80, Max: 120, Steps: 1}})
	assert.ErrorIs(t, err, options.ErrInvalidParameter, "single-step scan")

	_, err = strategy.Evaluate(strategy.Spec{Legs: legs, Scan: strategy.Scan{Min: 120, Max: 80, Steps: 10}})
	assert.ErrorIs(t, err, options.ErrInvalidParameter, "inverted range")
}
