package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quantfold/optrisk/options"
)

// Result holds a closed-form price and its sensitivities. Theta is per year;
// vega is per unit of volatility (scale by 0.01 for a per-1% move).
type Result struct {
	Price float64 `json:"price"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

var stdNormal = distuv.UnitNormal

// Price computes the Black-Scholes price and Greeks for a vanilla European
// option. Pure function of its inputs, safe for concurrent use.
func Price(p options.Parameters) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if p.TimeToExpiry == 0 {
		return expiryResult(p), nil
	}

	sqrtT := math.Sqrt(p.TimeToExpiry)
	d1 := (math.Log(p.Spot/p.Strike) + (p.RiskFreeRate+0.5*p.Volatility*p.Volatility)*p.TimeToExpiry) / (p.Volatility * sqrtT)
	d2 := d1 - p.Volatility*sqrtT
	discK := p.Strike * math.Exp(-p.RiskFreeRate*p.TimeToExpiry)

	res := Result{
		Gamma: stdNormal.Prob(d1) / (p.Spot * p.Volatility * sqrtT),
		Vega:  p.Spot * stdNormal.Prob(d1) * sqrtT,
	}
	decay := -p.Spot * stdNormal.Prob(d1) * p.Volatility / (2 * sqrtT)

	switch p.Kind {
	case options.Call:
		res.Price = p.Spot*stdNormal.CDF(d1) - discK*stdNormal.CDF(d2)
		res.Delta = stdNormal.CDF(d1)
		res.Theta = decay - p.RiskFreeRate*discK*stdNormal.CDF(d2)
		res.Rho = discK * p.TimeToExpiry * stdNormal.CDF(d2)
	case options.Put:
		res.Price = discK*stdNormal.CDF(-d2) - p.Spot*stdNormal.CDF(-d1)
		res.Delta = stdNormal.CDF(d1) - 1
		res.Theta = decay + p.RiskFreeRate*discK*stdNormal.CDF(-d2)
		res.Rho = -discK * p.TimeToExpiry * stdNormal.CDF(-d2)
	}

	return res, nil
}

// expiryResult handles the T=0 boundary: price collapses to intrinsic value,
// delta becomes a step function and the remaining Greeks are reported as 0.
func expiryResult(p options.Parameters) Result {
	res := Result{Price: p.IntrinsicValue(p.Spot)}
	switch p.Kind {
	case options.Call:
		if p.Spot > p.Strike {
			res.Delta = 1
		}
	case options.Put:
		if p.Spot < p.Strike {
			res.Delta = -1
		}
	}
	return res
}
