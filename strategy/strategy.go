package strategy

import (
	"fmt"
	"math"

	"github.com/quantfold/optrisk/options"
)

// LegKind discriminates the position types a strategy can combine.
type LegKind int

const (
	StockLeg LegKind = iota
	CallLeg
	PutLeg
)

// Leg is one signed position. Quantity is negative for short legs. Entry is
// the purchase price for stock legs; Strike and Premium apply to option legs.
type Leg struct {
	Kind     LegKind `json:"kind"`
	Quantity float64 `json:"quantity"`
	Entry    float64 `json:"entry"`
	Strike   float64 `json:"strike"`
	Premium  float64 `json:"premium"`
}

// PnLAt is the leg's profit or loss with the underlying at price at expiry.
func (l Leg) PnLAt(price float64) float64 {
	switch l.Kind {
	case StockLeg:
		return l.Quantity * (price - l.Entry)
	case CallLeg:
		return l.Quantity * (math.Max(price-l.Strike, 0) - l.Premium)
	case PutLeg:
		return l.Quantity * (math.Max(l.Strike-price, 0) - l.Premium)
	}
	return 0
}

// Scan is the underlying price range a payoff curve is evaluated over.
type Scan struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Steps int     `json:"steps"`
}

// ScanAround builds a scan range symmetric around spot: spot·(1±factor).
func ScanAround(spot, factor float64, steps int) Scan {
	return Scan{Min: spot * (1 - factor), Max: spot * (1 + factor), Steps: steps}
}

// Spec is an ordered set of legs plus the scan range to evaluate them over.
type Spec struct {
	Name string `json:"name"`
	Legs []Leg  `json:"legs"`
	Scan Scan   `json:"scan"`
}

// Point is one (underlying price, total P&L) sample of a payoff curve.
type Point struct {
	Price float64 `json:"price"`
	PnL   float64 `json:"pnl"`
}

// Curve is a payoff profile with strictly increasing prices.
type Curve []Point

// Evaluate sums each leg's P&L across the scan range. Breakeven points are
// left to the caller.
func Evaluate(spec Spec) (Curve, error) {
	if len(spec.Legs) == 0 {
		return nil, fmt.Errorf("%w: strategy has no legs", options.ErrInvalidParameter)
	}
	if spec.Scan.Steps < 2 {
		return nil, fmt.Errorf("%w: scan needs at least 2 steps, got %d", options.ErrInvalidParameter, spec.Scan.Steps)
	}
	if !(spec.Scan.Max > spec.Scan.Min) {
		return nil, fmt.Errorf("%w: scan range [%v, %v] is empty", options.ErrInvalidParameter, spec.Scan.Min, spec.Scan.Max)
	}

	curve := make(Curve, spec.Scan.Steps)
	width := (spec.Scan.Max - spec.Scan.Min) / float64(spec.Scan.Steps-1)
	for i := range curve {
		price := spec.Scan.Min + float64(i)*width
		total := 0.0
		for _, leg := range spec.Legs {
			total += leg.PnLAt(price)
		}
		curve[i] = Point{Price: price, PnL: total}
	}
	return curve, nil
}

// CoveredCall is long one stock unit and short one call: upside capped at
// strike − entry + premium.
func CoveredCall(entry, strike, premium float64, scan Scan) Spec {
	return Spec{
		Name: "Covered Call",
		Legs: []Leg{
			{Kind: StockLeg, Quantity: 1, Entry: entry},
			{Kind: CallLeg, Quantity: -1, Strike: strike, Premium: premium},
		},
		Scan: scan,
	}
}

// ProtectivePut is long one stock unit and long one put: downside floored at
// strike − entry − premium.
func ProtectivePut(entry, strike, premium float64, scan Scan) Spec {
	return Spec{
		Name: "Protective Put",
		Legs: []Leg{
			{Kind: StockLeg, Quantity: 1, Entry: entry},
			{Kind: PutLeg, Quantity: 1, Strike: strike, Premium: premium},
		},
		Scan: scan,
	}
}

// SingleOption wraps one option leg in a Spec, the payoff-diagram primitive.
func SingleOption(kind options.Kind, quantity, strike, premium float64, scan Scan) Spec {
	legKind := CallLeg
	if kind == options.Put {
		legKind = PutLeg
	}
	return Spec{
		Name: fmt.Sprintf("Single %s", kind),
		Legs: []Leg{{Kind: legKind, Quantity: quantity, Strike: strike, Premium: premium}},
		Scan: scan,
	}
}
