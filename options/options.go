package options

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidParameter is wrapped by every parameter rejection in the engine.
var ErrInvalidParameter = errors.New("invalid parameter")

// Kind is the exercise style of a vanilla European option.
type Kind int

const (
	Call Kind = iota
	Put
)

func (k Kind) String() string {
	switch k {
	case Call:
		return "call"
	case Put:
		return "put"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind converts user-facing input ("call"/"put") into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call":
		return Call, nil
	case "put":
		return Put, nil
	}
	return Call, fmt.Errorf("%w: unknown option kind %q", ErrInvalidParameter, s)
}

// Parameters describes a single vanilla European option. TimeToExpiry is in
// years; TimeToExpiry == 0 is the at-expiry boundary, not an error.
type Parameters struct {
	Spot         float64 `json:"spot"`
	Strike       float64 `json:"strike"`
	TimeToExpiry float64 `json:"time_to_expiry"`
	RiskFreeRate float64 `json:"risk_free_rate"`
	Volatility   float64 `json:"volatility"`
	Kind         Kind    `json:"kind"`
}

func (p Parameters) Validate() error {
	switch {
	case p.Spot <= 0 || math.IsNaN(p.Spot) || math.IsInf(p.Spot, 0):
		return fmt.Errorf("%w: spot must be positive, got %v", ErrInvalidParameter, p.Spot)
	case p.Strike <= 0 || math.IsNaN(p.Strike) || math.IsInf(p.Strike, 0):
		return fmt.Errorf("%w: strike must be positive, got %v", ErrInvalidParameter, p.Strike)
	case p.Volatility <= 0 || math.IsNaN(p.Volatility) || math.IsInf(p.Volatility, 0):
		return fmt.Errorf("%w: volatility must be positive, got %v", ErrInvalidParameter, p.Volatility)
	case p.TimeToExpiry < 0 || math.IsNaN(p.TimeToExpiry) || math.IsInf(p.TimeToExpiry, 0):
		return fmt.Errorf("%w: time to expiry must be non-negative, got %v", ErrInvalidParameter, p.TimeToExpiry)
	case math.IsNaN(p.RiskFreeRate) || math.IsInf(p.RiskFreeRate, 0):
		return fmt.Errorf("%w: risk-free rate must be finite, got %v", ErrInvalidParameter, p.RiskFreeRate)
	case p.Kind != Call && p.Kind != Put:
		return fmt.Errorf("%w: unknown option kind %d", ErrInvalidParameter, int(p.Kind))
	}
	return nil
}

// IntrinsicValue is the exercise value of the option at the given underlying price.
func (p Parameters) IntrinsicValue(underlying float64) float64 {
	switch p.Kind {
	case Call:
		return math.Max(0, underlying-p.Strike)
	case Put:
		return math.Max(0, p.Strike-underlying)
	}
	return 0
}
