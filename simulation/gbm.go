package simulation

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/quantfold/optrisk/options"
)

// chunkSize fixes how many draws each RNG stream produces, so seeded output is
// identical regardless of how many workers the host runs.
const chunkSize = 4096

var rngPool = sync.Pool{
	New: func() interface{} {
		return rand.New(rand.NewSource(uint64(rand.Int63())))
	},
}

// Config controls a simulation run. A nil Seed yields a non-deterministic run;
// a set Seed makes the output sequence reproducible.
type Config struct {
	Paths int
	Seed  *uint64
}

// Distribution is an ordered sample of simulated terminal prices. It is never
// mutated after TerminalPrices returns it.
type Distribution []float64

// TerminalPrices draws cfg.Paths terminal prices under geometric Brownian
// motion, S_T = S·exp((r−σ²/2)T + σ√T·Z). The draw is exact, no intermediate
// time steps are simulated.
func TerminalPrices(p options.Parameters, cfg Config) (Distribution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if cfg.Paths <= 0 {
		return nil, fmt.Errorf("%w: path count must be positive, got %d", options.ErrInvalidParameter, cfg.Paths)
	}

	drift := (p.RiskFreeRate - 0.5*p.Volatility*p.Volatility) * p.TimeToExpiry
	diffusion := p.Volatility * math.Sqrt(p.TimeToExpiry)

	out := make(Distribution, cfg.Paths)
	numChunks := (cfg.Paths + chunkSize - 1) / chunkSize
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > numChunks {
		numWorkers = numChunks
	}

	chunks := make(chan int, numChunks)
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range chunks {
				fillChunk(out, c, cfg, p.Spot, drift, diffusion)
			}
		}()
	}
	for c := 0; c < numChunks; c++ {
		chunks <- c
	}
	close(chunks)
	wg.Wait()

	return out, nil
}

// fillChunk draws one fixed-size slice segment. Seeded runs derive the stream
// for chunk c from seed+c, so the segment's contents never depend on which
// worker picked it up.
func fillChunk(out Distribution, c int, cfg Config, spot, drift, diffusion float64) {
	var rng *rand.Rand
	if cfg.Seed != nil {
		rng = rand.New(rand.NewSource(*cfg.Seed + uint64(c)))
	} else {
		rng = rngPool.Get().(*rand.Rand)
		defer rngPool.Put(rng)
	}

	start := c * chunkSize
	end := start + chunkSize
	if end > len(out) {
		end = len(out)
	}
	for i := start; i < end; i++ {
		out[i] = spot * math.Exp(drift+diffusion*rng.NormFloat64())
	}
}

// OptionPrice is the Monte Carlo estimate of the option value: the discounted
// mean payoff across the simulated terminal prices. Used as a cross-check
// against the analytic price.
func OptionPrice(p options.Parameters, dist Distribution) (float64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	if len(dist) == 0 {
		return 0, fmt.Errorf("%w: empty distribution", options.ErrInvalidParameter)
	}

	sum := 0.0
	for _, sT := range dist {
		sum += p.IntrinsicValue(sT)
	}
	return math.Exp(-p.RiskFreeRate*p.TimeToExpiry) * sum / float64(len(dist)), nil
}

// Histogram bins the distribution into equal-width buckets for downstream
// display. Edges has len(Counts)+1 entries; the last bucket is closed on both
// sides so the maximum sample is counted.
type Histogram struct {
	Edges  []float64 `json:"edges"`
	Counts []int     `json:"counts"`
}

func (d Distribution) Histogram(bins int) (Histogram, error) {
	if bins <= 0 {
		return Histogram{}, fmt.Errorf("%w: bin count must be positive, got %d", options.ErrInvalidParameter, bins)
	}
	if len(d) == 0 {
		return Histogram{}, fmt.Errorf("%w: empty distribution", options.ErrInvalidParameter)
	}

	lo, hi := floats.Min(d), floats.Max(d)
	h := Histogram{
		Edges:  make([]float64, bins+1),
		Counts: make([]int, bins),
	}
	width := (hi - lo) / float64(bins)
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[bins] = hi

	for _, v := range d {
		idx := bins - 1
		if width > 0 {
			idx = int((v - lo) / width)
			if idx >= bins {
				idx = bins - 1
			}
		}
		h.Counts[idx]++
	}
	return h, nil
}

// Mean is the sample mean of the terminal prices.
func (d Distribution) Mean() float64 {
	return stat.Mean(d, nil)
}
