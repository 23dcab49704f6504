package main

import (
	"fmt"
	"log"
	"math"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"github.com/xhhuango/json"

	"github.com/quantfold/optrisk/cache"
	"github.com/quantfold/optrisk/options"
	"github.com/quantfold/optrisk/pricing"
	"github.com/quantfold/optrisk/risk"
	"github.com/quantfold/optrisk/simulation"
	"github.com/quantfold/optrisk/strategy"
)

var confidenceLevels = []float64{0.90, 0.95, 0.99}

type report struct {
	Parameters options.Parameters        `json:"parameters"`
	Call       pricing.Result            `json:"call"`
	Put        pricing.Result            `json:"put"`
	MonteCarlo float64                   `json:"monte_carlo_price"`
	Histogram  simulation.Histogram      `json:"histogram"`
	SpotRisk   []risk.Metrics            `json:"spot_risk"`
	OptionRisk []risk.Metrics            `json:"short_option_risk"`
	Strategies map[string]strategy.Curve `json:"strategies"`
}

func main() {
	// .env overrides are optional
	_ = godotenv.Load()

	params := options.Parameters{
		Spot:         envFloat("SPOT", 100),
		Strike:       envFloat("STRIKE", 100),
		TimeToExpiry: envFloat("TTM", 1),
		RiskFreeRate: envFloat("RATE", 0.05),
		Volatility:   envFloat("VOL", 0.2),
	}
	kind, err := options.ParseKind(envString("KIND", "call"))
	if err != nil {
		log.Fatal(err)
	}
	params.Kind = kind
	paths := envInt("PATHS", 100000)

	cfg := simulation.Config{Paths: paths}
	if s, ok := os.LookupEnv("SEED"); ok {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			log.Fatalf("invalid SEED %q: %v", s, err)
		}
		cfg.Seed = &seed
	}

	store := cache.New()
	callRes := pricedCached(store, withKind(params, options.Call))
	putRes := pricedCached(store, withKind(params, options.Put))

	fmt.Printf("Black-Scholes call price: %.4f (delta %.4f, gamma %.4f, theta %.4f, vega %.4f, rho %.4f)\n",
		callRes.Price, callRes.Delta, callRes.Gamma, callRes.Theta, callRes.Vega, callRes.Rho)
	fmt.Printf("Black-Scholes put price:  %.4f (delta %.4f)\n", putRes.Price, putRes.Delta)
	parity := callRes.Price - putRes.Price - (params.Spot - params.Strike*math.Exp(-params.RiskFreeRate*params.TimeToExpiry))
	fmt.Printf("Put-call parity residual: %.2e\n", parity)

	start := time.Now()
	dist, err := simulation.TerminalPrices(params, cfg)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Simulated %d terminal prices in %v (sample mean %.4f, risk-neutral mean %.4f)\n",
		paths, time.Since(start), dist.Mean(), params.Spot*math.Exp(params.RiskFreeRate*params.TimeToExpiry))

	mcPrice, err := simulation.OptionPrice(params, dist)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Monte Carlo %s price: %.4f\n", params.Kind, mcPrice)

	premium := callRes.Price
	if params.Kind == options.Put {
		premium = putRes.Price
	}
	spotRisk, optionRisk := analyzeRisk(dist, params, premium)
	for i, confidence := range confidenceLevels {
		fmt.Printf("VaR(%.0f%%) spot: %.4f  ES: %.4f | short %s: %.4f  ES: %.4f\n",
			confidence*100, spotRisk[i].VaR, spotRisk[i].ExpectedShortfall,
			params.Kind, optionRisk[i].VaR, optionRisk[i].ExpectedShortfall)
	}

	scan := strategy.ScanAround(params.Spot, 0.5, 100)
	coveredCall := strategy.CoveredCall(params.Spot, params.Strike+5,
		pricedCached(store, callAt(params, params.Strike+5)).Price, scan)
	protectivePut := strategy.ProtectivePut(params.Spot, params.Strike-5,
		pricedCached(store, putAt(params, params.Strike-5)).Price, scan)

	curves := make(map[string]strategy.Curve, 2)
	for _, spec := range []strategy.Spec{coveredCall, protectivePut} {
		curve, err := strategy.Evaluate(spec)
		if err != nil {
			log.Fatal(err)
		}
		curves[spec.Name] = curve
	}

	hist, err := dist.Histogram(envInt("BINS", 50))
	if err != nil {
		log.Fatal(err)
	}

	out, err := json.Marshal(report{
		Parameters: params,
		Call:       callRes,
		Put:        putRes,
		MonteCarlo: mcPrice,
		Histogram:  hist,
		SpotRisk:   spotRisk,
		OptionRisk: optionRisk,
		Strategies: curves,
	})
	if err != nil {
		log.Fatalf("Error marshalling report: %v", err)
	}

	f := "report.json"
	if err := os.WriteFile(f, out, 0644); err != nil {
		log.Fatalf("Error writing %s: %v", f, err)
	}
	fmt.Printf("Successfully wrote report to %s\n", f)
}

// analyzeRisk runs every confidence level for both loss transforms across a
// worker pool with a progress bar, one job per (level, transform) pair.
func analyzeRisk(dist simulation.Distribution, params options.Parameters, premium float64) (spot, short []risk.Metrics) {
	type job struct {
		slot       int
		confidence float64
		loss       risk.LossFn
		out        []risk.Metrics
	}

	spot = make([]risk.Metrics, len(confidenceLevels))
	short = make([]risk.Metrics, len(confidenceLevels))

	var jobs []job
	for i, confidence := range confidenceLevels {
		jobs = append(jobs,
			job{slot: i, confidence: confidence, loss: risk.SpotLoss(params.Spot), out: spot},
			job{slot: i, confidence: confidence, loss: risk.ShortOptionLoss(params.Kind, params.Strike, premium), out: short},
		)
	}

	p := mpb.New(mpb.WithWidth(64))
	bar := p.AddBar(int64(len(jobs)),
		mpb.PrependDecorators(
			decor.Name("Risk analysis"),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
		),
	)

	jobChan := make(chan job, len(jobs))
	var wg sync.WaitGroup
	for w := 0; w < runtime.NumCPU(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				metrics, err := risk.Analyze(dist, j.loss, j.confidence)
				if err != nil {
					log.Fatal(err)
				}
				j.out[j.slot] = metrics
				bar.Increment()
			}
		}()
	}
	for _, j := range jobs {
		jobChan <- j
	}
	close(jobChan)
	wg.Wait()
	p.Wait()

	return spot, short
}

// pricedCached routes pricing through the memoization store keyed by the full
// parameter set.
func pricedCached(store *cache.Store, params options.Parameters) pricing.Result {
	key, err := cache.Key("pricing", params)
	if err != nil {
		log.Fatal(err)
	}
	v, err := store.GetOrCompute(key, func() (interface{}, error) {
		res, err := pricing.Price(params)
		if err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		log.Fatal(err)
	}
	return v.(pricing.Result)
}

func withKind(p options.Parameters, kind options.Kind) options.Parameters {
	p.Kind = kind
	return p
}

func callAt(p options.Parameters, strike float64) options.Parameters {
	p.Kind = options.Call
	p.Strike = strike
	return p
}

func putAt(p options.Parameters, strike float64) options.Parameters {
	p.Kind = options.Put
	p.Strike = strike
	return p
}

func envString(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}

func envFloat(name string, fallback float64) float64 {
	v, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("invalid %s %q: %v", name, v, err)
	}
	return f
}

func envInt(name string, fallback int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s %q: %v", name, v, err)
	}
	return n
}
