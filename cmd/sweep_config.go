package cmd

import (
	"github.com/agentsettlement/settlebench/bench/sweep"
)

// Sweep flags. They override the YAML config only when set explicitly.
var (
	sweepConfigPath       string
	sweepKValues          string
	sweepBootstrapRuns    int
	sweepSeed             int64
	sweepCostPerCallUSD   float64
	sweepLatencyPerCallMs float64
	sweepWorkers          int
)

// sweepFlagValues is a snapshot of the sweep flags.
type sweepFlagValues struct {
	ConfigPath       string
	KValues          string
	BootstrapRuns    int
	Seed             int64
	CostPerCallUSD   float64
	LatencyPerCallMs float64
	Workers          int
	AllowPartial     bool
}

func currentSweepFlags() sweepFlagValues {
	return sweepFlagValues{
		ConfigPath:       sweepConfigPath,
		KValues:          sweepKValues,
		BootstrapRuns:    sweepBootstrapRuns,
		Seed:             sweepSeed,
		CostPerCallUSD:   sweepCostPerCallUSD,
		LatencyPerCallMs: sweepLatencyPerCallMs,
		Workers:          sweepWorkers,
		AllowPartial:     allowPartial,
	}
}

// resolveSweepConfig starts from the YAML file (or defaults) and applies
// every flag for which changed reports true. Without a config file the flag
// values are used as given. --allow-partial can only turn partial mode on.
func resolveSweepConfig(v sweepFlagValues, changed func(name string) bool) (sweep.Config, error) {
	cfg := sweep.DefaultConfig()
	fromFile := v.ConfigPath != ""
	if fromFile {
		loaded, err := sweep.LoadConfig(v.ConfigPath)
		if err != nil {
			return sweep.Config{}, err
		}
		cfg = *loaded
	}
	use := func(name string) bool { return !fromFile || changed(name) }

	if use("k-values") {
		ks, err := sweep.ParseKValues(v.KValues)
		if err != nil {
			return sweep.Config{}, err
		}
		cfg.KValues = ks
	}
	if use("bootstrap-runs") {
		cfg.BootstrapRuns = v.BootstrapRuns
	}
	if use("seed") {
		cfg.Seed = v.Seed
	}
	if use("cost-per-call-usd") {
		cfg.CostPerCallUSD = v.CostPerCallUSD
	}
	if use("latency-per-call-ms") {
		cfg.LatencyPerCallMs = v.LatencyPerCallMs
	}
	if use("workers") {
		cfg.Workers = v.Workers
	}
	if v.AllowPartial {
		cfg.AllowPartial = true
	}
	if err := cfg.Validate(); err != nil {
		return sweep.Config{}, err
	}
	return cfg, nil
}
