// Package sweep projects ensemble accuracy, risk and cost across several
// ensemble sizes K, using bootstrap trials to estimate the spread of each
// metric.
package sweep

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/agentsettlement/settlebench/bench"
	"github.com/agentsettlement/settlebench/bench/bootstrap"
	"github.com/agentsettlement/settlebench/bench/stats"
)

// TrialMetrics is the unrounded metric vector of one bootstrap trial.
type TrialMetrics struct {
	Trial                   int     `json:"trial"`
	AccuracyPct             float64 `json:"pass_rate_pct"`
	CriticalFailRatePct     float64 `json:"critical_fail_rate_pct"`
	RiskWeightedFailRatePct float64 `json:"risk_weighted_fail_rate_pct"`
	NoMajorityCases         int     `json:"no_majority_cases"`
	FormatMajorityCases     int     `json:"format_majority_cases"`
	SingleModelAccuracyPct  float64 `json:"single_model_accuracy_pct"`
}

// Row is the aggregated result for one K. Percentages and milliseconds are
// rounded to 1 decimal, case counts to 2 and USD to 6.
type Row struct {
	K                       int `json:"k"`
	BootstrapRuns           int `json:"bootstrap_runs"`
	StrictMajorityThreshold int `json:"strict_majority_threshold"`
	CasesEvaluated          int `json:"cases_evaluated"`

	AccuracyPct            float64 `json:"accuracy_pct"`
	AccuracyStdPct         float64 `json:"accuracy_std_pct"`
	AccuracyP05Pct         float64 `json:"accuracy_p05_pct"`
	AccuracyP50Pct         float64 `json:"accuracy_p50_pct"`
	AccuracyP95Pct         float64 `json:"accuracy_p95_pct"`
	AccuracyDeltaVsBasePct float64 `json:"accuracy_delta_vs_base_pct"`

	CriticalFailRatePct    float64 `json:"critical_fail_rate_pct"`
	CriticalFailRateStdPct float64 `json:"critical_fail_rate_std_pct"`
	CriticalFailRateP05Pct float64 `json:"critical_fail_rate_p05_pct"`
	CriticalFailRateP50Pct float64 `json:"critical_fail_rate_p50_pct"`
	CriticalFailRateP95Pct float64 `json:"critical_fail_rate_p95_pct"`

	RiskWeightedFailRatePct           float64 `json:"risk_weighted_fail_rate_pct"`
	RiskWeightedFailRateStdPct        float64 `json:"risk_weighted_fail_rate_std_pct"`
	RiskWeightedFailRateP05Pct        float64 `json:"risk_weighted_fail_rate_p05_pct"`
	RiskWeightedFailRateP50Pct        float64 `json:"risk_weighted_fail_rate_p50_pct"`
	RiskWeightedFailRateP95Pct        float64 `json:"risk_weighted_fail_rate_p95_pct"`
	RiskWeightedFailImprovementVsBase float64 `json:"risk_weighted_fail_improvement_vs_base_pct"`

	NoMajorityCases        float64 `json:"no_majority_cases"`
	FormatMajorityCases    float64 `json:"format_majority_cases"`
	SingleModelAccuracyPct float64 `json:"single_model_accuracy_pct"`

	EstimatedCostPerCaseUSD   float64 `json:"estimated_cost_per_case_usd"`
	EstimatedTotalCostUSD     float64 `json:"estimated_total_cost_usd"`
	EstimatedLatencyPerCaseMs float64 `json:"estimated_latency_per_case_ms"`
}

// KTrials keeps the per-trial vectors behind one Row.
type KTrials struct {
	K      int            `json:"k"`
	Trials []TrialMetrics `json:"trials"`
}

// Result is the outcome of a sweep.
type Result struct {
	Algorithm           string    `json:"sampling_algorithm"`
	KValues             []int     `json:"k_values"`
	BaselineK           int       `json:"baseline_k"`
	AllowPartial        bool      `json:"allow_partial"`
	BootstrapRuns       int       `json:"bootstrap_runs"`
	Seed                int64     `json:"random_seed"`
	BenchmarkTotalCases int       `json:"benchmark_total_cases"`
	CasesIncluded       int       `json:"cases_included"`
	CostPerCallUSD      float64   `json:"cost_per_call_usd"`
	LatencyPerCallMs    float64   `json:"latency_per_call_ms"`
	Rows                []Row     `json:"rows"`
	Trials              []KTrials `json:"-"`
	Warnings            []string  `json:"warnings,omitempty"`
}

// aggregate holds the unrounded statistics for one K before rounding.
type aggregate struct {
	k        int
	accuracy stats.Distribution
	critical stats.Distribution
	rwFail   stats.Distribution
	noMaj    float64
	fmtMaj   float64
	single   float64
}

// Run executes the sweep. responses maps case id to raw model outputs in
// their original order. Every (K, trial) job is a pure function of
// (cfg.Seed, k, trial, inputs), so cfg.Workers never changes the result.
// Any error aborts the whole sweep; no partial Result is returned.
func Run(ctx context.Context, idx *bench.Index, responses map[string][]string, cfg Config) (*Result, error) {
	c, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	maxK := c.KValues[len(c.KValues)-1]

	pools, err := parsePools(idx, responses)
	if err != nil {
		return nil, err
	}
	included, err := coverage(idx.CaseIDs(), pools, maxK, c.AllowPartial)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Algorithm:           algorithmName(c.BootstrapRuns),
		KValues:             c.KValues,
		BaselineK:           c.KValues[0],
		AllowPartial:        c.AllowPartial,
		BootstrapRuns:       c.BootstrapRuns,
		Seed:                c.Seed,
		BenchmarkTotalCases: idx.Len(),
		CasesIncluded:       len(included),
		CostPerCallUSD:      c.CostPerCallUSD,
		LatencyPerCallMs:    c.LatencyPerCallMs,
	}
	for _, k := range c.KValues {
		if w := bench.EvenKWarning(k); w != "" {
			logrus.Warn(w)
			res.Warnings = append(res.Warnings, w)
		}
	}
	if len(included) < idx.Len() {
		logrus.Infof("partial sweep: %d/%d cases have at least %d responses", len(included), idx.Len(), maxK)
	}

	trials := make([][]TrialMetrics, len(c.KValues))
	for i := range trials {
		trials[i] = make([]TrialMetrics, c.BootstrapRuns)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(c.Workers)
	for ki, k := range c.KValues {
		for t := 0; t < c.BootstrapRuns; t++ {
			ki, k, t := ki, k, t // per-iteration copies (go 1.21 loop semantics)
			g.Go(func() error {
				if err := gCtx.Err(); err != nil {
					return err
				}
				m, err := runTrial(idx, included, pools, c.BootstrapRuns, c.Seed, k, t)
				if err != nil {
					return err
				}
				trials[ki][t] = m
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	aggs := make([]aggregate, len(c.KValues))
	for ki, k := range c.KValues {
		aggs[ki] = aggregateTrials(k, trials[ki])
		res.Trials = append(res.Trials, KTrials{K: k, Trials: trials[ki]})
		logrus.Debugf("K=%d: accuracy mean %.3f over %d trials", k, aggs[ki].accuracy.Mean, c.BootstrapRuns)
	}
	res.Rows = buildRows(aggs, len(included), c)
	return res, nil
}

func algorithmName(runs int) string {
	if runs == 1 {
		return "first-k"
	}
	return bootstrap.AlgorithmVersion
}

// parsePools parses every response once up front. Unknown case ids are an
// integrity error.
func parsePools(idx *bench.Index, responses map[string][]string) (map[string][]bench.ParsedOutput, error) {
	ids := make([]string, 0, len(responses))
	for id := range responses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	pools := make(map[string][]bench.ParsedOutput, len(responses))
	for _, id := range ids {
		if _, ok := idx.Lookup(id); !ok {
			return nil, fmt.Errorf("%w: unknown case_id in responses: %s", bench.ErrIntegrity, id)
		}
		raw := responses[id]
		parsed := make([]bench.ParsedOutput, len(raw))
		for i, text := range raw {
			parsed[i] = bench.ParseResponse(text)
		}
		pools[id] = parsed
	}
	return pools, nil
}

// coverage returns the cases (in benchmark order) that hold at least maxK
// responses. Without allowPartial any shortfall aborts the run.
func coverage(caseIDs []string, pools map[string][]bench.ParsedOutput, maxK int, allowPartial bool) ([]string, error) {
	included := make([]string, 0, len(caseIDs))
	for _, id := range caseIDs {
		n := len(pools[id])
		if n >= maxK {
			included = append(included, id)
			continue
		}
		if !allowPartial {
			return nil, fmt.Errorf("%w: insufficient responses for %s: need at least %d, found %d",
				bench.ErrCoverage, id, maxK, n)
		}
	}
	if len(included) == 0 {
		return nil, fmt.Errorf("%w: no case has enough responses for max K=%d; use a larger input or lower k-values",
			bench.ErrCoverage, maxK)
	}
	return included, nil
}

// runTrial samples k responses per included case, votes, and tallies the
// trial. Cases are visited in benchmark order so the shared stream is
// consumed identically on every run.
func runTrial(idx *bench.Index, included []string, pools map[string][]bench.ParsedOutput,
	runs int, seed int64, k, trial int) (TrialMetrics, error) {
	sampler := bootstrap.ForTrial[bench.ParsedOutput](runs, seed, k, trial)

	ensembleRows := make([]bench.ScoredRow, 0, len(included))
	singleRows := make([]bench.ScoredRow, 0, len(included)*k)
	m := TrialMetrics{Trial: trial + 1}

	for _, id := range included {
		subset, err := sampler.Sample(id, pools[id])
		if err != nil {
			return TrialMetrics{}, err
		}
		entry, _ := idx.Lookup(id)
		row := bench.VoteCase(entry, subset)
		switch row.MajorityDecision {
		case bench.NoMajority:
			m.NoMajorityCases++
		case bench.FormatError:
			m.FormatMajorityCases++
		}
		ensembleRows = append(ensembleRows, row.ScoredRow())
		for _, p := range subset {
			singleRows = append(singleRows, bench.ScoreResponse(entry, p))
		}
	}

	tally := bench.Tally(ensembleRows)
	m.AccuracyPct = tally.AccuracyPct()
	m.CriticalFailRatePct = tally.CriticalFailRatePct()
	m.RiskWeightedFailRatePct = tally.RiskWeightedFailRatePct()
	m.SingleModelAccuracyPct = bench.Tally(singleRows).AccuracyPct()
	return m, nil
}

func aggregateTrials(k int, trials []TrialMetrics) aggregate {
	acc := make([]float64, len(trials))
	crit := make([]float64, len(trials))
	rw := make([]float64, len(trials))
	noMaj := make([]float64, len(trials))
	fmtMaj := make([]float64, len(trials))
	single := make([]float64, len(trials))
	for i, t := range trials {
		acc[i] = t.AccuracyPct
		crit[i] = t.CriticalFailRatePct
		rw[i] = t.RiskWeightedFailRatePct
		noMaj[i] = float64(t.NoMajorityCases)
		fmtMaj[i] = float64(t.FormatMajorityCases)
		single[i] = t.SingleModelAccuracyPct
	}
	return aggregate{
		k:        k,
		accuracy: stats.NewDistribution(acc),
		critical: stats.NewDistribution(crit),
		rwFail:   stats.NewDistribution(rw),
		noMaj:    stats.Mean(noMaj),
		fmtMaj:   stats.Mean(fmtMaj),
		single:   stats.Mean(single),
	}
}

// buildRows rounds each aggregate at the output boundary and adds the
// baseline deltas (baseline = smallest K) and cost/latency projections.
func buildRows(aggs []aggregate, cases int, c Config) []Row {
	base := aggs[0]
	rows := make([]Row, len(aggs))
	for i, a := range aggs {
		acc := a.accuracy.Rounded(1)
		crit := a.critical.Rounded(1)
		rw := a.rwFail.Rounded(1)

		costPerCase := float64(a.k) * c.CostPerCallUSD
		rows[i] = Row{
			K:                       a.k,
			BootstrapRuns:           c.BootstrapRuns,
			StrictMajorityThreshold: bench.StrictMajorityThreshold(a.k),
			CasesEvaluated:          cases,

			AccuracyPct:            acc.Mean,
			AccuracyStdPct:         acc.StdDev,
			AccuracyP05Pct:         acc.P05,
			AccuracyP50Pct:         acc.P50,
			AccuracyP95Pct:         acc.P95,
			AccuracyDeltaVsBasePct: stats.Round(a.accuracy.Mean-base.accuracy.Mean, 1),

			CriticalFailRatePct:    crit.Mean,
			CriticalFailRateStdPct: crit.StdDev,
			CriticalFailRateP05Pct: crit.P05,
			CriticalFailRateP50Pct: crit.P50,
			CriticalFailRateP95Pct: crit.P95,

			RiskWeightedFailRatePct:           rw.Mean,
			RiskWeightedFailRateStdPct:        rw.StdDev,
			RiskWeightedFailRateP05Pct:        rw.P05,
			RiskWeightedFailRateP50Pct:        rw.P50,
			RiskWeightedFailRateP95Pct:        rw.P95,
			RiskWeightedFailImprovementVsBase: stats.Round(base.rwFail.Mean-a.rwFail.Mean, 1),

			NoMajorityCases:        stats.Round(a.noMaj, 2),
			FormatMajorityCases:    stats.Round(a.fmtMaj, 2),
			SingleModelAccuracyPct: stats.Round(a.single, 1),

			EstimatedCostPerCaseUSD:   stats.Round(costPerCase, 6),
			EstimatedTotalCostUSD:     stats.Round(float64(cases)*costPerCase, 6),
			EstimatedLatencyPerCaseMs: stats.Round(float64(a.k)*c.LatencyPerCallMs, 1),
		}
	}
	return rows
}
