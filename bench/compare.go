package bench

import (
	"fmt"
	"math"
	"sort"

	"github.com/agentsettlement/settlebench/bench/stats"
)

// RunSummary is the subset of a results_summary.json that ranking reads.
// RunID names the run directory.
type RunSummary struct {
	RunID                   string  `json:"run_id"`
	Model                   string  `json:"model"`
	RunType                 string  `json:"run_type"`
	ValidForLeaderboard     bool    `json:"valid_for_leaderboard"`
	CasesEvaluated          int     `json:"cases_evaluated"`
	BenchmarkTotalCases     int     `json:"benchmark_total_cases"`
	BenchmarkCoveragePct    float64 `json:"benchmark_coverage_pct"`
	PassRatePct             float64 `json:"pass_rate_pct"`
	CriticalFailRatePct     float64 `json:"critical_fail_rate_pct"`
	RiskWeightedFailRatePct float64 `json:"risk_weighted_fail_rate_pct"`
}

// Run types that ranking treats specially.
const (
	RunTypeModelRawOutput = "model_raw_output"
	RunTypeManualSample   = "manual_sample"
)

// Comparison splits runs into the leaderboard and everything else, each
// ranked by SortRuns.
type Comparison struct {
	Leaderboard []RunSummary `json:"leaderboard"`
	Reference   []RunSummary `json:"reference"`
}

// IsLeaderboardRun reports whether r is a raw model run flagged valid with
// full benchmark coverage.
func IsLeaderboardRun(r RunSummary) bool {
	return r.RunType == RunTypeModelRawOutput && r.ValidForLeaderboard && r.BenchmarkCoveragePct == 100
}

// SortRuns orders runs by risk-weighted fail rate ascending, then pass rate
// descending. Remaining ties keep input order. runs is not modified.
func SortRuns(runs []RunSummary) []RunSummary {
	out := make([]RunSummary, len(runs))
	copy(out, runs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RiskWeightedFailRatePct != out[j].RiskWeightedFailRatePct {
			return out[i].RiskWeightedFailRatePct < out[j].RiskWeightedFailRatePct
		}
		return out[i].PassRatePct > out[j].PassRatePct
	})
	return out
}

// ValidateRuns checks that every manual_sample run was scored against the
// current benchmark size and reports a coverage that matches its case count
// within 0.1 points.
func ValidateRuns(runs []RunSummary, benchmarkTotal int) error {
	for _, r := range runs {
		if r.RunType != RunTypeManualSample {
			continue
		}
		if r.BenchmarkTotalCases != benchmarkTotal {
			return fmt.Errorf("%w: manual_sample %q must use benchmark_total_cases=%d, found %d",
				ErrIntegrity, r.RunID, benchmarkTotal, r.BenchmarkTotalCases)
		}
		want := stats.Round(stats.Percent(float64(r.CasesEvaluated), float64(benchmarkTotal)), 1)
		if math.Abs(r.BenchmarkCoveragePct-want) > 0.1 {
			return fmt.Errorf("%w: manual_sample %q has invalid benchmark_coverage_pct (expected %.1f, found %v)",
				ErrIntegrity, r.RunID, want, r.BenchmarkCoveragePct)
		}
	}
	return nil
}

// Compare validates runs and ranks them into a Comparison. An empty input is
// a coverage error.
func Compare(runs []RunSummary, benchmarkTotal int) (*Comparison, error) {
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no run summaries to compare", ErrCoverage)
	}
	if err := ValidateRuns(runs, benchmarkTotal); err != nil {
		return nil, err
	}
	leaderboard := make([]RunSummary, 0, len(runs))
	reference := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		if IsLeaderboardRun(r) {
			leaderboard = append(leaderboard, r)
		} else {
			reference = append(reference, r)
		}
	}
	return &Comparison{Leaderboard: SortRuns(leaderboard), Reference: SortRuns(reference)}, nil
}
