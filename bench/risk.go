package bench

import (
	"sort"

	"github.com/agentsettlement/settlebench/bench/stats"
)

// BreakdownRow is one bucket of a by_category or by_severity table.
type BreakdownRow struct {
	Key         string  `json:"key"`
	Total       int     `json:"total"`
	Pass        int     `json:"pass"`
	Fail        int     `json:"fail"`
	PassRatePct float64 `json:"pass_rate_pct"`
}

// MistakeCount is one entry of the failure-mode histogram.
type MistakeCount struct {
	MistakeType string `json:"mistake_type"`
	Count       int    `json:"count"`
}

// Summary is the severity-weighted view of a list of scored rows.
// Percentages are rounded to one decimal.
type Summary struct {
	CasesEvaluated               int            `json:"cases_evaluated"`
	BenchmarkTotalCases          int            `json:"benchmark_total_cases,omitempty"`
	BenchmarkCoveragePct         float64        `json:"benchmark_coverage_pct,omitempty"`
	Pass                         int            `json:"pass"`
	Fail                         int            `json:"fail"`
	PassRatePct                  float64        `json:"pass_rate_pct"`
	CriticalCasesEvaluated       int            `json:"critical_cases_evaluated"`
	CriticalFailCount            int            `json:"critical_fail_count"`
	CriticalFailRatePct          float64        `json:"critical_fail_rate_pct"`
	RiskWeights                  map[string]int `json:"risk_weights"`
	RiskWeightedFailNumerator    int            `json:"risk_weighted_fail_numerator"`
	RiskWeightedTotalDenominator int            `json:"risk_weighted_total_denominator"`
	RiskWeightedFailRatePct      float64        `json:"risk_weighted_fail_rate_pct"`
	RiskWeightedAccuracyPct      float64        `json:"risk_weighted_accuracy_pct"`
	ByCategory                   []BreakdownRow `json:"by_category"`
	BySeverity                   []BreakdownRow `json:"by_severity"`
	FailMistakes                 []MistakeCount `json:"fail_mistakes"`
}

// RiskTally holds the raw counters behind a Summary. Callers that average
// over many tallies (the bootstrap sweep) use its unrounded rates.
type RiskTally struct {
	Total          int
	Pass           int
	CriticalTotal  int
	CriticalFail   int
	WeightedFail   int
	WeightedTotal  int
	categories     *bucketSet
	severities     *bucketSet
	mistakeOrder   []string
	mistakeCounter map[string]int
}

// AccuracyPct is the unrounded pass rate.
func (t RiskTally) AccuracyPct() float64 {
	return stats.Percent(float64(t.Pass), float64(t.Total))
}

// CriticalFailRatePct is the unrounded fail rate over critical rows.
func (t RiskTally) CriticalFailRatePct() float64 {
	return stats.Percent(float64(t.CriticalFail), float64(t.CriticalTotal))
}

// RiskWeightedFailRatePct is the unrounded severity-weighted fail rate.
func (t RiskTally) RiskWeightedFailRatePct() float64 {
	return stats.Percent(float64(t.WeightedFail), float64(t.WeightedTotal))
}

type bucket struct{ total, pass int }

// bucketSet is a string-keyed counter table.
type bucketSet struct {
	counts map[string]*bucket
}

func newBucketSet() *bucketSet {
	return &bucketSet{counts: make(map[string]*bucket)}
}

func (s *bucketSet) add(key string, passed bool) {
	b, ok := s.counts[key]
	if !ok {
		b = &bucket{}
		s.counts[key] = b
	}
	b.total++
	if passed {
		b.pass++
	}
}

func (s *bucketSet) rows() []BreakdownRow {
	keys := make([]string, 0, len(s.counts))
	for k := range s.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([]BreakdownRow, 0, len(keys))
	for _, k := range keys {
		b := s.counts[k]
		rows = append(rows, BreakdownRow{
			Key:         k,
			Total:       b.total,
			Pass:        b.pass,
			Fail:        b.total - b.pass,
			PassRatePct: stats.Round(stats.Percent(float64(b.pass), float64(b.total)), 1),
		})
	}
	return rows
}

// Tally folds rows into raw counters without rounding.
func Tally(rows []ScoredRow) RiskTally {
	t := RiskTally{
		categories:     newBucketSet(),
		severities:     newBucketSet(),
		mistakeCounter: make(map[string]int),
	}
	for _, row := range rows {
		passed := row.Passed()
		t.Total++
		if passed {
			t.Pass++
		}
		t.categories.add(row.Category, passed)
		t.severities.add(row.Severity, passed)

		w := Weight(row.Severity)
		t.WeightedTotal += w
		if !passed {
			t.WeightedFail += w
			mistake := row.MistakeType
			if mistake == "" {
				mistake = "unknown"
			}
			if _, seen := t.mistakeCounter[mistake]; !seen {
				t.mistakeOrder = append(t.mistakeOrder, mistake)
			}
			t.mistakeCounter[mistake]++
		}
		if row.Severity == SeverityCritical {
			t.CriticalTotal++
			if !passed {
				t.CriticalFail++
			}
		}
	}
	return t
}

// Aggregate builds the rounded Summary for rows. Safe for empty input.
func Aggregate(rows []ScoredRow) Summary {
	return Tally(rows).Summary()
}

// Summary renders the tally with percentages rounded to one decimal.
func (t RiskTally) Summary() Summary {
	rwFail := stats.Round(t.RiskWeightedFailRatePct(), 1)

	mistakes := make([]MistakeCount, 0, len(t.mistakeOrder))
	for _, m := range t.mistakeOrder {
		mistakes = append(mistakes, MistakeCount{MistakeType: m, Count: t.mistakeCounter[m]})
	}
	// Stable: equal counts keep first-seen order.
	sort.SliceStable(mistakes, func(i, j int) bool { return mistakes[i].Count > mistakes[j].Count })

	weights := make(map[string]int, len(SeverityWeights))
	for k, v := range SeverityWeights {
		weights[k] = v
	}

	s := Summary{
		CasesEvaluated:               t.Total,
		Pass:                         t.Pass,
		Fail:                         t.Total - t.Pass,
		PassRatePct:                  stats.Round(t.AccuracyPct(), 1),
		CriticalCasesEvaluated:       t.CriticalTotal,
		CriticalFailCount:            t.CriticalFail,
		CriticalFailRatePct:          stats.Round(t.CriticalFailRatePct(), 1),
		RiskWeights:                  weights,
		RiskWeightedFailNumerator:    t.WeightedFail,
		RiskWeightedTotalDenominator: t.WeightedTotal,
		RiskWeightedFailRatePct:      rwFail,
		RiskWeightedAccuracyPct:      stats.Round(100-rwFail, 1),
		FailMistakes:                 mistakes,
	}
	if t.categories != nil {
		s.ByCategory = t.categories.rows()
		s.BySeverity = t.severities.rows()
	} else {
		s.ByCategory = []BreakdownRow{}
		s.BySeverity = []BreakdownRow{}
	}
	return s
}

// WithCoverage returns s annotated with the benchmark size and the share of
// it that was evaluated.
func WithCoverage(s Summary, benchmarkTotal int) Summary {
	s.BenchmarkTotalCases = benchmarkTotal
	s.BenchmarkCoveragePct = stats.Round(stats.Percent(float64(s.CasesEvaluated), float64(benchmarkTotal)), 1)
	return s
}
