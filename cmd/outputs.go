package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/agentsettlement/settlebench/bench"
	"github.com/agentsettlement/settlebench/bench/sweep"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Run types recorded in summaries. Only raw model output is leaderboard
// material; the others are graded by hand or aggregated.
const (
	runTypeModelRawOutput = bench.RunTypeModelRawOutput
	runTypeJudgment       = "rubric_judgment"
	runTypeManualSample   = bench.RunTypeManualSample
	runTypeEnsemble       = "ensemble_majority_vote"
)

// runSummary is the results_summary.json payload.
type runSummary struct {
	Model               string `json:"model"`
	RunType             string `json:"run_type"`
	ValidForLeaderboard bool   `json:"valid_for_leaderboard"`
	bench.Summary
}

func newRunSummary(runType string, s bench.Summary) runSummary {
	return runSummary{
		Model:               summaryModel(),
		RunType:             runType,
		ValidForLeaderboard: runType == runTypeModelRawOutput,
		Summary:             s,
	}
}

// ensembleSummary is the ensemble_summary.json payload.
type ensembleSummary struct {
	runSummary
	EnsembleK                          int      `json:"ensemble_k"`
	StrictMajorityThreshold            int      `json:"strict_majority_threshold"`
	SingleModelAccuracyPct             float64  `json:"single_model_accuracy_pct"`
	SingleModelRiskWeightedFailRatePct float64  `json:"single_model_risk_weighted_fail_rate_pct"`
	AccuracyImprovementPct             float64  `json:"accuracy_improvement_pct"`
	RiskWeightedFailImprovementPct     float64  `json:"risk_weighted_fail_improvement_pct"`
	NoMajorityCases                    int      `json:"no_majority_cases"`
	FormatMajorityCases                int      `json:"format_majority_cases"`
	Warnings                           []string `json:"warnings,omitempty"`
}

func newEnsembleSummary(r *bench.EnsembleReport) ensembleSummary {
	return ensembleSummary{
		runSummary:                         newRunSummary(runTypeEnsemble, r.Summary),
		EnsembleK:                          r.K,
		StrictMajorityThreshold:            r.StrictMajorityThreshold,
		SingleModelAccuracyPct:             r.Single.PassRatePct,
		SingleModelRiskWeightedFailRatePct: r.Single.RiskWeightedFailRatePct,
		AccuracyImprovementPct:             r.AccuracyDeltaPct,
		RiskWeightedFailImprovementPct:     r.RiskImprovementPct,
		NoMajorityCases:                    r.NoMajorityCases,
		FormatMajorityCases:                r.FormatMajorityCases,
		Warnings:                           r.Warnings,
	}
}

// sweepPayload is the ensemble_k_sweep.json payload.
type sweepPayload struct {
	Model string `json:"model"`
	Input string `json:"input"`
	*sweep.Result
}

// kAggregate is the k<K>/aggregate_summary.json payload.
type kAggregate struct {
	sweep.Row
	Trials []sweep.TrialMetrics `json:"trials"`
}

// writeJSON writes v as indented JSON with a trailing newline, creating the
// parent directory.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func writeCSV(path string, header []string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.WriteAll(records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeText(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// flag renders a judgment boolean as 1/0.
func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

var responseColumns = []string{
	"case_id", "title", "category", "severity", "expected_decision", "decision",
	"confidence", "primary_reason", "format_ok", "pass_fail", "mistake_type", "format_error",
}

func responseRecords(rows []bench.ScoredRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.CaseID, r.Title, r.Category, r.Severity, string(r.ExpectedDecision), string(r.Decision),
			r.Confidence, r.PrimaryReason, strconv.FormatBool(r.FormatOK), string(r.PassFail), r.MistakeType, r.FormatError,
		})
	}
	return out
}

var judgmentColumns = []string{
	"case_id", "title", "category", "severity", "expected_decision", "decision", "decision_match",
	"format_ok", "req1_met", "req2_met", "req3_met", "af1_triggered", "af2_triggered",
	"pass_fail", "mistake_type", "notes",
}

func judgmentRecords(rows []bench.ScoredRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		j := r.Judgment
		if j == nil {
			j = &bench.Judgment{}
		}
		out = append(out, []string{
			r.CaseID, r.Title, r.Category, r.Severity, string(r.ExpectedDecision), string(r.Decision),
			flag(r.Decision == r.ExpectedDecision),
			flag(r.FormatOK), flag(j.Req1Met), flag(j.Req2Met), flag(j.Req3Met), flag(j.AF1Triggered), flag(j.AF2Triggered),
			string(r.PassFail), r.MistakeType, r.Notes,
		})
	}
	return out
}

var decisionColumns = []string{
	"case_id", "title", "category", "severity", "expected_decision", "decision", "pass_fail", "mistake_type", "notes",
}

func decisionRecords(rows []bench.ScoredRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.CaseID, r.Title, r.Category, r.Severity, string(r.ExpectedDecision), string(r.Decision),
			string(r.PassFail), r.MistakeType, r.Notes,
		})
	}
	return out
}

var ensembleColumns = []string{
	"case_id", "title", "category", "severity", "expected_decision", "majority_decision",
	"k_size", "strict_majority_threshold", "majority_votes", "has_strict_majority",
	"tied_top_decisions", "vote_counts", "pass_fail", "mistake_type",
}

func ensembleRecords(rows []bench.EnsembleRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		tied := make([]string, len(r.TiedTopDecisions))
		for i, d := range r.TiedTopDecisions {
			tied[i] = string(d)
		}
		out = append(out, []string{
			r.CaseID, r.Title, r.Category, r.Severity, string(r.ExpectedDecision), string(r.MajorityDecision),
			strconv.Itoa(r.KSize), strconv.Itoa(r.StrictMajorityThreshold), strconv.Itoa(r.MajorityVotes),
			strconv.FormatBool(r.HasStrictMajority), strings.Join(tied, "|"), r.VoteCounts.String(),
			string(r.PassFail), r.MistakeType,
		})
	}
	return out
}

var sweepColumns = []string{
	"k", "bootstrap_runs", "strict_majority_threshold", "cases_evaluated",
	"accuracy_pct", "accuracy_std_pct", "accuracy_p05_pct", "accuracy_p50_pct", "accuracy_p95_pct", "accuracy_delta_vs_base_pct",
	"critical_fail_rate_pct", "critical_fail_rate_std_pct", "critical_fail_rate_p05_pct", "critical_fail_rate_p50_pct", "critical_fail_rate_p95_pct",
	"risk_weighted_fail_rate_pct", "risk_weighted_fail_rate_std_pct", "risk_weighted_fail_rate_p05_pct",
	"risk_weighted_fail_rate_p50_pct", "risk_weighted_fail_rate_p95_pct", "risk_weighted_fail_improvement_vs_base_pct",
	"no_majority_cases", "format_majority_cases", "single_model_accuracy_pct",
	"estimated_cost_per_case_usd", "estimated_total_cost_usd", "estimated_latency_per_case_ms",
	"summary_path",
}

// kSummaryPath is the per-K aggregate file, relative to the output directory.
func kSummaryPath(k int) string {
	return filepath.Join(fmt.Sprintf("k%d", k), "aggregate_summary.json")
}

func sweepRecords(rows []sweep.Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			strconv.Itoa(r.K), strconv.Itoa(r.BootstrapRuns), strconv.Itoa(r.StrictMajorityThreshold), strconv.Itoa(r.CasesEvaluated),
			formatFloat(r.AccuracyPct), formatFloat(r.AccuracyStdPct), formatFloat(r.AccuracyP05Pct),
			formatFloat(r.AccuracyP50Pct), formatFloat(r.AccuracyP95Pct), formatFloat(r.AccuracyDeltaVsBasePct),
			formatFloat(r.CriticalFailRatePct), formatFloat(r.CriticalFailRateStdPct), formatFloat(r.CriticalFailRateP05Pct),
			formatFloat(r.CriticalFailRateP50Pct), formatFloat(r.CriticalFailRateP95Pct),
			formatFloat(r.RiskWeightedFailRatePct), formatFloat(r.RiskWeightedFailRateStdPct), formatFloat(r.RiskWeightedFailRateP05Pct),
			formatFloat(r.RiskWeightedFailRateP50Pct), formatFloat(r.RiskWeightedFailRateP95Pct), formatFloat(r.RiskWeightedFailImprovementVsBase),
			formatFloat(r.NoMajorityCases), formatFloat(r.FormatMajorityCases), formatFloat(r.SingleModelAccuracyPct),
			formatFloat(r.EstimatedCostPerCaseUSD), formatFloat(r.EstimatedTotalCostUSD), formatFloat(r.EstimatedLatencyPerCaseMs),
			kSummaryPath(r.K),
		})
	}
	return out
}

// summaryMarkdown renders the human-readable companion of a summary JSON.
func summaryMarkdown(title string, s runSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- Model: %s\n", s.Model)
	fmt.Fprintf(&b, "- Coverage: %d/%d (%.1f%%)\n", s.CasesEvaluated, s.BenchmarkTotalCases, s.BenchmarkCoveragePct)
	fmt.Fprintf(&b, "- Accuracy: %.1f%%\n", s.PassRatePct)
	fmt.Fprintf(&b, "- Critical Fail Rate: %.1f%%\n", s.CriticalFailRatePct)
	fmt.Fprintf(&b, "- Risk-Weighted Fail Rate: %.1f%%\n\n", s.RiskWeightedFailRatePct)
	b.WriteString("- Formula: sum(weight x fail) / sum(weight), weights: low=1 medium=3 high=7 critical=10\n\n")
	b.WriteString("| category | total | pass | fail | pass_rate |\n")
	b.WriteString("|---|---:|---:|---:|---:|\n")
	for _, row := range s.ByCategory {
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %.1f%% |\n", row.Key, row.Total, row.Pass, row.Fail, row.PassRatePct)
	}
	if len(s.FailMistakes) > 0 {
		b.WriteString("\n| mistake_type | count |\n|---|---:|\n")
		for _, m := range s.FailMistakes {
			fmt.Fprintf(&b, "| %s | %d |\n", m.MistakeType, m.Count)
		}
	}
	return b.String()
}

// sweepMarkdown renders ensemble_k_sweep.md.
func sweepMarkdown(p sweepPayload) string {
	var b strings.Builder
	b.WriteString("# Ensemble K Sweep\n\n")
	fmt.Fprintf(&b, "- Model: %s\n", p.Model)
	fmt.Fprintf(&b, "- Sampling: %s, %d run(s) per K, seed %d\n", p.Algorithm, p.BootstrapRuns, p.Seed)
	fmt.Fprintf(&b, "- Cases: %d/%d\n", p.CasesIncluded, p.BenchmarkTotalCases)
	fmt.Fprintf(&b, "- Delta columns are relative to K=%d. Positive risk improvement means lower risk-weighted fail rate.\n\n", p.BaselineK)
	b.WriteString("| K | accuracy | Δ acc | critical fail | risk-weighted fail | Δ risk | no majority | cost/case USD | latency/case ms |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|---:|---:|---:|\n")
	for _, r := range p.Rows {
		fmt.Fprintf(&b, "| %d | %.1f%% | %+.1f | %.1f%% | %.1f%% | %+.1f | %.2f | %s | %.1f |\n",
			r.K, r.AccuracyPct, r.AccuracyDeltaVsBasePct, r.CriticalFailRatePct, r.RiskWeightedFailRatePct,
			r.RiskWeightedFailImprovementVsBase, r.NoMajorityCases, formatFloat(r.EstimatedCostPerCaseUSD), r.EstimatedLatencyPerCaseMs)
	}
	return b.String()
}

// printSummary writes a short colored digest for the terminal.
func printSummary(w io.Writer, title string, s bench.Summary) {
	fmt.Fprintf(w, "%s\n", bold(title))
	fmt.Fprintf(w, "  cases       %d (%s / %s)\n", s.CasesEvaluated, green(fmt.Sprintf("%d PASS", s.Pass)), red(fmt.Sprintf("%d FAIL", s.Fail)))
	fmt.Fprintf(w, "  accuracy    %.1f%%\n", s.PassRatePct)
	critical := fmt.Sprintf("%.1f%%", s.CriticalFailRatePct)
	if s.CriticalFailCount > 0 {
		critical = red(critical)
	}
	fmt.Fprintf(w, "  critical    %s of %d critical cases failed\n", critical, s.CriticalCasesEvaluated)
	fmt.Fprintf(w, "  risk fail   %s (weighted %d/%d)\n",
		yellow(fmt.Sprintf("%.1f%%", s.RiskWeightedFailRatePct)), s.RiskWeightedFailNumerator, s.RiskWeightedTotalDenominator)
}
