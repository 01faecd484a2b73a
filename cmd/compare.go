package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agentsettlement/settlebench/bench"
)

var compareRunsDir string

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Rank run summaries into a model comparison",
	Long: "Reads <runs>/<run_id>/results_summary.json (plus an optional run_meta.json that overrides its fields) " +
		"and writes model_comparison.{json,md}. Only full-coverage raw model runs reach the leaderboard.",
	Run: func(cmd *cobra.Command, args []string) {
		cmp, err := runCompare(sharedInputs(), compareRunsDir)
		if err != nil {
			logrus.Fatalf("Comparison failed: %v", err)
		}
		for i, r := range cmp.Leaderboard {
			fmt.Fprintf(os.Stdout, "%2d. %-24s %s  risk fail %.1f%%  accuracy %.1f%%\n",
				i+1, r.RunID, bold(r.Model), r.RiskWeightedFailRatePct, r.PassRatePct)
		}
		if len(cmp.Leaderboard) == 0 {
			fmt.Fprintln(os.Stdout, yellow("No valid full-coverage model runs yet."))
		}
	},
}

// runCompare ranks every run under runsDir against the benchmark size and
// writes model_comparison.json and model_comparison.md into the output
// directory.
func runCompare(in scoringInputs, runsDir string) (*bench.Comparison, error) {
	cases, err := readCases(in.Benchmark)
	if err != nil {
		return nil, err
	}
	runs, err := discoverRuns(runsDir)
	if err != nil {
		return nil, err
	}
	cmp, err := bench.Compare(runs, len(cases))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", runsDir, err)
	}
	if err := writeJSON(filepath.Join(in.OutDir, "model_comparison.json"), cmp); err != nil {
		return nil, err
	}
	if err := writeText(filepath.Join(in.OutDir, "model_comparison.md"), comparisonMarkdown(cmp)); err != nil {
		return nil, err
	}
	logrus.Infof("ranked %d leaderboard and %d reference runs", len(cmp.Leaderboard), len(cmp.Reference))
	return cmp, nil
}

// discoverRuns loads one RunSummary per sub-directory of dir that holds a
// results_summary.json, in directory-name order. A missing dir yields no
// runs.
func discoverRuns(dir string) ([]bench.RunSummary, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading runs directory: %w", err)
	}
	runs := make([]bench.RunSummary, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		summaryPath := filepath.Join(dir, e.Name(), "results_summary.json")
		if _, err := os.Stat(summaryPath); err != nil {
			logrus.Debugf("skipping %s: no results_summary.json", e.Name())
			continue
		}
		run := bench.RunSummary{RunID: e.Name()}
		if err := decodeInto(summaryPath, &run); err != nil {
			return nil, err
		}
		metaPath := filepath.Join(dir, e.Name(), "run_meta.json")
		if _, err := os.Stat(metaPath); err == nil {
			if err := decodeInto(metaPath, &run); err != nil {
				return nil, err
			}
		}
		if run.RunID == "" {
			run.RunID = e.Name()
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// decodeInto unmarshals the JSON file at path over v; absent keys keep their
// current values.
func decodeInto(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// comparisonMarkdown renders model_comparison.md.
func comparisonMarkdown(c *bench.Comparison) string {
	var b strings.Builder
	b.WriteString("# Model Comparison\n\n")
	b.WriteString("Metrics:\n")
	b.WriteString("- `Accuracy` = pass_rate_pct\n")
	b.WriteString("- `Critical Fail Rate` = critical_fail_rate_pct\n")
	b.WriteString("- `Risk-Weighted Fail Rate` = sum(weight x fail) / sum(weight), weights: low=1 medium=3 high=7 critical=10\n\n")
	b.WriteString("## Leaderboard (Valid Model Runs)\n")
	if len(c.Leaderboard) == 0 {
		b.WriteString("No valid full-coverage model runs yet.\n")
	} else {
		writeRunTable(&b, c.Leaderboard)
	}
	b.WriteString("\n## Reference Runs (Not Leaderboard Eligible)\n")
	if len(c.Reference) == 0 {
		b.WriteString("None.\n")
	} else {
		writeRunTable(&b, c.Reference)
	}
	return b.String()
}

func writeRunTable(b *strings.Builder, runs []bench.RunSummary) {
	b.WriteString("| Run ID | Model | Cases | Accuracy | Critical Fail Rate | Risk-Weighted Fail Rate |\n")
	b.WriteString("|---|---|---:|---:|---:|---:|\n")
	for _, r := range runs {
		fmt.Fprintf(b, "| %s | %s | %d/%d | %.1f%% | %.1f%% | %.1f%% |\n",
			r.RunID, r.Model, r.CasesEvaluated, r.BenchmarkTotalCases,
			r.PassRatePct, r.CriticalFailRatePct, r.RiskWeightedFailRatePct)
	}
}

func init() {
	compareCmd.Flags().StringVar(&compareRunsDir, "runs", "eval/runs", "Directory with one sub-directory per run holding results_summary.json")
	rootCmd.AddCommand(compareCmd)
}
