package cmd

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agentsettlement/settlebench/bench"
)

// scoringInputs carries the persistent flags into the run functions so
// tests can call them without cobra.
type scoringInputs struct {
	Benchmark    string
	Rubric       string
	GroundTruth  string
	OutDir       string
	AllowPartial bool
}

func sharedInputs() scoringInputs {
	return scoringInputs{
		Benchmark:    benchmarkPath,
		Rubric:       rubricPath,
		GroundTruth:  groundTruthPath,
		OutDir:       outDir,
		AllowPartial: allowPartial,
	}
}

func (in scoringInputs) index() (*bench.Index, error) {
	return loadIndex(in.Benchmark, in.Rubric, in.GroundTruth)
}

// writeScoredRun writes results_scored.csv, results_summary.json and
// results_summary.md. Called only after scoring succeeded.
func writeScoredRun(dir string, header []string, records [][]string, summary runSummary, title string) error {
	if err := writeCSV(filepath.Join(dir, "results_scored.csv"), header, records); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "results_summary.json"), summary); err != nil {
		return err
	}
	return writeText(filepath.Join(dir, "results_summary.md"), summaryMarkdown(title, summary))
}

// --- settlebench score ---

var responsesPath string

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one raw model response per case",
	Run: func(cmd *cobra.Command, args []string) {
		summary, err := runScore(sharedInputs(), responsesPath)
		if err != nil {
			logrus.Fatalf("Scoring failed: %v", err)
		}
		printSummary(os.Stdout, "Model run", summary.Summary)
	},
}

func runScore(in scoringInputs, responses string) (runSummary, error) {
	idx, err := in.index()
	if err != nil {
		return runSummary{}, err
	}
	records, err := readResponses(responses)
	if err != nil {
		return runSummary{}, err
	}
	rows, err := bench.ScoreResponses(idx, records, in.AllowPartial)
	if err != nil {
		return runSummary{}, err
	}
	summary := newRunSummary(runTypeModelRawOutput, bench.WithCoverage(bench.Aggregate(rows), idx.Len()))
	if err := writeScoredRun(in.OutDir, responseColumns, responseRecords(rows), summary, "Model Run Summary"); err != nil {
		return runSummary{}, err
	}
	logrus.Infof("scored %d/%d cases into %s", len(rows), idx.Len(), in.OutDir)
	return summary, nil
}

// --- settlebench judge ---

var judgmentsPath string

var judgeCmd = &cobra.Command{
	Use:   "judge",
	Short: "Score a rubric judgment sheet (CSV)",
	Run: func(cmd *cobra.Command, args []string) {
		summary, err := runJudge(sharedInputs(), judgmentsPath)
		if err != nil {
			logrus.Fatalf("Judgment scoring failed: %v", err)
		}
		printSummary(os.Stdout, "Rubric judgment", summary.Summary)
	},
}

func runJudge(in scoringInputs, judgments string) (runSummary, error) {
	idx, err := in.index()
	if err != nil {
		return runSummary{}, err
	}
	sheet, err := readJudgments(judgments)
	if err != nil {
		return runSummary{}, err
	}
	rows, err := bench.ScoreJudgments(idx, sheet, in.AllowPartial)
	if err != nil {
		return runSummary{}, err
	}
	summary := newRunSummary(runTypeJudgment, bench.WithCoverage(bench.Aggregate(rows), idx.Len()))
	if err := writeScoredRun(in.OutDir, judgmentColumns, judgmentRecords(rows), summary, "Rubric Judgment Summary"); err != nil {
		return runSummary{}, err
	}
	return summary, nil
}

// --- settlebench decisions ---

var decisionsPath string

var decisionsCmd = &cobra.Command{
	Use:   "decisions",
	Short: "Score a decisions-only run (JSON array/map or CSV)",
	Run: func(cmd *cobra.Command, args []string) {
		summary, err := runDecisions(sharedInputs(), decisionsPath)
		if err != nil {
			logrus.Fatalf("Decision scoring failed: %v", err)
		}
		printSummary(os.Stdout, "Manual decisions", summary.Summary)
	},
}

func runDecisions(in scoringInputs, decisions string) (runSummary, error) {
	idx, err := in.index()
	if err != nil {
		return runSummary{}, err
	}
	records, err := readDecisions(decisions)
	if err != nil {
		return runSummary{}, err
	}
	rows, err := bench.ScoreDecisions(idx, records, in.AllowPartial)
	if err != nil {
		return runSummary{}, err
	}
	summary := newRunSummary(runTypeManualSample, bench.WithCoverage(bench.Aggregate(rows), idx.Len()))
	if err := writeScoredRun(in.OutDir, decisionColumns, decisionRecords(rows), summary, "Manual Decisions Summary"); err != nil {
		return runSummary{}, err
	}
	return summary, nil
}

func init() {
	scoreCmd.Flags().StringVar(&responsesPath, "responses", "eval/responses.jsonl", "Path to responses JSONL (case_id, model_output)")
	judgeCmd.Flags().StringVar(&judgmentsPath, "judgments", "eval/judgments.csv", "Path to judgment sheet CSV")
	decisionsCmd.Flags().StringVar(&decisionsPath, "decisions", "", "Path to decisions JSON or CSV")
	_ = decisionsCmd.MarkFlagRequired("decisions")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(judgeCmd)
	rootCmd.AddCommand(decisionsCmd)
}
