package cmd

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agentsettlement/settlebench/bench"
)

var (
	ensembleResponsesPath string
	ensembleK             int
)

var ensembleCmd = &cobra.Command{
	Use:   "ensemble",
	Short: "Score K responses per case by strict-majority vote",
	Run: func(cmd *cobra.Command, args []string) {
		report, err := runEnsemble(sharedInputs(), ensembleResponsesPath, ensembleK)
		if err != nil {
			logrus.Fatalf("Ensemble scoring failed: %v", err)
		}
		printSummary(os.Stdout, "Single model", report.Single)
		printSummary(os.Stdout, "Ensemble (strict majority)", report.Summary)
	},
}

// runEnsemble scores a fixed-K ensemble file and writes ensemble_scored.csv,
// ensemble_summary.json and ensemble_summary.md. k == 0 infers K from the
// input.
func runEnsemble(in scoringInputs, responses string, k int) (*bench.EnsembleReport, error) {
	idx, err := in.index()
	if err != nil {
		return nil, err
	}
	records, err := readResponses(responses)
	if err != nil {
		return nil, err
	}
	report, err := bench.ScoreEnsemble(idx, records, bench.EnsembleOptions{K: k, AllowPartial: in.AllowPartial})
	if err != nil {
		return nil, err
	}

	summary := newEnsembleSummary(report)
	if err := writeCSV(filepath.Join(in.OutDir, "ensemble_scored.csv"), ensembleColumns, ensembleRecords(report.Rows)); err != nil {
		return nil, err
	}
	if err := writeJSON(filepath.Join(in.OutDir, "ensemble_summary.json"), summary); err != nil {
		return nil, err
	}
	if err := writeText(filepath.Join(in.OutDir, "ensemble_summary.md"),
		summaryMarkdown("Ensemble (Strict Majority Vote) Summary", summary.runSummary)); err != nil {
		return nil, err
	}
	logrus.Infof("ensemble K=%d: %d no-majority, %d format-majority cases",
		report.K, report.NoMajorityCases, report.FormatMajorityCases)
	return report, nil
}

func init() {
	ensembleCmd.Flags().StringVar(&ensembleResponsesPath, "responses", "eval/responses_ensemble.jsonl", "Path to ensemble responses JSONL (K records per case)")
	ensembleCmd.Flags().IntVar(&ensembleK, "k", 0, "Required responses per case (0 = infer from input)")
	rootCmd.AddCommand(ensembleCmd)
}
