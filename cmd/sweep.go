package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/agentsettlement/settlebench/bench/sweep"
)

var sweepResponsesPath string

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Sweep ensemble size K with bootstrap trials",
	Long: "Projects accuracy, critical and risk-weighted fail rates, cost and latency for each K. " +
		"With --bootstrap-runs 1 the first K responses of each case are used; otherwise each trial " +
		"samples K responses with the seeded mulberry32-v1 sampler.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := resolveSweepConfig(currentSweepFlags(), cmd.Flags().Changed)
		if err != nil {
			logrus.Fatalf("Invalid sweep configuration: %v", err)
		}
		res, err := runSweep(cmd.Context(), sharedInputs(), sweepResponsesPath, cfg)
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}
		for _, row := range res.Rows {
			fmt.Fprintf(os.Stdout, "%s accuracy %.1f%% (%+.1f)  risk fail %.1f%% (%+.1f)  cost/case $%s\n",
				bold(fmt.Sprintf("K=%-3d", row.K)), row.AccuracyPct, row.AccuracyDeltaVsBasePct,
				row.RiskWeightedFailRatePct, row.RiskWeightedFailImprovementVsBase, formatFloat(row.EstimatedCostPerCaseUSD))
		}
	},
}

// runSweep runs the sweep and writes ensemble_k_sweep.{json,csv,md} plus
// k<K>/aggregate_summary.json for every K.
func runSweep(ctx context.Context, in scoringInputs, responses string, cfg sweep.Config) (*sweep.Result, error) {
	idx, err := in.index()
	if err != nil {
		return nil, err
	}
	records, err := readResponses(responses)
	if err != nil {
		return nil, err
	}
	pools, err := groupResponses(records)
	if err != nil {
		return nil, err
	}
	res, err := sweep.Run(ctx, idx, pools, cfg)
	if err != nil {
		return nil, err
	}

	payload := sweepPayload{Model: summaryModel(), Input: responses, Result: res}
	for i, row := range res.Rows {
		agg := kAggregate{Row: row, Trials: res.Trials[i].Trials}
		if err := writeJSON(filepath.Join(in.OutDir, kSummaryPath(row.K)), agg); err != nil {
			return nil, err
		}
	}
	if err := writeJSON(filepath.Join(in.OutDir, "ensemble_k_sweep.json"), payload); err != nil {
		return nil, err
	}
	if err := writeCSV(filepath.Join(in.OutDir, "ensemble_k_sweep.csv"), sweepColumns, sweepRecords(res.Rows)); err != nil {
		return nil, err
	}
	if err := writeText(filepath.Join(in.OutDir, "ensemble_k_sweep.md"), sweepMarkdown(payload)); err != nil {
		return nil, err
	}
	logrus.Infof("sweep over K=%v written to %s", res.KValues, in.OutDir)
	return res, nil
}

func init() {
	sweepCmd.Flags().StringVar(&sweepResponsesPath, "responses", "eval/responses_ensemble.jsonl", "Path to responses JSONL with at least max(K) records per case")
	sweepCmd.Flags().StringVar(&sweepConfigPath, "config", "", "YAML sweep config; explicit flags override its values")
	sweepCmd.Flags().StringVar(&sweepKValues, "k-values", sweep.DefaultKValues, "Comma-separated ensemble sizes")
	sweepCmd.Flags().IntVar(&sweepBootstrapRuns, "bootstrap-runs", sweep.DefaultBootstrapRuns, "Trials per K (1 = first K responses, no sampling)")
	sweepCmd.Flags().Int64Var(&sweepSeed, "seed", sweep.DefaultSeed, "Base seed for bootstrap sampling")
	sweepCmd.Flags().Float64Var(&sweepCostPerCallUSD, "cost-per-call-usd", 0, "Cost of one model call in USD")
	sweepCmd.Flags().Float64Var(&sweepLatencyPerCallMs, "latency-per-call-ms", 0, "Latency of one model call in milliseconds")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 1, "Concurrent trial workers (results do not depend on it)")
	rootCmd.AddCommand(sweepCmd)
}
