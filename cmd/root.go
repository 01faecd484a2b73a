package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Inputs shared by every scoring command
	benchmarkPath   string // Benchmark cases JSON (case ids are positional)
	rubricPath      string // Rubric markdown
	groundTruthPath string // Expected decision per case id
	outDir          string // Directory for reports
	modelName       string // Model label recorded in summaries
	allowPartial    bool   // Score a subset of the benchmark instead of failing
	logLevel        string // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "settlebench",
	Short: "Risk-weighted scoring for agent settlement decisions",
	Long: "Scores SETTLE / REJECT / PENDING decisions against a validated rubric, " +
		"runs strict-majority ensembles and sweeps ensemble size K with bootstrap trials.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// summaryModel returns the model label, defaulting to "unspecified".
func summaryModel() string {
	if modelName == "" {
		return "unspecified"
	}
	return modelName
}

func init() {
	rootCmd.PersistentFlags().StringVar(&benchmarkPath, "benchmark", "ai_benchmark/agentsettlement_benchmark.json", "Path to benchmark cases JSON")
	rootCmd.PersistentFlags().StringVar(&rubricPath, "rubric", "rubric/agentsettlement_rules.md", "Path to rubric markdown")
	rootCmd.PersistentFlags().StringVar(&groundTruthPath, "ground-truth", "ai_benchmark/agentsettlement_ground_truth.json", "Path to ground truth JSON (object map or array)")
	rootCmd.PersistentFlags().StringVar(&outDir, "outdir", "eval", "Directory for scored rows and summaries")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "Model label recorded in summaries")
	rootCmd.PersistentFlags().BoolVar(&allowPartial, "allow-partial", false, "Score the cases present in the input instead of failing on missing ones")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
}
