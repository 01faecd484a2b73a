package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rubricCmd = &cobra.Command{
	Use:   "rubric",
	Short: "Inspect the rubric",
}

// --- settlebench rubric export ---

var rubricOutPath string

var rubricExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the parsed rubric as JSON",
	Long:  "Parses the rubric markdown and writes one JSON object per case. Defaults to <rubric>.json next to the markdown file.",
	Run: func(cmd *cobra.Command, args []string) {
		out, n, err := runRubricExport(rubricPath, rubricOutPath)
		if err != nil {
			logrus.Fatalf("Rubric export failed: %v", err)
		}
		fmt.Printf("Exported %d rubric sections to %s\n", n, out)
	},
}

// runRubricExport writes the parsed rubric to out (or the default path) and
// returns the path and section count.
func runRubricExport(rubric, out string) (string, int, error) {
	entries, err := readRubric(rubric)
	if err != nil {
		return "", 0, err
	}
	if len(entries) == 0 {
		return "", 0, fmt.Errorf("no \"### Cnn - Title\" sections found in %s", rubric)
	}
	if out == "" {
		out = strings.TrimSuffix(rubric, filepath.Ext(rubric)) + ".json"
	}
	if err := writeJSON(out, entries); err != nil {
		return "", 0, err
	}
	return out, len(entries), nil
}

func init() {
	rubricExportCmd.Flags().StringVar(&rubricOutPath, "out", "", "Output JSON path (default: rubric path with .json extension)")
	rubricCmd.AddCommand(rubricExportCmd)
	rootCmd.AddCommand(rubricCmd)
}
