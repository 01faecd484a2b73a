package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentsettlement/settlebench/bench"
)

// scoreInto scores responses for the fixture benchmark into runsDir/runID.
func scoreInto(t *testing.T, in scoringInputs, runsDir, runID string, partial bool, pairs ...[2]string) {
	t.Helper()
	responses := filepath.Join(t.TempDir(), runID+".jsonl")
	writeJSONL(t, responses, pairs...)
	in.OutDir = filepath.Join(runsDir, runID)
	in.AllowPartial = partial
	_, err := runScore(in, responses)
	require.NoError(t, err)
}

func TestRunCompare_RanksScoredRuns(t *testing.T) {
	// GIVEN two full runs, one partial run and a stray directory
	in := fixtureDir(t)
	runsDir := filepath.Join(t.TempDir(), "runs")
	scoreInto(t, in, runsDir, "beta", false, [2]string{"C01", "SETTLE"}, [2]string{"C02", "PENDING"}, [2]string{"C03", "SETTLE"})
	scoreInto(t, in, runsDir, "alpha", false, [2]string{"C01", "SETTLE"}, [2]string{"C02", "PENDING"}, [2]string{"C03", "REJECT"})
	scoreInto(t, in, runsDir, "gamma", true, [2]string{"C01", "SETTLE"})
	writeFile(t, filepath.Join(runsDir, "beta", "run_meta.json"), `{"model": "beta-model"}`)
	require.NoError(t, os.MkdirAll(filepath.Join(runsDir, "notes"), 0o755))

	// WHEN compared
	got, err := runCompare(in, runsDir)
	require.NoError(t, err)

	// THEN only full-coverage raw runs are ranked, lowest risk first
	require.Len(t, got.Leaderboard, 2)
	assert.Equal(t, "alpha", got.Leaderboard[0].RunID)
	assert.Equal(t, "beta", got.Leaderboard[1].RunID)
	assert.Equal(t, "beta-model", got.Leaderboard[1].Model)
	assert.Equal(t, 55.6, got.Leaderboard[1].RiskWeightedFailRatePct)
	require.Len(t, got.Reference, 1)
	assert.Equal(t, "gamma", got.Reference[0].RunID)
	assert.Equal(t, 33.3, got.Reference[0].BenchmarkCoveragePct)

	js := readJSONFile(t, filepath.Join(in.OutDir, "model_comparison.json"))
	assert.Len(t, js["leaderboard"], 2)
	md, err := os.ReadFile(filepath.Join(in.OutDir, "model_comparison.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "| alpha | unspecified | 3/3 | 100.0% | 0.0% | 0.0% |")
	assert.Contains(t, string(md), "| gamma | unspecified | 1/3 |")
}

func TestRunCompare_NoRuns(t *testing.T) {
	in := fixtureDir(t)
	_, err := runCompare(in, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, bench.ErrCoverage))
	assert.NoDirExists(t, in.OutDir)
}

func TestRunCompare_StaleManualSample(t *testing.T) {
	in := fixtureDir(t)
	runsDir := filepath.Join(t.TempDir(), "runs")
	writeFile(t, filepath.Join(runsDir, "manual", "results_summary.json"),
		`{"run_type": "manual_sample", "cases_evaluated": 2, "benchmark_total_cases": 5, "benchmark_coverage_pct": 40}`)

	_, err := runCompare(in, runsDir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, bench.ErrIntegrity))
	assert.Contains(t, err.Error(), "benchmark_total_cases=3")
}

func TestComparisonMarkdown_Empty(t *testing.T) {
	md := comparisonMarkdown(&bench.Comparison{})
	assert.Contains(t, md, "No valid full-coverage model runs yet.")
	assert.Contains(t, md, "None.")
}
