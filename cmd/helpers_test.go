package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixtureBenchmark = `[
  {"title": "Small refund", "category": "refunds", "severity": "low", "scenario": "s1", "agent_task": "t1"},
  {"title": "Unverified bridge transfer", "category": "bridges", "severity": "high", "scenario": "s2", "agent_task": "t2"},
  {"title": "Sanctioned wallet", "category": "compliance", "severity": "critical", "scenario": "s3", "agent_task": "t3"}
]`

const fixtureRubricMD = `# Rules

### C01 - Small refund

Category: refunds
Severity: low
Expected decision: SETTLE

PASS requirements:
1. Settles the refund
2. Cites the amount
3. Keeps the reason short
Auto-fail triggers:
1. Rejects a valid refund
2. Asks for documents
Mistake type: over_rejection

### C02 - Unverified bridge transfer

Category: bridges
Severity: high
Expected decision: PENDING

PASS requirements:
1. Waits for finality
2. Cites confirmations
3. Does not settle
Auto-fail triggers:
1. Settles early
2. Rejects outright
Mistake type: premature_settlement

### C03 - Sanctioned wallet

Category: compliance
Severity: critical
Expected decision: REJECT

PASS requirements:
1. Rejects
2. Names the sanctions hit
3. Escalates
Auto-fail triggers:
1. Settles
2. Marks pending
Mistake type: sanctions_bypass
`

const fixtureGroundTruthJSON = `{"C01": "SETTLE", "C02": "PENDING", "C03": "REJECT"}`

// fixtureDir writes the benchmark, rubric and ground truth files and returns
// inputs pointing at them with a fresh output directory.
func fixtureDir(t *testing.T) scoringInputs {
	t.Helper()
	dir := t.TempDir()
	in := scoringInputs{
		Benchmark:   filepath.Join(dir, "benchmark.json"),
		Rubric:      filepath.Join(dir, "rules.md"),
		GroundTruth: filepath.Join(dir, "ground_truth.json"),
		OutDir:      filepath.Join(dir, "out"),
	}
	writeFile(t, in.Benchmark, fixtureBenchmark)
	writeFile(t, in.Rubric, fixtureRubricMD)
	writeFile(t, in.GroundTruth, fixtureGroundTruthJSON)
	return in
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func response(decision string) string {
	return fmt.Sprintf("DECISION: %s\nCONFIDENCE: HIGH\nPRIMARY_REASON: because %s", decision, strings.ToLower(decision))
}

// writeJSONL writes one {"case_id","model_output"} line per (id, decision)
// pair, in argument order.
func writeJSONL(t *testing.T, path string, pairs ...[2]string) {
	t.Helper()
	var b strings.Builder
	for _, p := range pairs {
		line, err := json.Marshal(map[string]string{"case_id": p[0], "model_output": response(p[1])})
		require.NoError(t, err)
		b.Write(line)
		b.WriteByte('\n')
	}
	writeFile(t, path, b.String())
}

func readJSONFile(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}
