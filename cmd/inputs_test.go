package cmd

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentsettlement/settlebench/bench"
)

func TestLoadIndex_Fixture(t *testing.T) {
	in := fixtureDir(t)
	idx, err := in.index()
	require.NoError(t, err)
	assert.Equal(t, []string{"C01", "C02", "C03"}, idx.CaseIDs())
}

func TestLoadIndex_RubricDrift(t *testing.T) {
	in := fixtureDir(t)
	writeFile(t, in.GroundTruth, `{"C01": "SETTLE", "C02": "SETTLE", "C03": "REJECT"}`)
	_, err := in.index()
	require.Error(t, err)
	assert.True(t, errors.Is(err, bench.ErrIntegrity))
	assert.Contains(t, err.Error(), "C02")
}

func TestReadGroundTruth_Forms(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		body string
		want bench.GroundTruth
	}{
		{"object map", `{"C01": "approve", "C02": "PENDING"}`, bench.GroundTruth{"C01": "approve", "C02": "PENDING"}},
		{"array expected_decision", `[{"case_id": "C01", "expected_decision": "SETTLE"}]`, bench.GroundTruth{"C01": "SETTLE"}},
		{"array decision", ` [{"case_id": " C02 ", "decision": "REJECT"}]`, bench.GroundTruth{"C02": "REJECT"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			writeFile(t, path, tt.body)
			got, err := readGroundTruth(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	dup := filepath.Join(dir, "dup.json")
	writeFile(t, dup, `[{"case_id": "C01", "decision": "SETTLE"}, {"case_id": "C01", "decision": "REJECT"}]`)
	_, err := readGroundTruth(dup)
	assert.True(t, errors.Is(err, bench.ErrIntegrity))
}

func TestReadResponses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "responses.jsonl")
	writeFile(t, path, "{\"case_id\": \" C01 \", \"model_output\": \"x\"}\n\n{\"case_id\": \"C02\", \"model_output\": \"y\"}\n")
	got, err := readResponses(path)
	require.NoError(t, err)
	assert.Equal(t, []bench.ResponseRecord{{CaseID: "C01", ModelOutput: "x"}, {CaseID: "C02", ModelOutput: "y"}}, got)

	writeFile(t, path, "{\"case_id\": \"C01\"}\nnot json\n")
	_, err = readResponses(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestGroupResponses_KeepsOrder(t *testing.T) {
	got, err := groupResponses([]bench.ResponseRecord{
		{CaseID: "C02", ModelOutput: "a"},
		{CaseID: "C01", ModelOutput: "b"},
		{CaseID: "C02", ModelOutput: "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"C01": {"b"}, "C02": {"a", "c"}}, got)

	_, err = groupResponses([]bench.ResponseRecord{{ModelOutput: "a"}})
	assert.True(t, errors.Is(err, bench.ErrIntegrity))
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", " yes "} {
		got, err := parseBool(v, "req1_met", "C01")
		require.NoError(t, err)
		assert.True(t, got, v)
	}
	for _, v := range []string{"0", "false", "No"} {
		got, err := parseBool(v, "req1_met", "C01")
		require.NoError(t, err)
		assert.False(t, got, v)
	}
	_, err := parseBool("maybe", "req1_met", "C01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "C01: invalid boolean for req1_met")
}

func TestReadJudgments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "judgments.csv")
	writeFile(t, path, "case_id,decision,format_ok,req1_met,req2_met,req3_met,af1_triggered,af2_triggered,mistake_type,notes\n"+
		"C01,SETTLE,1,1,1,1,0,0,,fine\n"+
		"C02,settle,true,0,1,1,yes,no,rushed,\"quoted, note\"\n")
	got, err := readJudgments(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, bench.Judgment{CaseID: "C01", Decision: "SETTLE", FormatOK: true,
		Req1Met: true, Req2Met: true, Req3Met: true, Notes: "fine"}, got[0])
	assert.Equal(t, bench.Judgment{CaseID: "C02", Decision: "settle", FormatOK: true,
		Req2Met: true, Req3Met: true, AF1Triggered: true, MistakeType: "rushed", Notes: "quoted, note"}, got[1])

	writeFile(t, path, "case_id,decision\n")
	_, err = readJudgments(path)
	assert.ErrorContains(t, err, "at least one row")
}

func TestReadDecisions_Formats(t *testing.T) {
	dir := t.TempDir()
	want := []bench.DecisionRecord{{CaseID: "C01", Decision: "SETTLE"}, {CaseID: "C02", Decision: "PENDING"}}

	mapPath := filepath.Join(dir, "run.json")
	writeFile(t, mapPath, `{"C02": "PENDING", "C01": "SETTLE"}`)
	got, err := readDecisions(mapPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	arrPath := filepath.Join(dir, "run_array.json")
	writeFile(t, arrPath, `[{"case_id": "C01", "decision": "SETTLE"}, {"case_id": "C02", "decision": "PENDING"}]`)
	got, err = readDecisions(arrPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	csvPath := filepath.Join(dir, "run.CSV")
	writeFile(t, csvPath, "case_id,decision,notes\nC01,SETTLE,\nC02,PENDING,\n")
	got, err = readDecisions(csvPath)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
