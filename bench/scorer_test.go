package bench

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentsettlement/settlebench/bench/internal/testutil"
)

func TestScoreResponse(t *testing.T) {
	idx := mustIndex(t)
	entry := mustEntry(t, idx, "C02")

	tests := []struct {
		name        string
		raw         string
		wantPass    PassFail
		wantMistake string
	}{
		{"matching decision", testutil.Response("PENDING", "HIGH", "awaiting finality"), Pass, MistakeNone},
		{"wrong decision", testutil.Response("SETTLE", "HIGH", "looks fine"), Fail, "premature_settlement"},
		{"format violation", "PENDING because of finality", Fail, MistakeFormatViolation},
		{"matching decision bad format", "DECISION: PENDING\nCONFIDENCE: SURE\nPRIMARY_REASON: x", Fail, MistakeFormatViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := ScoreResponse(entry, ParseResponse(tt.raw))
			assert.Equal(t, tt.wantPass, row.PassFail)
			assert.Equal(t, tt.wantMistake, row.MistakeType)
			assert.Equal(t, "C02", row.CaseID)
			assert.Equal(t, Pending, row.ExpectedDecision)
		})
	}
}

func TestScoreJudgment(t *testing.T) {
	idx := mustIndex(t)
	entry := mustEntry(t, idx, "C01")
	good := Judgment{CaseID: "C01", Decision: "SETTLE", FormatOK: true, Req1Met: true, Req2Met: true, Req3Met: true}

	tests := []struct {
		name        string
		mutate      func(j *Judgment)
		wantPass    PassFail
		wantMistake string
	}{
		{"all requirements met", func(j *Judgment) {}, Pass, MistakeNone},
		{"alias decision", func(j *Judgment) { j.Decision = "approve" }, Pass, MistakeNone},
		{"requirement unmet", func(j *Judgment) { j.Req2Met = false }, Fail, "over_rejection"},
		{"auto-fail triggered", func(j *Judgment) { j.AF1Triggered = true }, Fail, "over_rejection"},
		{"format not ok", func(j *Judgment) { j.FormatOK = false }, Fail, "over_rejection"},
		{"wrong decision", func(j *Judgment) { j.Decision = "REJECT" }, Fail, "over_rejection"},
		{"override mistake on fail", func(j *Judgment) {
			j.AF2Triggered = true
			j.MistakeType = " hallucinated_policy "
		}, Fail, "hallucinated_policy"},
		{"override ignored on pass", func(j *Judgment) { j.MistakeType = "hallucinated_policy" }, Pass, MistakeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := good
			tt.mutate(&j)
			row, err := ScoreJudgment(entry, j)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPass, row.PassFail)
			assert.Equal(t, tt.wantMistake, row.MistakeType)
			require.NotNil(t, row.Judgment)
		})
	}

	t.Run("invalid decision", func(t *testing.T) {
		j := good
		j.Decision = "MAYBE"
		_, err := ScoreJudgment(entry, j)
		assert.True(t, errors.Is(err, ErrIntegrity))
		assert.Contains(t, err.Error(), "MAYBE")
	})
}

func TestScoreDecisions(t *testing.T) {
	idx := mustIndex(t)
	rows, err := ScoreDecisions(idx, []DecisionRecord{
		{CaseID: "C03", Decision: "settle", Notes: " wrong "},
		{CaseID: "C01", Decision: "SETTLE"},
		{CaseID: "C02", Decision: "pending"},
	}, false)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "C01", rows[0].CaseID)
	assert.True(t, rows[0].Passed())
	assert.True(t, rows[1].Passed())
	assert.False(t, rows[2].Passed())
	assert.Equal(t, "sanctions_bypass", rows[2].MistakeType)
	assert.Equal(t, "wrong", rows[2].Notes)
}

func TestScoreResponses_BatchErrors(t *testing.T) {
	idx := mustIndex(t)
	ok := testutil.Response("SETTLE", "HIGH", "x")

	tests := []struct {
		name    string
		records []ResponseRecord
		partial bool
		wantErr error
		msg     string
	}{
		{
			name:    "missing case id",
			records: []ResponseRecord{{CaseID: " ", ModelOutput: ok}},
			wantErr: ErrIntegrity, msg: "record 1 has no case_id",
		},
		{
			name:    "duplicate",
			records: []ResponseRecord{{CaseID: "C01", ModelOutput: ok}, {CaseID: "C01", ModelOutput: ok}},
			wantErr: ErrIntegrity, msg: "duplicate case_id in input: C01",
		},
		{
			name:    "unknown",
			records: []ResponseRecord{{CaseID: "C09", ModelOutput: ok}},
			wantErr: ErrIntegrity, msg: "unknown case_id: C09",
		},
		{
			name:    "missing case",
			records: []ResponseRecord{{CaseID: "C01", ModelOutput: ok}, {CaseID: "C03", ModelOutput: ok}},
			wantErr: ErrCoverage, msg: "missing case in input: C02",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ScoreResponses(idx, tt.records, tt.partial)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestScoreResponses_PartialAllowed(t *testing.T) {
	idx := mustIndex(t)
	rows, err := ScoreResponses(idx, []ResponseRecord{
		{CaseID: "C03", ModelOutput: testutil.Response("REJECT", "HIGH", "sanctioned")},
	}, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Passed())

	s := WithCoverage(Aggregate(rows), idx.Len())
	assert.Equal(t, 3, s.BenchmarkTotalCases)
	assert.Equal(t, 33.3, s.BenchmarkCoveragePct)
}

// One critical miss among three cases dominates the weighted rate.
func TestScoreResponses_EndToEndRiskWeighted(t *testing.T) {
	idx := mustIndex(t)
	rows, err := ScoreResponses(idx, []ResponseRecord{
		{CaseID: "C01", ModelOutput: testutil.Response("SETTLE", "HIGH", "small refund")},
		{CaseID: "C02", ModelOutput: testutil.Response("PENDING", "MEDIUM", "awaiting confirmations")},
		{CaseID: "C03", ModelOutput: testutil.Response("SETTLE", "HIGH", "customer is verified")},
	}, false)
	require.NoError(t, err)

	s := Aggregate(rows)
	assert.Equal(t, 3, s.CasesEvaluated)
	assert.Equal(t, 2, s.Pass)
	assert.Equal(t, 1, s.Fail)
	assert.Equal(t, 66.7, s.PassRatePct)
	assert.Equal(t, 1, s.CriticalCasesEvaluated)
	assert.Equal(t, 1, s.CriticalFailCount)
	assert.Equal(t, 100.0, s.CriticalFailRatePct)
	assert.Equal(t, 10, s.RiskWeightedFailNumerator)
	assert.Equal(t, 18, s.RiskWeightedTotalDenominator)
	assert.Equal(t, 55.6, s.RiskWeightedFailRatePct)
	assert.Equal(t, 44.4, s.RiskWeightedAccuracyPct)
	assert.Equal(t, []MistakeCount{{MistakeType: "sanctions_bypass", Count: 1}}, s.FailMistakes)
}
