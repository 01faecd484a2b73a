package bench

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Valid(t *testing.T) {
	idx := mustIndex(t)

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []string{"C01", "C02", "C03"}, idx.CaseIDs())

	e := mustEntry(t, idx, "C03")
	assert.Equal(t, "Sanctioned wallet", e.Title)
	assert.Equal(t, SeverityCritical, e.Severity)
	assert.Equal(t, Reject, e.ExpectedDecision)
	assert.Equal(t, "sanctions_bypass", e.MistakeType)

	_, ok := idx.Lookup("C99")
	assert.False(t, ok)
}

func TestLoad_ApproveAliasInBothSources(t *testing.T) {
	rubric := fixtureRubric()
	rubric[0].ExpectedDecision = "approve"
	gt := fixtureGroundTruth()
	gt["C01"] = "APPROVE"

	idx, err := Load(fixtureCases(), rubric, gt)
	require.NoError(t, err)
	assert.Equal(t, Settle, mustEntry(t, idx, "C01").ExpectedDecision)
}

func TestLoad_CaseIDsCopyIsIsolated(t *testing.T) {
	idx := mustIndex(t)
	ids := idx.CaseIDs()
	ids[0] = "tampered"
	assert.Equal(t, "C01", idx.CaseIDs()[0])
}

func TestLoad_IntegrityFailures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(cases []Case, rubric []RubricEntry, gt GroundTruth) ([]Case, []RubricEntry, GroundTruth)
		contains []string
	}{
		{
			name: "missing ground truth",
			mutate: func(c []Case, r []RubricEntry, gt GroundTruth) ([]Case, []RubricEntry, GroundTruth) {
				delete(gt, "C02")
				return c, r, gt
			},
			contains: []string{"missing ground truth", "C02"},
		},
		{
			name: "extra ground truth",
			mutate: func(c []Case, r []RubricEntry, gt GroundTruth) ([]Case, []RubricEntry, GroundTruth) {
				gt["C04"] = "SETTLE"
				return c, r, gt
			},
			contains: []string{"unknown case", "C04"},
		},
		{
			name: "invalid ground truth decision",
			mutate: func(c []Case, r []RubricEntry, gt GroundTruth) ([]Case, []RubricEntry, GroundTruth) {
				gt["C01"] = "HOLD"
				return c, r, gt
			},
			contains: []string{"invalid ground truth decision", "C01", "HOLD"},
		},
		{
			name: "rubric size",
			mutate: func(c []Case, r []RubricEntry, gt GroundTruth) ([]Case, []RubricEntry, GroundTruth) {
				return c, r[:2], gt
			},
			contains: []string{"size mismatch", "3 vs 2"},
		},
		{
			name: "duplicate rubric section",
			mutate: func(c []Case, r []RubricEntry, gt GroundTruth) ([]Case, []RubricEntry, GroundTruth) {
				r[2] = r[1]
				return c, r, gt
			},
			contains: []string{"duplicate rubric section", "C02"},
		},
		{
			name: "title",
			mutate: func(c []Case, r []RubricEntry, gt GroundTruth) ([]Case, []RubricEntry, GroundTruth) {
				r[0].Title = "Large refund"
				return c, r, gt
			},
			contains: []string{"title mismatch", "C01", `benchmark="Small refund"`, `rubric="Large refund"`},
		},
		{
			name: "category",
			mutate: func(c []Case, r []RubricEntry, gt GroundTruth) ([]Case, []RubricEntry, GroundTruth) {
				r[1].Category = "custody"
				return c, r, gt
			},
			contains: []string{"category mismatch", "C02", "bridges", "custody"},
		},
		{
			name: "severity",
			mutate: func(c []Case, r []RubricEntry, gt GroundTruth) ([]Case, []RubricEntry, GroundTruth) {
				r[2].Severity = SeverityHigh
				return c, r, gt
			},
			contains: []string{"severity mismatch", "C03", "critical", "high"},
		},
		{
			name: "expected decision",
			mutate: func(c []Case, r []RubricEntry, gt GroundTruth) ([]Case, []RubricEntry, GroundTruth) {
				gt["C02"] = "REJECT"
				return c, r, gt
			},
			contains: []string{"expected decision mismatch", "C02", "PENDING", "REJECT"},
		},
		{
			name: "unparseable rubric decision",
			mutate: func(c []Case, r []RubricEntry, gt GroundTruth) ([]Case, []RubricEntry, GroundTruth) {
				r[0].ExpectedDecision = ""
				return c, r, gt
			},
			contains: []string{"invalid rubric expected decision", "C01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cases, rubric, gt := tt.mutate(fixtureCases(), fixtureRubric(), fixtureGroundTruth())
			idx, err := Load(cases, rubric, gt)
			require.Error(t, err)
			assert.Nil(t, idx)
			assert.True(t, errors.Is(err, ErrIntegrity), "want ErrIntegrity, got %v", err)
			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}
