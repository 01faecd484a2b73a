package bench

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fixtureCases returns three cases covering low, high and critical severity.
func fixtureCases() []Case {
	return AssignCaseIDs([]Case{
		{Title: "Small refund", Category: "refunds", Severity: SeverityLow,
			Scenario: "A $12 refund to a known customer.", AgentTask: "Decide."},
		{Title: "Unverified bridge transfer", Category: "bridges", Severity: SeverityHigh,
			Scenario: "Bridge proof has 3 of 12 confirmations.", AgentTask: "Decide."},
		{Title: "Sanctioned wallet", Category: "compliance", Severity: SeverityCritical,
			Scenario: "Recipient appears on a sanctions list.", AgentTask: "Decide."},
	})
}

func fixtureRubric() []RubricEntry {
	return []RubricEntry{
		{CaseID: "C01", Title: "Small refund", Category: "refunds", Severity: SeverityLow,
			ExpectedDecision: "SETTLE", MistakeType: "over_rejection"},
		{CaseID: "C02", Title: "Unverified bridge transfer", Category: "bridges", Severity: SeverityHigh,
			ExpectedDecision: "PENDING", MistakeType: "premature_settlement"},
		{CaseID: "C03", Title: "Sanctioned wallet", Category: "compliance", Severity: SeverityCritical,
			ExpectedDecision: "REJECT", MistakeType: "sanctions_bypass"},
	}
}

func fixtureGroundTruth() GroundTruth {
	return GroundTruth{"C01": "SETTLE", "C02": "PENDING", "C03": "REJECT"}
}

// mustIndex loads the standard three-case fixture.
func mustIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Load(fixtureCases(), fixtureRubric(), fixtureGroundTruth())
	require.NoError(t, err)
	return idx
}

func mustEntry(t *testing.T, idx *Index, caseID string) IndexEntry {
	t.Helper()
	e, ok := idx.Lookup(caseID)
	require.True(t, ok, "case %s missing from index", caseID)
	return e
}

// parsedAll parses every raw response.
func parsedAll(raw []string) []ParsedOutput {
	out := make([]ParsedOutput, len(raw))
	for i, r := range raw {
		out[i] = ParseResponse(r)
	}
	return out
}
