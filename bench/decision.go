package bench

import "strings"

// Decision is a canonical settlement decision token.
type Decision string

const (
	Settle  Decision = "SETTLE"
	Reject  Decision = "REJECT"
	Pending Decision = "PENDING"
)

// Ensemble-only outcomes. They share the Decision type so a VoteTally can
// hold any of them in MajorityDecision.
const (
	FormatError Decision = "FORMAT_ERROR"
	NoMajority  Decision = "NO_MAJORITY"
)

// decisionAliases maps lower-cased input to canonical decisions.
// APPROVE is kept as a legacy spelling of SETTLE.
var decisionAliases = map[string]Decision{
	"settle":  Settle,
	"approve": Settle,
	"reject":  Reject,
	"pending": Pending,
}

// NormalizeDecision trims and case-folds raw, applying the legacy alias table.
// Returns false if raw is not a recognised decision.
func NormalizeDecision(raw string) (Decision, bool) {
	d, ok := decisionAliases[strings.ToLower(strings.TrimSpace(raw))]
	return d, ok
}

// IsCanonical reports whether d is one of SETTLE, REJECT, PENDING.
func (d Decision) IsCanonical() bool {
	return d == Settle || d == Reject || d == Pending
}

// Confidence is the self-reported confidence token of a response.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// ValidConfidences is the set of accepted confidence tokens.
var ValidConfidences = map[Confidence]bool{ConfidenceLow: true, ConfidenceMedium: true, ConfidenceHigh: true}

// Severity tiers used by the rubric.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// SeverityWeights is the fixed risk weight table. It is not configurable.
var SeverityWeights = map[string]int{
	SeverityLow:      1,
	SeverityMedium:   3,
	SeverityHigh:     7,
	SeverityCritical: 10,
}

// Weight returns the risk weight for severity, or 0 for an unknown tier.
func Weight(severity string) int {
	return SeverityWeights[severity]
}

// PassFail is the verdict of one scored row.
type PassFail string

const (
	Pass PassFail = "PASS"
	Fail PassFail = "FAIL"
)

// Fixed mistake codes. Any other mistake type comes from the rubric.
const (
	MistakeNone               = "none"
	MistakeFormatViolation    = "format_violation"
	MistakeEnsembleNoMajority = "ensemble_no_majority"
)
