package bench

import (
	"regexp"
	"strings"
)

// ParsedOutput is the result of checking one raw response against the
// output contract. On failure every field except FormatError is empty.
type ParsedOutput struct {
	FormatOK      bool       `json:"format_ok"`
	Decision      Decision   `json:"decision"`
	Confidence    Confidence `json:"confidence"`
	PrimaryReason string     `json:"primary_reason"`
	FormatError   string     `json:"format_error"`
}

// Contract line patterns. Values are trimmed after matching.
var (
	decisionLineRe   = regexp.MustCompile(`^DECISION:\s*(.*)$`)
	confidenceLineRe = regexp.MustCompile(`^CONFIDENCE:\s*(.*)$`)
	reasonLineRe     = regexp.MustCompile(`^PRIMARY_REASON:\s*(.*)$`)
)

// Format error messages, one per failing check.
const (
	errLineCount       = "output must contain exactly 3 non-empty lines"
	errDecisionLabel   = "line 1 must start with DECISION:"
	errConfidenceLabel = "line 2 must start with CONFIDENCE:"
	errReasonLabel     = "line 3 must start with PRIMARY_REASON:"
	errDecisionValue   = "DECISION value must be SETTLE, REJECT, or PENDING"
	errConfidenceValue = "CONFIDENCE value must be LOW, MEDIUM, or HIGH"
	errReasonEmpty     = "PRIMARY_REASON cannot be empty"
)

func formatFailure(msg string) ParsedOutput {
	return ParsedOutput{FormatError: msg}
}

// ParseResponse checks raw against the 3-line contract:
//
//	DECISION: SETTLE | REJECT | PENDING
//	CONFIDENCE: LOW | MEDIUM | HIGH
//	PRIMARY_REASON: one short sentence
//
// Decision and confidence are case-insensitive; APPROVE is accepted as
// SETTLE. Pure function of its input.
func ParseResponse(raw string) ParsedOutput {
	text := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	lines := strings.Split(text, "\n")
	if len(lines) != 3 {
		return formatFailure(errLineCount)
	}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			return formatFailure(errLineCount)
		}
	}

	// Labels must start their line; indented labels break the contract.
	dm := decisionLineRe.FindStringSubmatch(lines[0])
	if dm == nil {
		return formatFailure(errDecisionLabel)
	}
	cm := confidenceLineRe.FindStringSubmatch(lines[1])
	if cm == nil {
		return formatFailure(errConfidenceLabel)
	}
	rm := reasonLineRe.FindStringSubmatch(lines[2])
	if rm == nil {
		return formatFailure(errReasonLabel)
	}

	decision, ok := NormalizeDecision(dm[1])
	if !ok {
		return formatFailure(errDecisionValue)
	}
	confidence := Confidence(strings.ToUpper(strings.TrimSpace(cm[1])))
	if !ValidConfidences[confidence] {
		return formatFailure(errConfidenceValue)
	}
	reason := strings.TrimSpace(rm[1])
	if reason == "" {
		return formatFailure(errReasonEmpty)
	}

	return ParsedOutput{
		FormatOK:      true,
		Decision:      decision,
		Confidence:    confidence,
		PrimaryReason: reason,
	}
}
