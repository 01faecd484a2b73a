package bench

import (
	"fmt"
	"sort"
	"strings"
)

// ScoredRow is the verdict for one (case, response) pair.
// Confidence, PrimaryReason, FormatOK and FormatError are only populated in
// single-response mode; Judgment only in judgment-sheet mode.
type ScoredRow struct {
	CaseID           string    `json:"case_id"`
	Title            string    `json:"title"`
	Category         string    `json:"category"`
	Severity         string    `json:"severity"`
	ExpectedDecision Decision  `json:"expected_decision"`
	Decision         Decision  `json:"decision"`
	PassFail         PassFail  `json:"pass_fail"`
	MistakeType      string    `json:"mistake_type"`
	Confidence       string    `json:"confidence,omitempty"`
	PrimaryReason    string    `json:"primary_reason,omitempty"`
	FormatOK         bool      `json:"format_ok"`
	FormatError      string    `json:"format_error,omitempty"`
	Judgment         *Judgment `json:"judgment,omitempty"`
	Notes            string    `json:"notes,omitempty"`
}

// Passed reports whether the row is a PASS.
func (r ScoredRow) Passed() bool { return r.PassFail == Pass }

// ResponseRecord is one raw model response for a case.
type ResponseRecord struct {
	CaseID      string `json:"case_id"`
	ModelOutput string `json:"model_output"`
}

// Judgment is an externally graded verdict sheet row: the decision the
// response took plus boolean grades for the rubric's first three pass
// requirements and first two auto-fail triggers.
type Judgment struct {
	CaseID       string `json:"case_id"`
	Decision     string `json:"decision"`
	FormatOK     bool   `json:"format_ok"`
	Req1Met      bool   `json:"req1_met"`
	Req2Met      bool   `json:"req2_met"`
	Req3Met      bool   `json:"req3_met"`
	AF1Triggered bool   `json:"af1_triggered"`
	AF2Triggered bool   `json:"af2_triggered"`
	// MistakeType overrides the rubric's mistake type on failure when set.
	MistakeType string `json:"mistake_type,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// DecisionRecord is a bare decision for a case, as produced by manual runs.
type DecisionRecord struct {
	CaseID   string `json:"case_id"`
	Decision string `json:"decision"`
	Notes    string `json:"notes,omitempty"`
}

func baseRow(entry IndexEntry) ScoredRow {
	return ScoredRow{
		CaseID:           entry.CaseID,
		Title:            entry.Title,
		Category:         entry.Category,
		Severity:         entry.Severity,
		ExpectedDecision: entry.ExpectedDecision,
		PassFail:         Fail,
	}
}

// ScoreResponse grades one parsed response. A row passes only when the
// format is valid and the decision matches; format failures are recorded as
// format_violation, wrong decisions with the rubric's mistake type.
func ScoreResponse(entry IndexEntry, parsed ParsedOutput) ScoredRow {
	row := baseRow(entry)
	row.Decision = parsed.Decision
	row.Confidence = string(parsed.Confidence)
	row.PrimaryReason = parsed.PrimaryReason
	row.FormatOK = parsed.FormatOK
	row.FormatError = parsed.FormatError

	switch {
	case !parsed.FormatOK:
		row.MistakeType = MistakeFormatViolation
	case parsed.Decision == entry.ExpectedDecision:
		row.PassFail = Pass
		row.MistakeType = MistakeNone
	default:
		row.MistakeType = entry.MistakeType
	}
	return row
}

// ScoreJudgment grades a judgment-sheet row. Passing requires a valid format,
// a matching decision, all three requirements met and neither auto-fail
// trigger fired. An unrecognised decision is an input error, not a failure.
func ScoreJudgment(entry IndexEntry, j Judgment) (ScoredRow, error) {
	decision, ok := NormalizeDecision(j.Decision)
	if !ok {
		return ScoredRow{}, fmt.Errorf("%w: %s: invalid decision %q, allowed SETTLE|REJECT|PENDING",
			ErrIntegrity, entry.CaseID, j.Decision)
	}

	row := baseRow(entry)
	row.Decision = decision
	row.FormatOK = j.FormatOK
	row.Notes = strings.TrimSpace(j.Notes)
	jc := j
	row.Judgment = &jc

	pass := j.FormatOK && decision == entry.ExpectedDecision &&
		j.Req1Met && j.Req2Met && j.Req3Met &&
		!j.AF1Triggered && !j.AF2Triggered
	if pass {
		row.PassFail = Pass
		row.MistakeType = MistakeNone
		return row, nil
	}
	row.MistakeType = entry.MistakeType
	if override := strings.TrimSpace(j.MistakeType); override != "" {
		row.MistakeType = override
	}
	return row, nil
}

// ScoreDecision grades a bare decision: PASS iff it matches.
func ScoreDecision(entry IndexEntry, rec DecisionRecord) (ScoredRow, error) {
	decision, ok := NormalizeDecision(rec.Decision)
	if !ok {
		return ScoredRow{}, fmt.Errorf("%w: %s: invalid decision %q, allowed SETTLE|REJECT|PENDING",
			ErrIntegrity, entry.CaseID, rec.Decision)
	}
	row := baseRow(entry)
	row.Decision = decision
	row.FormatOK = true
	row.Notes = strings.TrimSpace(rec.Notes)
	if decision == entry.ExpectedDecision {
		row.PassFail = Pass
		row.MistakeType = MistakeNone
	} else {
		row.MistakeType = entry.MistakeType
	}
	return row, nil
}

// ScoreResponses grades a single-response run: one record per case.
func ScoreResponses(idx *Index, records []ResponseRecord, allowPartial bool) ([]ScoredRow, error) {
	return scoreBatch(idx, records, allowPartial,
		func(r ResponseRecord) string { return r.CaseID },
		func(e IndexEntry, r ResponseRecord) (ScoredRow, error) {
			return ScoreResponse(e, ParseResponse(r.ModelOutput)), nil
		})
}

// ScoreJudgments grades a judgment sheet: one row per case.
func ScoreJudgments(idx *Index, judgments []Judgment, allowPartial bool) ([]ScoredRow, error) {
	return scoreBatch(idx, judgments, allowPartial,
		func(j Judgment) string { return j.CaseID },
		ScoreJudgment)
}

// ScoreDecisions grades a decisions-only run: one decision per case.
func ScoreDecisions(idx *Index, records []DecisionRecord, allowPartial bool) ([]ScoredRow, error) {
	return scoreBatch(idx, records, allowPartial,
		func(r DecisionRecord) string { return r.CaseID },
		ScoreDecision)
}

// scoreBatch enforces the one-record-per-case shape shared by the
// non-ensemble modes and returns rows sorted by case id.
func scoreBatch[T any](idx *Index, records []T, allowPartial bool,
	caseID func(T) string, score func(IndexEntry, T) (ScoredRow, error)) ([]ScoredRow, error) {
	seen := make(map[string]bool, len(records))
	rows := make([]ScoredRow, 0, len(records))

	for i, rec := range records {
		id := strings.TrimSpace(caseID(rec))
		if id == "" {
			return nil, fmt.Errorf("%w: record %d has no case_id", ErrIntegrity, i+1)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate case_id in input: %s", ErrIntegrity, id)
		}
		seen[id] = true

		entry, ok := idx.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: unknown case_id: %s", ErrIntegrity, id)
		}
		row, err := score(entry, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if !allowPartial {
		for _, id := range idx.CaseIDs() {
			if !seen[id] {
				return nil, fmt.Errorf("%w: missing case in input: %s", ErrCoverage, id)
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CaseID < rows[j].CaseID })
	return rows, nil
}
