package bench

import (
	"fmt"
	"sort"
)

// IndexEntry is the validated view of one case used by every scorer.
type IndexEntry struct {
	CaseID           string
	Title            string
	Category         string
	Severity         string
	ExpectedDecision Decision
	PassRequirements []string
	AutoFailTriggers []string
	MistakeType      string
}

// Index is the read-only case_id -> IndexEntry lookup produced by Load.
type Index struct {
	order   []string
	entries map[string]IndexEntry
}

// Load cross-validates the three independently authored sources and builds
// the lookup index. It stops at the first disagreement and never repairs
// data: the returned error wraps ErrIntegrity and names the case id and both
// conflicting values.
func Load(cases []Case, rubric []RubricEntry, groundTruth GroundTruth) (*Index, error) {
	expected, err := validateGroundTruthCoverage(cases, groundTruth)
	if err != nil {
		return nil, err
	}
	rubricByID, err := validateRubricAlignment(cases, rubric)
	if err != nil {
		return nil, err
	}

	idx := &Index{
		order:   make([]string, 0, len(cases)),
		entries: make(map[string]IndexEntry, len(cases)),
	}
	for _, c := range cases {
		r := rubricByID[c.CaseID]
		rubricDecision, ok := NormalizeDecision(r.ExpectedDecision)
		if !ok {
			return nil, fmt.Errorf("%w: invalid rubric expected decision for %s: %q",
				ErrIntegrity, c.CaseID, r.ExpectedDecision)
		}
		if rubricDecision != expected[c.CaseID] {
			return nil, fmt.Errorf("%w: expected decision mismatch for %s: rubric=%q ground_truth=%q",
				ErrIntegrity, c.CaseID, rubricDecision, expected[c.CaseID])
		}
		idx.order = append(idx.order, c.CaseID)
		idx.entries[c.CaseID] = IndexEntry{
			CaseID:           c.CaseID,
			Title:            r.Title,
			Category:         r.Category,
			Severity:         r.Severity,
			ExpectedDecision: rubricDecision,
			PassRequirements: r.PassRequirements,
			AutoFailTriggers: r.AutoFailTriggers,
			MistakeType:      r.MistakeType,
		}
	}
	return idx, nil
}

// validateGroundTruthCoverage checks that ground truth covers exactly the
// benchmark case set with canonical decisions.
func validateGroundTruthCoverage(cases []Case, groundTruth GroundTruth) (map[string]Decision, error) {
	expected := make(map[string]Decision, len(groundTruth))
	known := make(map[string]bool, len(cases))
	for _, c := range cases {
		known[c.CaseID] = true
		raw, ok := groundTruth[c.CaseID]
		if !ok {
			return nil, fmt.Errorf("%w: missing ground truth for %s", ErrIntegrity, c.CaseID)
		}
		d, ok := NormalizeDecision(raw)
		if !ok {
			return nil, fmt.Errorf("%w: invalid ground truth decision for %s: %q", ErrIntegrity, c.CaseID, raw)
		}
		expected[c.CaseID] = d
	}

	extra := make([]string, 0)
	for id := range groundTruth {
		if !known[id] {
			extra = append(extra, id)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return nil, fmt.Errorf("%w: ground truth has unknown case %s", ErrIntegrity, extra[0])
	}
	return expected, nil
}

// validateRubricAlignment checks rubric size and the title/category/severity
// of every case against the benchmark.
func validateRubricAlignment(cases []Case, rubric []RubricEntry) (map[string]RubricEntry, error) {
	if len(cases) != len(rubric) {
		return nil, fmt.Errorf("%w: benchmark/rubric size mismatch: %d vs %d", ErrIntegrity, len(cases), len(rubric))
	}

	byID := make(map[string]RubricEntry, len(rubric))
	for _, r := range rubric {
		if _, dup := byID[r.CaseID]; dup {
			return nil, fmt.Errorf("%w: duplicate rubric section for %s", ErrIntegrity, r.CaseID)
		}
		byID[r.CaseID] = r
	}

	for _, c := range cases {
		r, ok := byID[c.CaseID]
		if !ok {
			return nil, fmt.Errorf("%w: missing rubric section for %s", ErrIntegrity, c.CaseID)
		}
		if r.Title != c.Title {
			return nil, fmt.Errorf("%w: title mismatch for %s: benchmark=%q rubric=%q", ErrIntegrity, c.CaseID, c.Title, r.Title)
		}
		if r.Category != c.Category {
			return nil, fmt.Errorf("%w: category mismatch for %s: benchmark=%q rubric=%q", ErrIntegrity, c.CaseID, c.Category, r.Category)
		}
		if r.Severity != c.Severity {
			return nil, fmt.Errorf("%w: severity mismatch for %s: benchmark=%q rubric=%q", ErrIntegrity, c.CaseID, c.Severity, r.Severity)
		}
	}
	return byID, nil
}

// Lookup returns the entry for caseID.
func (x *Index) Lookup(caseID string) (IndexEntry, bool) {
	e, ok := x.entries[caseID]
	return e, ok
}

// CaseIDs returns case ids in benchmark order. The slice is a copy.
func (x *Index) CaseIDs() []string {
	out := make([]string, len(x.order))
	copy(out, x.order)
	return out
}

// Len returns the number of benchmark cases.
func (x *Index) Len() int {
	return len(x.order)
}
