package bench

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/agentsettlement/settlebench/bench/stats"
)

// VoteBuckets lists the four vote buckets in tally order. Tie reporting
// follows this order.
var VoteBuckets = []Decision{Settle, Pending, Reject, FormatError}

// VoteCounts maps each bucket in VoteBuckets to its vote count.
type VoteCounts map[Decision]int

// String renders counts as "SETTLE=a;PENDING=b;REJECT=c;FORMAT_ERROR=d".
func (vc VoteCounts) String() string {
	parts := make([]string, len(VoteBuckets))
	for i, b := range VoteBuckets {
		parts[i] = fmt.Sprintf("%s=%d", b, vc[b])
	}
	return strings.Join(parts, ";")
}

// VoteTally is the outcome of one strict-majority vote.
type VoteTally struct {
	CaseID                  string     `json:"case_id"`
	VoteCounts              VoteCounts `json:"vote_counts"`
	KSize                   int        `json:"k_size"`
	StrictMajorityThreshold int        `json:"strict_majority_threshold"`
	MajorityDecision        Decision   `json:"majority_decision"`
	MajorityVotes           int        `json:"majority_votes"`
	HasStrictMajority       bool       `json:"has_strict_majority"`
	TiedTopDecisions        []Decision `json:"tied_top_decisions"`
}

// StrictMajorityThreshold returns floor(k/2)+1.
func StrictMajorityThreshold(k int) int {
	return k/2 + 1
}

// voteBucket maps a parsed response to its bucket. Anything without a valid
// format or canonical decision is a FORMAT_ERROR vote.
func voteBucket(p ParsedOutput) Decision {
	if !p.FormatOK || !p.Decision.IsCanonical() {
		return FormatError
	}
	return p.Decision
}

// Vote tallies outputs and resolves the strict majority. A majority exists
// only when a single bucket holds the maximum and reaches the threshold; a
// tie at the top is NO_MAJORITY even when the tied count clears it.
func Vote(caseID string, outputs []ParsedOutput) VoteTally {
	counts := make(VoteCounts, len(VoteBuckets))
	for _, b := range VoteBuckets {
		counts[b] = 0
	}
	for _, p := range outputs {
		counts[voteBucket(p)]++
	}

	maxVotes := 0
	for _, b := range VoteBuckets {
		if counts[b] > maxVotes {
			maxVotes = counts[b]
		}
	}
	winners := make([]Decision, 0, len(VoteBuckets))
	for _, b := range VoteBuckets {
		if counts[b] == maxVotes {
			winners = append(winners, b)
		}
	}

	threshold := StrictMajorityThreshold(len(outputs))
	strict := len(winners) == 1 && maxVotes >= threshold
	majority := NoMajority
	if strict {
		majority = winners[0]
	}

	return VoteTally{
		CaseID:                  caseID,
		VoteCounts:              counts,
		KSize:                   len(outputs),
		StrictMajorityThreshold: threshold,
		MajorityDecision:        majority,
		MajorityVotes:           maxVotes,
		HasStrictMajority:       strict,
		TiedTopDecisions:        winners,
	}
}

// EnsembleRow is a VoteTally resolved against the expected decision.
type EnsembleRow struct {
	VoteTally
	Title            string   `json:"title"`
	Category         string   `json:"category"`
	Severity         string   `json:"severity"`
	ExpectedDecision Decision `json:"expected_decision"`
	PassFail         PassFail `json:"pass_fail"`
	MistakeType      string   `json:"mistake_type"`
}

// ScoredRow projects the ensemble verdict onto the common row shape so it
// can be aggregated like any other run.
func (r EnsembleRow) ScoredRow() ScoredRow {
	return ScoredRow{
		CaseID:           r.CaseID,
		Title:            r.Title,
		Category:         r.Category,
		Severity:         r.Severity,
		ExpectedDecision: r.ExpectedDecision,
		Decision:         r.MajorityDecision,
		PassFail:         r.PassFail,
		MistakeType:      r.MistakeType,
		FormatOK:         r.MajorityDecision != FormatError,
	}
}

// ScoreVote classifies a tally:
//   - NO_MAJORITY: FAIL, ensemble_no_majority
//   - FORMAT_ERROR: FAIL, format_violation
//   - otherwise PASS on match, else FAIL with the rubric's mistake type
func ScoreVote(entry IndexEntry, tally VoteTally) EnsembleRow {
	row := EnsembleRow{
		VoteTally:        tally,
		Title:            entry.Title,
		Category:         entry.Category,
		Severity:         entry.Severity,
		ExpectedDecision: entry.ExpectedDecision,
		PassFail:         Fail,
	}
	switch tally.MajorityDecision {
	case NoMajority:
		row.MistakeType = MistakeEnsembleNoMajority
	case FormatError:
		row.MistakeType = MistakeFormatViolation
	case entry.ExpectedDecision:
		row.PassFail = Pass
		row.MistakeType = MistakeNone
	default:
		row.MistakeType = entry.MistakeType
	}
	return row
}

// VoteCase parses, tallies and classifies the K outputs of one case.
func VoteCase(entry IndexEntry, outputs []ParsedOutput) EnsembleRow {
	return ScoreVote(entry, Vote(entry.CaseID, outputs))
}

// EvenKWarning returns the warning emitted for an even ensemble size, or ""
// for odd k. Even sizes make ties, and so NO_MAJORITY, structurally likelier;
// scoring is unchanged.
func EvenKWarning(k int) string {
	if k%2 != 0 {
		return ""
	}
	return fmt.Sprintf("K=%d is even; ties and no-majority outcomes are more likely", k)
}

// EnsembleOptions controls ScoreEnsemble.
type EnsembleOptions struct {
	// K is the required responses per case; 0 infers it from the first case.
	K            int
	AllowPartial bool
}

// EnsembleReport is the full result of a fixed-K ensemble run.
type EnsembleReport struct {
	K                       int           `json:"ensemble_k"`
	StrictMajorityThreshold int           `json:"strict_majority_threshold"`
	Rows                    []EnsembleRow `json:"rows"`
	Summary                 Summary       `json:"summary"`
	// Single is every individual response scored on its own, the baseline
	// the ensemble is compared against.
	Single              Summary  `json:"single_model"`
	NoMajorityCases     int      `json:"no_majority_cases"`
	FormatMajorityCases int      `json:"format_majority_cases"`
	AccuracyDeltaPct    float64  `json:"accuracy_improvement_pct"`
	RiskImprovementPct  float64  `json:"risk_weighted_fail_improvement_pct"`
	Warnings            []string `json:"warnings,omitempty"`
}

// ScoreEnsemble groups records by case and runs the strict-majority vote on
// each. Every case must carry exactly K responses; a case with a different
// count aborts the run with ErrConsistency.
func ScoreEnsemble(idx *Index, records []ResponseRecord, opts EnsembleOptions) (*EnsembleReport, error) {
	if opts.K < 0 {
		return nil, fmt.Errorf("%w: k must be a positive integer, got %d", ErrConfig, opts.K)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: ensemble input has no records", ErrCoverage)
	}

	byCase := make(map[string][]ParsedOutput)
	singleRows := make([]ScoredRow, 0, len(records))
	for i, rec := range records {
		id := strings.TrimSpace(rec.CaseID)
		if id == "" {
			return nil, fmt.Errorf("%w: record %d has no case_id", ErrIntegrity, i+1)
		}
		entry, ok := idx.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("%w: unknown case_id: %s", ErrIntegrity, id)
		}
		parsed := ParseResponse(rec.ModelOutput)
		singleRows = append(singleRows, ScoreResponse(entry, parsed))
		byCase[id] = append(byCase[id], parsed)
	}

	if !opts.AllowPartial {
		for _, id := range idx.CaseIDs() {
			if _, ok := byCase[id]; !ok {
				return nil, fmt.Errorf("%w: missing case in input: %s", ErrCoverage, id)
			}
		}
	}

	caseIDs := make([]string, 0, len(byCase))
	for id := range byCase {
		caseIDs = append(caseIDs, id)
	}
	sort.Strings(caseIDs)

	k := opts.K
	if k == 0 {
		k = len(byCase[caseIDs[0]])
	}
	for _, id := range caseIDs {
		if n := len(byCase[id]); n != k {
			return nil, fmt.Errorf("%w: inconsistent K for %s: expected %d, found %d; ensure exactly K responses per case",
				ErrConsistency, id, k, n)
		}
	}

	report := &EnsembleReport{
		K:                       k,
		StrictMajorityThreshold: StrictMajorityThreshold(k),
		Rows:                    make([]EnsembleRow, 0, len(caseIDs)),
	}
	if w := EvenKWarning(k); w != "" {
		logrus.Warn(w)
		report.Warnings = append(report.Warnings, w)
	}

	scored := make([]ScoredRow, 0, len(caseIDs))
	for _, id := range caseIDs {
		entry, _ := idx.Lookup(id)
		row := VoteCase(entry, byCase[id])
		switch row.MajorityDecision {
		case NoMajority:
			report.NoMajorityCases++
		case FormatError:
			report.FormatMajorityCases++
		}
		report.Rows = append(report.Rows, row)
		scored = append(scored, row.ScoredRow())
	}

	report.Summary = WithCoverage(Aggregate(scored), idx.Len())
	report.Single = Aggregate(singleRows)
	report.AccuracyDeltaPct = stats.Round(report.Summary.PassRatePct-report.Single.PassRatePct, 1)
	report.RiskImprovementPct = stats.Round(report.Single.RiskWeightedFailRatePct-report.Summary.RiskWeightedFailRatePct, 1)

	logrus.Debugf("ensemble scored %d cases at K=%d (threshold %d)", len(caseIDs), k, report.StrictMajorityThreshold)
	return report, nil
}
