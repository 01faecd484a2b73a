package bench

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Case is one benchmark scenario. CaseID is positional ("C01", "C02", ...).
type Case struct {
	CaseID    string `json:"case_id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Severity  string `json:"severity"`
	Scenario  string `json:"scenario"`
	AgentTask string `json:"agent_task"`
}

// RubricEntry is the grading rule for one case, as authored in the rubric.
type RubricEntry struct {
	CaseID           string   `json:"case_id"`
	Title            string   `json:"title"`
	Category         string   `json:"category"`
	Severity         string   `json:"severity"`
	ExpectedDecision string   `json:"expected_decision"`
	PassRequirements []string `json:"pass_requirements"`
	AutoFailTriggers []string `json:"auto_fail_triggers"`
	MistakeType      string   `json:"mistake_type"`
}

// GroundTruth maps case id to the raw (un-normalized) expected decision.
type GroundTruth map[string]string

// CaseID formats the 1-based benchmark position as a case id.
func CaseID(position int) string {
	return fmt.Sprintf("C%02d", position)
}

// AssignCaseIDs returns a copy of cases with CaseID set from list position.
// Benchmark files carry no ids of their own.
func AssignCaseIDs(cases []Case) []Case {
	out := make([]Case, len(cases))
	for i, c := range cases {
		c.CaseID = CaseID(i + 1)
		out[i] = c
	}
	return out
}

var (
	rubricHeaderRe  = regexp.MustCompile(`(?m)^###\s+(C\d{2})\s+-\s+(.+)$`)
	passBlockRe     = regexp.MustCompile(`(?s)PASS requirements:\n(.*?)\nAuto-fail triggers:`)
	autoFailBlockRe = regexp.MustCompile(`(?s)Auto-fail triggers:\n(.*?)\nMistake type:`)
	numberedItemRe  = regexp.MustCompile(`(?m)^\d+\.\s+(.+)$`)

	categoryFieldRe = fieldPattern("Category")
	severityFieldRe = fieldPattern("Severity")
	expectedFieldRe = fieldPattern("Expected decision")
	mistakeFieldRe  = fieldPattern("Mistake type")
)

// fieldPattern matches a single-line "Label: value" field.
func fieldPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(label) + `:[ \t]*(.+)$`)
}

func rubricField(section string, re *regexp.Regexp) string {
	m := re.FindStringSubmatch(section)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func numberedList(block string) []string {
	items := []string{}
	for _, m := range numberedItemRe.FindAllStringSubmatch(block, -1) {
		items = append(items, strings.TrimSpace(m[1]))
	}
	return items
}

// ParseRubric extracts one RubricEntry per "### Cnn - Title" section of the
// rubric markdown. A section runs until the next header. Missing fields are
// left empty; Load reports them as mismatches. Entries are sorted by case id.
func ParseRubric(text string) []RubricEntry {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	headers := rubricHeaderRe.FindAllStringSubmatchIndex(text, -1)
	entries := make([]RubricEntry, 0, len(headers))

	for i, h := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		section := text[h[0]:end]

		var passBlock, autoFailBlock string
		if m := passBlockRe.FindStringSubmatch(section); m != nil {
			passBlock = m[1]
		}
		if m := autoFailBlockRe.FindStringSubmatch(section); m != nil {
			autoFailBlock = m[1]
		}

		entries = append(entries, RubricEntry{
			CaseID:           strings.TrimSpace(text[h[2]:h[3]]),
			Title:            strings.TrimSpace(text[h[4]:h[5]]),
			Category:         rubricField(section, categoryFieldRe),
			Severity:         rubricField(section, severityFieldRe),
			ExpectedDecision: rubricField(section, expectedFieldRe),
			PassRequirements: numberedList(passBlock),
			AutoFailTriggers: numberedList(autoFailBlock),
			MistakeType:      rubricField(section, mistakeFieldRe),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].CaseID < entries[j].CaseID })
	return entries
}
