// Package testutil provides shared test infrastructure for the bench
// packages: raw-text builders for responses and rubric sections, and float
// assertions. It does not import bench, so in-package bench tests can use
// it.
package testutil

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

// Response renders a well-formed 3-line model response.
func Response(decision, confidence, reason string) string {
	return fmt.Sprintf("DECISION: %s\nCONFIDENCE: %s\nPRIMARY_REASON: %s", decision, confidence, reason)
}

// Responses renders one well-formed response per decision, all HIGH
// confidence.
func Responses(decisions ...string) []string {
	out := make([]string, len(decisions))
	for i, d := range decisions {
		out[i] = Response(d, "HIGH", fmt.Sprintf("reason %d", i+1))
	}
	return out
}

// RubricSection describes one case as it appears in the rubric markdown.
type RubricSection struct {
	CaseID           string
	Title            string
	Category         string
	Severity         string
	ExpectedDecision string
	PassRequirements []string
	AutoFailTriggers []string
	MistakeType      string
}

// RubricMarkdown renders sections in the rubric's markdown layout.
func RubricMarkdown(sections ...RubricSection) string {
	var b strings.Builder
	b.WriteString("# Settlement rubric\n\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "### %s - %s\n\n", s.CaseID, s.Title)
		fmt.Fprintf(&b, "Category: %s\n", s.Category)
		fmt.Fprintf(&b, "Severity: %s\n", s.Severity)
		fmt.Fprintf(&b, "Expected decision: %s\n\n", s.ExpectedDecision)
		b.WriteString("PASS requirements:\n")
		for i, r := range s.PassRequirements {
			fmt.Fprintf(&b, "%d. %s\n", i+1, r)
		}
		b.WriteString("Auto-fail triggers:\n")
		for i, r := range s.AutoFailTriggers {
			fmt.Fprintf(&b, "%d. %s\n", i+1, r)
		}
		fmt.Fprintf(&b, "Mistake type: %s\n\n", s.MistakeType)
	}
	return b.String()
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
