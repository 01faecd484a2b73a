package cmd

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/agentsettlement/settlebench/bench"
)

// loadIndex reads the three authored sources and cross-validates them.
func loadIndex(benchmark, rubric, groundTruth string) (*bench.Index, error) {
	cases, err := readCases(benchmark)
	if err != nil {
		return nil, err
	}
	entries, err := readRubric(rubric)
	if err != nil {
		return nil, err
	}
	gt, err := readGroundTruth(groundTruth)
	if err != nil {
		return nil, err
	}
	idx, err := bench.Load(cases, entries, gt)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("loaded %d benchmark cases from %s", idx.Len(), benchmark)
	return idx, nil
}

// readCases decodes the benchmark JSON array and assigns positional ids.
func readCases(path string) ([]bench.Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading benchmark: %w", err)
	}
	var cases []bench.Case
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parsing benchmark %s: %w", path, err)
	}
	return bench.AssignCaseIDs(cases), nil
}

func readRubric(path string) ([]bench.RubricEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rubric: %w", err)
	}
	return bench.ParseRubric(string(data)), nil
}

// groundTruthRecord is the array form of the ground truth file.
type groundTruthRecord struct {
	CaseID           string `json:"case_id"`
	ExpectedDecision string `json:"expected_decision"`
	Decision         string `json:"decision"`
}

// readGroundTruth accepts either {"C01": "SETTLE", ...} or
// [{"case_id": "C01", "expected_decision": "SETTLE"}, ...].
// Values are kept raw; bench.Load normalizes them.
func readGroundTruth(path string) (bench.GroundTruth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ground truth: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var gt bench.GroundTruth
		if err := json.Unmarshal(trimmed, &gt); err != nil {
			return nil, fmt.Errorf("parsing ground truth %s: %w", path, err)
		}
		return gt, nil
	}

	var records []groundTruthRecord
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, fmt.Errorf("parsing ground truth %s: must be an object map or array: %w", path, err)
	}
	gt := make(bench.GroundTruth, len(records))
	for i, r := range records {
		id := strings.TrimSpace(r.CaseID)
		if id == "" {
			return nil, fmt.Errorf("%w: ground truth record %d has no case_id", bench.ErrIntegrity, i+1)
		}
		if _, dup := gt[id]; dup {
			return nil, fmt.Errorf("%w: duplicate ground truth for %s", bench.ErrIntegrity, id)
		}
		decision := r.ExpectedDecision
		if decision == "" {
			decision = r.Decision
		}
		gt[id] = decision
	}
	return gt, nil
}

// readResponses parses a JSONL file of {"case_id", "model_output"} records.
// Blank lines are skipped; the order of records is preserved.
func readResponses(path string) ([]bench.ResponseRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening responses: %w", err)
	}
	defer f.Close()

	records := make([]bench.ResponseRecord, 0)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec bench.ResponseRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("%s line %d: invalid JSON: %w", path, line, err)
		}
		rec.CaseID = strings.TrimSpace(rec.CaseID)
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading responses: %w", err)
	}
	return records, nil
}

// groupResponses collects raw outputs per case, preserving file order within
// each case. Records without a case id are rejected.
func groupResponses(records []bench.ResponseRecord) (map[string][]string, error) {
	out := make(map[string][]string)
	for i, r := range records {
		if r.CaseID == "" {
			return nil, fmt.Errorf("%w: record %d has no case_id", bench.ErrIntegrity, i+1)
		}
		out[r.CaseID] = append(out[r.CaseID], r.ModelOutput)
	}
	return out, nil
}

// readCSVObjects reads a CSV file with a header row into one map per row,
// keyed by trimmed header names.
func readCSVObjects(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s: CSV must include a header and at least one row", path)
	}

	header := rows[0]
	objects := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		obj := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(row) {
				obj[strings.TrimSpace(h)] = row[i]
			}
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

// parseBool accepts 1/0, true/false and yes/no in any case.
func parseBool(value, field, caseID string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("%w: %s: invalid boolean for %s: %q, use 1/0 or true/false",
		bench.ErrIntegrity, caseID, field, value)
}

// readJudgments reads a judgment sheet CSV with columns case_id, decision,
// format_ok, req1_met, req2_met, req3_met, af1_triggered, af2_triggered and
// optional mistake_type and notes.
func readJudgments(path string) ([]bench.Judgment, error) {
	objects, err := readCSVObjects(path)
	if err != nil {
		return nil, err
	}
	judgments := make([]bench.Judgment, 0, len(objects))
	for _, obj := range objects {
		id := strings.TrimSpace(obj["case_id"])
		j := bench.Judgment{
			CaseID:      id,
			Decision:    strings.TrimSpace(obj["decision"]),
			MistakeType: strings.TrimSpace(obj["mistake_type"]),
			Notes:       strings.TrimSpace(obj["notes"]),
		}
		flags := []struct {
			field string
			dst   *bool
		}{
			{"format_ok", &j.FormatOK},
			{"req1_met", &j.Req1Met},
			{"req2_met", &j.Req2Met},
			{"req3_met", &j.Req3Met},
			{"af1_triggered", &j.AF1Triggered},
			{"af2_triggered", &j.AF2Triggered},
		}
		// Booleans of rows without an id are not checked here; scoring reports
		// the missing id first.
		if id != "" {
			for _, fl := range flags {
				v, err := parseBool(obj[fl.field], fl.field, id)
				if err != nil {
					return nil, err
				}
				*fl.dst = v
			}
		}
		judgments = append(judgments, j)
	}
	return judgments, nil
}

// readDecisions reads a decisions-only run. CSV files need case_id and
// decision columns (notes optional); JSON may be an array of records or a
// {"C01": "SETTLE"} map.
func readDecisions(path string) ([]bench.DecisionRecord, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		objects, err := readCSVObjects(path)
		if err != nil {
			return nil, err
		}
		out := make([]bench.DecisionRecord, 0, len(objects))
		for _, obj := range objects {
			out = append(out, bench.DecisionRecord{
				CaseID:   strings.TrimSpace(obj["case_id"]),
				Decision: strings.TrimSpace(obj["decision"]),
				Notes:    strings.TrimSpace(obj["notes"]),
			})
		}
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading decisions: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var m map[string]string
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return nil, fmt.Errorf("parsing decisions %s: %w", path, err)
		}
		ids := make([]string, 0, len(m))
		for id := range m {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out := make([]bench.DecisionRecord, 0, len(ids))
		for _, id := range ids {
			out = append(out, bench.DecisionRecord{CaseID: strings.TrimSpace(id), Decision: strings.TrimSpace(m[id])})
		}
		return out, nil
	}

	var out []bench.DecisionRecord
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, fmt.Errorf("parsing decisions %s: must be an array or object map: %w", path, err)
	}
	return out, nil
}
