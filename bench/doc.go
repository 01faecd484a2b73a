// Package bench provides the scoring engine for settlement-decision benchmarks.
//
// # Reading Guide
//
// Start with these files to understand how a response becomes a metric:
//   - decision.go: Decision / Confidence / Severity tokens and the fixed risk weights
//   - parser.go: the strict 3-line output contract (DECISION / CONFIDENCE / PRIMARY_REASON)
//   - store.go: the referential-integrity gate across benchmark, rubric and ground truth
//   - scorer.go: single-response, judgment-sheet and decisions-only scoring
//   - ensemble.go: strict-majority voting over K responses per case
//   - risk.go: severity-weighted pass/fail aggregation
//   - compare.go: leaderboard eligibility and ranking of run summaries
//
// # Architecture
//
// Everything in bench operates on records already loaded in memory; file
// formats live in cmd/. Sub-packages build on the core:
//   - bench/stats/: mean, sample standard deviation, interpolated percentiles
//   - bench/bootstrap/: versioned seeded subsampling (mulberry32-v1)
//   - bench/sweep/: K sweep with bootstrap trials and cost/latency projection
//
// All fatal conditions are reported through the sentinel errors in errors.go
// so callers can branch with errors.Is. Malformed model output is never an
// error: it is recorded on ParsedOutput and counted as a failure.
package bench
