package bench

import "errors"

// Fatal error classes. Every error returned by this package and its
// sub-packages wraps exactly one of these; the wrapped message names the
// offending case id or field.
var (
	// ErrIntegrity reports benchmark / rubric / ground-truth disagreement or
	// an input record that references data the index does not know.
	ErrIntegrity = errors.New("integrity error")

	// ErrCoverage reports a case without enough responses for the requested K
	// (or without any response when partial input is not allowed).
	ErrCoverage = errors.New("coverage error")

	// ErrConsistency reports differing response counts across cases in a
	// fixed-K ensemble input.
	ErrConsistency = errors.New("consistency error")

	// ErrConfig reports invalid run parameters (K values, seed, cost, latency).
	ErrConfig = errors.New("config error")
)
