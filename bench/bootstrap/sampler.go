package bootstrap

import (
	"fmt"

	"github.com/agentsettlement/settlebench/bench"
)

// Sampler draws k responses from a case's pool for one bootstrap trial.
type Sampler[T any] interface {
	Sample(caseID string, pool []T) ([]T, error)
}

// Deterministic takes the first k items of every pool in their existing
// order. Used when a sweep runs a single trial per K.
type Deterministic[T any] struct {
	K int
}

// Sample returns pool[:k] as a new slice.
func (d Deterministic[T]) Sample(caseID string, pool []T) ([]T, error) {
	if err := checkPool(caseID, len(pool), d.K); err != nil {
		return nil, err
	}
	out := make([]T, d.K)
	copy(out, pool[:d.K])
	return out, nil
}

// TrialSampler draws without replacement using one mulberry32 stream per
// (seed, k, trial). Pools must be presented in benchmark case order for the
// selection to be reproducible.
//
// Thread-safety: NOT thread-safe. Create one per trial.
type TrialSampler[T any] struct {
	K   int
	rng *Mulberry32
}

// NewTrialSampler creates the sampler for trial (0-based) of size k.
func NewTrialSampler[T any](seed int64, k, trial int) *TrialSampler[T] {
	return &TrialSampler[T]{K: k, rng: NewMulberry32(MixSeed(seed, k, trial))}
}

// Sample returns k items of pool chosen by partial Fisher-Yates. The pool is
// not modified.
func (s *TrialSampler[T]) Sample(caseID string, pool []T) ([]T, error) {
	if err := checkPool(caseID, len(pool), s.K); err != nil {
		return nil, err
	}
	work := make([]T, len(pool))
	copy(work, pool)
	for i := 0; i < s.K; i++ {
		j := i + s.rng.Intn(len(work)-i)
		work[i], work[j] = work[j], work[i]
	}
	return work[:s.K:s.K], nil
}

// ForTrial picks the sampler a sweep uses: the deterministic prefix when
// runs == 1, otherwise a seeded TrialSampler.
func ForTrial[T any](runs int, seed int64, k, trial int) Sampler[T] {
	if runs == 1 {
		return Deterministic[T]{K: k}
	}
	return NewTrialSampler[T](seed, k, trial)
}

// Sample draws k items from a single pool with a fresh stream for
// (seed, k, trial). Identical arguments always return the identical subset.
func Sample[T any](pool []T, k int, seed int64, trial int) ([]T, error) {
	return NewTrialSampler[T](seed, k, trial).Sample("", pool)
}

func checkPool(caseID string, size, k int) error {
	if k <= 0 {
		return fmt.Errorf("%w: k must be a positive integer, got %d", bench.ErrConfig, k)
	}
	if size < k {
		if caseID == "" {
			return fmt.Errorf("%w: cannot sample K=%d from %d responses (short by %d)",
				bench.ErrCoverage, k, size, k-size)
		}
		return fmt.Errorf("%w: insufficient responses for %s: need %d, found %d (short by %d)",
			bench.ErrCoverage, caseID, k, size, k-size)
	}
	return nil
}
