// Package bootstrap provides reproducible subsampling of per-case response
// pools for bootstrap trials.
//
// # Algorithm mulberry32-v1
//
// Two implementations given the same (seed, k, trial) MUST select the same
// responses in the same order. Everything below uses unsigned 32-bit
// arithmetic (mod 2^32):
//
//	seed derivation:  x = uint32(seed)
//	                  x ^= uint32(k+1)     * 0x9e3779b1
//	                  x ^= uint32(trial+1) * 0x85ebca6b
//
//	generator step:   state += 0x6d2b79f5
//	                  t  = state
//	                  t  = (t ^ t>>15) * (t | 1)
//	                  t ^= t + (t ^ t>>7) * (t | 61)
//	                  u  = t ^ t>>14          // Uint32()
//	                  f  = u / 2^32           // Float64(), in [0,1)
//
//	selection:        partial Fisher-Yates over a copy of the pool:
//	                  for i in [0,k): j = i + floor(f * (n-i)); swap(i, j)
//	                  result = first k elements
//
// Within one trial the generator stream is shared by all cases, consumed in
// benchmark case order.
package bootstrap

// AlgorithmVersion names the mixing/generator/selection scheme above.
const AlgorithmVersion = "mulberry32-v1"

// Mixing constants.
const (
	kMixMultiplier     uint32 = 0x9e3779b1
	trialMixMultiplier uint32 = 0x85ebca6b
	mulberryIncrement  uint32 = 0x6d2b79f5
)

// MixSeed derives the per-(k, trial) generator seed from the base seed.
// The mix is order-sensitive: swapping k and trial changes the result.
func MixSeed(seed int64, k, trial int) uint32 {
	x := uint32(seed)
	x ^= uint32(k+1) * kMixMultiplier
	x ^= uint32(trial+1) * trialMixMultiplier
	return x
}

// Mulberry32 is a 32-bit state pseudo-random generator.
//
// Thread-safety: NOT thread-safe. Each trial owns its own generator.
type Mulberry32 struct {
	state uint32
}

// NewMulberry32 creates a generator with the given state.
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{state: seed}
}

// Uint32 advances the generator and returns the next output.
func (m *Mulberry32) Uint32() uint32 {
	m.state += mulberryIncrement
	t := m.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return t ^ t>>14
}

// Float64 returns the next output scaled to [0, 1).
func (m *Mulberry32) Float64() float64 {
	return float64(m.Uint32()) / 4294967296.0
}

// Intn returns floor(Float64() * n) for n > 0.
func (m *Mulberry32) Intn(n int) int {
	return int(m.Float64() * float64(n))
}
