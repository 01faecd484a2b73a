package sweep

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/agentsettlement/settlebench/bench"
)

// Defaults applied by DefaultConfig.
const (
	DefaultSeed          int64 = 1337
	DefaultBootstrapRuns       = 1
	DefaultKValues             = "1,3,5,7"
)

// Config holds the sweep parameters, loadable from a YAML file.
type Config struct {
	KValues          []int   `yaml:"k_values"`
	BootstrapRuns    int     `yaml:"bootstrap_runs"`
	Seed             int64   `yaml:"seed"`
	CostPerCallUSD   float64 `yaml:"cost_per_call_usd"`
	LatencyPerCallMs float64 `yaml:"latency_per_call_ms"`
	AllowPartial     bool    `yaml:"allow_partial"`
	// Workers bounds concurrent (K, trial) jobs. Results do not depend on it.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns K values 1,3,5,7, one deterministic trial, seed 1337
// and zero cost/latency.
func DefaultConfig() Config {
	return Config{
		KValues:       []int{1, 3, 5, 7},
		BootstrapRuns: DefaultBootstrapRuns,
		Seed:          DefaultSeed,
		Workers:       1,
	}
}

// LoadConfig reads a YAML sweep config over DefaultConfig. Unknown keys are
// rejected so a typo cannot silently fall back to a default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep config: %w", err)
	}
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parsing sweep config: %v", bench.ErrConfig, err)
	}
	return &cfg, nil
}

var kValueRe = regexp.MustCompile(`^[0-9]+$`)

// ParseKValues parses a comma-separated list such as "1,3,5,7" into sorted,
// de-duplicated positive integers. Tokens must be plain digits, so signs
// and spaces inside a token are rejected.
func ParseKValues(raw string) ([]int, error) {
	tokens := make([]int, 0)
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		v, err := strconv.Atoi(tok)
		if !kValueRe.MatchString(tok) || err != nil || v <= 0 {
			return nil, fmt.Errorf("%w: invalid K value %q in k-values", bench.ErrConfig, tok)
		}
		tokens = append(tokens, v)
	}
	return NormalizeKValues(tokens)
}

// NormalizeKValues validates, de-duplicates and sorts ks ascending.
func NormalizeKValues(ks []int) ([]int, error) {
	if len(ks) == 0 {
		return nil, fmt.Errorf("%w: k-values must contain at least one positive integer", bench.ErrConfig)
	}
	seen := make(map[int]bool, len(ks))
	out := make([]int, 0, len(ks))
	for _, k := range ks {
		if k <= 0 {
			return nil, fmt.Errorf("%w: K values must be positive integers, got %d", bench.ErrConfig, k)
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Ints(out)
	return out, nil
}

// Validate checks every parameter range.
func (c *Config) Validate() error {
	if _, err := NormalizeKValues(c.KValues); err != nil {
		return err
	}
	if c.BootstrapRuns <= 0 {
		return fmt.Errorf("%w: bootstrap_runs must be a positive integer, got %d", bench.ErrConfig, c.BootstrapRuns)
	}
	if c.Seed < 0 {
		return fmt.Errorf("%w: seed must be a non-negative integer, got %d", bench.ErrConfig, c.Seed)
	}
	if !nonNegative(c.CostPerCallUSD) {
		return fmt.Errorf("%w: cost_per_call_usd must be a non-negative number, got %v", bench.ErrConfig, c.CostPerCallUSD)
	}
	if !nonNegative(c.LatencyPerCallMs) {
		return fmt.Errorf("%w: latency_per_call_ms must be a non-negative number, got %v", bench.ErrConfig, c.LatencyPerCallMs)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", bench.ErrConfig, c.Workers)
	}
	return nil
}

// nonNegative rejects negatives, NaN and infinities.
func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// normalized returns a validated copy with sorted unique K values and at
// least one worker.
func (c Config) normalized() (Config, error) {
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	ks, _ := NormalizeKValues(c.KValues)
	c.KValues = ks
	if c.Workers == 0 {
		c.Workers = 1
	}
	return c, nil
}
