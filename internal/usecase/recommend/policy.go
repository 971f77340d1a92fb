package recommend

import "fmt"

// Strategy selects how many candidates are requested from the index.
type Strategy string

// Fetch strategies.
const (
	// StrategyFixed issues one query for k*OverFetchFactor candidates and
	// returns an under-filled result as-is.
	StrategyFixed Strategy = "fixed"
	// StrategyAdaptive doubles the window until k are accepted, the index
	// runs out of candidates, or MaxFetch is reached.
	StrategyAdaptive Strategy = "adaptive"
)

// Policy defaults.
const (
	DefaultOverFetchFactor = 5
	DefaultMaxFetch        = 500
)

// Policy is the candidate fetch policy.
type Policy struct {
	Strategy        Strategy
	OverFetchFactor int
	MaxFetch        int
}

// DefaultPolicy returns the adaptive policy with default limits.
func DefaultPolicy() Policy {
	return Policy{
		Strategy:        StrategyAdaptive,
		OverFetchFactor: DefaultOverFetchFactor,
		MaxFetch:        DefaultMaxFetch,
	}
}

// ParseStrategy parses a configuration value. Empty selects adaptive.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyAdaptive:
		return StrategyAdaptive, nil
	case StrategyFixed:
		return StrategyFixed, nil
	default:
		return "", fmt.Errorf("unknown fetch strategy %q (want fixed or adaptive)", s)
	}
}

// Validate checks the policy limits.
func (p Policy) Validate() error {
	if _, err := ParseStrategy(string(p.Strategy)); err != nil {
		return err
	}
	if p.OverFetchFactor < 1 {
		return fmt.Errorf("over_fetch_factor must be >= 1, got %d", p.OverFetchFactor)
	}
	if p.Strategy == StrategyAdaptive && p.MaxFetch < 1 {
		return fmt.Errorf("max_fetch must be >= 1, got %d", p.MaxFetch)
	}
	return nil
}

// initialWindow is the first candidate count requested for k results.
func (p Policy) initialWindow(k int) int {
	return k * p.OverFetchFactor
}

// nextWindow returns the widened window and whether another round is allowed.
// accepted is the count accepted from a query that asked for window and got returned candidates.
func (p Policy) nextWindow(k, window, returned, accepted int) (int, bool) {
	if p.Strategy != StrategyAdaptive || accepted >= k {
		return window, false
	}
	// The index has nothing more to give.
	if returned < window {
		return window, false
	}
	if window >= p.MaxFetch {
		return window, false
	}
	return min(window*2, p.MaxFetch), true
}
