package remediation

import (
	"fmt"
	"strings"
)

// Strategy governs which provider(s) are consulted for a task and in what order.
type Strategy string

const (
	StrategyLocalOnly   Strategy = "local_only"
	StrategyRemoteOnly  Strategy = "remote_only"
	StrategyLocalFirst  Strategy = "local_first"
	StrategyRemoteFirst Strategy = "remote_first"
	StrategyParallel    Strategy = "parallel"
	StrategyAdaptive    Strategy = "adaptive"
)

// AllStrategies returns every strategy, adaptive last.
func AllStrategies() []Strategy {
	return []Strategy{
		StrategyLocalOnly,
		StrategyRemoteOnly,
		StrategyLocalFirst,
		StrategyRemoteFirst,
		StrategyParallel,
		StrategyAdaptive,
	}
}

// Valid reports whether s is one of the known strategies.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyLocalOnly, StrategyRemoteOnly, StrategyLocalFirst,
		StrategyRemoteFirst, StrategyParallel, StrategyAdaptive:
		return true
	}
	return false
}

// Concrete reports whether s can be executed directly (every strategy but adaptive).
func (s Strategy) Concrete() bool {
	return s.Valid() && s != StrategyAdaptive
}

// ParseStrategy parses a strategy name. The legacy "cloud_only" and "cloud_first"
// spellings are accepted as aliases. An empty name parses to the empty strategy,
// which callers treat as "use the default".
func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "":
		return "", nil
	case "cloud_only":
		return StrategyRemoteOnly, nil
	case "cloud_first":
		return StrategyRemoteFirst, nil
	}
	s := Strategy(n)
	if !s.Valid() {
		return "", &ValidationError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", name)}
	}
	return s, nil
}
