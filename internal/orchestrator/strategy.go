package orchestrator

import "github.com/fyrsmithlabs/fixd/internal/remediation"

// AcceptConfidence is the local-result confidence at or above which LOCAL_FIRST
// accepts a local fix, and above which a medium fault is tried locally first.
const AcceptConfidence = 0.7

// remoteOnlyCategories are the complex-fault categories sent straight to the
// remote engine.
var remoteOnlyCategories = map[string]bool{
	remediation.CategoryDesignFlaw:    true,
	remediation.CategoryArchitectural: true,
	remediation.CategoryMultiFile:     true,
}

// Resolve maps a classification to a concrete strategy. It never returns
// StrategyAdaptive. An unrecognized complexity is treated as medium.
func Resolve(c remediation.Classification) remediation.Strategy {
	switch c.Complexity {
	case remediation.ComplexitySimple:
		return remediation.StrategyLocalFirst
	case remediation.ComplexityComplex:
		if remoteOnlyCategories[c.Category] {
			return remediation.StrategyRemoteOnly
		}
		return remediation.StrategyRemoteFirst
	case remediation.ComplexityMedium:
		return resolveMedium(c.Confidence)
	default:
		return resolveMedium(c.Confidence)
	}
}

func resolveMedium(confidence float64) remediation.Strategy {
	if confidence > AcceptConfidence {
		return remediation.StrategyLocalFirst
	}
	return remediation.StrategyRemoteFirst
}
