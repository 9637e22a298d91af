package orchestrator

import "github.com/fyrsmithlabs/fixd/internal/remediation"

// Select picks the better of two optional results.
//
// A nil result loses to a non-nil one. When both succeeded the strictly more
// confident one wins, with a missing confidence read as DefaultConfidence. When
// exactly one succeeded it wins. When both failed the strictly more confident
// one wins, with a missing confidence read as 0. Ties go to a.
func Select(a, b *remediation.Result) *remediation.Result {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Success && b.Success:
		if b.ConfidenceOr(remediation.DefaultConfidence) > a.ConfidenceOr(remediation.DefaultConfidence) {
			return b
		}
		return a
	case a.Success:
		return a
	case b.Success:
		return b
	default:
		if b.ConfidenceOr(0) > a.ConfidenceOr(0) {
			return b
		}
		return a
	}
}
