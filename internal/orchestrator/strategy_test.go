package orchestrator

import (
	"testing"

	"github.com/fyrsmithlabs/fixd/internal/remediation"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		c    remediation.Classification
		want remediation.Strategy
	}{
		{"simple low confidence", remediation.Classification{Complexity: remediation.ComplexitySimple, Confidence: 0.1}, remediation.StrategyLocalFirst},
		{"simple high confidence", remediation.Classification{Complexity: remediation.ComplexitySimple, Confidence: 0.9}, remediation.StrategyLocalFirst},
		{"simple with architectural category", remediation.Classification{Complexity: remediation.ComplexitySimple, Category: remediation.CategoryArchitectural}, remediation.StrategyLocalFirst},
		{"medium confident", remediation.Classification{Complexity: remediation.ComplexityMedium, Confidence: 0.71}, remediation.StrategyLocalFirst},
		{"medium at threshold", remediation.Classification{Complexity: remediation.ComplexityMedium, Confidence: 0.7}, remediation.StrategyRemoteFirst},
		{"medium unsure", remediation.Classification{Complexity: remediation.ComplexityMedium, Confidence: 0.5}, remediation.StrategyRemoteFirst},
		{"complex design flaw", remediation.Classification{Complexity: remediation.ComplexityComplex, Category: remediation.CategoryDesignFlaw}, remediation.StrategyRemoteOnly},
		{"complex architectural", remediation.Classification{Complexity: remediation.ComplexityComplex, Category: remediation.CategoryArchitectural}, remediation.StrategyRemoteOnly},
		{"complex multi-file", remediation.Classification{Complexity: remediation.ComplexityComplex, Category: remediation.CategoryMultiFile}, remediation.StrategyRemoteOnly},
		{"complex other", remediation.Classification{Complexity: remediation.ComplexityComplex, Category: "logic", Confidence: 1}, remediation.StrategyRemoteFirst},
		{"unknown complexity confident", remediation.Classification{Complexity: "extreme", Confidence: 0.9}, remediation.StrategyLocalFirst},
		{"unknown complexity unsure", remediation.Classification{Complexity: "", Confidence: 0.2}, remediation.StrategyRemoteFirst},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.c)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Concrete())
		})
	}
}
