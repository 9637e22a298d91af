package secrets

import (
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// gitleaksFinding is a secret value reported by the gitleaks ruleset.
type gitleaksFinding struct {
	rule   string
	secret string
}

// gitleaksDetector runs the gitleaks default configuration (several hundred
// provider-specific rules) over a string. A Detector is not safe for
// concurrent use, so scans are serialized.
type gitleaksDetector struct {
	mu sync.Mutex
	d  *detect.Detector
}

func newGitleaksDetector() (*gitleaksDetector, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, err
	}
	return &gitleaksDetector{d: d}, nil
}

// find returns each distinct secret value once.
func (g *gitleaksDetector) find(text string) []gitleaksFinding {
	g.mu.Lock()
	findings := g.d.DetectString(text)
	g.mu.Unlock()

	seen := make(map[string]bool, len(findings))
	out := make([]gitleaksFinding, 0, len(findings))
	for _, f := range findings {
		if f.Secret == "" || seen[f.Secret] {
			continue
		}
		seen[f.Secret] = true
		out = append(out, gitleaksFinding{rule: f.RuleID, secret: f.Secret})
	}
	return out
}
