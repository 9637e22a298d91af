package secrets

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fyrsmithlabs/fixd/internal/remediation"
)

// DefaultRedaction replaces every detected secret.
const DefaultRedaction = "[REDACTED]"

// Config configures a Scrubber.
type Config struct {
	// Redaction is the replacement text (default: "[REDACTED]").
	Redaction string

	// AllowList holds patterns for matches that are known not to be secrets,
	// such as documented example keys.
	AllowList []string

	// ExtraRules are appended to DefaultRules.
	ExtraRules []Rule

	// Gitleaks also runs the gitleaks default ruleset. Findings are
	// reported under "gitleaks:<rule-id>".
	Gitleaks bool
}

type compiledRule struct {
	id       string
	pattern  *regexp.Regexp
	keywords []*regexp.Regexp
}

// Scrubber redacts secrets from text. It is immutable after New and safe
// for concurrent use.
type Scrubber struct {
	redaction string
	rules     []compiledRule
	allow     []*regexp.Regexp
	gitleaks  *gitleaksDetector
}

// Report summarizes one scrub without revealing matched values.
type Report struct {
	// Findings is the number of redacted spans.
	Findings int `json:"findings"`

	// ByRule counts findings per rule ID.
	ByRule map[string]int `json:"by_rule,omitempty"`

	// Fields lists the task fields that were modified.
	Fields []string `json:"fields,omitempty"`
}

// Clean reports whether nothing was redacted.
func (r Report) Clean() bool {
	return r.Findings == 0
}

// New compiles the default rules plus cfg.ExtraRules.
func New(cfg Config) (*Scrubber, error) {
	s := &Scrubber{redaction: cfg.Redaction}
	if s.redaction == "" {
		s.redaction = DefaultRedaction
	}

	rules := append(DefaultRules(), cfg.ExtraRules...)
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule %d: id is required", i)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("rule %s: duplicate id", r.ID)
		}
		seen[r.ID] = true

		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: invalid pattern: %w", r.ID, err)
		}
		cr := compiledRule{id: r.ID, pattern: re}
		for _, kw := range r.Keywords {
			cr.keywords = append(cr.keywords, regexp.MustCompile("(?i)"+regexp.QuoteMeta(kw)))
		}
		s.rules = append(s.rules, cr)
	}

	for i, p := range cfg.AllowList {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("allow_list %d: invalid pattern: %w", i, err)
		}
		s.allow = append(s.allow, re)
	}

	if cfg.Gitleaks {
		g, err := newGitleaksDetector()
		if err != nil {
			return nil, fmt.Errorf("failed to load gitleaks rules: %w", err)
		}
		s.gitleaks = g
	}

	return s, nil
}

// Scrub returns text with every secret replaced and adds its findings to r.
func (s *Scrubber) Scrub(text string, r *Report) string {
	if text == "" {
		return text
	}

	type span struct{ start, end int }
	var spans []span
	add := func(start, end int, rule string) {
		spans = append(spans, span{start, end})
		if r != nil {
			if r.ByRule == nil {
				r.ByRule = make(map[string]int)
			}
			r.ByRule[rule]++
			r.Findings++
		}
	}

	for _, rule := range s.rules {
		if !rule.applies(text) {
			continue
		}
		for _, m := range rule.pattern.FindAllStringIndex(text, -1) {
			if !s.allowed(text[m[0]:m[1]]) {
				add(m[0], m[1], rule.id)
			}
		}
	}

	if s.gitleaks != nil {
		for _, f := range s.gitleaks.find(text) {
			if s.allowed(f.secret) {
				continue
			}
			for off := 0; ; {
				i := strings.Index(text[off:], f.secret)
				if i < 0 {
					break
				}
				add(off+i, off+i+len(f.secret), "gitleaks:"+f.rule)
				off += i + len(f.secret)
			}
		}
	}

	if len(spans) == 0 {
		return text
	}

	// Overlapping matches from different rules collapse into one marker.
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	merged := []span{spans[0]}
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.start <= last.end {
			if sp.end > last.end {
				last.end = sp.end
			}
			continue
		}
		merged = append(merged, sp)
	}

	out := make([]byte, 0, len(text))
	prev := 0
	for _, sp := range merged {
		out = append(out, text[prev:sp.start]...)
		out = append(out, s.redaction...)
		prev = sp.end
	}
	out = append(out, text[prev:]...)
	return string(out)
}

// ScrubTask returns a copy of task with secrets removed from the fault
// message, snippet and traceback. The input task is not modified.
func (s *Scrubber) ScrubTask(task *remediation.Task) (*remediation.Task, Report) {
	var r Report
	if task == nil {
		return nil, r
	}

	out := *task
	out.Targets = append([]string(nil), task.Targets...)

	fields := []struct {
		name string
		val  *string
	}{
		{"fault.message", &out.Fault.Message},
		{"fault.snippet", &out.Fault.Snippet},
		{"fault.traceback", &out.Fault.Traceback},
	}
	for _, f := range fields {
		before := r.Findings
		*f.val = s.Scrub(*f.val, &r)
		if r.Findings > before {
			r.Fields = append(r.Fields, f.name)
		}
	}
	return &out, r
}

func (c compiledRule) applies(text string) bool {
	if len(c.keywords) == 0 {
		return true
	}
	for _, kw := range c.keywords {
		if kw.MatchString(text) {
			return true
		}
	}
	return false
}

func (s *Scrubber) allowed(match string) bool {
	for _, re := range s.allow {
		if re.MatchString(match) {
			return true
		}
	}
	return false
}
