package classifier

import (
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/fixd/internal/remediation"
)

// Fault kind categories. These are the free-form tags returned when no
// structural category (multi-file, design-flaw, architectural) applies.
const (
	CategorySyntax      = "syntax"
	CategoryImport      = "import"
	CategoryRuntime     = "runtime"
	CategoryLogic       = "logic"
	CategoryPerformance = "performance"
)

// Complexity factors detected in the fault context.
const (
	FactorMultiFile          = "multi_file"
	FactorAsync              = "async_code"
	FactorClassHierarchy     = "class_hierarchy"
	FactorExternalDependency = "external_dependency"
	FactorDatabase           = "database_operation"
	FactorNetwork            = "network_operation"
	FactorFileIO             = "file_operation"
	FactorConcurrency        = "concurrency"
)

// Base scores per kind tier.
const (
	baseSimple  = 0.3
	baseMedium  = 1.0
	baseComplex = 2.0
	baseUnknown = 1.0
)

// Score thresholds. A score below simpleCeiling is simple, below mediumCeiling
// medium, anything else complex.
const (
	simpleCeiling = 0.5
	mediumCeiling = 1.5
)

// maxContextLength bounds how much snippet/traceback text the regex rules scan.
const maxContextLength = 64 * 1024

// kindRule describes a recognized fault kind.
type kindRule struct {
	category string
	base     float64
}

var knownKinds = map[string]kindRule{
	// simple
	"SyntaxError":         {CategorySyntax, baseSimple},
	"IndentationError":    {CategorySyntax, baseSimple},
	"ImportError":         {CategoryImport, baseSimple},
	"ModuleNotFoundError": {CategoryImport, baseSimple},
	"syntax error":        {CategorySyntax, baseSimple},
	"undefined":           {CategorySyntax, baseSimple},
	"missing import":      {CategoryImport, baseSimple},
	"unused import":       {CategoryImport, baseSimple},

	// medium
	"AttributeError":          {CategoryRuntime, baseMedium},
	"NameError":               {CategoryRuntime, baseMedium},
	"TypeError":               {CategoryRuntime, baseMedium},
	"ValueError":              {CategoryRuntime, baseMedium},
	"KeyError":                {CategoryRuntime, baseMedium},
	"IndexError":              {CategoryRuntime, baseMedium},
	"nil pointer dereference": {CategoryRuntime, baseMedium},
	"index out of range":      {CategoryRuntime, baseMedium},
	"type assertion":          {CategoryRuntime, baseMedium},
	"assignment to nil map":   {CategoryRuntime, baseMedium},

	// complex
	"RecursionError": {CategoryLogic, baseComplex},
	"MemoryError":    {CategoryPerformance, baseComplex},
	"RuntimeError":   {CategoryLogic, baseComplex},
	"AssertionError": {CategoryLogic, baseComplex},
	"stack overflow": {CategoryLogic, baseComplex},
	"out of memory":  {CategoryPerformance, baseComplex},
	"deadlock":       {CategoryLogic, baseComplex},
	"data race":      {CategoryLogic, baseComplex},
}

// designKinds are fault kinds that point at a design problem rather than a local bug.
var designKinds = map[string]bool{
	"RecursionError": true,
	"stack overflow": true,
}

var factorWeights = map[string]float64{
	FactorMultiFile:          2.0,
	FactorAsync:              1.5,
	FactorClassHierarchy:     1.8,
	FactorExternalDependency: 1.3,
	FactorDatabase:           1.6,
	FactorNetwork:            1.5,
	FactorFileIO:             1.2,
	FactorConcurrency:        2.0,
}

var (
	// Python traceback frames: File "path", line N
	pyFrameRe = regexp.MustCompile(`File "(.*?)"`)
	// Go stack frames: <tab>/path/to/file.go:123
	goFrameRe = regexp.MustCompile(`(?m)^\s+(\S+\.go):\d+`)

	designRe        = regexp.MustCompile(`(?i)\bdesign\b`)
	architecturalRe = regexp.MustCompile(`(?i)\b(?:architect\w*|import cycle|circular import|layering)\b`)
)

// RuleClassifier classifies faults with a fixed rule set.
// Thread-safe: it holds no mutable state.
type RuleClassifier struct{}

// New returns a RuleClassifier.
func New() *RuleClassifier {
	return &RuleClassifier{}
}

var _ remediation.Classifier = (*RuleClassifier)(nil)

// Classify returns the complexity, category and confidence for fault.
// An unrecognized fault classifies as medium / unknown / 0.5.
func (c *RuleClassifier) Classify(fault remediation.Fault) remediation.Classification {
	factors := Factors(fault)
	score := Score(fault.Kind, factors)
	complexity := complexityFor(score)

	return remediation.Classification{
		Complexity: complexity,
		Category:   categoryFor(fault, complexity, factors),
		Confidence: confidenceFor(fault),
		Factors:    factors,
	}
}

// Score computes the complexity score: the kind's base score multiplied by the
// weight of every detected factor.
func Score(kind string, factors []string) float64 {
	score := baseUnknown
	if rule, ok := knownKinds[kind]; ok {
		score = rule.base
	}
	for _, f := range factors {
		if w, ok := factorWeights[f]; ok {
			score *= w
		}
	}
	return score
}

// Factors returns the complexity factors present in the fault's snippet and
// traceback, in a fixed order.
func Factors(fault remediation.Fault) []string {
	code := truncate(fault.Snippet)
	lower := strings.ToLower(code)
	traceback := truncate(fault.Traceback)

	var factors []string
	if strings.Contains(code, "async ") || strings.Contains(code, "await ") {
		factors = append(factors, FactorAsync)
	}
	if strings.Contains(code, "class ") && strings.Contains(code, "super()") {
		factors = append(factors, FactorClassHierarchy)
	}
	if strings.Contains(code, "import ") || strings.Contains(code, "from ") {
		factors = append(factors, FactorExternalDependency)
	}
	if containsAny(lower, "sql", "database", "db.", "cursor", "query") {
		factors = append(factors, FactorDatabase)
	}
	if containsAny(lower, "http", "request", "socket", "api") {
		factors = append(factors, FactorNetwork)
	}
	if containsAny(lower, "open(", "file", "read(", "write(") {
		factors = append(factors, FactorFileIO)
	}
	if containsAny(lower, "thread", "process", "lock", "queue", "go func", "chan ", "sync.") {
		factors = append(factors, FactorConcurrency)
	}
	if traceback != "" && distinctFiles(traceback) > 1 {
		factors = append(factors, FactorMultiFile)
	}
	return factors
}

func complexityFor(score float64) remediation.Complexity {
	switch {
	case score < simpleCeiling:
		return remediation.ComplexitySimple
	case score < mediumCeiling:
		return remediation.ComplexityMedium
	default:
		return remediation.ComplexityComplex
	}
}

func categoryFor(fault remediation.Fault, complexity remediation.Complexity, factors []string) string {
	if complexity == remediation.ComplexityComplex && hasFactor(factors, FactorMultiFile) {
		return remediation.CategoryMultiFile
	}
	if designKinds[fault.Kind] || designRe.MatchString(fault.Message) {
		return remediation.CategoryDesignFlaw
	}
	if architecturalRe.MatchString(fault.Message) {
		return remediation.CategoryArchitectural
	}
	return kindCategory(fault.Kind)
}

// kindCategory maps a kind to its category, falling back to substring hints
// for kinds not in the known table.
func kindCategory(kind string) string {
	if rule, ok := knownKinds[kind]; ok {
		return rule.category
	}
	switch {
	case strings.Contains(kind, "Import"), strings.Contains(kind, "Module"):
		return CategoryImport
	case strings.Contains(kind, "Syntax"), strings.Contains(kind, "Indent"):
		return CategorySyntax
	case strings.Contains(kind, "Runtime"):
		return CategoryRuntime
	}
	return remediation.CategoryUnknown
}

func confidenceFor(fault remediation.Fault) float64 {
	confidence := 0.5
	if _, ok := knownKinds[fault.Kind]; ok {
		confidence += 0.3
	}
	if len(fault.Message) > 10 {
		confidence += 0.1
	}
	if fault.Snippet != "" {
		confidence += 0.1
	}
	if fault.Traceback != "" {
		confidence += 0.05
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

func distinctFiles(traceback string) int {
	seen := make(map[string]struct{})
	for _, m := range pyFrameRe.FindAllStringSubmatch(traceback, -1) {
		seen[m[1]] = struct{}{}
	}
	for _, m := range goFrameRe.FindAllStringSubmatch(traceback, -1) {
		seen[m[1]] = struct{}{}
	}
	return len(seen)
}

func hasFactor(factors []string, want string) bool {
	for _, f := range factors {
		if f == want {
			return true
		}
	}
	return false
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func truncate(s string) string {
	if len(s) > maxContextLength {
		return s[:maxContextLength]
	}
	return s
}
