package secrets

// Rule detects one kind of credential.
type Rule struct {
	ID      string `koanf:"id"`
	Pattern string `koanf:"pattern"`

	// Keywords, when set, gate the rule: at least one must appear
	// (case-insensitively) somewhere in the text.
	Keywords []string `koanf:"keywords"`
}

// DefaultRules returns the built-in rules. Self-identifying token prefixes
// need no keywords; broad assignment patterns do.
func DefaultRules() []Rule {
	return []Rule{
		// Cloud credentials
		{ID: "aws-access-key-id", Pattern: `(?:A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|AIPA|ANPA|ANVA|ASIA)[A-Z0-9]{16}`},
		{ID: "aws-secret-access-key", Pattern: `(?i)(?:aws_secret_access_key|aws_secret_key|secret_access_key)\s*[:=]\s*['"]?[A-Za-z0-9/+=]{40}['"]?`},
		{ID: "google-api-key", Pattern: `AIza[A-Za-z0-9_\-]{35}`},
		{ID: "azure-storage-key", Pattern: `(?i)(?:account_?key|storage_?key)\s*[:=]\s*['"]?[A-Za-z0-9+/]{86}==['"]?`, Keywords: []string{"azure", "storage"}},

		// Source hosting and SaaS tokens
		{ID: "github-token", Pattern: `(?:ghp|gho|ghu|ghs)_[A-Za-z0-9]{36}`},
		{ID: "github-fine-grained", Pattern: `github_pat_[A-Za-z0-9_]{22,}`},
		{ID: "gitlab-token", Pattern: `glpat-[A-Za-z0-9\-]{20,}`},
		{ID: "slack-token", Pattern: `xox[baprs]-[A-Za-z0-9\-]{10,}`},
		{ID: "stripe-key", Pattern: `(?:sk|rk)_(?:live|test)_[A-Za-z0-9]{24,}`},
		{ID: "npm-token", Pattern: `npm_[A-Za-z0-9]{36}`},
		{ID: "sendgrid-api-key", Pattern: `SG\.[A-Za-z0-9_\-]{22,}\.[A-Za-z0-9_\-]{43,}`},

		// Model provider keys
		{ID: "anthropic-api-key", Pattern: `sk-ant-[A-Za-z0-9_\-]{32,}`},
		{ID: "openai-api-key", Pattern: `sk-(?:proj-)?[A-Za-z0-9_\-]{40,}`},

		// Key material
		{ID: "private-key", Pattern: `-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP |ENCRYPTED )?PRIVATE KEY(?: BLOCK)?-----[\s\S]*?-----END (?:RSA |DSA |EC |OPENSSH |PGP |ENCRYPTED )?PRIVATE KEY(?: BLOCK)?-----`},
		{ID: "jwt", Pattern: `eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*`},

		// Connection strings show up in driver errors
		{ID: "credential-url", Pattern: `(?i)\b(?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|rediss|amqps?|nats)://[^\s:/@]+:[^\s@]+@[^\s'"]+`},

		// Assignments, as printed by env dumps and config reprs in tracebacks
		{ID: "bearer-token", Pattern: `(?i)bearer\s+[A-Za-z0-9_\-\.=]{20,}`, Keywords: []string{"bearer"}},
		{ID: "generic-api-key", Pattern: `(?i)(?:api[_-]?key|apikey|x-api-key)['"]?\s*[:=]\s*['"]?[A-Za-z0-9_\-]{16,}['"]?`, Keywords: []string{"key"}},
		{ID: "generic-password", Pattern: `(?i)(?:password|passwd|pwd|secret|token)['"]?\s*[:=]\s*['"]?[^\s'",)]{8,}['"]?`, Keywords: []string{"pass", "pwd", "secret", "token"}},
	}
}
