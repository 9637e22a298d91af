package logging

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger records every entry, Trace and up, behind the default redaction.
type TestLogger struct {
	*Logger
	logs *observer.ObservedLogs
}

func NewTestLogger() *TestLogger {
	core, logs := observer.New(TraceLevel)
	r, err := newRedactor(NewDefaultConfig().Redaction)
	if err != nil {
		panic(err)
	}
	return &TestLogger{
		Logger: &Logger{zap: zap.New(r.wrap(core))},
		logs:   logs,
	}
}

// Entries returns the recorded entries in order.
func (t *TestLogger) Entries() []observer.LoggedEntry {
	return t.logs.All()
}

// Messages returns the entries whose message contains substr.
func (t *TestLogger) Messages(substr string) []observer.LoggedEntry {
	var out []observer.LoggedEntry
	for _, e := range t.logs.All() {
		if strings.Contains(e.Message, substr) {
			out = append(out, e)
		}
	}
	return out
}

func (t *TestLogger) Reset() {
	t.logs.TakeAll()
}

func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, substr string) {
	tb.Helper()
	for _, e := range t.Messages(substr) {
		if e.Level == level {
			return
		}
	}
	tb.Errorf("no %v entry containing %q; got %s", level, substr, t.summary())
}

func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, substr string) {
	tb.Helper()
	for _, e := range t.Messages(substr) {
		if e.Level == level {
			tb.Errorf("unexpected %v entry %q", level, e.Message)
		}
	}
}

// AssertField checks that some entry containing msg has field key with the
// given value. Values compare by their printed form, so 3, "3" and int64(3)
// all match a zap.Int field of 3.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, want interface{}) {
	tb.Helper()
	for _, e := range t.Messages(msg) {
		if got, ok := e.ContextMap()[key]; ok && fmt.Sprint(got) == fmt.Sprint(want) {
			return
		}
	}
	tb.Errorf("no entry %q with %s=%v; got %s", msg, key, want, t.summary())
}

var leakPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[a-z0-9._~+/=-]{8,}`),
	regexp.MustCompile(`\b(AKIA[0-9A-Z]{16}|gh[pousr]_[A-Za-z0-9]{36}|sk-[A-Za-z0-9_-]{20,})\b`),
	regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`),
	regexp.MustCompile(`://[^:/\s]+:[^@/\s]+@`),
}

// AssertNoSecrets fails on any recorded message or string value that looks
// like a credential, and on any credential-named field not set to Redacted.
func (t *TestLogger) AssertNoSecrets(tb testing.TB) {
	tb.Helper()
	r, _ := newRedactor(NewDefaultConfig().Redaction)
	check := func(where, s string) {
		for _, re := range leakPatterns {
			if re.MatchString(s) {
				tb.Errorf("credential-like text in %s: %q", where, s)
			}
		}
	}
	for _, e := range t.logs.All() {
		check("message", e.Message)
		for k, v := range e.ContextMap() {
			s, isString := v.(string)
			if r.sensitiveKey(k) && (!isString || s != Redacted) {
				tb.Errorf("field %q not redacted: %v", k, v)
			}
			if isString {
				check("field "+k, s)
			}
		}
	}
}

func (t *TestLogger) summary() string {
	var b strings.Builder
	for _, e := range t.logs.All() {
		fmt.Fprintf(&b, "\n  %v %q %v", e.Level, e.Message, e.ContextMap())
	}
	if b.Len() == 0 {
		return "no entries"
	}
	return b.String()
}
