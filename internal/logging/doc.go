// Package logging is fixd's structured logger: zap behind context-aware
// methods.
//
// Every method takes the request context and appends the correlation fields
// found there (trace_id, span_id, task.id, request.id):
//
//	ctx = logging.WithTaskID(ctx, task.ID)
//	logger.Info(ctx, "remediation task succeeded", zap.String("provider", "local"))
//
// Output goes to stdout (JSON or console) and, when a LoggerProvider is
// given, to OpenTelemetry through the otelzap bridge. Fields whose key names
// a credential (api_key, password, token, ...) are replaced before any
// output sees them, as are string values matching a redaction pattern.
// Below Error, entries are sampled per message; errors never are.
//
// Tests use NewTestLogger, which records entries in memory behind the same
// redaction:
//
//	tl := logging.NewTestLogger()
//	svc := New(..., tl.Logger)
//	tl.AssertLogged(t, zapcore.InfoLevel, "request served")
package logging
