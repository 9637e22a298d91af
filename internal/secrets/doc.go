// Package secrets redacts credentials from fault context.
//
// Fault messages, snippets and tracebacks routinely carry environment dumps,
// connection strings and tokens. A Scrubber replaces every match of its rules
// with a redaction marker and reports which rules fired, never the matched
// values. The remote provider runs every task through a Scrubber before it
// leaves the host.
package secrets
