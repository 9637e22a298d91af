// Package provider implements remediation.FixProvider over HTTP.
//
// Both fix engines, the local pattern-based one and the remote model-backed
// one, are reached the same way: the task is POSTed as JSON to the engine
// endpoint and the engine answers with a JSON result. Requests are rate limited
// with golang.org/x/time/rate and retried with exponential backoff on
// transport errors, 429 and 5xx responses.
package provider
