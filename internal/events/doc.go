// Package events publishes remediation outcomes to NATS.
//
// Every finished task produces a FixEvent on {prefix}.fix.completed.{task_id}.
// A successful task submitted with Options.Publish also produces one on
// {prefix}.fix.publish.{task_id}, which downstream tooling consumes to open a
// change request. Cancelled tasks publish nothing.
package events
