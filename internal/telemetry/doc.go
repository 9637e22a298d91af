// Package telemetry wires OpenTelemetry traces, metrics and logs for fixd.
//
// Each signal gets its own OTLP pipeline (gRPC or HTTP/protobuf). A pipeline
// that cannot be built, or an exporter that starts failing, marks the instance
// degraded instead of failing the daemon; Health reports why.
//
//	telemetry:
//	  enabled: true
//	  endpoint: localhost:4317
//	  protocol: grpc
//	  sampling:
//	    rate: 0.25
//	  metrics:
//	    enabled: true
//	    export_interval: 15s
//	  logs:
//	    enabled: true
//
// Tests use NewTestTelemetry, which records spans and metrics in memory.
package telemetry
