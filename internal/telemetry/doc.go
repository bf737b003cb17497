// Package telemetry wires OpenTelemetry tracing, metrics and logs for ceod.
//
// New installs OTLP trace and metric exporters (gRPC by default, or
// http/protobuf) as the global providers, so services can obtain tracers and
// meters through otel.Tracer and otel.Meter without holding a reference.
// When disabled, the global no-op providers stay in place.
//
// With log export on, LoggerProvider returns an OTLP log provider for the
// zap bridge in the logging package. Health feeds the readiness endpoint.
//
// Exporter failures never stop the daemon. The instance is marked degraded
// and the failure is logged.
//
// Tests use NewTestTelemetry for an in-memory span recorder and a manual
// metric reader.
package telemetry
