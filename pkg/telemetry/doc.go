// Package telemetry exports the reactive runtime's activity to Prometheus
// and OpenTelemetry. Both halves attach to the runtime's instrumentation
// hooks and can be installed and removed independently at runtime.
package telemetry
