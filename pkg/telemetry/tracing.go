package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/glintui/glint/pkg/reactive"
)

// Default tracer name for the runtime.
const defaultTracerName = "glint"

// TracingConfig configures the OpenTelemetry runtime tracer.
type TracingConfig struct {
	// TracerName is the name of the tracer (default: "glint").
	TracerName string

	// TracerProvider supplies the tracer.
	// Default: the global OpenTelemetry tracer provider.
	TracerProvider trace.TracerProvider

	// MinFlushDuration drops flush spans shorter than this.
	// Zero traces every flush.
	MinFlushDuration time.Duration

	// MinEffectDuration drops effect spans shorter than this.
	// Zero traces every run.
	MinEffectDuration time.Duration

	// AttributeExtractor extracts custom attributes for effect spans.
	// Called with the effect's id and name for each traced run.
	AttributeExtractor func(id uint64, name string) []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// TracingOption configures the OpenTelemetry runtime tracer.
type TracingOption func(*TracingConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.TracerProvider = tp
	}
}

// WithMinFlushDuration sets the minimum duration for flush spans.
func WithMinFlushDuration(d time.Duration) TracingOption {
	return func(c *TracingConfig) {
		c.MinFlushDuration = d
	}
}

// WithMinEffectDuration sets the minimum duration for effect spans.
func WithMinEffectDuration(d time.Duration) TracingOption {
	return func(c *TracingConfig) {
		c.MinEffectDuration = d
	}
}

// WithAttributeExtractor sets a custom attribute extractor for effect spans.
func WithAttributeExtractor(extractor func(id uint64, name string) []attribute.KeyValue) TracingOption {
	return func(c *TracingConfig) {
		c.AttributeExtractor = extractor
	}
}

// defaultTracingConfig returns the default tracing configuration.
func defaultTracingConfig() TracingConfig {
	return TracingConfig{
		TracerName:        defaultTracerName,
		MinFlushDuration:  0,
		MinEffectDuration: 0,
	}
}

// RuntimeTracer emits OpenTelemetry spans for batch flushes and effect runs.
//
// The hooks report each event after it finished, so spans are created
// retroactively: both timestamps are set explicitly from the reported
// duration rather than from the tracer's clock.
type RuntimeTracer struct {
	config TracingConfig
}

// Tracing creates a runtime tracer. Call Install on the result to start
// emitting spans.
//
// The tracer uses the global OpenTelemetry tracer provider unless
// WithTracerProvider is given. Configure the provider in your main()
// before installing:
//
//	tp := sdktrace.NewTracerProvider(
//	    sdktrace.WithBatcher(exporter),
//	)
//	otel.SetTracerProvider(tp)
//
//	tracer := telemetry.Tracing(
//	    telemetry.WithMinFlushDuration(100 * time.Microsecond),
//	)
//	remove := tracer.Install()
//	defer remove()
func Tracing(opts ...TracingOption) *RuntimeTracer {
	config := defaultTracingConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if config.TracerProvider != nil {
		config.tracer = config.TracerProvider.Tracer(config.TracerName)
	} else {
		config.tracer = otel.Tracer(config.TracerName)
	}

	return &RuntimeTracer{config: config}
}

// Install attaches span emission to the runtime's instrumentation hooks.
// The returned function detaches it.
func (t *RuntimeTracer) Install() func() {
	return reactive.AddHooks(&reactive.Hooks{
		BatchFlush: func(effects int, d time.Duration) {
			if d < t.config.MinFlushDuration {
				return
			}
			end := time.Now()
			_, span := t.config.tracer.Start(
				context.Background(),
				"glint.flush",
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithTimestamp(end.Add(-d)),
				trace.WithAttributes(attribute.Int("glint.flush.effects", effects)),
			)
			span.End(trace.WithTimestamp(end))
		},
		EffectRun: func(id uint64, name string, d time.Duration, panicked bool) {
			if d < t.config.MinEffectDuration {
				return
			}
			end := time.Now()

			attrs := []attribute.KeyValue{
				attribute.Int64("glint.node.id", int64(id)),
			}
			if name != "" {
				attrs = append(attrs, attribute.String("glint.node.name", name))
			}
			if t.config.AttributeExtractor != nil {
				attrs = append(attrs, t.config.AttributeExtractor(id, name)...)
			}

			_, span := t.config.tracer.Start(
				context.Background(),
				effectSpanName(name),
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithTimestamp(end.Add(-d)),
				trace.WithAttributes(attrs...),
			)
			if panicked {
				span.SetStatus(codes.Error, "effect panicked")
			} else {
				span.SetStatus(codes.Ok, "")
			}
			span.End(trace.WithTimestamp(end))
		},
	})
}

// effectSpanName creates a span name from the effect's name.
func effectSpanName(name string) string {
	if name == "" {
		return "glint.effect"
	}
	return fmt.Sprintf("glint.effect %s", name)
}
