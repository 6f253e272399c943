package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"

	"github.com/glintui/glint/pkg/reactive"
)

// recordingTracer captures span start configurations without pulling in the
// otel SDK. The spans it hands back are no-ops.
type recordingTracer struct {
	embedded.Tracer
	mu    sync.Mutex
	spans []recordedSpan
}

type recordedSpan struct {
	name  string
	start time.Time
	attrs []attribute.KeyValue
}

func (rt *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	rt.mu.Lock()
	rt.spans = append(rt.spans, recordedSpan{
		name:  name,
		start: cfg.Timestamp(),
		attrs: cfg.Attributes(),
	})
	rt.mu.Unlock()
	return ctx, trace.SpanFromContext(context.Background())
}

func (rt *recordingTracer) recorded() []recordedSpan {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]recordedSpan(nil), rt.spans...)
}

type recordingProvider struct {
	embedded.TracerProvider
	tracer *recordingTracer
}

func (p *recordingProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return p.tracer
}

func spanAttr(sp recordedSpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range sp.attrs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracingEmitsFlushAndEffectSpans(t *testing.T) {
	rt := &recordingTracer{}
	tracer := Tracing(WithTracerProvider(&recordingProvider{tracer: rt}))
	remove := tracer.Install()
	defer remove()

	s := reactive.NewSignal(1)
	e := reactive.CreateEffect(func() reactive.Cleanup {
		s.Get()
		return nil
	}, reactive.EffectName("watcher"))
	defer e.Dispose()

	s.Set(2)

	var flushes, effects int
	for _, sp := range rt.recorded() {
		switch sp.name {
		case "glint.flush":
			flushes++
			if v, ok := spanAttr(sp, "glint.flush.effects"); !ok || v.AsInt64() != 1 {
				t.Errorf("expected flush span with 1 effect, got %+v", sp.attrs)
			}
		case "glint.effect watcher":
			effects++
			if v, ok := spanAttr(sp, "glint.node.name"); !ok || v.AsString() != "watcher" {
				t.Errorf("expected node name attribute, got %+v", sp.attrs)
			}
			if sp.start.IsZero() {
				t.Error("expected an explicit start timestamp")
			}
		}
	}
	if effects != 2 {
		t.Errorf("expected 2 effect spans (initial + rerun), got %d", effects)
	}
	if flushes != 1 {
		t.Errorf("expected 1 flush span, got %d", flushes)
	}
}

func TestTracingMinDurationsFilterSpans(t *testing.T) {
	rt := &recordingTracer{}
	tracer := Tracing(
		WithTracerProvider(&recordingProvider{tracer: rt}),
		WithMinFlushDuration(time.Hour),
		WithMinEffectDuration(time.Hour),
	)
	remove := tracer.Install()
	defer remove()

	s := reactive.NewSignal(1)
	e := reactive.CreateEffect(func() reactive.Cleanup {
		s.Get()
		return nil
	})
	defer e.Dispose()

	s.Set(2)

	if got := len(rt.recorded()); got != 0 {
		t.Errorf("expected every span filtered out, got %d", got)
	}
}

func TestTracingAttributeExtractor(t *testing.T) {
	rt := &recordingTracer{}
	tracer := Tracing(
		WithTracerProvider(&recordingProvider{tracer: rt}),
		WithAttributeExtractor(func(id uint64, name string) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)
	remove := tracer.Install()
	defer remove()

	e := reactive.CreateEffect(func() reactive.Cleanup { return nil })
	defer e.Dispose()

	spans := rt.recorded()
	if len(spans) != 1 {
		t.Fatalf("expected 1 effect span, got %d", len(spans))
	}
	if spans[0].name != "glint.effect" {
		t.Errorf("expected unnamed effect span name %q, got %q", "glint.effect", spans[0].name)
	}
	if v, ok := spanAttr(spans[0], "test.attr"); !ok || v.AsString() != "ok" {
		t.Errorf("expected extracted attribute, got %+v", spans[0].attrs)
	}
}

func TestTracingRemoverStopsSpans(t *testing.T) {
	rt := &recordingTracer{}
	tracer := Tracing(WithTracerProvider(&recordingProvider{tracer: rt}))
	remove := tracer.Install()

	s := reactive.NewSignal(1)
	e := reactive.CreateEffect(func() reactive.Cleanup {
		s.Get()
		return nil
	})
	defer e.Dispose()

	before := len(rt.recorded())
	remove()
	s.Set(2)

	if got := len(rt.recorded()); got != before {
		t.Errorf("expected no spans after removal, got %d new", got-before)
	}
}
