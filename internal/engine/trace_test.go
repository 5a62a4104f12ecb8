package engine

import (
	"sync"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Mavwarf/moodscape/internal/mood"
)

// The global provider can only be delegated once per process.
var spanRecorder = sync.OnceValue(func() *tracetest.SpanRecorder {
	sr := tracetest.NewSpanRecorder()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	return sr
})

func attr(s sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTransitionSpans(t *testing.T) {
	sr := spanRecorder()
	before := len(sr.Ended())

	r := newRig(t)
	r.start()
	r.eng.SetMood(mood.Wake)
	r.eng.SetMood(mood.Conflict)

	spans := sr.Ended()[before:]
	if len(spans) != 3 {
		t.Fatalf("got %d spans, want 3", len(spans))
	}
	if spans[0].Name() != "engine.Start" {
		t.Errorf("span 0 = %q, want engine.Start", spans[0].Name())
	}
	if v, ok := attr(spans[0], "audio.available"); !ok || !v.AsBool() {
		t.Errorf("audio.available = %v, %v", v, ok)
	}

	last := spans[2]
	if last.Name() != "engine.transition" {
		t.Fatalf("span 2 = %q, want engine.transition", last.Name())
	}
	if v, _ := attr(last, "mood"); v.AsString() != string(mood.Conflict) {
		t.Errorf("mood = %q", v.AsString())
	}
	if v, _ := attr(last, "chains.built"); v.AsInt64() != int64(layers(mood.Conflict)) {
		t.Errorf("chains.built = %d, want %d", v.AsInt64(), layers(mood.Conflict))
	}
	if v, _ := attr(last, "chains.retired"); v.AsInt64() != int64(layers(mood.Wake)) {
		t.Errorf("chains.retired = %d, want %d", v.AsInt64(), layers(mood.Wake))
	}
}
