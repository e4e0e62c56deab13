package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (Tracer, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return NewTracer(tp.Tracer("test")), sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestOpMeta_SpanName(t *testing.T) {
	if got := (OpMeta{Name: "run"}).SpanName(); got != "fmtcache.run" {
		t.Errorf("SpanName() = %q, want %q", got, "fmtcache.run")
	}
}

func TestTracer_SpanAttributes(t *testing.T) {
	tracer, sr := newRecordingTracer()

	_, span := tracer.StartSpan(context.Background(), OpMeta{Name: "run", File: "a.js", Cwd: "/proj"})
	tracer.EndSpan(span, nil)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	s := spans[0]
	if s.Name() != "fmtcache.run" {
		t.Errorf("span name = %q, want fmtcache.run", s.Name())
	}
	if v, ok := spanAttr(s, "op.file"); !ok || v.AsString() != "a.js" {
		t.Errorf("op.file = %v, want a.js", v.AsString())
	}
	if v, ok := spanAttr(s, "op.cwd"); !ok || v.AsString() != "/proj" {
		t.Errorf("op.cwd = %v, want /proj", v.AsString())
	}
	if v, ok := spanAttr(s, "op.error"); !ok || v.AsBool() {
		t.Errorf("op.error = %v, want false", v.AsBool())
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", s.Status().Code)
	}
}

func TestTracer_RecordsError(t *testing.T) {
	tracer, sr := newRecordingTracer()

	_, span := tracer.StartSpan(context.Background(), OpMeta{Name: "run"})
	tracer.EndSpan(span, errors.New("unexpected token"))

	s := sr.Ended()[0]
	if s.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", s.Status().Code)
	}
	if s.Status().Description != "unexpected token" {
		t.Errorf("status description = %q", s.Status().Description)
	}
	if v, _ := spanAttr(s, "op.error"); !v.AsBool() {
		t.Error("op.error should be true")
	}
	if len(s.Events()) == 0 {
		t.Error("expected an exception event")
	}
}
