package tracing

import (
	"context"
	"testing"
)

func TestTraceIDFromContextEmpty(t *testing.T) {
	if got := TraceIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty trace ID, got %q", got)
	}
	if got := SpanIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty span ID, got %q", got)
	}
}

func TestContextWithRemoteSpanRoundTrip(t *testing.T) {
	traceID := "4bf92f3577b34da6a3ce929d0e0e4736"
	spanID := "00f067aa0ba902b7"

	ctx := ContextWithRemoteSpan(context.Background(), traceID, spanID)

	if got := TraceIDFromContext(ctx); got != traceID {
		t.Errorf("trace ID = %q, want %q", got, traceID)
	}
	if got := SpanIDFromContext(ctx); got != spanID {
		t.Errorf("span ID = %q, want %q", got, spanID)
	}
}

func TestContextWithRemoteSpanInvalidIDs(t *testing.T) {
	ctx := ContextWithRemoteSpan(context.Background(), "not-hex", "also-not-hex")
	if got := TraceIDFromContext(ctx); got != "" {
		t.Errorf("invalid IDs should leave context untouched, got trace ID %q", got)
	}
}
