package telemetry

import (
	"context"
	"log/slog"
	"testing"
)

func TestInitTracer_Disabled(t *testing.T) {
	shutdown, err := InitTracer("travel-gateway", "test", false, slog.Default())
	if err != nil {
		t.Fatalf("InitTracer() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}

	_, span := Tracer().Start(context.Background(), "noop")
	defer span.End()
	if span.SpanContext().IsValid() {
		t.Error("disabled tracer produced a sampled span")
	}
}
