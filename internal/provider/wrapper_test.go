package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
)

func TestPacedProvider_Delegates(t *testing.T) {
	inner := &stubProvider{name: "sky", kind: domain.KindFlight, timeout: time.Second}
	p := NewPacedProvider(inner, 100, 0)

	if p.Name() != "sky" || p.Kind() != domain.KindFlight || p.Timeout() != time.Second {
		t.Errorf("PacedProvider does not delegate metadata")
	}

	results, err := p.Search(context.Background(), &domain.SearchContext{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || inner.calls != 1 {
		t.Errorf("Search() results = %d, calls = %d", len(results), inner.calls)
	}
}

func TestPacedProvider_WaitHonoursDeadline(t *testing.T) {
	inner := &stubProvider{name: "sky", kind: domain.KindFlight}
	// one token every 10s, burst 1
	p := NewPacedProvider(inner, 0.1, 1)

	if _, err := p.Search(context.Background(), &domain.SearchContext{}); err != nil {
		t.Fatalf("first Search() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Search(ctx, &domain.SearchContext{})
	if err == nil {
		t.Fatal("second Search() expected pacing error")
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	// rate.Limiter fails fast when the wait would exceed the deadline
	if ctx.Err() != nil {
		t.Fatal("expected Search() to fail before the deadline")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Search() error = %v, want wrapped context.DeadlineExceeded", err)
	}
}
