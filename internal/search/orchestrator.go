// Package search fans a resolved search out to every applicable provider
// and merges what comes back.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
	"github.com/tjfontaine/travel-gateway/internal/pkg/textnorm"
	"github.com/tjfontaine/travel-gateway/internal/telemetry"
)

// DefaultProviderTimeout applies to providers that do not set their own.
const DefaultProviderTimeout = 8 * time.Second

// Outcome is the merged result of one fan-out.
type Outcome struct {
	// Results are deduplicated, ordered by total price then dedup key.
	Results []domain.FilteredResult

	// Degraded lists the providers that failed, in provider order.
	Degraded []domain.DegradedProvider
}

// Orchestrator calls providers concurrently with per-provider timeouts.
type Orchestrator struct {
	providers []ports.Provider
	timeout   time.Duration
	tracer    trace.Tracer
	logger    *slog.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithDefaultTimeout sets the timeout of providers reporting none.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithTracer sets the tracer used for provider spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// WithLogger sets the logger for the orchestrator
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator creates an orchestrator over providers.
func NewOrchestrator(providers []ports.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		providers: providers,
		timeout:   DefaultProviderTimeout,
		tracer:    telemetry.Tracer(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type providerOutcome struct {
	results []domain.ProviderResult
	err     error
}

// Search queries every provider applicable to sc.TripType. Provider
// failures are reported in Outcome.Degraded; the only error returned is
// the caller's context error, without waiting for in-flight calls.
func (o *Orchestrator) Search(ctx context.Context, sc *domain.SearchContext) (*Outcome, error) {
	applicable := o.applicable(sc.TripType)
	if len(applicable) == 0 {
		return &Outcome{}, nil
	}

	outcomes := make([]providerOutcome, len(applicable))

	var g errgroup.Group
	for i, p := range applicable {
		g.Go(func() error {
			results, err := o.call(ctx, p, sc)
			outcomes[i] = providerOutcome{results: results, err: err}
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
	}

	// a cancellation racing the last provider still wins
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Outcome{}
	var all []domain.ProviderResult
	for i, po := range outcomes {
		if po.err != nil {
			out.Degraded = append(out.Degraded, domain.DegradedProvider{
				Provider: applicable[i].Name(),
				Code:     domain.ErrorCodeProviderDegraded,
				Reason:   degradedReason(po.err),
			})
			continue
		}
		all = append(all, po.results...)
	}
	out.Results = Merge(all)
	return out, nil
}

func (o *Orchestrator) applicable(t domain.TripType) []ports.Provider {
	var out []ports.Provider
	for _, p := range o.providers {
		switch p.Kind() {
		case domain.KindFlight:
			if t.WantsFlights() {
				out = append(out, p)
			}
		case domain.KindHotel:
			if t.WantsHotels() {
				out = append(out, p)
			}
		}
	}
	return out
}

// call runs one provider under its own deadline. A provider that ignores
// cancellation is abandoned when the deadline passes.
func (o *Orchestrator) call(ctx context.Context, p ports.Provider, sc *domain.SearchContext) ([]domain.ProviderResult, error) {
	timeout := p.Timeout()
	if timeout <= 0 {
		timeout = o.timeout
	}

	ctx, span := o.tracer.Start(ctx, "provider.search", trace.WithAttributes(
		attribute.String("provider.name", p.Name()),
		attribute.String("provider.kind", string(p.Kind())),
	))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type reply struct {
		results []domain.ProviderResult
		err     error
	}
	ch := make(chan reply, 1)
	start := time.Now()
	go func() {
		results, err := p.Search(callCtx, sc.Clone())
		ch <- reply{results, err}
	}()

	var r reply
	select {
	case r = <-ch:
	case <-callCtx.Done():
		r = reply{err: callCtx.Err()}
	}

	span.SetAttributes(
		attribute.Int("provider.result_count", len(r.results)),
		attribute.Bool("provider.degraded", r.err != nil),
	)
	if r.err != nil {
		span.RecordError(r.err)
		span.SetStatus(codes.Error, r.err.Error())
		if ctx.Err() == nil {
			o.logger.WarnContext(ctx, "provider degraded",
				slog.String("provider", p.Name()),
				slog.Duration("duration", time.Since(start)),
				slog.String("error", r.err.Error()))
		}
		return nil, r.err
	}

	// providers only report their own results
	for i := range r.results {
		r.results[i].Provider = p.Name()
	}
	return r.results, nil
}

// Degraded reasons reported to clients. The underlying error is only logged.
const (
	ReasonTimeout       = "timeout"
	ReasonUnavailable   = "unavailable"
	ReasonUpstreamError = "upstream_error"
)

// degradedReason maps a provider failure to one of the fixed reasons.
func degradedReason(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, context.Canceled), errors.As(err, &netErr):
		return ReasonUnavailable
	default:
		return ReasonUpstreamError
	}
}

// Merge deduplicates results across providers. The lowest total price wins
// and Sources lists every provider that returned the offer.
func Merge(results []domain.ProviderResult) []domain.FilteredResult {
	type entry struct {
		key     string
		best    domain.ProviderResult
		sources map[string]bool
	}

	byKey := make(map[string]*entry)
	var order []*entry
	for _, r := range results {
		key := DedupKey(r)
		if key == "" {
			continue
		}
		e, ok := byKey[key]
		if !ok {
			e = &entry{key: key, best: r, sources: make(map[string]bool)}
			byKey[key] = e
			order = append(order, e)
		} else if r.TotalPrice() < e.best.TotalPrice() {
			e.best = r
		}
		e.sources[r.Provider] = true
	}

	sort.SliceStable(order, func(i, j int) bool {
		pi, pj := order[i].best.TotalPrice(), order[j].best.TotalPrice()
		if pi != pj {
			return pi < pj
		}
		return order[i].key < order[j].key
	})

	out := make([]domain.FilteredResult, 0, len(order))
	for _, e := range order {
		sources := make([]string, 0, len(e.sources))
		for s := range e.sources {
			sources = append(sources, s)
		}
		sort.Strings(sources)
		out = append(out, domain.FilteredResult{ProviderResult: e.best, Sources: sources})
	}
	return out
}

// DedupKey identifies the same offer across providers. Flights match on the
// sequence of carrier, flight number and departure date over all legs;
// hotels on hotel, normalized room type and rate code.
func DedupKey(r domain.ProviderResult) string {
	switch {
	case r.Kind == domain.KindFlight && r.Flight != nil:
		var legs []string
		for _, leg := range r.Flight.Legs {
			var segs []string
			for _, s := range leg.Segments {
				segs = append(segs, fmt.Sprintf("%s%s@%s",
					strings.ToUpper(s.Carrier), strings.TrimLeft(s.FlightNumber, "0"),
					s.Departure.Format(domain.DateLayout)))
			}
			legs = append(legs, strings.Join(segs, "+"))
		}
		return "flight:" + strings.Join(legs, "/")

	case r.Kind == domain.KindHotel && r.Hotel != nil:
		h := r.Hotel
		hotel := strings.ToUpper(h.HotelCode)
		if hotel == "" {
			hotel = textnorm.Normalize(h.HotelName) + "@" + strings.ToUpper(h.Destination)
		}
		room := h.RoomType
		if room == "" {
			room = h.RoomName
		}
		return "hotel:" + hotel + "|" + textnorm.Normalize(room) + "|" + strings.ToUpper(h.RateCode)
	}
	return ""
}
