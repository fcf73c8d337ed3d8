// Package search is the HTTP front door of the search pipeline: it turns a
// conversational request into a resolved search context, fans it out to
// the providers and returns filtered results.
package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tjfontaine/travel-gateway/internal/auth"
	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
	"github.com/tjfontaine/travel-gateway/internal/filter"
	"github.com/tjfontaine/travel-gateway/internal/iteration"
	"github.com/tjfontaine/travel-gateway/internal/resolver"
	searchpkg "github.com/tjfontaine/travel-gateway/internal/search"
	"github.com/tjfontaine/travel-gateway/internal/server"
	"github.com/tjfontaine/travel-gateway/internal/transform"
)

// maxBodyBytes bounds the request body.
const maxBodyBytes = 1 << 20

// DefaultCacheTTL applies when no response TTL is configured.
const DefaultCacheTTL = time.Minute

// Searcher runs a resolved search against the providers.
type Searcher interface {
	Search(ctx context.Context, sc *domain.SearchContext) (*searchpkg.Outcome, error)
}

// HandlerConfig contains the collaborators of a Handler.
type HandlerConfig struct {
	Contexts ports.ContextStore
	Cache    ports.ResponseCache
	Detector *iteration.Detector
	Resolver *resolver.Resolver
	Searcher Searcher
	Enricher *transform.Enricher
	Filters  *filter.Stack

	// CacheTTL is how long fully successful responses are reused
	CacheTTL time.Duration

	Logger *slog.Logger
}

// Handler serves the search endpoints.
type Handler struct {
	contexts ports.ContextStore
	cache    ports.ResponseCache
	detector *iteration.Detector
	resolver *resolver.Resolver
	searcher Searcher
	enricher *transform.Enricher
	filters  *filter.Stack
	cacheTTL time.Duration
	newID    func() string
	logger   *slog.Logger
}

// NewHandler creates a search handler.
func NewHandler(cfg HandlerConfig) *Handler {
	h := &Handler{
		contexts: cfg.Contexts,
		cache:    cfg.Cache,
		detector: cfg.Detector,
		resolver: cfg.Resolver,
		searcher: cfg.Searcher,
		enricher: cfg.Enricher,
		filters:  cfg.Filters,
		cacheTTL: cfg.CacheTTL,
		newID:    func() string { return uuid.New().String() },
		logger:   cfg.Logger,
	}
	if h.cacheTTL <= 0 {
		h.cacheTTL = DefaultCacheTTL
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Routes registers the search endpoints. The caller mounts them behind
// authentication and rate limiting.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/v1/search", h.HandleSearch)
	r.Get("/v1/searches/{id}", h.HandleGetSearch)
}

// Request is the body of POST /v1/search.
type Request struct {
	Query          string                `json:"query,omitempty"`
	ConversationID string                `json:"conversation_id,omitempty"`
	Search         *domain.SearchContext `json:"search,omitempty"`
}

// Iteration describes how the request related to the previous turn.
type Iteration struct {
	Kind iteration.Kind `json:"kind"`
	Diff map[string]any `json:"diff"`
}

// Response is the body of a successful search.
type Response struct {
	Success        bool                      `json:"success"`
	SearchID       string                    `json:"search_id"`
	ConversationID string                    `json:"conversation_id"`
	Iteration      Iteration                 `json:"iteration"`
	Context        *domain.SearchContext     `json:"context"`
	Results        []domain.FilteredResult   `json:"results"`
	Degraded       []domain.DegradedProvider `json:"degraded,omitempty"`
	Cached         bool                      `json:"cached"`
}

// ContextResponse is the body of GET /v1/searches/{id}.
type ContextResponse struct {
	Success bool                  `json:"success"`
	Context *domain.SearchContext `json:"context"`
}

// HandleSearch runs one conversational search turn.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := auth.KeyFromContext(ctx)
	if key == nil {
		server.WriteError(w, r, domain.ErrMissingKey())
		return
	}

	req, err := decodeRequest(w, r)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	conversationID := req.ConversationID
	var prior *domain.SearchContext
	if conversationID != "" {
		prior, err = h.contexts.LatestSearchContext(ctx, key.TenantID, conversationID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			server.WriteError(w, r, fmt.Errorf("failed to load conversation: %w", err))
			return
		}
	} else {
		conversationID = h.newID()
	}

	it := h.detector.Detect(req.Query, req.Search, prior)
	sc := it.Context
	if err := h.resolve(sc); err != nil {
		server.WriteError(w, r, err)
		return
	}
	if err := validate(sc); err != nil {
		server.WriteError(w, r, err)
		return
	}
	sc.ID = h.newID()
	sc.ConversationID = conversationID

	server.AddLogField(ctx, "search_id", sc.ID)
	server.AddLogField(ctx, "conversation_id", conversationID)
	server.AddLogField(ctx, "iteration_kind", string(it.Kind))

	resp := &Response{
		Success:        true,
		SearchID:       sc.ID,
		ConversationID: conversationID,
		Iteration:      Iteration{Kind: it.Kind, Diff: it.Diff},
		Context:        sc,
	}
	if resp.Iteration.Diff == nil {
		resp.Iteration.Diff = map[string]any{}
	}

	cacheKey, err := CacheKey(key, sc)
	if err != nil {
		server.WriteError(w, r, err)
		return
	}

	if results, ok := h.cached(ctx, cacheKey); ok {
		resp.Results = results
		resp.Cached = true
	} else {
		outcome, err := h.searcher.Search(ctx, sc)
		if err != nil {
			server.WriteError(w, r, fmt.Errorf("search failed: %w", err))
			return
		}

		results := h.enricher.Enrich(outcome.Results)
		results = h.filters.Apply(&filter.Query{Search: sc, Market: key.Market}, results)
		resp.Results = results
		resp.Degraded = outcome.Degraded

		if len(outcome.Degraded) == 0 {
			h.store(ctx, cacheKey, results)
		} else {
			names := make([]string, len(outcome.Degraded))
			for i, d := range outcome.Degraded {
				names[i] = d.Provider
			}
			server.AddLogField(ctx, "degraded_providers", strings.Join(names, ","))
		}
	}
	if resp.Results == nil {
		resp.Results = []domain.FilteredResult{}
	}
	server.AddLogField(ctx, "result_count", strconv.Itoa(len(resp.Results)))
	server.AddLogField(ctx, "cached", strconv.FormatBool(resp.Cached))

	if err := h.contexts.SaveSearchContext(ctx, key.TenantID, sc); err != nil {
		server.WriteError(w, r, fmt.Errorf("failed to save search context: %w", err))
		return
	}

	server.WriteJSON(w, http.StatusOK, resp)
}

// HandleGetSearch returns a stored search context of the caller's tenant.
func (h *Handler) HandleGetSearch(w http.ResponseWriter, r *http.Request) {
	key := auth.KeyFromContext(r.Context())
	if key == nil {
		server.WriteError(w, r, domain.ErrMissingKey())
		return
	}

	id := chi.URLParam(r, "id")
	sc, err := h.contexts.GetSearchContext(r.Context(), key.TenantID, id)
	if errors.Is(err, domain.ErrNotFound) {
		server.WriteError(w, r, domain.ErrResourceNotFound("search not found"))
		return
	}
	if err != nil {
		server.WriteError(w, r, fmt.Errorf("failed to load search: %w", err))
		return
	}

	server.WriteJSON(w, http.StatusOK, ContextResponse{Success: true, Context: sc})
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (*Request, error) {
	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, domain.ErrInvalidRequest("invalid JSON body: " + err.Error())
	}
	if req.Query == "" && req.Search == nil && req.ConversationID == "" {
		return nil, domain.ErrInvalidRequest("query or search is required")
	}
	return &req, nil
}

// resolve replaces location names with codes and fills display names.
func (h *Handler) resolve(sc *domain.SearchContext) error {
	if sc.Destination == "" {
		return domain.ErrInvalidRequest("destination is required")
	}

	var err error
	if sc.Destination, sc.DestinationName, err = h.resolveLocation(sc.Destination, sc.DestinationName); err != nil {
		return err
	}
	if sc.Origin != "" {
		if sc.Origin, sc.OriginName, err = h.resolveLocation(sc.Origin, sc.OriginName); err != nil {
			return err
		}
	}

	if sc.HotelCode != "" {
		if _, ok := h.resolver.Catalog().HotelByCode(sc.HotelCode); !ok {
			hotel, err := h.resolver.ResolveHotel(sc.HotelCode)
			if err != nil {
				return err
			}
			sc.HotelCode = hotel.Code
		}
	}
	return nil
}

func (h *Handler) resolveLocation(value, name string) (string, string, error) {
	if loc, ok := h.resolver.LocationByCode(strings.TrimSpace(value)); ok {
		if name == "" {
			name = loc.Name
		}
		return loc.Code, name, nil
	}
	loc, err := h.resolver.Resolve(value, "")
	if err != nil {
		return "", "", err
	}
	return loc.Code, loc.Name, nil
}

func validate(sc *domain.SearchContext) error {
	switch sc.TripType {
	case domain.TripFlight, domain.TripHotel, domain.TripPackage:
	default:
		return domain.ErrInvalidRequest(fmt.Sprintf("unknown trip type %q", sc.TripType))
	}

	var departure time.Time
	if sc.DepartureDate != "" {
		d, err := time.Parse(domain.DateLayout, sc.DepartureDate)
		if err != nil {
			return domain.ErrInvalidRequest("departure_date must be YYYY-MM-DD")
		}
		departure = d
	}
	if sc.ReturnDate != "" {
		d, err := time.Parse(domain.DateLayout, sc.ReturnDate)
		if err != nil {
			return domain.ErrInvalidRequest("return_date must be YYYY-MM-DD")
		}
		if !departure.IsZero() && d.Before(departure) {
			return domain.ErrInvalidRequest("return_date is before departure_date")
		}
	}

	if sc.TripType.WantsFlights() && sc.Origin == "" {
		return domain.ErrInvalidRequest("origin is required for flight searches")
	}

	if sc.Filters.Baggage != "" && sc.Filters.Baggage.Rank() < 0 {
		return domain.ErrInvalidRequest(fmt.Sprintf("unknown baggage class %q", sc.Filters.Baggage))
	}
	return nil
}

// CacheKey derives the idempotency key of a search: the SHA-256 of the
// tenant, market and the canonical JSON of the context without its IDs.
func CacheKey(key *domain.APIKey, sc *domain.SearchContext) (string, error) {
	c := sc.Clone()
	c.ID = ""
	c.ConversationID = ""
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode search context: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(key.TenantID))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToUpper(key.Market)))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// cached returns the results stored under key. Cache failures are misses.
func (h *Handler) cached(ctx context.Context, key string) ([]domain.FilteredResult, bool) {
	if h.cache == nil {
		return nil, false
	}
	data, ok, err := h.cache.Get(ctx, key)
	if err != nil {
		h.logger.Warn("response cache read failed", slog.String("error", err.Error()))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var results []domain.FilteredResult
	if err := json.Unmarshal(data, &results); err != nil {
		h.logger.Warn("discarding unreadable cached response", slog.String("error", err.Error()))
		return nil, false
	}
	return results, true
}

func (h *Handler) store(ctx context.Context, key string, results []domain.FilteredResult) {
	if h.cache == nil {
		return
	}
	data, err := json.Marshal(results)
	if err != nil {
		h.logger.Warn("failed to encode response for cache", slog.String("error", err.Error()))
		return
	}
	if err := h.cache.Set(ctx, key, data, h.cacheTTL); err != nil {
		h.logger.Warn("response cache write failed", slog.String("error", err.Error()))
	}
}
