package sqldb

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tjfontaine/travel-gateway/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLDBStore_KeyRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	key := &domain.APIKey{
		ID:             "key-1",
		TenantID:       "tenant-1",
		Prefix:         "tg_live_abcd",
		KeyHash:        "deadbeef",
		Name:           "web",
		Market:         "AR",
		QuotaPerMinute: 60,
		QuotaPerHour:   1000,
		QuotaPerDay:    10000,
	}
	if err := store.CreateKey(ctx, key); err != nil {
		t.Fatalf("CreateKey() error = %v", err)
	}

	got, err := store.GetKeyByPrefix(ctx, "tg_live_abcd")
	if err != nil {
		t.Fatalf("GetKeyByPrefix() error = %v", err)
	}
	if got.ID != key.ID || got.TenantID != key.TenantID || got.KeyHash != key.KeyHash {
		t.Errorf("GetKeyByPrefix() = %+v, want %+v", got, key)
	}
	if got.QuotaPerMinute != 60 || got.QuotaPerHour != 1000 || got.QuotaPerDay != 10000 {
		t.Errorf("quotas = %d/%d/%d, want 60/1000/10000", got.QuotaPerMinute, got.QuotaPerHour, got.QuotaPerDay)
	}
	if got.Status != domain.KeyStatusActive {
		t.Errorf("Status = %v, want active", got.Status)
	}
	if got.Market != "AR" {
		t.Errorf("Market = %v, want AR", got.Market)
	}
}

func TestSQLDBStore_KeyNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetKeyByPrefix(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetKeyByPrefix() error = %v, want ErrNotFound", err)
	}
}

func TestSQLDBStore_DuplicatePrefix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateKey(ctx, &domain.APIKey{ID: "a", TenantID: "t", Prefix: "p", KeyHash: "h"}); err != nil {
		t.Fatalf("CreateKey() error = %v", err)
	}
	if err := store.CreateKey(ctx, &domain.APIKey{ID: "b", TenantID: "t", Prefix: "p", KeyHash: "h"}); err == nil {
		t.Error("CreateKey() with duplicate prefix expected error")
	}
}

func TestSQLDBStore_SetKeyStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateKey(ctx, &domain.APIKey{ID: "a", TenantID: "t", Prefix: "p", KeyHash: "h"}); err != nil {
		t.Fatalf("CreateKey() error = %v", err)
	}
	if err := store.SetKeyStatus(ctx, "a", domain.KeyStatusRevoked); err != nil {
		t.Fatalf("SetKeyStatus() error = %v", err)
	}

	got, _ := store.GetKeyByPrefix(ctx, "p")
	if !got.IsRevoked() {
		t.Errorf("IsRevoked() = false after revoke")
	}

	if err := store.SetKeyStatus(ctx, "missing", domain.KeyStatusRevoked); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("SetKeyStatus(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLDBStore_SearchContexts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	clock := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	stops := 0
	first := &domain.SearchContext{ID: "s1", ConversationID: "c1", TripType: domain.TripFlight, Destination: "MAD", Adults: 1, Rooms: 1}
	second := &domain.SearchContext{ID: "s2", ConversationID: "c1", TripType: domain.TripFlight, Destination: "MAD", Adults: 1, Rooms: 1,
		Filters: domain.SearchFilters{MaxStops: &stops}}

	for _, sc := range []*domain.SearchContext{first, second} {
		if err := store.SaveSearchContext(ctx, "tenant-1", sc); err != nil {
			t.Fatalf("SaveSearchContext() error = %v", err)
		}
	}

	latest, err := store.LatestSearchContext(ctx, "tenant-1", "c1")
	if err != nil {
		t.Fatalf("LatestSearchContext() error = %v", err)
	}
	if latest.ID != "s2" {
		t.Errorf("LatestSearchContext().ID = %v, want s2", latest.ID)
	}
	if latest.Filters.MaxStops == nil || *latest.Filters.MaxStops != 0 {
		t.Errorf("LatestSearchContext().Filters.MaxStops = %v, want 0", latest.Filters.MaxStops)
	}

	got, err := store.GetSearchContext(ctx, "tenant-1", "s1")
	if err != nil {
		t.Fatalf("GetSearchContext() error = %v", err)
	}
	if got.Destination != "MAD" {
		t.Errorf("GetSearchContext().Destination = %v, want MAD", got.Destination)
	}

	// contexts are scoped to their tenant
	if _, err := store.GetSearchContext(ctx, "tenant-2", "s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetSearchContext() other tenant error = %v, want ErrNotFound", err)
	}
	if _, err := store.LatestSearchContext(ctx, "tenant-1", "c2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("LatestSearchContext() unknown conversation error = %v, want ErrNotFound", err)
	}
}
