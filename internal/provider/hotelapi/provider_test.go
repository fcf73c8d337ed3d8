package hotelapi

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/tjfontaine/travel-gateway/internal/api/hotelapi"
	"github.com/tjfontaine/travel-gateway/internal/catalog"
	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/pkg/config"
	"github.com/tjfontaine/travel-gateway/internal/testutil"
)

const testBaseURL = "https://hotels.example.com"

func newVCRProvider(t *testing.T, cassette string) *Provider {
	t.Helper()
	recorder, cleanup := testutil.NewVCRRecorder(t, cassette)
	t.Cleanup(cleanup)

	apiKey := os.Getenv("HOTELAPI_KEY")
	if apiKey == "" {
		apiKey = "test-key"
	}
	return New("staynest", apiKey, testBaseURL, catalog.MustDefault(),
		WithHTTPClient(testutil.VCRHTTPClient(recorder)))
}

func TestProvider_Search(t *testing.T) {
	if os.Getenv("HOTELAPI_KEY") == "" && os.Getenv("VCR_MODE") == "record" {
		t.Skip("Skipping test: HOTELAPI_KEY not set")
	}

	p := newVCRProvider(t, "hotelapi_availability")

	results, err := p.Search(context.Background(), &domain.SearchContext{
		TripType:      domain.TripHotel,
		Destination:   "CUN",
		DepartureDate: "2026-03-10",
		ReturnDate:    "2026-03-17",
		Adults:        2,
		Children:      1,
		Rooms:         1,
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, r := range results {
		assert.Equal(t, domain.KindHotel, r.Kind)
		assert.Equal(t, "staynest", r.Provider)
		require.NotNil(t, r.Hotel)
		assert.Nil(t, r.Flight)
		assert.Equal(t, "CUN", r.Hotel.Destination)
	}

	riu := results[0].Hotel
	assert.Equal(t, "RIUPAL-CUN", riu.HotelCode)
	assert.Equal(t, "RIU Hotels & Resorts", riu.Chain)
	assert.Equal(t, "AI", riu.MealPlan)
	assert.Equal(t, 3, riu.MaxAdults)
	assert.Equal(t, 2, riu.MaxChildren)
	assert.Equal(t, 2100.0, riu.Price.Total)

	// no stated occupancy
	assert.Zero(t, results[2].Hotel.MaxAdults)
	assert.Equal(t, "Single", results[2].Hotel.RoomType)
}

func TestProvider_SearchStatusError(t *testing.T) {
	if os.Getenv("HOTELAPI_KEY") == "" && os.Getenv("VCR_MODE") == "record" {
		t.Skip("Skipping test: HOTELAPI_KEY not set")
	}

	p := newVCRProvider(t, "hotelapi_error")

	_, err := p.Search(context.Background(), &domain.SearchContext{
		Destination:   "MAD",
		DepartureDate: "2026-03-10",
		Adults:        1,
		Rooms:         1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NO_AVAILABILITY_SERVICE")
}

func TestProvider_UnknownDestination(t *testing.T) {
	p := New("staynest", "k", testBaseURL, catalog.MustDefault())

	_, err := p.Search(context.Background(), &domain.SearchContext{Destination: "ZZZ", DepartureDate: "2026-03-10"})
	assert.Error(t, err)
}

func TestProvider_SearchIncompleteContext(t *testing.T) {
	p := New("staynest", "k", testBaseURL, catalog.MustDefault())

	for _, sc := range []domain.SearchContext{
		{DepartureDate: "2026-03-10"},
		{Destination: "CUN"},
	} {
		results, err := p.Search(context.Background(), &sc)
		require.ErrorIs(t, err, domain.ErrIncompleteSearch)
		assert.Nil(t, results)
	}
}

func TestCheckOutDate(t *testing.T) {
	got, err := checkOutDate(&domain.SearchContext{DepartureDate: "2026-02-28"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", got)

	got, err = checkOutDate(&domain.SearchContext{DepartureDate: "2026-02-28", ReturnDate: "2026-03-05"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-05", got)

	_, err = checkOutDate(&domain.SearchContext{DepartureDate: "10/03"})
	assert.Error(t, err)
}

func TestDistributeRooms(t *testing.T) {
	tests := []struct {
		name                    string
		adults, children, rooms int
		want                    []api.Room
	}{
		{"single room", 2, 1, 1, []api.Room{{Adults: 2, Children: 1}}},
		{"uneven adults", 3, 0, 2, []api.Room{{Adults: 2}, {Adults: 1}}},
		{"children spread", 4, 3, 2, []api.Room{{Adults: 2, Children: 2}, {Adults: 2, Children: 1}}},
		{"at least one adult per room", 1, 0, 2, []api.Room{{Adults: 1}, {Adults: 1}}},
		{"zero rooms", 1, 0, 0, []api.Room{{Adults: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, distributeRooms(tt.adults, tt.children, tt.rooms))
		})
	}
}

func TestCreateFromConfig(t *testing.T) {
	assert.Error(t, ValidateConfig(config.ProviderConfig{Name: "stay"}))

	p, err := CreateFromConfig(config.ProviderConfig{Name: "stay", BaseURL: testBaseURL})
	require.NoError(t, err)
	assert.Equal(t, domain.KindHotel, p.Kind())
}
