package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/service"
)

type geocoderFunc func(ctx context.Context, lat, lng float64) string

func (f geocoderFunc) Reverse(ctx context.Context, lat, lng float64) string { return f(ctx, lat, lng) }

func TestTravelLogService_AddLocation_Geocodes(t *testing.T) {
	r, doc, _ := docRepo(sprintFixture())
	geo := geocoderFunc(func(_ context.Context, lat, lng float64) string {
		assert.Equal(t, 45.5, lat)
		return "Portland, Oregon"
	})
	svc := service.NewTravelLogService(r, geo)

	log, err := svc.AddLocation(context.Background(), "alice", doc.ID, "2025-06-02", domain.LocationDraft{Lat: 45.5, Lng: -122.6})

	require.NoError(t, err)
	locs := log["2025-06-02"].Locations
	require.Len(t, locs, 1)
	assert.Equal(t, "Portland, Oregon", locs[0].Name)
	assert.NotEmpty(t, locs[0].ID)
	assert.False(t, locs[0].AddedAt.IsZero())
}

func TestTravelLogService_AddLocation_KeepsGivenNameAndFallsBack(t *testing.T) {
	r, doc, _ := docRepo(sprintFixture())
	svc := service.NewTravelLogService(r, geocoderFunc(func(context.Context, float64, float64) string { return "" }))
	ctx := context.Background()

	_, err := svc.AddLocation(ctx, "alice", doc.ID, "2025-06-01", domain.LocationDraft{Name: "Grandma's"})
	require.NoError(t, err)
	log, err := svc.AddLocation(ctx, "alice", doc.ID, "2025-06-01", domain.LocationDraft{Lat: 1, Lng: 2})
	require.NoError(t, err)

	locs := log["2025-06-01"].Locations
	require.Len(t, locs, 2)
	assert.Equal(t, "Grandma's", locs[0].Name)
	assert.Equal(t, domain.UnknownLocation, locs[1].Name)
}

func TestTravelLogService_AddLocation_Validation(t *testing.T) {
	r, doc, writes := docRepo(sprintFixture())
	svc := service.NewTravelLogService(r, nil)
	ctx := context.Background()

	_, err := svc.AddLocation(ctx, "alice", doc.ID, "2025-06-01", domain.LocationDraft{Lat: 91, Lng: 0, Name: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.AddLocation(ctx, "alice", doc.ID, "2025-09-01", domain.LocationDraft{Lat: 1, Lng: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, *writes)
}

func TestTravelLogService_RemoveLocation(t *testing.T) {
	sp := sprintFixture()
	sp.TravelLog = domain.TravelLog{"2025-06-01": {Locations: []domain.Location{{ID: "l1"}, {ID: "l2"}}}}
	r, doc, writes := docRepo(sp)
	svc := service.NewTravelLogService(r, nil)
	ctx := context.Background()

	log, err := svc.RemoveLocation(ctx, "alice", doc.ID, "2025-06-01", "l1")
	require.NoError(t, err)
	require.Len(t, log["2025-06-01"].Locations, 1)
	assert.Equal(t, "l2", log["2025-06-01"].Locations[0].ID)

	_, err = svc.RemoveLocation(ctx, "alice", doc.ID, "2025-06-01", "l1")
	require.NoError(t, err)
	assert.Equal(t, 1, *writes, "removing a missing pin writes nothing")
}

func TestTravelLogService_PhotoRoundTrip(t *testing.T) {
	r, doc, _ := docRepo(sprintFixture())
	svc := service.NewTravelLogService(r, nil)
	ctx := context.Background()
	photo := "data:image/jpeg;base64,AAAA"

	log, err := svc.SetPhoto(ctx, "alice", doc.ID, "2025-06-03", &photo)
	require.NoError(t, err)
	require.NotNil(t, log["2025-06-03"].Photo)

	log, err = svc.SetPhoto(ctx, "alice", doc.ID, "2025-06-03", nil)
	require.NoError(t, err)
	assert.Nil(t, log["2025-06-03"].Photo)

	bad := "not an image"
	_, err = svc.SetPhoto(ctx, "alice", doc.ID, "2025-06-03", &bad)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTravelLogService_RouteSkipsSentinel(t *testing.T) {
	sp := sprintFixture()
	sp.TravelLog = domain.TravelLog{
		"2025-06-01": {Locations: []domain.Location{{ID: "manual", Name: "Home"}, {ID: "a", Lat: 1, Lng: 2}}},
		"2025-06-03": {Locations: []domain.Location{{ID: "b", Lat: 3, Lng: 4}}},
	}
	r, doc, _ := docRepo(sp)

	route, err := service.NewTravelLogService(r, nil).Route(context.Background(), "alice", doc.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, route.PinCount)
	assert.Equal(t, 2, route.DaysWithPins)
	require.Len(t, route.Path, 2)
	assert.Equal(t, "a", route.Path[0].LocationID)
	assert.Equal(t, "b", route.Path[1].LocationID)
}

type weatherFunc func(ctx context.Context, lat, lng float64, start, end time.Time) ([]domain.DayWeather, error)

func (f weatherFunc) Daily(ctx context.Context, lat, lng float64, start, end time.Time) ([]domain.DayWeather, error) {
	return f(ctx, lat, lng, start, end)
}

func TestWeatherService_LocationChoice(t *testing.T) {
	sp := sprintFixture()
	r, doc, _ := docRepo(sp)
	var gotLat, gotLng float64
	provider := weatherFunc(func(_ context.Context, lat, lng float64, start, end time.Time) ([]domain.DayWeather, error) {
		gotLat, gotLng = lat, lng
		assert.True(t, start.Equal(day(2025, 6, 1)))
		assert.True(t, end.Equal(day(2025, 6, 3)))
		return []domain.DayWeather{{Date: "2025-06-01"}}, nil
	})
	svc := service.NewWeatherService(r, provider, service.Coordinates{Lat: 10, Lng: 20})
	ctx := context.Background()

	_, err := svc.ForSprint(ctx, "alice", doc.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, gotLat, "fallback when the sprint has no pins")

	doc.TravelLog = domain.TravelLog{"2025-06-02": {Locations: []domain.Location{{ID: "p", Lat: 45, Lng: -122}}}}
	_, err = svc.ForSprint(ctx, "alice", doc.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 45.0, gotLat, "first mapped pin")

	_, err = svc.ForSprint(ctx, "alice", doc.ID, &service.Coordinates{Lat: 1, Lng: 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, gotLng, "explicit coordinates win")
}
