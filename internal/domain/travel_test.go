package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/jetjot/internal/domain"
)

func TestLocation_HasCoordinates(t *testing.T) {
	assert.False(t, domain.Location{Lat: 0, Lng: 0}.HasCoordinates())
	assert.True(t, domain.Location{Lat: 0, Lng: 12.5}.HasCoordinates())
	assert.True(t, domain.Location{Lat: 44.4, Lng: -110.6}.HasCoordinates())
}

func TestBuildRoute_ExcludesSentinelPins(t *testing.T) {
	log := domain.TravelLog{
		"2025-06-01": {Locations: []domain.Location{
			{ID: "manual", Name: "Somewhere", Lat: 0, Lng: 0},
			{ID: "ys", Name: "Yellowstone", Lat: 44.4, Lng: -110.6},
			{ID: "gt", Name: "Grand Teton", Lat: 43.7, Lng: -110.7},
		}},
		"2025-06-03": {Locations: []domain.Location{{ID: "only-manual", Name: "Camp"}}},
	}

	r := domain.BuildRoute(log, []string{"2025-06-01", "2025-06-02", "2025-06-03"})

	require.Len(t, r.Points, 2)
	assert.Equal(t, "ys", r.Points[0].LocationID)
	assert.Equal(t, "gt", r.Points[1].LocationID)
	require.Len(t, r.Path, 1)
	assert.Equal(t, "ys", r.Path[0].LocationID)
	assert.Equal(t, 2, r.PinCount)
	assert.Equal(t, 1, r.DaysWithPins)
}

func TestDayLog_PhotoRoundTrip(t *testing.T) {
	photo := "data:image/jpeg;base64,AAAA"
	d := domain.TravelLog{}.Day("2025-06-01")

	d = d.WithPhoto(&photo)
	require.NotNil(t, d.Photo)
	assert.Equal(t, photo, *d.Photo)

	d = d.WithPhoto(nil)
	assert.Nil(t, d.Photo)
}

func TestDayLog_AddRemoveLocation(t *testing.T) {
	d := domain.TravelLog{}.Day("2025-06-01")
	loc := domain.NewLocation(domain.LocationDraft{Lat: 1, Lng: 2, Name: " Here "}, time.Now())

	d = d.AddLocation(loc)
	require.Len(t, d.Locations, 1)
	assert.Equal(t, "Here", d.Locations[0].Name)

	d, ok := d.RemoveLocation(loc.ID)
	assert.True(t, ok)
	assert.Empty(t, d.Locations)
}

func TestLocationDraft_Validate(t *testing.T) {
	assert.NoError(t, domain.LocationDraft{Lat: 10, Lng: 10}.Validate())
	assert.NoError(t, domain.LocationDraft{Name: "Camp"}.Validate())
	assert.ErrorIs(t, domain.LocationDraft{}.Validate(), domain.ErrValidation)
	assert.ErrorIs(t, domain.LocationDraft{Lat: 91, Lng: 0}.Validate(), domain.ErrValidation)
}
