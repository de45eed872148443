package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnknownLocation is the name given to a pin whose coordinates could not be
// reverse geocoded.
const UnknownLocation = "Unknown location"

// Location is a single pin in a day's travel log.
// Lat == 0 && Lng == 0 marks a manually entered place without coordinates.
type Location struct {
	ID      string    `json:"id"`
	Lat     float64   `json:"lat"`
	Lng     float64   `json:"lng"`
	Name    string    `json:"name"`
	AddedAt time.Time `json:"added_at"`
}

// HasCoordinates is false for the (0,0) sentinel. Such pins are listed but
// never placed on a map or a route.
func (l Location) HasCoordinates() bool {
	return l.Lat != 0 || l.Lng != 0
}

// DayLog is the travel record of one day: ordered pins and a cover photo.
type DayLog struct {
	Locations []Location `json:"locations"`
	Photo     *string    `json:"photo"`
}

// TravelLog maps a day key to its DayLog. Entries are created lazily.
type TravelLog map[string]DayLog

// Day returns the log for date, or an empty one when absent.
func (t TravelLog) Day(date string) DayLog {
	if d, ok := t[date]; ok {
		if d.Locations == nil {
			d.Locations = []Location{}
		}
		return d
	}
	return DayLog{Locations: []Location{}}
}

// Clone returns a shallow copy of the map.
func (t TravelLog) Clone() TravelLog {
	out := make(TravelLog, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// With returns a copy of the log with date replaced by day.
func (t TravelLog) With(date string, day DayLog) TravelLog {
	out := t.Clone()
	out[date] = day
	return out
}

// LocationDraft is the caller-supplied part of a new pin.
type LocationDraft struct {
	ID   string
	Lat  float64
	Lng  float64
	Name string
}

// Validate checks coordinate ranges. A draft without coordinates needs a name.
func (d LocationDraft) Validate() error {
	if d.Lat < -90 || d.Lat > 90 || d.Lng < -180 || d.Lng > 180 {
		return fmt.Errorf("%w: coordinates out of range", ErrValidation)
	}
	if d.Lat == 0 && d.Lng == 0 && strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: a location without coordinates needs a name", ErrValidation)
	}
	return nil
}

// NewLocation builds a pin from a draft.
func NewLocation(d LocationDraft, now time.Time) Location {
	id := d.ID
	if id == "" {
		id = uuid.NewString()
	}
	return Location{ID: id, Lat: d.Lat, Lng: d.Lng, Name: strings.TrimSpace(d.Name), AddedAt: now.UTC()}
}

// AddLocation appends loc to a copy of day.
func (d DayLog) AddLocation(loc Location) DayLog {
	locs := make([]Location, 0, len(d.Locations)+1)
	locs = append(locs, d.Locations...)
	d.Locations = append(locs, loc)
	return d
}

// RemoveLocation drops the pin with the given id from a copy of day.
func (d DayLog) RemoveLocation(id string) (DayLog, bool) {
	locs := make([]Location, 0, len(d.Locations))
	found := false
	for _, l := range d.Locations {
		if l.ID == id {
			found = true
			continue
		}
		locs = append(locs, l)
	}
	d.Locations = locs
	return d, found
}

// ValidatePhoto accepts nil or an encoded image data URL.
func ValidatePhoto(photo *string) error {
	if photo == nil || *photo == "" {
		return nil
	}
	if !strings.HasPrefix(*photo, "data:image/") {
		return fmt.Errorf("%w: photo must be an image data URL", ErrValidation)
	}
	return nil
}

// WithPhoto replaces the cover photo; nil clears it.
func (d DayLog) WithPhoto(photo *string) DayLog {
	if photo != nil && *photo == "" {
		photo = nil
	}
	d.Photo = photo
	return d
}

// RoutePoint is a pin that can be drawn on a map.
type RoutePoint struct {
	Date       string  `json:"date"`
	LocationID string  `json:"location_id"`
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

// Route is the mappable projection of a travel log.
// Points holds every pin with coordinates; Path holds the first such pin of
// each day, which is what joins days into a route line.
type Route struct {
	Points       []RoutePoint `json:"points"`
	Path         []RoutePoint `json:"path"`
	PinCount     int          `json:"pin_count"`
	DaysWithPins int          `json:"days_with_pins"`
}

// BuildRoute walks dayKeys in order and skips every (0,0) pin.
func BuildRoute(log TravelLog, dayKeys []string) Route {
	r := Route{Points: []RoutePoint{}, Path: []RoutePoint{}}
	for _, date := range dayKeys {
		first := true
		for _, l := range log.Day(date).Locations {
			if !l.HasCoordinates() {
				continue
			}
			p := RoutePoint{Date: date, LocationID: l.ID, Name: l.Name, Lat: l.Lat, Lng: l.Lng}
			r.Points = append(r.Points, p)
			if first {
				r.Path = append(r.Path, p)
				r.DaysWithPins++
				first = false
			}
		}
	}
	r.PinCount = len(r.Points)
	return r
}
