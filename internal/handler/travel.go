package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/jetjot/internal/api"
	"github.com/pkordes/jetjot/internal/service"
)

// AddLocation handles POST /sprints/{sprintID}/days/{date}/locations and
// returns the whole stored travel log.
func (s *Server) AddLocation(w http.ResponseWriter, r *http.Request) {
	t, ok := s.day(w, r)
	if !ok {
		return
	}
	var body api.LocationRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	log, err := s.travel.AddLocation(r.Context(), t.owner, t.sprintID, t.date, body.Draft())
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	writeJSON(w, http.StatusCreated, api.TravelLogResponse{TravelLog: log})
}

// RemoveLocation handles DELETE .../locations/{locationID}.
func (s *Server) RemoveLocation(w http.ResponseWriter, r *http.Request) {
	t, ok := s.day(w, r)
	if !ok {
		return
	}
	log, err := s.travel.RemoveLocation(r.Context(), t.owner, t.sprintID, t.date, chi.URLParam(r, "locationID"))
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	writeJSON(w, http.StatusOK, api.TravelLogResponse{TravelLog: log})
}

// SetPhoto handles PUT .../photo with an encoded data URL; null clears it.
func (s *Server) SetPhoto(w http.ResponseWriter, r *http.Request) {
	t, ok := s.day(w, r)
	if !ok {
		return
	}
	var body api.PhotoRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	log, err := s.travel.SetPhoto(r.Context(), t.owner, t.sprintID, t.date, body.Photo)
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	writeJSON(w, http.StatusOK, api.TravelLogResponse{TravelLog: log})
}

// UploadPhoto handles POST .../photo/upload. The body is a raw JPEG, PNG or
// GIF; it is shrunk and re-encoded before being stored.
func (s *Server) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	t, ok := s.day(w, r)
	if !ok {
		return
	}
	photo, err := s.photos(r.Body)
	if err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	log, err := s.travel.SetPhoto(r.Context(), t.owner, t.sprintID, t.date, &photo)
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	writeJSON(w, http.StatusOK, api.TravelLogResponse{TravelLog: log})
}

// GetRoute handles GET /sprints/{sprintID}/route.
func (s *Server) GetRoute(w http.ResponseWriter, r *http.Request) {
	route, err := s.travel.Route(r.Context(), owner(r), chi.URLParam(r, "sprintID"))
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	writeJSON(w, http.StatusOK, route)
}

// GetWeather handles GET /sprints/{sprintID}/weather?lat=&lng=.
// Both coordinates must be given together to override the sprint's location.
func (s *Server) GetWeather(w http.ResponseWriter, r *http.Request) {
	var lat, lng *float64
	if err := queryParam(r, "lat", &lat); err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	if err := queryParam(r, "lng", &lng); err != nil {
		s.writeServiceError(w, r, err, "")
		return
	}
	if (lat == nil) != (lng == nil) {
		requestError(w, "lat and lng must be given together")
		return
	}
	var at *service.Coordinates
	if lat != nil {
		at = &service.Coordinates{Lat: *lat, Lng: *lng}
	}

	days, err := s.weather.ForSprint(r.Context(), owner(r), chi.URLParam(r, "sprintID"), at)
	if err != nil {
		s.writeServiceError(w, r, err, "sprint")
		return
	}
	writeJSON(w, http.StatusOK, api.WeatherResponse{Days: days})
}
