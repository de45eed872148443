package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/repo"
)

// Geocoder turns coordinates into a display name. Implementations never fail;
// they fall back to domain.UnknownLocation.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) string
}

// TravelLogService manages the per-day pins and cover photo of a sprint.
// Every write returns the whole stored travel log so callers can adopt it.
type TravelLogService struct {
	repo     repo.SprintRepo
	geocoder Geocoder
	now      func() time.Time
}

// NewTravelLogService constructs a TravelLogService. geocoder may be nil, in
// which case unnamed pins are called domain.UnknownLocation.
func NewTravelLogService(r repo.SprintRepo, geocoder Geocoder) *TravelLogService {
	return &TravelLogService{repo: r, geocoder: geocoder, now: time.Now}
}

// AddLocation appends a pin to the day.
func (s *TravelLogService) AddLocation(ctx context.Context, owner, id, date string, d domain.LocationDraft) (domain.TravelLog, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("service.TravelLogService.AddLocation: %w", err)
	}
	loc := domain.NewLocation(d, s.now())
	if loc.Name == "" {
		loc.Name = s.placeName(ctx, loc.Lat, loc.Lng)
	}

	log, err := s.mutateDayLog(ctx, owner, id, date, func(day domain.DayLog) (domain.DayLog, bool) {
		return day.AddLocation(loc), true
	})
	if err != nil {
		return nil, fmt.Errorf("service.TravelLogService.AddLocation: %w", err)
	}
	return log, nil
}

// RemoveLocation drops a pin. Removing a pin that is not there is a no-op.
func (s *TravelLogService) RemoveLocation(ctx context.Context, owner, id, date, locationID string) (domain.TravelLog, error) {
	log, err := s.mutateDayLog(ctx, owner, id, date, func(day domain.DayLog) (domain.DayLog, bool) {
		return day.RemoveLocation(locationID)
	})
	if err != nil {
		return nil, fmt.Errorf("service.TravelLogService.RemoveLocation: %w", err)
	}
	return log, nil
}

// SetPhoto replaces the day's cover photo; nil clears it.
func (s *TravelLogService) SetPhoto(ctx context.Context, owner, id, date string, photo *string) (domain.TravelLog, error) {
	if err := domain.ValidatePhoto(photo); err != nil {
		return nil, fmt.Errorf("service.TravelLogService.SetPhoto: %w", err)
	}
	log, err := s.mutateDayLog(ctx, owner, id, date, func(day domain.DayLog) (domain.DayLog, bool) {
		return day.WithPhoto(photo), true
	})
	if err != nil {
		return nil, fmt.Errorf("service.TravelLogService.SetPhoto: %w", err)
	}
	return log, nil
}

// Route returns the mappable pins of the sprint in day order.
func (s *TravelLogService) Route(ctx context.Context, owner, id string) (domain.Route, error) {
	sp, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return domain.Route{}, fmt.Errorf("service.TravelLogService.Route: %w", err)
	}
	return domain.BuildRoute(sp.TravelLog, sp.Days.Keys()), nil
}

func (s *TravelLogService) placeName(ctx context.Context, lat, lng float64) string {
	if s.geocoder == nil {
		return domain.UnknownLocation
	}
	if name := s.geocoder.Reverse(ctx, lat, lng); name != "" {
		return name
	}
	return domain.UnknownLocation
}

// mutateDayLog applies fn to the stored DayLog of date and writes it back.
// When fn reports no change the current log is returned without a write.
func (s *TravelLogService) mutateDayLog(ctx context.Context, owner, id, date string, fn func(domain.DayLog) (domain.DayLog, bool)) (domain.TravelLog, error) {
	if _, err := domain.ParseDateKey(date); err != nil {
		return nil, err
	}
	sp, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if !sp.HasDay(date) {
		return nil, fmt.Errorf("%w: %s is outside the sprint", domain.ErrValidation, date)
	}
	day, changed := fn(sp.TravelLog.Day(date))
	if !changed {
		return sp.TravelLog, nil
	}
	return s.repo.ReplaceDayLog(ctx, owner, id, date, day)
}
