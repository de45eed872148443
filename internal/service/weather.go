package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/repo"
)

// WeatherProvider returns daily weather for every date in [start, end].
type WeatherProvider interface {
	Daily(ctx context.Context, lat, lng float64, start, end time.Time) ([]domain.DayWeather, error)
}

// Coordinates is a point on the map.
type Coordinates struct {
	Lat float64
	Lng float64
}

// WeatherService looks up the weather for the days of a sprint.
type WeatherService struct {
	repo     repo.SprintRepo
	provider WeatherProvider
	fallback Coordinates
}

// NewWeatherService constructs a WeatherService. fallback is used when the
// caller gives no coordinates and the sprint has no mappable pin.
func NewWeatherService(r repo.SprintRepo, p WeatherProvider, fallback Coordinates) *WeatherService {
	return &WeatherService{repo: r, provider: p, fallback: fallback}
}

// ForSprint returns one entry per sprint day. at overrides the location;
// otherwise the first pin of the route is used.
func (s *WeatherService) ForSprint(ctx context.Context, owner, id string, at *Coordinates) ([]domain.DayWeather, error) {
	sp, err := s.repo.Get(ctx, owner, id)
	if err != nil {
		return nil, fmt.Errorf("service.WeatherService.ForSprint: %w", err)
	}

	where := s.fallback
	switch {
	case at != nil:
		where = *at
	default:
		if r := domain.BuildRoute(sp.TravelLog, sp.Days.Keys()); len(r.Path) > 0 {
			where = Coordinates{Lat: r.Path[0].Lat, Lng: r.Path[0].Lng}
		}
	}

	days, err := s.provider.Daily(ctx, where.Lat, where.Lng, sp.StartDate, sp.EndDate)
	if err != nil {
		return nil, fmt.Errorf("service.WeatherService.ForSprint: %w", err)
	}
	return days, nil
}
