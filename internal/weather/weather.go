// Package weather reads daily forecasts and history from the open-meteo API.
//
// Days before today come from the archive endpoint, today and later from the
// forecast endpoint. A sprint that straddles today issues both requests
// concurrently and merges the results.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pkordes/jetjot/internal/domain"
)

// Options configures a Client. Zero values fall back to the public
// open-meteo endpoints.
type Options struct {
	ForecastURL string
	ArchiveURL  string
	Timezone    string
	Timeout     time.Duration
}

// Client implements service.WeatherProvider.
type Client struct {
	forecastURL string
	archiveURL  string
	timezone    string
	http        *http.Client
	logger      *slog.Logger
	now         func() time.Time
}

// New returns a Client.
func New(opts Options, logger *slog.Logger) *Client {
	if opts.ForecastURL == "" {
		opts.ForecastURL = "https://api.open-meteo.com/v1/forecast"
	}
	if opts.ArchiveURL == "" {
		opts.ArchiveURL = "https://archive-api.open-meteo.com/v1/archive"
	}
	if opts.Timezone == "" {
		opts.Timezone = "auto"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		forecastURL: opts.ForecastURL,
		archiveURL:  opts.ArchiveURL,
		timezone:    opts.Timezone,
		http:        &http.Client{Timeout: opts.Timeout},
		logger:      logger,
		now:         time.Now,
	}
}

type dailyResponse struct {
	Daily struct {
		Time        []string  `json:"time"`
		WeatherCode []int     `json:"weathercode"`
		Max         []float64 `json:"temperature_2m_max"`
		Min         []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

// Daily returns one entry per date in [start, end] that either endpoint
// reported, in date order. One failing endpoint is logged and skipped; an
// error is returned only when every request failed.
func (c *Client) Daily(ctx context.Context, lat, lng float64, start, end time.Time) ([]domain.DayWeather, error) {
	start, end = domain.TruncateDate(start), domain.TruncateDate(end)
	today := domain.TruncateDate(c.now())
	yesterday := today.AddDate(0, 0, -1)

	type call struct {
		base     string
		from, to time.Time
	}
	var calls []call
	if !start.After(yesterday) {
		to := end
		if to.After(yesterday) {
			to = yesterday
		}
		calls = append(calls, call{c.archiveURL, start, to})
	}
	if !end.Before(today) {
		from := start
		if from.Before(today) {
			from = today
		}
		calls = append(calls, call{c.forecastURL, from, end})
	}

	var (
		mu     sync.Mutex
		merged = make(map[string]domain.DayWeather)
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, cl := range calls {
		g.Go(func() error {
			days, err := c.fetch(gctx, cl.base, lat, lng, cl.from, cl.to)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				c.logger.WarnContext(ctx, "weather request failed", "url", cl.base, "error", err)
				return nil
			}
			for _, d := range days {
				merged[d.Date] = d
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(calls) > 0 && failed == len(calls) {
		return nil, fmt.Errorf("weather.Client.Daily: %w: every weather request failed", domain.ErrBackendUnavailable)
	}

	out := make([]domain.DayWeather, 0, len(merged))
	for _, d := range merged {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (c *Client) fetch(ctx context.Context, base string, lat, lng float64, from, to time.Time) ([]domain.DayWeather, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("daily", "weathercode,temperature_2m_max,temperature_2m_min")
	q.Set("timezone", c.timezone)
	q.Set("start_date", domain.DateKey(from))
	q.Set("end_date", domain.DateKey(to))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var body dailyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	d := body.Daily
	out := make([]domain.DayWeather, 0, len(d.Time))
	for i, date := range d.Time {
		if i >= len(d.WeatherCode) || i >= len(d.Max) || i >= len(d.Min) {
			break
		}
		out = append(out, domain.DayWeather{
			Date:      date,
			Condition: Condition(d.WeatherCode[i]),
			Max:       int(math.Round(d.Max[i])),
			Min:       int(math.Round(d.Min[i])),
		})
	}
	return out, nil
}
