package weather_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/jetjot/internal/domain"
	"github.com/pkordes/jetjot/internal/weather"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fakeAPI answers every request with the dates it was asked for, using the
// given code and temperatures.
func fakeAPI(t *testing.T, code int, hits *atomic.Int32, ranges chan<- [2]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		q := r.URL.Query()
		assert.Equal(t, "weathercode,temperature_2m_max,temperature_2m_min", q.Get("daily"))
		from, _ := time.Parse(domain.DateLayout, q.Get("start_date"))
		to, _ := time.Parse(domain.DateLayout, q.Get("end_date"))
		if ranges != nil {
			ranges <- [2]string{q.Get("start_date"), q.Get("end_date")}
		}
		var dates []string
		var codes []int
		var maxes, mins []float64
		for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
			dates = append(dates, domain.DateKey(d))
			codes = append(codes, code)
			maxes = append(maxes, 21.6)
			mins = append(mins, 9.4)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"daily": map[string]any{
			"time": dates, "weathercode": codes, "temperature_2m_max": maxes, "temperature_2m_min": mins,
		}})
	}))
}

func TestDaily_SplitsPastAndFuture(t *testing.T) {
	var archiveHits, forecastHits atomic.Int32
	archiveRanges := make(chan [2]string, 1)
	forecastRanges := make(chan [2]string, 1)
	archive := fakeAPI(t, 3, &archiveHits, archiveRanges)
	defer archive.Close()
	forecast := fakeAPI(t, 61, &forecastHits, forecastRanges)
	defer forecast.Close()

	c := weather.New(weather.Options{ForecastURL: forecast.URL, ArchiveURL: archive.URL}, nil)
	c.SetClock(func() time.Time { return time.Date(2025, 6, 3, 15, 0, 0, 0, time.UTC) })

	got, err := c.Daily(context.Background(), 45, -122, date(2025, 6, 1), date(2025, 6, 5))

	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, [2]string{"2025-06-01", "2025-06-02"}, <-archiveRanges)
	assert.Equal(t, [2]string{"2025-06-03", "2025-06-05"}, <-forecastRanges)
	assert.Equal(t, "overcast", got[0].Condition)
	assert.Equal(t, "rain", got[2].Condition)
	assert.Equal(t, 22, got[0].Max)
	assert.Equal(t, 9, got[0].Min)
	assert.Equal(t, "2025-06-05", got[4].Date)
}

func TestDaily_FutureOnlySkipsArchive(t *testing.T) {
	var archiveHits, forecastHits atomic.Int32
	archive := fakeAPI(t, 0, &archiveHits, nil)
	defer archive.Close()
	forecast := fakeAPI(t, 0, &forecastHits, nil)
	defer forecast.Close()

	c := weather.New(weather.Options{ForecastURL: forecast.URL, ArchiveURL: archive.URL}, nil)
	c.SetClock(func() time.Time { return date(2025, 6, 1) })

	got, err := c.Daily(context.Background(), 1, 2, date(2025, 6, 1), date(2025, 6, 2))

	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Zero(t, archiveHits.Load())
	assert.Equal(t, int32(1), forecastHits.Load())
}

func TestDaily_OneEndpointDownKeepsTheOther(t *testing.T) {
	var hits atomic.Int32
	archive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer archive.Close()
	forecast := fakeAPI(t, 0, &hits, nil)
	defer forecast.Close()

	c := weather.New(weather.Options{ForecastURL: forecast.URL, ArchiveURL: archive.URL}, nil)
	c.SetClock(func() time.Time { return date(2025, 6, 2) })

	got, err := c.Daily(context.Background(), 1, 2, date(2025, 6, 1), date(2025, 6, 3))

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2025-06-02", got[0].Date)
}

func TestDaily_AllEndpointsDown(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	c := weather.New(weather.Options{ForecastURL: down.URL, ArchiveURL: down.URL}, nil)
	c.SetClock(func() time.Time { return date(2025, 6, 2) })

	_, err := c.Daily(context.Background(), 1, 2, date(2025, 6, 1), date(2025, 6, 3))

	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}

func TestCondition(t *testing.T) {
	assert.Equal(t, "clear", weather.Condition(0))
	assert.Equal(t, "thunderstorm", weather.Condition(95))
	assert.Equal(t, "overcast", weather.Condition(4), "nearest lower code")
	assert.Equal(t, "thunderstorm", weather.Condition(120))
	assert.Equal(t, "unknown", weather.Condition(-1))
}
