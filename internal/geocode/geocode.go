// Package geocode turns coordinates into short place names using a
// Nominatim-compatible reverse geocoding endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkordes/jetjot/internal/domain"
)

// DefaultURL is the public OpenStreetMap reverse endpoint.
const DefaultURL = "https://nominatim.openstreetmap.org/reverse"

// userAgent identifies the service; Nominatim rejects anonymous clients.
const userAgent = "jetjot/1.0"

// Client implements service.Geocoder.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New returns a Client calling baseURL. A zero timeout means 10 seconds.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}, logger: logger}
}

type reverseResponse struct {
	Address struct {
		Suburb       string `json:"suburb"`
		CityDistrict string `json:"city_district"`
		City         string `json:"city"`
		Town         string `json:"town"`
		Village      string `json:"village"`
		County       string `json:"county"`
		State        string `json:"state"`
		Country      string `json:"country"`
	} `json:"address"`
}

// Reverse returns "Local, Region" for the point. It never fails: any
// transport or decoding problem yields domain.UnknownLocation.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) string {
	name, err := c.reverse(ctx, lat, lng)
	if err != nil {
		c.logger.WarnContext(ctx, "reverse geocoding failed", "lat", lat, "lng", lng, "error", err)
		return domain.UnknownLocation
	}
	return name
}

func (c *Client) reverse(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("format", "json")
	q.Set("zoom", "14")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("geocode.Client.reverse: %w", err)
	}
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocode.Client.reverse: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocode.Client.reverse: status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("geocode.Client.reverse: decode: %w", err)
	}
	return placeName(body), nil
}

// placeName picks the most local named part and the region it belongs to.
func placeName(r reverseResponse) string {
	a := r.Address
	local := firstNonEmpty(a.Suburb, a.CityDistrict, a.City, a.Town, a.Village, a.County)
	if local == "" {
		local = "Unknown"
	}
	if region := firstNonEmpty(a.State, a.Country); region != "" {
		return local + ", " + region
	}
	return local
}

func firstNonEmpty(parts ...string) string {
	for _, p := range parts {
		if p != "" {
			return p
		}
	}
	return ""
}
