package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DailyRain is the forecast precipitation total for one calendar day.
type DailyRain struct {
	Date   string  `json:"date" example:"2026-03-01"`
	RainMM float64 `json:"rain_mm" example:"2.4"`
}

// Forecast is the decoded part of an Open-Meteo response we use.
type Forecast struct {
	Daily  []DailyRain
	Hourly []HourlyRain
}

// HourlyRain is the precipitation expected in one hour.
type HourlyRain struct {
	Time   time.Time
	RainMM float64
}

// NextDay sums hourly precipitation in [from, from+24h). Without hourly
// data it falls back to the first daily total.
func (f *Forecast) NextDay(from time.Time) (float64, bool) {
	if len(f.Hourly) > 0 {
		end := from.Add(24 * time.Hour)
		sum, n := 0.0, 0
		for _, h := range f.Hourly {
			if !h.Time.Before(from) && h.Time.Before(end) {
				sum += h.RainMM
				n++
			}
		}
		if n > 0 {
			return sum, true
		}
	}
	if len(f.Daily) > 0 {
		return f.Daily[0].RainMM, true
	}
	return 0, false
}

// Client is a thin HTTP wrapper for the Open-Meteo forecast API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a Client against baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

type forecastResponse struct {
	Daily struct {
		Time             []string   `json:"time"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
	Hourly struct {
		Time          []string   `json:"time"`
		Precipitation []*float64 `json:"precipitation"`
	} `json:"hourly"`
}

// Fetch retrieves the two-day precipitation forecast for a location.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (*Forecast, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	q.Set("daily", "precipitation_sum")
	q.Set("hourly", "precipitation")
	q.Set("timezone", "UTC")
	q.Set("forecast_days", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather API returned %d: %s", resp.StatusCode, string(body))
	}

	var raw forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(raw.Daily.Time) != len(raw.Daily.PrecipitationSum) ||
		len(raw.Hourly.Time) != len(raw.Hourly.Precipitation) {
		return nil, fmt.Errorf("weather API returned mismatched series")
	}

	f := &Forecast{}
	for i, day := range raw.Daily.Time {
		f.Daily = append(f.Daily, DailyRain{Date: day, RainMM: deref(raw.Daily.PrecipitationSum[i])})
	}
	for i, ts := range raw.Hourly.Time {
		t, err := time.Parse("2006-01-02T15:04", ts)
		if err != nil {
			return nil, fmt.Errorf("parse hourly time %q: %w", ts, err)
		}
		f.Hourly = append(f.Hourly, HourlyRain{Time: t, RainMM: deref(raw.Hourly.Precipitation[i])})
	}
	return f, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
