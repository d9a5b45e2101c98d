// Package suntimes fetches sunrise and sunset times for the configured
// location from api.sunrise-sunset.org. Results are cached per calendar
// day, and a fixed fallback is served when the API is unreachable so the
// day/night rendering never blocks on the network.
package suntimes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/maypok86/otter/v2"
	"github.com/mattwrdg/snoozydozy/internal"
)

const apiBaseURL = "https://api.sunrise-sunset.org/json"

// Fallback clock times when the API cannot be reached.
const (
	fallbackSunriseHour = 7
	fallbackSunsetHour  = 19
)

// Times are the sun events of one calendar day, in the requested timezone.
type Times struct {
	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`
	// Fallback marks defaults served because the lookup failed.
	Fallback bool `json:"fallback"`
}

type apiResponse struct {
	Results struct {
		Sunrise string `json:"sunrise"`
		Sunset  string `json:"sunset"`
	} `json:"results"`
	Status string `json:"status"`
}

type Client struct {
	httpClient *http.Client
	cache      *otter.Cache[string, Times]
	logger     internal.Logger
	latitude   float64
	longitude  float64
	timezone   string
}

func NewClient(latitude, longitude float64, timezone string, logger internal.Logger) *Client {
	cache := otter.Must(&otter.Options[string, Times]{
		MaximumSize:      366,
		ExpiryCalculator: otter.ExpiryWriting[string, Times](7 * 24 * time.Hour),
	})
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
		logger:     logger,
		latitude:   latitude,
		longitude:  longitude,
		timezone:   timezone,
	}
}

// SunTimes returns sunrise and sunset for the given date. The lookup hits
// the per-date cache first; on any fetch failure the fixed fallback times
// are returned and never cached, so a later request can recover.
func (c *Client) SunTimes(ctx context.Context, date time.Time) Times {
	key := date.Format("2006-01-02")
	if cached, ok := c.cache.GetIfPresent(key); ok {
		return cached
	}

	times, err := c.fetch(ctx, date)
	if err != nil {
		c.logger.Warnf("sun times lookup failed for %s, using defaults: %v", key, err)
		return c.fallback(date)
	}

	c.cache.Set(key, times)
	return times
}

func (c *Client) fetch(ctx context.Context, date time.Time) (Times, error) {
	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%f", c.latitude))
	query.Set("lng", fmt.Sprintf("%f", c.longitude))
	query.Set("date", date.Format("2006-01-02"))
	query.Set("formatted", "0")
	query.Set("tzid", c.timezone)
	apiURL := apiBaseURL + "?" + query.Encode()

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
				return fmt.Errorf("HTTP %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("HTTP %d", resp.StatusCode))
			}

			body, err = io.ReadAll(io.LimitReader(resp.Body, 64*1024))
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debugf("retrying sun times fetch, attempt %d: %v", n+1, err)
		}),
	)
	if err != nil {
		return Times{}, err
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Times{}, fmt.Errorf("decoding response: %w", err)
	}
	if parsed.Status != "OK" {
		return Times{}, fmt.Errorf("API status %q", parsed.Status)
	}

	sunrise, err := time.Parse(time.RFC3339, parsed.Results.Sunrise)
	if err != nil {
		return Times{}, fmt.Errorf("parsing sunrise: %w", err)
	}
	sunset, err := time.Parse(time.RFC3339, parsed.Results.Sunset)
	if err != nil {
		return Times{}, fmt.Errorf("parsing sunset: %w", err)
	}
	return Times{Sunrise: sunrise, Sunset: sunset}, nil
}

func (c *Client) fallback(date time.Time) Times {
	loc := date.Location()
	return Times{
		Sunrise:  time.Date(date.Year(), date.Month(), date.Day(), fallbackSunriseHour, 0, 0, 0, loc),
		Sunset:   time.Date(date.Year(), date.Month(), date.Day(), fallbackSunsetHour, 0, 0, 0, loc),
		Fallback: true,
	}
}
