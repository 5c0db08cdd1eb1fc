// Package geocode adapts the external address-geocoding web service.
//
// Failures are expected, not exceptional: an address the service cannot match
// returns ErrNoMatch and the caller routes the record to the failure report.
// The service is rate-limited, so calls go through a politeness limiter and a
// circuit breaker rather than unbounded parallel requests.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/ugrc/ltcfsync/pkg/types"
)

// ErrNoMatch is returned when the service finds no candidate at or above the
// configured accept score.
var ErrNoMatch = errors.New("no geocode match")

// Result is a successful geocode: projected coordinates plus match metadata.
type Result struct {
	X            float64
	Y            float64
	Score        float64
	MatchAddress string
}

// Locator geocodes a street address within a zone (city or ZIP code).
type Locator interface {
	Locate(ctx context.Context, street, zone string) (*Result, error)
}

// Client is the HTTP Locator implementation.
type Client struct {
	client  *http.Client
	cfg     types.GeocoderConfig
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewClient creates a geocoding client from config, applying defaults for the
// accept score (70), spatial reference (3857, web mercator), and request rate.
func NewClient(cfg types.GeocoderConfig) *Client {
	if cfg.AcceptScore <= 0 {
		cfg.AcceptScore = 70
	}
	if cfg.SpatialReference <= 0 {
		cfg.SpatialReference = 3857
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 4
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "geocoder",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		client:  &http.Client{Timeout: 15 * time.Second},
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		breaker: breaker,
	}
}

// locateResponse is the service's JSON envelope. The envelope carries its own
// status code in addition to the HTTP one.
type locateResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Result  struct {
		Score        float64 `json:"score"`
		MatchAddress string  `json:"matchAddress"`
		Location     struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"location"`
	} `json:"result"`
}

// Locate geocodes one address. Transport errors and 5xx responses count
// toward the circuit breaker; a clean "not found" does not.
func (c *Client) Locate(ctx context.Context, street, zone string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/%s/%s?apiKey=%s&acceptScore=%d&spatialReference=%d",
		c.cfg.URL, url.PathEscape(street), url.PathEscape(zone),
		url.QueryEscape(c.cfg.APIKey), c.cfg.AcceptScore, c.cfg.SpatialReference)

	out, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		if c.cfg.Referer != "" {
			req.Header.Set("Referer", c.cfg.Referer)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("geocode request failed: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading geocode response: %w", err)
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("geocode service error: status %d: %s", resp.StatusCode, body)
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}

	var parsed locateResponse
	if err := json.Unmarshal(out.([]byte), &parsed); err != nil {
		return nil, fmt.Errorf("decoding geocode response: %w", err)
	}
	if parsed.Status != http.StatusOK {
		return nil, fmt.Errorf("%w: %s %s: %s", ErrNoMatch, street, zone, parsed.Message)
	}

	return &Result{
		X:            parsed.Result.Location.X,
		Y:            parsed.Result.Location.Y,
		Score:        parsed.Result.Score,
		MatchAddress: parsed.Result.MatchAddress,
	}, nil
}
