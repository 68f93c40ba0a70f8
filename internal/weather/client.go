package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmespath/go-jmespath"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const (
	// CityPlaceholder is replaced with the requested city in the URL template.
	CityPlaceholder = "{city}"

	// DefaultTempPath selects the temperature in an OpenWeatherMap-style payload.
	DefaultTempPath = "main.temp"

	// maxBodyBytes caps how much of a weather response is read.
	maxBodyBytes = 1 << 20
)

var (
	// ErrUpstreamFailure wraps every failure to obtain a response from the weather API.
	ErrUpstreamFailure = errors.New("weather upstream failure")

	errUnexpected   = errors.New("unexpected status code")
	errNoHTTPClient = errors.New("http client not configured")
	errNoURL        = errors.New("weather api url is not configured")
)

// Config describes how to reach the weather API.
type Config struct {
	// URLTemplate may contain CityPlaceholder.
	URLTemplate string
	// TempPath is a JMESPath expression yielding the temperature; DefaultTempPath when empty.
	TempPath string
	// CircuitBreaker makes calls fail fast after repeated upstream errors.
	CircuitBreaker bool
}

// Client fetches the current temperature over HTTP. It never retries.
type Client struct {
	name        string
	urlTemplate string
	tempPath    *jmespath.JMESPath
	http        *http.Client
	circuit     *gobreaker.CircuitBreaker
}

// NewClient validates cfg and builds a Client around the shared HTTP client.
func NewClient(client *http.Client, cfg Config) (*Client, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}
	if strings.TrimSpace(cfg.URLTemplate) == "" {
		return nil, errNoURL
	}
	path := cfg.TempPath
	if path == "" {
		path = DefaultTempPath
	}
	compiled, err := jmespath.Compile(path)
	if err != nil {
		return nil, fmt.Errorf("invalid temperature path %q: %w", path, err)
	}

	c := &Client{
		name:        "weather",
		urlTemplate: cfg.URLTemplate,
		tempPath:    compiled,
		http:        client,
	}
	if cfg.CircuitBreaker {
		c.circuit = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        c.name,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		})
	}
	return c, nil
}

// Temperature returns the current temperature for city.
// Transport errors and non-2xx answers are returned wrapped in ErrUpstreamFailure.
// A body that cannot be read as a temperature yields 0 and no error.
func (c *Client) Temperature(ctx context.Context, city string) (float64, error) {
	u := c.URLFor(city)

	body, err := c.fetch(ctx, u)
	if err != nil {
		return 0, err
	}
	return c.extract(body), nil
}

// URLFor expands the URL template for city. The city is path-escaped before
// the '?' and query-escaped after it.
func (c *Client) URLFor(city string) string {
	if !strings.Contains(c.urlTemplate, CityPlaceholder) {
		return c.urlTemplate
	}
	path, query, hasQuery := strings.Cut(c.urlTemplate, "?")
	u := strings.ReplaceAll(path, CityPlaceholder, url.PathEscape(city))
	if hasQuery {
		u += "?" + strings.ReplaceAll(query, CityPlaceholder, url.QueryEscape(city))
	}
	return u
}

func (c *Client) fetch(ctx context.Context, u string) ([]byte, error) {
	if c.circuit == nil {
		return c.get(ctx, u)
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		return c.get(ctx, u)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrUpstreamFailure, err)
		}
		return nil, err
	}
	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result type from circuit breaker", ErrUpstreamFailure)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstreamFailure, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: %w: %d", ErrUpstreamFailure, errUnexpected, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUpstreamFailure, err)
	}
	return body, nil
}

// extract keeps brewing available on malformed payloads by falling back to 0.
func (c *Client) extract(body []byte) float64 {
	var payload interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		log.WithError(err).Debug("weather: payload is not json, using 0")
		return 0
	}

	v, err := c.tempPath.Search(payload)
	if err != nil {
		log.WithError(err).Debug("weather: temperature path failed, using 0")
		return 0
	}

	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		log.WithField("value", v).Debug("weather: temperature is not numeric, using 0")
		return 0
	}
}
