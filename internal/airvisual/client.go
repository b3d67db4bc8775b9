package airvisual

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"breather/internal/conditions"

	"github.com/go-resty/resty/v2"
)

type Options struct {
	BaseURL string
	APIKey  string
	// Timeout bounds a whole request. Zero means no timeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Client issues AirVisual requests. Every call is a single attempt: no retry,
// no backoff, no caching of earlier responses.
type Client struct {
	http   *resty.Client
	apiKey string
	logger *slog.Logger
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetRetryCount(0)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	return &Client{
		http:   client,
		apiKey: opts.APIKey,
		logger: logger.With("component", "airvisual"),
	}
}

// FetchConditions fetches the conditions of the city nearest to lat/lon.
// Any failure is returned as *FetchError.
func (c *Client) FetchConditions(ctx context.Context, lat, lon float64) (conditions.CityConditions, error) {
	body, err := c.do(ctx, NearestCity(lat, lon, c.apiKey))
	if err != nil {
		return conditions.CityConditions{}, err
	}

	cc, err := decodeNearestCity(body)
	if err != nil {
		return conditions.CityConditions{}, &FetchError{Kind: DecodeError, Err: err}
	}
	return cc, nil
}

func (c *Client) do(ctx context.Context, req Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(req.Params).
		Execute(req.Method, req.Path)
	if err != nil {
		c.logger.Debug("request failed",
			"route", req.Route.String(),
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, &FetchError{Kind: TransportError, Err: fmt.Errorf("%s %s: %w", req.Method, req.Path, err)}
	}

	c.logger.Debug("request completed",
		"route", req.Route.String(),
		"status", resp.StatusCode(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if !resp.IsSuccess() {
		msg := failureMessage(resp.Body())
		if msg == "" {
			msg = resp.Status()
		}
		return nil, &FetchError{
			Kind:   TransportError,
			Status: resp.StatusCode(),
			Err:    fmt.Errorf("%s %s: %s", req.Method, req.Path, msg),
		}
	}
	return resp.Body(), nil
}
