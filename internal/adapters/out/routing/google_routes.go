// Package routing computes driving routes with the Google Routes API.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
)

const (
	DefaultBaseURL       = "https://routes.googleapis.com"
	computeRoutesPath    = "/directions/v2:computeRoutes"
	routesFieldMask      = "routes.distanceMeters,routes.duration,routes.polyline.encodedPolyline"
	errorBodyReadLimit   = 1024
	defaultClientTimeout = 5 * time.Second
)

var errAPIKeyRequired = errors.New("google routes api key is required")

// GoogleRoutesProvider implements ports.RoutingProvider. Every failure is
// reported as errs.RoutingUnavailableError so the estimator falls back.
type GoogleRoutesProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type Option func(*GoogleRoutesProvider)

func WithHTTPClient(client *http.Client) Option {
	return func(p *GoogleRoutesProvider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

func WithBaseURL(baseURL string) Option {
	return func(p *GoogleRoutesProvider) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			p.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

func NewGoogleRoutesProvider(apiKey string, opts ...Option) (*GoogleRoutesProvider, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, errAPIKeyRequired
	}

	p := &GoogleRoutesProvider{
		httpClient: &http.Client{Timeout: defaultClientTimeout},
		baseURL:    DefaultBaseURL,
		apiKey:     key,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type waypoint struct {
	Location struct {
		LatLng latLng `json:"latLng"`
	} `json:"location"`
}

func waypointAt(l kernel.Location) waypoint {
	var w waypoint
	w.Location.LatLng = latLng{Latitude: l.Lat(), Longitude: l.Lng()}
	return w
}

type computeRoutesRequest struct {
	Origin            waypoint `json:"origin"`
	Destination       waypoint `json:"destination"`
	TravelMode        string   `json:"travelMode"`
	RoutingPreference string   `json:"routingPreference"`
}

type computeRoutesResponse struct {
	Routes []struct {
		DistanceMeters int    `json:"distanceMeters"`
		Duration       string `json:"duration"`
		Polyline       struct {
			EncodedPolyline string `json:"encodedPolyline"`
		} `json:"polyline"`
	} `json:"routes"`
}

func (p *GoogleRoutesProvider) Route(ctx context.Context, origin, destination kernel.Location) (ports.Route, error) {
	route, err := p.computeRoute(ctx, origin, destination)
	if err != nil {
		return ports.Route{}, errs.NewRoutingUnavailableError(err)
	}
	return route, nil
}

func (p *GoogleRoutesProvider) computeRoute(ctx context.Context, origin, destination kernel.Location) (ports.Route, error) {
	payload, err := json.Marshal(computeRoutesRequest{
		Origin:            waypointAt(origin),
		Destination:       waypointAt(destination),
		TravelMode:        "DRIVE",
		RoutingPreference: "TRAFFIC_AWARE",
	})
	if err != nil {
		return ports.Route{}, fmt.Errorf("marshal compute routes request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+computeRoutesPath, bytes.NewReader(payload))
	if err != nil {
		return ports.Route{}, fmt.Errorf("build compute routes request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", p.apiKey)
	req.Header.Set("X-Goog-FieldMask", routesFieldMask)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return ports.Route{}, fmt.Errorf("execute compute routes request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return ports.Route{}, fmt.Errorf("compute routes status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var body computeRoutesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ports.Route{}, fmt.Errorf("decode compute routes response: %w", err)
	}
	if len(body.Routes) == 0 {
		return ports.Route{}, errors.New("no route between origin and destination")
	}

	best := body.Routes[0]
	duration, err := time.ParseDuration(best.Duration)
	if err != nil {
		return ports.Route{}, fmt.Errorf("parse route duration %q: %w", best.Duration, err)
	}

	return ports.Route{
		DistanceMeters:  best.DistanceMeters,
		DurationSeconds: int(duration.Round(time.Second) / time.Second),
		Polyline:        best.Polyline.EncodedPolyline,
	}, nil
}
