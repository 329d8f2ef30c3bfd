package walking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/twpayne/go-polyline"

	"github.com/smarttransit/route-planner/internal/models"
)

// ORSProvider fetches foot-walking routes from OpenRouteService
type ORSProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ORSConfig holds configuration for the OpenRouteService client
type ORSConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NewORSProvider creates a new OpenRouteService client
func NewORSProvider(config ORSConfig) *ORSProvider {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ORSProvider{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		apiKey:  config.APIKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// DirectionsRequest represents the ORS directions request body
type DirectionsRequest struct {
	Coordinates  [][2]float64 `json:"coordinates"` // [lng, lat]
	Instructions bool         `json:"instructions"`
	Preference   string       `json:"preference"`
}

// DirectionsResponse represents the subset of the ORS response that is used
type DirectionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"` // meters
			Duration float64 `json:"duration"` // seconds
		} `json:"summary"`
		Geometry string `json:"geometry"` // encoded polyline, precision 5
	} `json:"routes"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Route requests a walking route between two coordinates
func (p *ORSProvider) Route(ctx context.Context, from, to models.Coordinate) (*models.WalkingLeg, error) {
	body, err := json.Marshal(DirectionsRequest{
		Coordinates:  [][2]float64{{from.Lng, from.Lat}, {to.Lng, to.Lat}},
		Instructions: false,
		Preference:   "recommended",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.baseURL + "/v2/directions/foot-walking"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", p.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var directions DirectionsResponse
	if err := json.Unmarshal(respBody, &directions); err != nil {
		return nil, fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		if directions.Error != nil {
			msg = directions.Error.Message
		}
		return nil, fmt.Errorf("ORS returned status %d: %s", resp.StatusCode, msg)
	}
	if len(directions.Routes) == 0 {
		return nil, fmt.Errorf("ORS returned no routes")
	}

	route := directions.Routes[0]
	decoded, _, err := polyline.DecodeCoords([]byte(route.Geometry))
	if err != nil {
		return nil, fmt.Errorf("failed to decode geometry: %w", err)
	}

	coords := make([]models.Coordinate, 0, len(decoded))
	for _, c := range decoded {
		coords = append(coords, models.Coordinate{Lat: c[0], Lng: c[1]})
	}

	return &models.WalkingLeg{
		From:            from,
		To:              to,
		DistanceKm:      route.Summary.Distance / 1000,
		DurationMinutes: int(math.Round(route.Summary.Duration / 60)),
		Geometry:        lineGeometry(coords),
		Source:          SourceORS,
	}, nil
}
