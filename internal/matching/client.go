package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/twpayne/go-polyline"

	"github.com/fieldtrack/trips-backend-go/internal/config"
	"github.com/fieldtrack/trips-backend-go/internal/models"
)

// Per-point search radius bounds in meters. The radius tracks GPS accuracy
// but keeps a floor large enough to tolerate road-geometry misalignment.
const (
	minSearchRadiusM     = 20.0
	maxSearchRadiusM     = 100.0
	defaultSearchRadiusM = 30.0
)

// Client calls the external OSRM-compatible map-matching service.
type Client struct {
	cfg  config.MatcherConfig
	http *http.Client
}

// NewClient creates a matching client from configuration.
func NewClient(cfg config.MatcherConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// osrmResponse mirrors the service's match response: a status code string,
// matched route segments, and one tracepoint per input fix (null where the
// fix could not be snapped to a road).
type osrmResponse struct {
	Code        string            `json:"code"`
	Matchings   []osrmMatching    `json:"matchings"`
	Tracepoints []*osrmTracepoint `json:"tracepoints"`
}

type osrmMatching struct {
	Distance   float64 `json:"distance"` // meters
	Confidence float64 `json:"confidence"`
	Geometry   string  `json:"geometry"` // encoded polyline
}

type osrmTracepoint struct {
	Location [2]float64 `json:"location"`
}

// Match submits a simplified trace to the matching service and aggregates
// the response into a MatchResult. Failures of any kind (network, non-2xx,
// service-level error, empty result) come back as a structured failed
// result, never as an error.
func (c *Client) Match(ctx context.Context, trace []models.GpsFix) models.MatchResult {
	requestURL := c.buildURL(trace)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return failedResult(len(trace), fmt.Sprintf("invalid match request: %v", err))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return failedResult(len(trace), fmt.Sprintf("matching service unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return failedResult(len(trace), fmt.Sprintf("matching service returned HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failedResult(len(trace), fmt.Sprintf("failed to read match response: %v", err))
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return failedResult(len(trace), fmt.Sprintf("invalid match response: %v", err))
	}

	if parsed.Code != "Ok" {
		return failedResult(len(trace), fmt.Sprintf("matching service error: %s", parsed.Code))
	}
	if len(parsed.Matchings) == 0 {
		return failedResult(len(trace), "no road matchings found for trace")
	}

	return c.aggregate(parsed, len(trace))
}

// buildURL assembles the GET /match/v1/driving request: semicolon-joined
// lon,lat pairs plus per-point Unix timestamps and clamped search radii,
// asking for a polyline-encoded full route overview. The endpoint is chosen
// regionally from the trace's first coordinate.
func (c *Client) buildURL(trace []models.GpsFix) string {
	base := SelectEndpoint(c.cfg.Regions, c.cfg.BaseURL, trace[0].Latitude, trace[0].Longitude)
	base = strings.TrimRight(base, "/")

	coords := make([]string, len(trace))
	timestamps := make([]string, len(trace))
	radiuses := make([]string, len(trace))
	for i, f := range trace {
		coords[i] = fmt.Sprintf("%.6f,%.6f", f.Longitude, f.Latitude)
		timestamps[i] = strconv.FormatInt(f.CapturedAt, 10)
		radiuses[i] = strconv.FormatFloat(searchRadius(f), 'f', 0, 64)
	}

	return fmt.Sprintf(
		"%s/match/v1/driving/%s?timestamps=%s&radiuses=%s&geometries=polyline&overview=full&gaps=ignore",
		base,
		strings.Join(coords, ";"),
		strings.Join(timestamps, ";"),
		strings.Join(radiuses, ";"),
	)
}

// searchRadius clamps the fix accuracy into the allowed search-radius band.
func searchRadius(f models.GpsFix) float64 {
	if f.AccuracyMeters == nil {
		return defaultSearchRadiusM
	}
	r := *f.AccuracyMeters
	if r < minSearchRadiusM {
		return minSearchRadiusM
	}
	if r > maxSearchRadiusM {
		return maxSearchRadiusM
	}
	return r
}

// aggregate folds the service's matchings into one result. The service may
// split a trace into several disjoint segments when it cannot bridge a gap:
// distances sum, confidence is distance-weighted so short low-confidence
// fragments do not dominate, and the longest segment's geometry becomes the
// representative route polyline.
func (c *Client) aggregate(parsed osrmResponse, tracePoints int) models.MatchResult {
	totalDistanceM := 0.0
	weightedConfidence := 0.0
	meanConfidence := 0.0
	longest := parsed.Matchings[0]

	for _, m := range parsed.Matchings {
		totalDistanceM += m.Distance
		weightedConfidence += m.Confidence * m.Distance
		meanConfidence += m.Confidence
		if m.Distance > longest.Distance {
			longest = m
		}
	}

	confidence := meanConfidence / float64(len(parsed.Matchings))
	if totalDistanceM > 0 {
		confidence = weightedConfidence / totalDistanceM
	}

	matched := 0
	for _, tp := range parsed.Tracepoints {
		if tp != nil {
			matched++
		}
	}

	geometryPoints := 0
	if coords, _, err := polyline.DecodeCoords([]byte(longest.Geometry)); err == nil {
		geometryPoints = len(coords)
	} else {
		log.Printf("[RoadMatcher] Undecodable route geometry in match response: %v", err)
	}

	return models.MatchResult{
		Success:            true,
		MatchStatus:        models.MatchStatusMatched,
		RouteGeometry:      longest.Geometry,
		RoadDistanceKm:     totalDistanceM / 1000.0,
		MatchConfidence:    confidence,
		GeometryPointCount: geometryPoints,
		MatchedPoints:      matched,
		TracePoints:        tracePoints,
	}
}

func failedResult(tracePoints int, reason string) models.MatchResult {
	return models.MatchResult{
		Success:     false,
		MatchStatus: models.MatchStatusFailed,
		MatchError:  reason,
		TracePoints: tracePoints,
	}
}
