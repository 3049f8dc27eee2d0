package matching

import "github.com/fieldtrack/trips-backend-go/internal/config"

// SelectEndpoint picks the matching-service URL for a coordinate by testing
// it against the ordered region list; the first containing bounding box
// wins, otherwise defaultURL. Pure lookup: the region table is plain
// configuration, so tests can substitute arbitrary region sets.
func SelectEndpoint(regions []config.Region, defaultURL string, lat, lon float64) string {
	for _, r := range regions {
		if r.Contains(lat, lon) {
			return r.URL
		}
	}
	return defaultURL
}
