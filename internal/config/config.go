package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"time"
)

// Region maps a bounding box to a dedicated matching-service endpoint.
// Boxes are tested in order against a trip's first coordinate; first match
// wins, otherwise the default service URL is used.
type Region struct {
	Name   string  `json:"name"`
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
	URL    string  `json:"url"`
}

// Contains reports whether the coordinate falls inside the region's box.
func (r Region) Contains(lat, lon float64) bool {
	return lat >= r.MinLat && lat <= r.MaxLat && lon >= r.MinLon && lon <= r.MaxLon
}

// MatcherConfig holds the external map-matching service settings.
type MatcherConfig struct {
	// BaseURL is the default service endpoint. Empty means matching is
	// unconfigured: batch runs fail fast with a configuration error.
	BaseURL string
	Regions []Region
	Timeout time.Duration
	// RateDelay is the pause inserted between successive external calls.
	RateDelay time.Duration
}

// Config 应用配置
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string
	Matcher   MatcherConfig
}

// Load 加载配置
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/trips/trips.db"
	}

	return &Config{
		Port:      port,
		DBPath:    dbPath,
		JWTSecret: os.Getenv("JWT_SECRET"),
		Matcher: MatcherConfig{
			BaseURL:   os.Getenv("MATCH_SERVICE_URL"),
			Regions:   loadRegions(),
			Timeout:   envDuration("MATCH_TIMEOUT_SECONDS", 10) * time.Second,
			RateDelay: envDuration("MATCH_RATE_DELAY_MS", 200) * time.Millisecond,
		},
	}
}

// loadRegions parses the MATCH_REGIONS env var, a JSON array of Region
// objects. Invalid JSON is logged and ignored rather than fatal: matching
// still works against the default endpoint.
func loadRegions() []Region {
	raw := os.Getenv("MATCH_REGIONS")
	if raw == "" {
		return nil
	}

	var regions []Region
	if err := json.Unmarshal([]byte(raw), &regions); err != nil {
		log.Printf("[Config] Ignoring invalid MATCH_REGIONS: %v", err)
		return nil
	}
	return regions
}

func envDuration(key string, def int64) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(def)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		log.Printf("[Config] Ignoring invalid %s=%q", key, raw)
		return time.Duration(def)
	}
	return time.Duration(n)
}
