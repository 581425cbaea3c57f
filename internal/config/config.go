package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/german-heritage-map/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SourcePath     string
	SourceEncoding string
	UTMZone        int
	UTMZoneLetter  string
	ResultLimit    int
	YearMin        int
	YearMax        int
	ReloadInterval time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Mapbox geocoding fallback for rows without coordinates.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
	MapboxRateLimit float64 // requests per second

	// Kafka snapshot publishing; disabled when no brokers are set.
	KafkaBrokers   []string
	KafkaSinkTopic string
}

// KafkaEnabled reports whether snapshots should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s"))
	if err != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	mapboxRate, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("MAPBOX_RATE_LIMIT", "10"), 64)
	if err != nil || mapboxRate <= 0 {
		return nil, errors.New("invalid MAPBOX_RATE_LIMIT")
	}

	reloadInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("RELOAD_INTERVAL", "1m"))
	if err != nil || reloadInterval < 0 {
		return nil, errors.New("invalid RELOAD_INTERVAL")
	}

	utmZone, err := strconv.Atoi(sharedcfg.EnvOrDefault("UTM_ZONE", "14"))
	if err != nil || utmZone < 1 || utmZone > 60 {
		return nil, errors.New("invalid UTM_ZONE: must be 1-60")
	}

	utmLetter := strings.ToUpper(sharedcfg.EnvOrDefault("UTM_ZONE_LETTER", "R"))
	if !validZoneLetter(utmLetter) {
		return nil, errors.New("invalid UTM_ZONE_LETTER: must be one of C-X excluding I and O")
	}

	resultLimit, err := strconv.Atoi(sharedcfg.EnvOrDefault("RESULT_LIMIT", strconv.Itoa(domain.DefaultResultLimit)))
	if err != nil || resultLimit <= 0 {
		return nil, errors.New("invalid RESULT_LIMIT")
	}

	yearMin, errMin := strconv.Atoi(sharedcfg.EnvOrDefault("YEAR_MIN", "1800"))
	yearMax, errMax := strconv.Atoi(sharedcfg.EnvOrDefault("YEAR_MAX", "2024"))
	if errMin != nil || errMax != nil || yearMin > yearMax {
		return nil, errors.New("invalid YEAR_MIN/YEAR_MAX")
	}

	encoding := strings.ToLower(sharedcfg.EnvOrDefault("SOURCE_ENCODING", "latin1"))
	if encoding != "latin1" && encoding != "utf8" {
		return nil, errors.New("invalid SOURCE_ENCODING: must be latin1 or utf8")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		SourcePath:     sharedcfg.EnvOrDefault("MARKERS_SOURCE_PATH", "data/german_sites_full.csv"),
		SourceEncoding: encoding,
		UTMZone:        utmZone,
		UTMZoneLetter:  utmLetter,
		ResultLimit:    resultLimit,
		YearMin:        yearMin,
		YearMax:        yearMax,
		ReloadInterval: reloadInterval,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
		MapboxRateLimit: mapboxRate,

		KafkaBrokers:   parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "heritage-markers"),
	}

	if cfg.SourcePath == "" {
		return nil, errors.New("MARKERS_SOURCE_PATH is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	if cfg.KafkaEnabled() && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

// parseBrokers splits a comma-separated broker list. Empty input means
// publishing is disabled, so there is no localhost default.
func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// validZoneLetter accepts the UTM latitude bands C through X.
func validZoneLetter(s string) bool {
	if len(s) != 1 {
		return false
	}
	c := s[0]
	return c >= 'C' && c <= 'X' && c != 'I' && c != 'O'
}
