package config

import (
	"errors"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Data source URIs. Plain paths and file:// URIs are read from disk;
	// http(s):// and s3:// are fetched remotely.
	CountryDataURI  string
	PlantDataURI    string
	BoundaryDataURI string

	BuffersKm        []int
	PlaybackInterval time.Duration
	FetchTimeout     time.Duration

	// S3 access configuration, used only when a source URI has the s3 scheme.
	S3Region          string
	S3Endpoint        string
	S3PathStyle       bool
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	playbackInterval, err := parseDuration("PLAYBACK_INTERVAL", "1s")
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	buffersKm, err := parseBuffers()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CountryDataURI:  strings.TrimSpace(envOrDefault("COUNTRY_DATA_URI", "data/sample/exposure.csv")),
		PlantDataURI:    strings.TrimSpace(envOrDefault("PLANT_DATA_URI", "data/sample/plants.csv")),
		BoundaryDataURI: strings.TrimSpace(envOrDefault("BOUNDARY_DATA_URI", "data/sample/world.geojson")),

		BuffersKm:        buffersKm,
		PlaybackInterval: playbackInterval,
		FetchTimeout:     fetchTimeout,

		S3Region:          os.Getenv("S3_REGION"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3PathStyle:       os.Getenv("S3_PATH_STYLE") == "true",
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
	}

	if cfg.CountryDataURI == "" {
		return nil, errors.New("COUNTRY_DATA_URI is required")
	}
	if cfg.PlantDataURI == "" {
		return nil, errors.New("PLANT_DATA_URI is required")
	}
	if cfg.BoundaryDataURI == "" {
		return nil, errors.New("BOUNDARY_DATA_URI is required")
	}
	if (cfg.S3AccessKeyID == "") != (cfg.S3SecretAccessKey == "") {
		return nil, errors.New("S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY must be set together")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

// parseBuffers reads BUFFERS_KM as a comma-separated list of positive
// distances and returns them sorted ascending with duplicates removed.
func parseBuffers() ([]int, error) {
	raw := envOrDefault("BUFFERS_KM", "30,75,150,300")

	seen := make(map[int]bool)
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, errors.New("invalid BUFFERS_KM")
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("BUFFERS_KM is required")
	}
	sort.Ints(out)
	return out, nil
}
