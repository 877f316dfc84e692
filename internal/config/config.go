package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default cnyes endpoints. The feed URL serves the paginated newslist; the
// link base is the public site used to derive canonical article URLs.
const (
	DefaultFeedURL  = "https://api.cnyes.com/media/api/v1/newslist/category/headline"
	DefaultLinkBase = "https://news.cnyes.com"
)

// Ingest holds configuration for the ingestion service.
type Ingest struct {
	FeedBaseURL     string
	FeedLinkBase    string
	Page            int
	Limit           int
	HTTPTimeout     time.Duration
	StorePath       string
	CSVPath         string
	RawSnapshotPath string
	Interval        time.Duration
	RunOnce         bool
	KafkaBrokers    []string
	KafkaTopic      string
}

// API describes the read-only query service.
type API struct {
	StorePath   string
	BindAddr    string
	DefaultPage int
	MaxPage     int
}

// LoadIngest builds an Ingest config from environment variables.
func LoadIngest() (*Ingest, error) {
	c := &Ingest{
		FeedBaseURL:     getEnv("FEED_BASE_URL", DefaultFeedURL),
		FeedLinkBase:    strings.TrimRight(getEnv("FEED_LINK_BASE", DefaultLinkBase), "/"),
		Page:            getInt("FEED_PAGE", 1),
		Limit:           getInt("FEED_LIMIT", 30),
		HTTPTimeout:     getDuration("FEED_HTTP_TIMEOUT", "15s"),
		StorePath:       getEnv("STORE_DB_PATH", "cnyes_news.db"),
		CSVPath:         getEnv("CSV_LOG_PATH", "cnyes_news.csv"),
		RawSnapshotPath: getEnv("RAW_SNAPSHOT_PATH", ""),
		Interval:        getDuration("INGEST_INTERVAL", "10m"),
		RunOnce:         getBool("INGEST_RUN_ONCE", false),
		KafkaBrokers:    splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "news_ingested"),
	}

	if c.FeedBaseURL == "" {
		return nil, fmt.Errorf("FEED_BASE_URL cannot be empty")
	}
	if c.Page < 1 {
		return nil, fmt.Errorf("FEED_PAGE must be at least 1")
	}
	if c.Limit < 1 {
		return nil, fmt.Errorf("FEED_LIMIT must be at least 1")
	}
	if c.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("FEED_HTTP_TIMEOUT must be positive")
	}
	if c.StorePath == "" {
		return nil, fmt.Errorf("STORE_DB_PATH cannot be empty")
	}
	if c.CSVPath == "" {
		return nil, fmt.Errorf("CSV_LOG_PATH cannot be empty")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("INGEST_INTERVAL must be positive")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC cannot be empty when brokers are set")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		StorePath:   getEnv("STORE_DB_PATH", "cnyes_news.db"),
		BindAddr:    getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultPage: getInt("API_PAGE_SIZE", 20),
		MaxPage:     getInt("API_MAX_PAGE_SIZE", 100),
	}

	if c.StorePath == "" {
		return nil, fmt.Errorf("STORE_DB_PATH cannot be empty")
	}
	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
