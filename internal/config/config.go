package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/station-temperature-etl/internal/observability"
)

// Config holds the settings shared by the batch tools, populated from
// environment variables.
type Config struct {
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	MetricsAddr     string
	PushgatewayURL  string

	NormalizeWorkers int

	// Optional sinks. Each is enabled by its path or address being set.
	KafkaBrokers       []string
	KafkaTopic         string
	SQLitePath         string
	ParquetPath        string
	ParquetCompression string
	S3                 S3Config

	DownloadUsername string
	DownloadPassword string
	DownloadTimeout  time.Duration
	DownloadWorkers  int

	CalibrationSeed uint64
}

// S3Config describes the bucket run artifacts are uploaded to.
type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Prefix    string
	Region    string
	Secure    bool
}

// Enabled reports whether artifact upload is configured.
func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

// KafkaEnabled reports whether the Kafka sink is configured.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Log returns the logger settings.
func (c *Config) Log() observability.LogConfig {
	return observability.LogConfig{Level: c.LogLevel, Format: c.LogFormat}
}

// LoadEnvFile loads variables from a dotenv file without overriding ones
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	downloadTimeout, err := parseDuration("DOWNLOAD_TIMEOUT", "5m")
	if err != nil {
		return nil, err
	}
	workers, err := parseIntInRange("NORMALIZE_WORKERS", 1, 1, 64)
	if err != nil {
		return nil, err
	}
	downloadWorkers, err := parseIntInRange("DOWNLOAD_WORKERS", 4, 1, 32)
	if err != nil {
		return nil, err
	}
	s3Secure, err := parseBool("S3_SECURE", true)
	if err != nil {
		return nil, err
	}
	seed, err := strconv.ParseUint(envOrDefault("CALIBRATION_SEED", "42"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid CALIBRATION_SEED")
	}

	cfg := &Config{
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		MetricsAddr:     os.Getenv("METRICS_ADDR"),
		PushgatewayURL:  os.Getenv("PUSHGATEWAY_URL"),

		NormalizeWorkers: workers,

		KafkaBrokers:       parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:         envOrDefault("KAFKA_TOPIC", "hourly-station-temperature"),
		SQLitePath:         os.Getenv("SQLITE_PATH"),
		ParquetPath:        os.Getenv("PARQUET_PATH"),
		ParquetCompression: strings.ToUpper(envOrDefault("PARQUET_COMPRESSION", "SNAPPY")),
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Bucket:    os.Getenv("S3_BUCKET"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Prefix:    strings.Trim(envOrDefault("S3_PREFIX", "station-etl"), "/"),
			Region:    envOrDefault("S3_REGION", "us-east-1"),
			Secure:    s3Secure,
		},

		DownloadUsername: os.Getenv("DOWNLOAD_USERNAME"),
		DownloadPassword: os.Getenv("DOWNLOAD_PASSWORD"),
		DownloadTimeout:  downloadTimeout,
		DownloadWorkers:  downloadWorkers,

		CalibrationSeed: seed,
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "json", "text":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want json or text", cfg.LogFormat)
	}
	switch cfg.ParquetCompression {
	case "SNAPPY", "GZIP", "NONE":
	default:
		return nil, fmt.Errorf("invalid PARQUET_COMPRESSION %q: want SNAPPY, GZIP or NONE", cfg.ParquetCompression)
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if (cfg.S3.Endpoint == "") != (cfg.S3.Bucket == "") {
		return nil, errors.New("S3_ENDPOINT and S3_BUCKET must be set together")
	}
	if (cfg.DownloadUsername == "") != (cfg.DownloadPassword == "") {
		return nil, errors.New("DOWNLOAD_USERNAME and DOWNLOAD_PASSWORD must be set together")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseIntInRange(key string, fallback, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s: must be an integer in [%d, %d]", key, lo, hi)
	}
	return n, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}
