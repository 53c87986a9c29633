package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string
	KafkaTopic   string
	RedisURL     string

	StageChangeChannel      string
	TimelineRefreshInterval time.Duration
	VoteSubmitTimeout       time.Duration
	WorkerPollInterval      time.Duration
	AnomalyGracePeriod      time.Duration

	AutoMigrate           bool
	EnableTallyReconciler bool
	EnableAnomalyScanner  bool
	EnableOutboxRelay     bool
}

// Load reads the environment, after merging an optional .env file from the
// working directory. Variables already set in the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "agora"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	channel := strings.TrimSpace(os.Getenv("STAGE_CHANGE_CHANNEL"))
	if channel == "" {
		channel = "agora.timeline.stage_changed"
	}

	topic := strings.TrimSpace(os.Getenv("KAFKA_TOPIC_PREFIX"))
	if topic == "" {
		topic = service
	}

	cfg := Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: envList("KAFKA_BROKERS", nil),
		KafkaTopic:   topic,
		RedisURL:     strings.TrimSpace(os.Getenv("REDIS_URL")),

		StageChangeChannel:      channel,
		TimelineRefreshInterval: envDuration("TIMELINE_REFRESH_INTERVAL", 60*time.Second),
		VoteSubmitTimeout:       envDuration("VOTE_SUBMIT_TIMEOUT", 10*time.Second),
		WorkerPollInterval:      envDuration("WORKER_POLL_INTERVAL", 2*time.Second),
		AnomalyGracePeriod:      envDuration("ANOMALY_GRACE_PERIOD", 5*time.Minute),

		AutoMigrate:           envBool("AUTO_MIGRATE", false),
		EnableTallyReconciler: envBool("ENABLE_TALLY_RECONCILER", true),
		EnableAnomalyScanner:  envBool("ENABLE_ANOMALY_SCANNER", true),
		EnableOutboxRelay:     envBool("ENABLE_OUTBOX_RELAY", true),
	}
	if cfg.VoteSubmitTimeout <= 0 {
		return Config{}, errors.New("VOTE_SUBMIT_TIMEOUT must be positive")
	}
	if cfg.WorkerPollInterval <= 0 {
		return Config{}, errors.New("WORKER_POLL_INTERVAL must be positive")
	}
	return cfg, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

// envDuration accepts Go duration strings ("90s") or bare seconds ("90").
// Unparseable values fall back. Zero is kept so callers can disable caching.
func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if d, err := time.ParseDuration(raw + "s"); err == nil {
		return d
	}
	return fallback
}

func envList(name string, fallback []string) []string {
	var items []string
	for _, value := range strings.Split(os.Getenv(name), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			items = append(items, value)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
