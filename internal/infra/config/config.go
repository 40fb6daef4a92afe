package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// Config aggregates application configuration values loaded from environment variables.
type Config struct {
	Env                  string
	HTTPAddr             string
	StorageMode          string
	MongoURI             string
	MongoDB              string
	RedisAddr            string
	RedisPassword        string
	RedisDB              int
	AvailabilityCacheTTL time.Duration
	KafkaBrokers         []string
	KafkaTopicPrefix     string
	KafkaConsumerGroup   string
	CalendarEvents       bool
	OutboxPollInterval   time.Duration
	RetryBackoff         []time.Duration
	BookingAPIURL        string
	BookingAPIKey        string
	BookingAPIRPS        float64
	PaymentInitTimeout   time.Duration
	PaymentWarningAfter  time.Duration
	PaymentExpiryAfter   time.Duration
	PaymentWidgetURL     string
	PaymentSuccessParam  string
	SessionIdleTTL       time.Duration
	PropertyFixtures     string
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:                 getEnv("APP_ENV", "dev"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		StorageMode:         strings.ToLower(getEnv("STORAGE_MODE", StorageMemory)),
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDB:             getEnv("MONGO_DB", "directstay"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		KafkaTopicPrefix:    getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaConsumerGroup:  getEnv("KAFKA_CONSUMER_GROUP", "directstay-storefront"),
		BookingAPIURL:       os.Getenv("BOOKING_API_URL"),
		BookingAPIKey:       os.Getenv("BOOKING_API_KEY"),
		PaymentWidgetURL:    getEnv("PAYMENT_WIDGET_URL", "https://widget.payments.local/v1/checkout.js"),
		PaymentSuccessParam: getEnv("PAYMENT_SUCCESS_PARAM", "payment=success"),
		PropertyFixtures:    getEnv("PROPERTY_FIXTURES", "fixtures/properties.json"),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	calendarEvents, err := parseBoolEnv("CALENDAR_EVENTS_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	cfg.CalendarEvents = calendarEvents

	redisDB, err := parseIntEnv("REDIS_DB", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.RedisDB = redisDB

	rps, err := parseFloatEnv("BOOKING_API_RPS", 10)
	if err != nil {
		return Config{}, err
	}
	cfg.BookingAPIRPS = rps

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"AVAILABILITY_CACHE_TTL", 5 * time.Minute, &cfg.AvailabilityCacheTTL},
		{"OUTBOX_POLL_INTERVAL", 500 * time.Millisecond, &cfg.OutboxPollInterval},
		{"PAYMENT_INIT_TIMEOUT", 30 * time.Second, &cfg.PaymentInitTimeout},
		{"PAYMENT_WARNING_AFTER", 25 * time.Minute, &cfg.PaymentWarningAfter},
		{"PAYMENT_EXPIRY_AFTER", 28 * time.Minute, &cfg.PaymentExpiryAfter},
		{"SESSION_IDLE_TTL", time.Hour, &cfg.SessionIdleTTL},
	}
	for _, d := range durations {
		v, err := parseDurationEnv(d.key, d.def)
		if err != nil {
			return Config{}, err
		}
		*d.dst = v
	}

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.StorageMode {
	case StorageMemory:
	case StorageMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORAGE_MODE=mongo")
		}
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when STORAGE_MODE=mongo")
		}
		if c.BookingAPIURL == "" {
			return fmt.Errorf("BOOKING_API_URL is required when STORAGE_MODE=mongo")
		}
	default:
		return fmt.Errorf("invalid STORAGE_MODE %q", c.StorageMode)
	}
	if c.PaymentWarningAfter >= c.PaymentExpiryAfter {
		return fmt.Errorf("PAYMENT_WARNING_AFTER (%s) must be before PAYMENT_EXPIRY_AFTER (%s)", c.PaymentWarningAfter, c.PaymentExpiryAfter)
	}
	if c.BookingAPIRPS <= 0 {
		return fmt.Errorf("BOOKING_API_RPS must be positive")
	}
	return nil
}

// Topic prefixes name with KafkaTopicPrefix.
func (c Config) Topic(name string) string {
	return c.KafkaTopicPrefix + name
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseIntEnv(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s integer: %w", key, err)
	}
	return v, nil
}

func parseFloatEnv(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s number: %w", key, err)
	}
	return v, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
