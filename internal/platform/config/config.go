// Package config builds the server configuration so main stays lean.
// Values come from the environment; an optional YAML file, pointed at by
// IOTLEDGER_CONFIG, overrides the defaults before the environment is applied.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	strutil "iotledger/pkg/platform/strings"
)

// Config captures everything the server binary needs to start.
type Config struct {
	Server    Server    `yaml:"server"`
	Postgres  Postgres  `yaml:"postgres"`
	Redis     Redis     `yaml:"redis"`
	Kafka     Kafka     `yaml:"kafka"`
	Auth      Auth      `yaml:"auth"`
	Audit     Audit     `yaml:"audit"`
	Blobstore Blobstore `yaml:"blobstore"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Postgres selects the persistent store. An empty DSN keeps the ledger on the
// in-memory stores.
type Postgres struct {
	DSN string `yaml:"dsn"`
}

// Redis configures the token revocation list. Empty URL disables it.
type Redis struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Kafka configures the audit forwarding sink. Empty brokers disable it.
type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Auth configures token issuance and validation.
type Auth struct {
	JWTSigningKey string        `yaml:"jwt_signing_key"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminSecret   string        `yaml:"admin_secret"`
}

// Audit selects the audit trail backend when Postgres is not configured. An
// empty path keeps the trail in memory.
type Audit struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// Blobstore points at the content-addressed store the ingest pipeline writes
// artifacts to. Empty URL keeps ingest on the in-memory store.
type Blobstore struct {
	URL string `yaml:"url"`
}

func defaults() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Redis: Redis{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{
			Topic: "iotledger.audit",
		},
		Auth: Auth{
			TokenTTL: time.Hour,
		},
	}
}

// Load builds the configuration: defaults, then the optional YAML file, then
// environment overrides.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv("IOTLEDGER_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.Auth.JWTSigningKey == "" {
		// Development fallback; deployments must set IOTLEDGER_JWT_SIGNING_KEY.
		cfg.Auth.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "IOTLEDGER_ADDR")
	setString(&cfg.Postgres.DSN, "IOTLEDGER_POSTGRES_DSN")
	setString(&cfg.Redis.URL, "IOTLEDGER_REDIS_URL")
	setString(&cfg.Auth.JWTSigningKey, "IOTLEDGER_JWT_SIGNING_KEY")
	setString(&cfg.Auth.AdminSecret, "IOTLEDGER_ADMIN_SECRET")
	setString(&cfg.Kafka.Topic, "IOTLEDGER_KAFKA_TOPIC")
	setString(&cfg.Audit.SQLitePath, "IOTLEDGER_AUDIT_SQLITE_PATH")
	setString(&cfg.Blobstore.URL, "IOTLEDGER_BLOBSTORE_URL")

	if brokers := os.Getenv("IOTLEDGER_KAFKA_BROKERS"); brokers != "" {
		// Hostnames are case-insensitive; dedupe accordingly.
		cfg.Kafka.Brokers = strutil.DedupeAndTrimLower(strings.Split(brokers, ","))
	}
	if ttl := os.Getenv("IOTLEDGER_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.Auth.TokenTTL = d
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

