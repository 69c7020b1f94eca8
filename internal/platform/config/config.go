// Package config arma la configuración del proceso desde env y flags (viper).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"companion-connect/internal/platform/logger"

	"github.com/spf13/viper"
)

const (
	DriverDynamoDB = "dynamodb"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config es la configuración resuelta del servicio.
type Config struct {
	Port string

	StoreDriver    string
	DynamoTable    string
	AWSRegion      string
	DynamoEndpoint string
	DSN            string
	StoreTimeout   time.Duration
	ScanPageSize   int
	SessionTTL     time.Duration

	LogLevel  string
	LogFormat string
	AppName   string
}

// envBinding asocia una key de viper con su variable de entorno.
type envBinding struct {
	Key      string
	EnvVar   string
	Validate func(string) error
}

func envBindings() []envBinding {
	return []envBinding{
		{"port", "PORT", validatePort},
		{"store.driver", "STORE_DRIVER", validateDriver},
		{"store.timeout", "STORE_TIMEOUT", validateDuration},
		{"store.pagesize", "SCAN_PAGE_SIZE", validateNonNegativeInt},
		{"dynamodb.table", "DYNAMODB_TABLE", nil},
		{"dynamodb.region", "AWS_REGION", nil},
		{"dynamodb.endpoint", "DYNAMODB_ENDPOINT", nil},
		{"postgres.dsn", "DB_DSN", nil},
		{"session.ttl", "SESSION_TTL", validateDuration},
		{"log.level", "LOG_LEVEL", validateLogLevel},
		{"log.format", "LOG_FORMAT", validateLogFormat},
		{"app.name", "APP_NAME", nil},
	}
}

// SetDefaults carga los valores por defecto en v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("store.driver", "")
	v.SetDefault("store.timeout", "10s")
	v.SetDefault("store.pagesize", 0)
	v.SetDefault("dynamodb.table", "animals")
	v.SetDefault("dynamodb.region", "us-east-1")
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("app.name", "companion-connect")
}

// BindEnv asocia cada key con su variable y valida las que estén seteadas.
// Junta todos los problemas en un único error.
func BindEnv(v *viper.Viper) error {
	var problems []string
	for _, b := range envBindings() {
		if err := v.BindEnv(b.Key, b.EnvVar); err != nil {
			problems = append(problems, fmt.Sprintf("bind %s: %v", b.EnvVar, err))
			continue
		}
		if b.Validate == nil {
			continue
		}
		if val := os.Getenv(b.EnvVar); val != "" {
			if err := b.Validate(val); err != nil {
				problems = append(problems, fmt.Sprintf("invalid %s=%q: %v", b.EnvVar, val, err))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Load resuelve la Config desde v (defaults < env < flags).
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:           strings.TrimSpace(v.GetString("port")),
		StoreDriver:    strings.ToLower(strings.TrimSpace(v.GetString("store.driver"))),
		DynamoTable:    strings.TrimSpace(v.GetString("dynamodb.table")),
		AWSRegion:      strings.TrimSpace(v.GetString("dynamodb.region")),
		DynamoEndpoint: strings.TrimSpace(v.GetString("dynamodb.endpoint")),
		DSN:            strings.TrimSpace(v.GetString("postgres.dsn")),
		StoreTimeout:   v.GetDuration("store.timeout"),
		ScanPageSize:   v.GetInt("store.pagesize"),
		SessionTTL:     v.GetDuration("session.ttl"),
		LogLevel:       v.GetString("log.level"),
		LogFormat:      v.GetString("log.format"),
		AppName:        v.GetString("app.name"),
	}

	if cfg.StoreDriver == "" {
		cfg.StoreDriver = inferDriver(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// inferDriver: sin STORE_DRIVER se usa postgres si hay DSN, si no memoria.
func inferDriver(cfg Config) string {
	if cfg.DSN != "" {
		return DriverPostgres
	}
	return DriverMemory
}

func (c Config) Validate() error {
	if err := validatePort(c.Port); err != nil {
		return fmt.Errorf("port: %w", err)
	}
	if err := validateDriver(c.StoreDriver); err != nil {
		return fmt.Errorf("store driver: %w", err)
	}
	if c.StoreDriver == DriverPostgres && c.DSN == "" {
		return fmt.Errorf("store driver postgres requires DB_DSN")
	}
	if c.StoreDriver == DriverDynamoDB && c.DynamoTable == "" {
		return fmt.Errorf("store driver dynamodb requires DYNAMODB_TABLE")
	}
	if c.ScanPageSize < 0 {
		return fmt.Errorf("scan page size must be >= 0")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	return nil
}

// Addr es la dirección de escucha.
func (c Config) Addr() string {
	return ":" + c.Port
}

// LoggerOptions adapta la config al logger.
func (c Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:  logger.ParseLevel(c.LogLevel),
		Format: logger.ParseFormat(c.LogFormat),
		App:    c.AppName,
	}
}

func validatePort(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("must be a port number between 1 and 65535")
	}
	return nil
}

func validateDriver(v string) error {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case DriverDynamoDB, DriverPostgres, DriverMemory:
		return nil
	}
	return fmt.Errorf("must be one of %s, %s, %s", DriverDynamoDB, DriverPostgres, DriverMemory)
}

func validateDuration(v string) error {
	if _, err := time.ParseDuration(v); err != nil {
		return fmt.Errorf("must be a duration like 10s or 30m")
	}
	return nil
}

func validateNonNegativeInt(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fmt.Errorf("must be a non-negative integer")
	}
	return nil
}

func validateLogLevel(v string) error {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "warning", "error":
		return nil
	}
	return fmt.Errorf("must be debug, info, warn or error")
}

func validateLogFormat(v string) error {
	switch strings.ToLower(v) {
	case "json", "text", "console":
		return nil
	}
	return fmt.Errorf("must be json or text")
}
