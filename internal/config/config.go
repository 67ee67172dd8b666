// Package config loads process configuration for both services.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultAccountsBaseURL = "http://accounts-api:3002"
	DefaultCatalogPort     = "3003"
	DefaultIdentityPort    = "3001"
)

// Config holds configuration for a single service process.
type Config struct {
	ServiceName     string
	Environment     string
	Port            string
	LogLevel        string
	LogFile         string
	ShutdownTimeout time.Duration
	OTLPEndpoint    string

	Catalog  CatalogConfig
	Identity IdentityConfig
}

// CatalogConfig is what the assignment workflow consumes.
type CatalogConfig struct {
	// AccountsBaseURL is the account directory root, without trailing slash.
	AccountsBaseURL string
	// ChargeOnAssign debits the product price from the account after each
	// recorded assignment. Only the exact value "true" switches it on.
	ChargeOnAssign bool
	// AccountsTimeout bounds each directory call; zero means no client timeout.
	AccountsTimeout time.Duration
}

type IdentityConfig struct {
	// InitialCredit is the balance every new account starts with.
	InitialCredit float64
}

// Load reads .env (if present) and the environment. serviceName and
// defaultPort differ per binary.
func Load(serviceName, defaultPort string) Config {
	_ = godotenv.Load()

	return Config{
		ServiceName:     getenv("SERVICE_NAME", serviceName),
		Environment:     getenv("ENV", "dev"),
		Port:            getenv("PORT", defaultPort),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFile:         getenv("LOG_FILE", ""),
		ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		OTLPEndpoint:    strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")),
		Catalog: CatalogConfig{
			AccountsBaseURL: strings.TrimRight(getenv("ACCOUNTS_BASE_URL", DefaultAccountsBaseURL), "/"),
			ChargeOnAssign:  os.Getenv("CHARGE_ON_ASSIGN") == "true",
			AccountsTimeout: getenvDuration("ACCOUNTS_TIMEOUT", 0),
		},
		Identity: IdentityConfig{
			InitialCredit: getenvFloat("INITIAL_CREDIT", 0),
		},
	}
}

// Addr is the listen address for the configured port.
func (c Config) Addr() string {
	return ":" + c.Port
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return f
}
